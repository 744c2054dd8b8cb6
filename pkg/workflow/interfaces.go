package workflow

import (
	"context"

	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/publisher"
	"github.com/shouni/go-outfit-kit/pkg/runner"
)

// Workflow は、提案ワークフローの各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildAdviceRunner() (AdviceRunner, error)
	BuildAvatarRunner() (AvatarRunner, error)
	BuildPublishRunner() (PublishRunner, error)
}

// AdviceRunner は、都市名から天気とコーディネートの提案を生成する責務を持ちます。
type AdviceRunner interface {
	Run(ctx context.Context, req runner.AdviceRequest, gw gateway.Config) (*domain.AdviceResult, error)
}

// AvatarRunner は、コーディネートからアバター画像を生成する責務を持ちます。
type AvatarRunner interface {
	Run(ctx context.Context, req runner.AvatarRequest, gw gateway.Config) (*domain.GeneratedImage, error)
}

// PublishRunner は、提案と画像をファイルとして書き出す責務を持ちます。
type PublishRunner interface {
	Run(ctx context.Context, advice *domain.AdviceResult, image *domain.GeneratedImage, outputDir string) (publisher.PublishResult, error)
	BuildMarkdown(advice *domain.AdviceResult) string
}

// Connectivity は認証情報とゲートウェイの疎通を確認する責務を持ちます。
type Connectivity interface {
	TestConnectivity(ctx context.Context, gw gateway.Config) (*gateway.Envelope, error)
}
