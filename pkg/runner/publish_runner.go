package runner

import (
	"context"

	"github.com/shouni/go-outfit-kit/pkg/config"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/publisher"
)

// DefaultPublisherRunner は pkg/publisher を利用した標準実装です。
type DefaultPublisherRunner struct {
	cfg       config.Config
	publisher *publisher.OutfitPublisher
}

func NewDefaultPublisherRunner(cfg config.Config, pub *publisher.OutfitPublisher) *DefaultPublisherRunner {
	return &DefaultPublisherRunner{
		cfg:       cfg,
		publisher: pub,
	}
}

func (pr *DefaultPublisherRunner) Run(ctx context.Context, advice *domain.AdviceResult, image *domain.GeneratedImage, outputDir string) (publisher.PublishResult, error) {
	opts := publisher.Options{
		OutputDir: outputDir,
	}

	return pr.publisher.Publish(ctx, advice, image, opts)
}

// BuildMarkdown は保存処理を行わず、提案から Markdown 文字列のみを生成して返却します。
func (pr *DefaultPublisherRunner) BuildMarkdown(advice *domain.AdviceResult) string {
	return publisher.BuildMarkdown(advice, "")
}
