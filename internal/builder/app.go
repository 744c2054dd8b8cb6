package builder

import (
	"github.com/shouni/go-outfit-kit/internal/config"
	"github.com/shouni/go-outfit-kit/internal/metrics"
	"github.com/shouni/go-outfit-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各 Execute 関数に渡すことで、依存関係の注入を簡素化するのだ。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数・設定ファイル・フラグを統合した設定なのだ。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定なのだ（都市名、出力先など）。
	Manager *workflow.Manager      // Managerは、提案・画像・保存の各 Runner を組み立てるのだ。
	IO      *IO                    // IOは、ローカル / GCS / S3 への読み書きを担うのだ。
	Metrics *metrics.Metrics       // Metricsは、ゲートウェイ呼び出しとステージ結果の指標なのだ。CLI では nil なのだ。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(cfg *config.Config, mgr *workflow.Manager, rio *IO, m *metrics.Metrics) AppContext {
	return AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Manager: mgr,
		IO:      rio,
		Metrics: m,
	}
}

// Close はストレージのクライアントを閉じるのだ。
func (a *AppContext) Close() error {
	return a.IO.Close()
}
