package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-outfit-kit/internal/config"
	"github.com/shouni/go-outfit-kit/internal/metrics"
	"github.com/shouni/go-outfit-kit/internal/settings"
	"github.com/shouni/go-outfit-kit/pkg/workflow"
)

// BuildAppContext は設定ファイルを反映したうえで入出力と Manager を初期化するのだ。
// m が nil のときは指標を取らないのだ。CLI は /metrics を公開しないので nil を渡すのだ。
// 使い終わったら AppContext.Close を呼んでほしいのだ。
func BuildAppContext(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*AppContext, error) {
	s, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		slog.WarnContext(ctx, "設定ファイルを読み込めなかったので無視するのだ", "path", cfg.SettingsFile, "error", err)
	} else {
		cfg.ApplySettings(s)
	}

	rio, err := InitializeIO(ctx, cfg.Options.OutputDir, cfg.Options.AdviceFile)
	if err != nil {
		return nil, err
	}

	mgr, err := InitializeManager(cfg, rio, m)
	if err != nil {
		_ = rio.Close()
		return nil, err
	}

	appCtx := NewAppContext(cfg, mgr, rio, m)
	return &appCtx, nil
}

// InitializeManager は remoteio を読み書きに使い、m があればゲートウェイ呼び出しを観測する Manager を作るのだ。
func InitializeManager(cfg *config.Config, rio *IO, m *metrics.Metrics) (*workflow.Manager, error) {
	args := workflow.ManagerArgs{Config: cfg.Workflow()}
	if rio != nil {
		args.Reader = rio.Reader
		args.Writer = rio.Writer
	}
	if m != nil {
		args.Observer = m
	}
	mgr, err := workflow.New(args)
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗したのだ: %w", err)
	}
	return mgr, nil
}

// BuildSession は、状態の変化をログに流す Session を構築するのだ。
func BuildSession(appCtx *AppContext) (*workflow.Session, error) {
	reporter := workflow.ReporterFunc(func(s workflow.Snapshot) {
		slog.Debug("状態が変わったのだ", "state", s.State, "city", s.City)
	})
	session, err := appCtx.Manager.NewSession(reporter)
	if err != nil {
		return nil, fmt.Errorf("Sessionの構築に失敗したのだ: %w", err)
	}
	return session, nil
}
