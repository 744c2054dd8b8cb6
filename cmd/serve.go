package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-outfit-kit/internal/builder"
	"github.com/shouni/go-outfit-kit/internal/logger"
	"github.com/shouni/go-outfit-kit/internal/metrics"
	"github.com/shouni/go-outfit-kit/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	listenAddr  string
	corsOrigins []string
)

// serveCmd は、ブラウザ UI 向けの HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "ブラウザ UI 向けの HTTP API を起動するのだ。",
	Long: `提案・画像生成・疎通確認を HTTP API として公開するのだ。
認証情報はリクエストの Authorization ヘッダー、無ければサーバーの設定を使うのだよ。
SIGINT/SIGTERM を受け取ると処理中のリクエストを待ってから停止するのだ。`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "待ち受けアドレスなのだ（既定は OUTFIT_LISTEN_ADDR か :8080）。")
	serveCmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "CORS で許可するオリジンなのだ（既定は *）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if logger.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg, metrics.New())
	if err != nil {
		return err
	}
	defer appCtx.Close()
	if appCtx.Config.APIKey == "" {
		slog.Warn("既定の API キーが無いので、リクエストごとの Authorization ヘッダーが必要なのだ")
	}

	srv, err := server.New(appCtx.Manager, appCtx.Metrics, appCtx.Config.Gateway(), server.Options{AllowedOrigins: corsOrigins})
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗したのだ: %w", err)
	}
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}
