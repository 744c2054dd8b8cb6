package cmd

import (
	"log/slog"

	"github.com/shouni/go-outfit-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// imageCmd は、保存済みの提案 JSON を読み込んでアバター画像だけを作り直すためのサブコマンドなのだ。
// 提案の取得をスキップして、画像生成（Phase 2）とパブリッシュ（Phase 3）のみを行うのだ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "提案 JSON からアバター画像を生成して保存するのだ。",
	Long: `advice コマンドが保存した提案 JSON を読み込み、アバター画像の生成と保存を実行するのだ。
テキスト生成のコストを抑えつつ、別のモデルで画像を作り直したい場合に便利なのだ。`,
	PreRunE: preRunAppE,
	RunE:    imageCommand,
}

// init は、image コマンドに必要なフラグを定義するための初期化関数なのだ。
func init() {
	imageCmd.Flags().StringVarP(&opts.AdviceFile, "advice-file", "f", "", "読み込む提案 JSON のパスなのだ（省略時は同梱のサンプル）。")
}

// imageCommand は、image サブコマンドの実行ロジック本体なのだ。
// 設定のバリデーションを行い、pipeline.ExecuteImageOnly を呼び出して一連の処理をキックするのだ。
func imageCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 環境変数とフラグから設定をロード
	cfg := loadConfig()

	slog.Info("画像生成モードを起動するのだ！",
		"input_json", cfg.Options.AdviceFile,
		"output_dir", cfg.Options.OutputDir,
		"image_model", cfg.ImageModel)

	// 2. パイプライン実行
	return pipeline.ExecuteImageOnly(ctx, cfg, cmd.OutOrStdout())
}
