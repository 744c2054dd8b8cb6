package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-outfit-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// adviceCmd は、都市名から天気とコーディネートを提案させ、アバター画像まで生成するのだ。
var adviceCmd = &cobra.Command{
	Use:   "advice <city>",
	Short: "都市の天気に合わせたコーディネートとアバター画像を生成するのだ。",
	Long: `都市名を AI に渡して天気とコーディネートの提案を取得し、続けてアバター画像を生成するのだ。
都市名を省略した場合は標準入力の1行目を使うのだよ。
出力は提案 JSON、Markdown、画像ファイルになるのだ。`,
	PreRunE: preRunAppE,
	RunE:    adviceCommand,
}

func init() {
	adviceCmd.Flags().BoolVar(&opts.NoImage, "no-image", false, "画像生成をスキップして提案だけを保存するのだ。")
}

func adviceCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 都市名の決定
	city := strings.TrimSpace(strings.Join(args, " "))
	if city == "" && isStdin() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("標準入力から都市名を読み込めなかったのだ: %w", err)
		}
		city = strings.TrimSpace(line)
	}
	if city == "" {
		return fmt.Errorf("都市名を指定してほしいのだ")
	}
	opts.City = city

	// 2. 環境変数とフラグから設定をロードするのだ
	cfg := loadConfig()

	slog.Info("コーディネート提案を開始するのだ！",
		"city", city,
		"image_model", cfg.ImageModel,
		"lang", cfg.Language,
		"no_image", opts.NoImage,
		"output_dir", opts.OutputDir)

	// 3. パイプライン実行
	if err := pipeline.ExecuteAdvice(ctx, cfg, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
