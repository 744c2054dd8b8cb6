package cmd

import (
	"fmt"

	"github.com/shouni/go-outfit-kit/internal/config"
	"github.com/shouni/go-outfit-kit/internal/logger"
	"github.com/shouni/go-outfit-kit/internal/settings"
	pkgconfig "github.com/shouni/go-outfit-kit/pkg/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

const appName = "outfit"

// opts はサブコマンド間で共有するフラグの値なのだ。
var opts config.GenerateOptions

var (
	logLevel  string
	logFormat string
)

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
// --verbose と --config は clibase が用意してくれるのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ログ ---
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "ログレベル（debug/info/warn/error）なのだ。")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "ログ形式（text/json）なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "成果物を保存するディレクトリ（ローカル or gs://... or s3://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ImageModel, "model", "m", "", fmt.Sprintf("画像モデル %v なのだ。", pkgconfig.ImageModelAliases()))
	rootCmd.PersistentFlags().StringVarP(&opts.Language, "lang", "l", "", "応答の言語（en / cn）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Gender, "gender", "g", "", "アバターの性別（male / female）なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "ゲートウェイ呼び出しのタイムアウトなのだ（既定 120s）。")
	rootCmd.PersistentFlags().IntVar(&opts.MaxRetries, "retries", 0, "429/5xx/通信エラー時の再試行回数なのだ。")
}

// initLogger は環境変数とフラグからログの設定を決めるのだ。
// --verbose が付いていれば、ほかの指定より debug を優先するのだ。
func initLogger(cmd *cobra.Command, args []string) error {
	cfg := loadEnvConfig()
	level, format := cfg.LogLevel, cfg.LogFormat
	if logLevel != "" {
		level = logLevel
	}
	if clibase.Flags.Verbose {
		level = "debug"
	}
	if logFormat != "" {
		format = logFormat
	}
	logger.Init(level, format)
	return nil
}

// loadEnvConfig は環境変数を読み込み、--config があれば設定ファイルの場所を差し替えるのだ。
func loadEnvConfig() *config.Config {
	cfg := config.LoadConfig()
	if clibase.Flags.ConfigFile != "" {
		cfg.SettingsFile = clibase.Flags.ConfigFile
	}
	return cfg
}

// loadConfig は環境変数、設定ファイル、フラグの順に設定を重ねるのだ。
func loadConfig() *config.Config {
	cfg := loadEnvConfig()
	cfg.ApplyOptions(opts)
	return cfg
}

// preRunAppE は、コマンド実行前に API キーの有無をチェックするのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	cfg := loadEnvConfig()
	if cfg.APIKey != "" {
		return nil
	}
	s, err := settings.Load(cfg.SettingsFile)
	if err == nil && s.APIKey != "" {
		return nil
	}
	return fmt.Errorf("エラー: API キーが見つからないのだ。OUTFIT_API_KEY を設定するか 'outfit settings set api_key <key>' を実行してほしいのだ")
}

// commands はルートにぶら下げるサブコマンドの一覧なのだ。
func commands() []*cobra.Command {
	return []*cobra.Command{adviceCmd, imageCmd, pingCmd, serveCmd, settingsCmd}
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(appName, addAppFlags, initLogger, commands()...)
}
