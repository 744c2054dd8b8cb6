package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-outfit-kit/internal/settings"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/workflow"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultListenAddr   = ":8080"
	DefaultOutputDir    = "output"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultHTTPTimeout  = 120 * time.Second
	DefaultRateInterval = 0 * time.Second
)

// Config はアプリケーション全体の環境設定（APIキーやゲートウェイ）を保持する構造体なのだ。
type Config struct {
	APIKey       string
	BaseURL      string
	ImageModel   string
	Language     string
	Gender       string
	HTTPTimeout  time.Duration
	MaxRetries   int
	RateInterval time.Duration
	ListenAddr   string
	SettingsFile string
	LogLevel     string
	LogFormat    string

	// AllowPrivateNetwork はループバックや社内のゲートウェイへの接続を許可するのだ。
	AllowPrivateNetwork bool

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
// .env が無くてもエラーにはしないのだ。
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env は読み込まれなかったのだ", "error", err)
	}

	apiKey := envutil.GetEnv("OUTFIT_API_KEY", "")
	if apiKey == "" {
		apiKey = envutil.GetEnv("GEMINI_API_KEY", "")
	}

	return &Config{
		APIKey:       apiKey,
		BaseURL:      envutil.GetEnv("OUTFIT_BASE_URL", ""),
		ImageModel:   envutil.GetEnv("OUTFIT_IMAGE_MODEL", ""),
		Language:     envutil.GetEnv("OUTFIT_LANGUAGE", string(domain.LanguageEnglish)),
		Gender:       envutil.GetEnv("OUTFIT_GENDER", string(domain.GenderFemale)),
		HTTPTimeout:  parseDuration(envutil.GetEnv("OUTFIT_HTTP_TIMEOUT", ""), DefaultHTTPTimeout),
		MaxRetries:   parseInt(envutil.GetEnv("OUTFIT_MAX_RETRIES", ""), 0),
		RateInterval: parseDuration(envutil.GetEnv("OUTFIT_RATE_INTERVAL", ""), DefaultRateInterval),
		ListenAddr:   envutil.GetEnv("OUTFIT_LISTEN_ADDR", DefaultListenAddr),
		SettingsFile: envutil.GetEnv("OUTFIT_SETTINGS_FILE", settings.DefaultPath()),
		LogLevel:     envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    envutil.GetEnv("LOG_FORMAT", DefaultLogFormat),

		AllowPrivateNetwork: parseBool(envutil.GetEnv("OUTFIT_ALLOW_PRIVATE_NETWORK", "")),
	}
}

// ApplySettings は設定ファイルの値で、環境変数が空の項目だけを埋めるのだ。
// 優先順位は CLI フラグ > 環境変数 > 設定ファイル > 既定値なのだ。
func (c *Config) ApplySettings(s settings.Settings) {
	if c.APIKey == "" {
		c.APIKey = s.APIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = s.BaseURL
	}
	if c.ImageModel == "" {
		c.ImageModel = s.Model
	}
}

// ApplyOptions は CLI フラグで指定された値を反映するのだ。
func (c *Config) ApplyOptions(opts GenerateOptions) {
	c.Options = opts
	if opts.ImageModel != "" {
		c.ImageModel = opts.ImageModel
	}
	if opts.Language != "" {
		c.Language = opts.Language
	}
	if opts.Gender != "" {
		c.Gender = opts.Gender
	}
	if opts.HTTPTimeout > 0 {
		c.HTTPTimeout = opts.HTTPTimeout
	}
	if opts.MaxRetries > 0 {
		c.MaxRetries = opts.MaxRetries
	}
}

// Gateway は1回の呼び出しに使う認証情報を返すのだ。
func (c *Config) Gateway() gateway.Config {
	return gateway.Config{APIKey: c.APIKey, BaseURL: c.BaseURL}
}

// Workflow はライブラリ側の設定に変換するのだ。
func (c *Config) Workflow() workflow.Config {
	cfg := workflow.NewConfig(c.APIKey)
	cfg.Gateway = c.Gateway()
	if c.ImageModel != "" {
		cfg.ModelAlias = domain.ModelAlias(c.ImageModel)
	}
	cfg.Language = domain.ParseLanguage(c.Language)
	cfg.Gender = domain.ParseGender(c.Gender)
	cfg.HTTPTimeout = c.HTTPTimeout
	cfg.MaxRetries = c.MaxRetries
	cfg.RateInterval = c.RateInterval
	cfg.AllowPrivateNetwork = c.AllowPrivateNetwork
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力関連
	City       string // advice の引数
	AdviceFile string // --advice-file: image コマンドで使う保存済みの提案

	// 出力関連
	OutputDir string // --output-dir
	NoImage   bool   // --no-image

	// AI挙動設定
	ImageModel string // --model: nano-banana / nano-banana-pro
	Language   string // --lang: en / cn
	Gender     string // --gender: male / female

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
	MaxRetries  int           // --retries
}

func parseDuration(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("時間の指定を解釈できないので既定値を使うのだ", "value", s, "default", def)
		return def
	}
	return d
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		slog.Warn("数値の指定を解釈できないので既定値を使うのだ", "value", s, "default", def)
		return def
	}
	return n
}

func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		slog.Warn("真偽値の指定を解釈できないので false として扱うのだ", "value", s)
		return false
	}
	return b
}
