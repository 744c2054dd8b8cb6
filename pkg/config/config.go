package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
)

// デフォルト値の定義
const (
	DefaultTextModel    = "gemini-2.5-flash"
	DefaultModelAlias   = domain.ModelNanoBanana
	DefaultLanguage     = domain.LanguageEnglish
	DefaultGender       = domain.GenderFemale
	DefaultHTTPTimeout  = gateway.DefaultTimeout
	DefaultRateInterval = 0 * time.Second
	DefaultMaxRetries   = 0
)

// imageModels はユーザー向けのモデル名から実際のモデルIDへの静的な対応表です。
var imageModels = map[domain.ModelAlias]string{
	domain.ModelNanoBanana:    "gemini-2.5-flash-image",
	domain.ModelNanoBananaPro: "gemini-3-pro-image-preview",
}

// ResolveImageModel はモデル名を具体的なモデルIDに解決します。空の場合は既定のモデルを使います。
func ResolveImageModel(alias domain.ModelAlias) (string, error) {
	if strings.TrimSpace(string(alias)) == "" {
		alias = DefaultModelAlias
	}
	id, ok := imageModels[alias]
	if !ok {
		return "", apperr.Newf(apperr.KindConfig, "Unknown image model: %s", alias)
	}
	return id, nil
}

// ImageModelAliases はサポートしているモデル名の一覧を返します。
func ImageModelAliases() []domain.ModelAlias {
	return []domain.ModelAlias{domain.ModelNanoBanana, domain.ModelNanoBananaPro}
}

// Config は Go Outfit Kit の各 Runner を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	TextModel  string
	ModelAlias domain.ModelAlias

	// --- Gateway Settings ---
	Gateway gateway.Config

	// AllowPrivateNetwork はループバックやプライベートアドレスのゲートウェイへの接続を許可します。
	AllowPrivateNetwork bool

	// --- Generation Settings ---
	Language domain.Language
	Gender   domain.Gender

	// --- Timeout & Retries ---
	HTTPTimeout  time.Duration
	MaxRetries   int
	RateInterval time.Duration
}

// NewConfig はデフォルト値で初期化された Config に API キーをセットして返します。
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig()
	cfg.Gateway.APIKey = apiKey
	return cfg
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		TextModel:    DefaultTextModel,
		ModelAlias:   DefaultModelAlias,
		Language:     DefaultLanguage,
		Gender:       DefaultGender,
		HTTPTimeout:  DefaultHTTPTimeout,
		MaxRetries:   DefaultMaxRetries,
		RateInterval: DefaultRateInterval,
	}
}

// Validate は設定値の整合性を確認します。API キーの有無は呼び出し時に検証されるため、ここでは見ません。
func (c Config) Validate() error {
	if c.TextModel == "" {
		return fmt.Errorf("TextModel が空です")
	}
	if _, err := ResolveImageModel(c.ModelAlias); err != nil {
		return err
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries は 0 以上である必要があります: %d", c.MaxRetries)
	}
	return nil
}
