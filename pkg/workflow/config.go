package workflow

import (
	"github.com/shouni/go-outfit-kit/pkg/config"
)

// Config は Go Outfit Kit の各 Runner を動作させるための基本設定です。
type Config = config.Config

// NewConfig はデフォルト値で初期化された Config を作成し、必要最小限の値をセットして返します。
func NewConfig(apiKey string) Config {
	return config.NewConfig(apiKey)
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return config.DefaultConfig()
}
