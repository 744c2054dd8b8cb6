// Package settings は API キー・ゲートウェイ・画像モデルを1つの YAML ファイルとして保存するのだ。
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	keyAPIKey  = "api_key"
	keyBaseURL = "base_url"
	keyModel   = "model"
)

// Keys は settings set で指定できるキーの一覧なのだ。
var Keys = []string{keyAPIKey, keyBaseURL, keyModel}

// Settings は利用者ごとの設定の塊なのだ。コアのパイプラインはこれを持たないのだ。
type Settings struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// DefaultPath は既定の設定ファイルのパスを返すのだ。
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "outfit-settings.yaml"
	}
	return filepath.Join(dir, "go-outfit-kit", "settings.yaml")
}

// Load は設定ファイルを読み込むのだ。ファイルが無い場合は空の設定を返すのだ。
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("設定ファイル %s の読み込みに失敗したのだ: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("設定ファイル %s の解析に失敗したのだ: %w", path, err)
	}
	return s, nil
}

// Save は設定ファイルを書き出すのだ。API キーを含むので所有者だけが読めるようにするのだ。
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("設定ディレクトリの作成に失敗したのだ: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set(keyAPIKey, s.APIKey)
	v.Set(keyBaseURL, s.BaseURL)
	v.Set(keyModel, s.Model)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("設定ファイル %s の書き込みに失敗したのだ: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

// Set はキーを指定して1項目だけ更新するのだ。
func (s *Settings) Set(key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case keyAPIKey:
		s.APIKey = strings.TrimSpace(value)
	case keyBaseURL:
		s.BaseURL = strings.TrimSpace(value)
	case keyModel:
		s.Model = strings.TrimSpace(value)
	default:
		return fmt.Errorf("未知の設定キーなのだ: %q (%s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// MaskedAPIKey は表示用に末尾4文字以外を伏せた API キーを返すのだ。
func (s Settings) MaskedAPIKey() string {
	k := []rune(s.APIKey)
	if len(k) == 0 {
		return ""
	}
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + string(k[len(k)-4:])
}
