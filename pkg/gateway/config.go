package gateway

import (
	"strings"
)

// DefaultProxy は BaseURL 未指定時に使うゲートウェイのオリジンです。
const DefaultProxy = "https://proxy.flydao.top/v1"

// Config は1回の呼び出しに使う認証情報と接続先です。永続化は呼び出し側の責務です。
type Config struct {
	APIKey  string
	BaseURL string
}

// Key は前後の空白を除いた API キーを返します。
func (c Config) Key() string {
	return strings.TrimSpace(c.APIKey)
}

// Endpoint は末尾のスラッシュを取り除いたベースURLを返します。未指定なら DefaultProxy です。
func (c Config) Endpoint() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultProxy
	}
	return strings.TrimRight(base, "/")
}

// GenerateContentURL は指定モデルの generateContent エンドポイントURLを組み立てます。
func (c Config) GenerateContentURL(modelID string) string {
	return c.Endpoint() + "/models/" + modelID + ":generateContent"
}
