package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultImageMimeType は応答に MIME タイプが含まれない場合の既定値です。
const DefaultImageMimeType = "image/png"

// GeneratedImage は画像生成ステージの成果物です。新しい画像は以前の画像を置き換えます。
type GeneratedImage struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// DataURI はブラウザでそのまま表示できる data URI を返します。
func (g GeneratedImage) DataURI() string {
	mime := g.MimeType
	if mime == "" {
		mime = DefaultImageMimeType
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, g.Data)
}

// Bytes は base64 データをデコードして返します。
func (g GeneratedImage) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(g.Data)
	if err != nil {
		return nil, fmt.Errorf("画像データの base64 デコードに失敗しました: %w", err)
	}
	return b, nil
}

// Extension は MIME タイプに対応するファイル拡張子を返します。
func (g GeneratedImage) Extension() string {
	preferred := map[string]string{"image/png": ".png", "image/jpeg": ".jpg", "image/webp": ".webp"}
	if ext, ok := preferred[strings.ToLower(g.MimeType)]; ok {
		return ext
	}
	return ".png"
}
