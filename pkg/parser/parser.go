package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/domain"

	"github.com/shouni/go-remote-io/remoteio"
)

// ErrInvalidFormat は AI の応答が期待する JSON でなかった場合のメッセージです。
const ErrInvalidFormat = "AI returned invalid format"

// Parser は解析するためのインターフェースを定義します。
type Parser interface {
	Parse(text string) (*domain.AdviceResult, error)
	ParseFromPath(ctx context.Context, path string) (*domain.AdviceResult, error)
}

// AdviceParser は AI が返したテキストを AdviceResult に変換する構造体です。
type AdviceParser struct {
	reader remoteio.InputReader
}

// NewAdviceParser は新しい AdviceParser インスタンスを生成します。
// r が nil の場合はローカルファイルだけを読める UniversalInputReader を使います。
func NewAdviceParser(r remoteio.InputReader) *AdviceParser {
	if r == nil {
		r = remoteio.NewUniversalInputReader(nil, nil)
	}
	return &AdviceParser{reader: r}
}

// StripCodeFences は ```json と ``` を取り除き、前後の空白を除去します。
func StripCodeFences(text string) string {
	text = JSONFenceRegex.ReplaceAllString(text, "")
	text = FenceRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Parse はフェンスを除去したテキストを厳密な JSON として解釈し、気温表記を正規化します。
// 解釈できない場合や必須フィールドが欠けている場合は KindFormat のエラーを返します。
func (p *AdviceParser) Parse(text string) (*domain.AdviceResult, error) {
	return ParseAdvice(text)
}

// ParseAdvice は Parse のパッケージ関数版です。
func ParseAdvice(text string) (*domain.AdviceResult, error) {
	payload := StripCodeFences(text)

	var w wireAdvice
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		slog.Warn("AI の応答を JSON として解析できませんでした", "error", err, "text", truncate(text, 200))
		return nil, apperr.Wrap(err, apperr.KindFormat, ErrInvalidFormat)
	}

	advice := w.toDomain()
	if err := advice.Validate(); err != nil {
		slog.Warn("AI の応答に必須フィールドがありません", "error", err)
		return nil, apperr.Wrap(err, apperr.KindFormat, ErrInvalidFormat)
	}
	advice.Weather.NormalizeTemperature()
	return advice, nil
}

// ParseFromPath は GCS / S3 の URI やローカルパスから保存済みの提案 JSON を読み込み、解析して返します。
func (p *AdviceParser) ParseFromPath(ctx context.Context, path string) (*domain.AdviceResult, error) {
	slog.InfoContext(ctx, "提案ファイルを読み込んでいます", "path", path)
	rc, err := p.reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("提案ファイルのオープンに失敗しました (%s): %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("提案ファイルの読み込みに失敗しました (%s): %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("提案ファイルが空です: %s", path)
	}
	return p.Parse(string(data))
}

// wireAdvice は AI の出力ゆれ（数値の気温など）を吸収する受け皿です。
type wireAdvice struct {
	Weather struct {
		City      flexString `json:"city"`
		Temp      flexString `json:"temp"`
		TempRange flexString `json:"tempRange"`
		Condition flexString `json:"condition"`
		Humidity  flexString `json:"humidity"`
	} `json:"weather"`
	Outfit []struct {
		ID    flexString `json:"id"`
		Name  flexString `json:"name"`
		Color flexString `json:"color"`
		Type  flexString `json:"type"`
	} `json:"outfit"`
}

func (w wireAdvice) toDomain() *domain.AdviceResult {
	advice := &domain.AdviceResult{
		Weather: domain.WeatherRecommendation{
			City:             string(w.Weather.City),
			Temperature:      string(w.Weather.Temp),
			TemperatureRange: string(w.Weather.TempRange),
			Condition:        string(w.Weather.Condition),
			Humidity:         string(w.Weather.Humidity),
		},
		Outfit: make(domain.Outfit, 0, len(w.Outfit)),
	}
	for _, item := range w.Outfit {
		category := domain.Category(item.Type)
		if !category.Valid() {
			// 未知の種別でも捨てずにそのまま使います。
			slog.Debug("未知のアイテム種別です", "type", category, "name", item.Name)
		}
		advice.Outfit = append(advice.Outfit, domain.OutfitItem{
			ID:       string(item.ID),
			Name:     string(item.Name),
			Color:    string(item.Color),
			Category: category,
		})
	}
	return advice
}

// flexString は JSON の文字列・数値・null を文字列として受け取ります。
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("文字列または数値を期待しましたが %s でした", b)
	}
	*f = flexString(n.String())
	return nil
}
