package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-outfit-kit/pkg/domain"

	"github.com/shouni/go-remote-io/remoteio"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// BaseName は出力ファイル名の接頭辞です。空の場合は都市名から決めます。
	BaseName string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	AdvicePath   string // 提案 JSON のパス
	MarkdownPath string // 提案カード (Markdown) のパス
	ImagePath    string // アバター画像のパス。画像が無い場合は空
}

const (
	adviceSuffix   = "_advice.json"
	markdownSuffix = "_outfit.md"
	avatarSuffix   = "_avatar"
)

// OutfitPublisher は成果物の永続化とフォーマット変換を担います。
type OutfitPublisher struct {
	writer remoteio.OutputWriter
}

// NewOutfitPublisher は writer を使う OutfitPublisher を生成します。
// nil の場合はローカルファイルだけに書き出せる UniversalIOWriter を使います。
func NewOutfitPublisher(writer remoteio.OutputWriter) *OutfitPublisher {
	if writer == nil {
		writer = remoteio.NewUniversalIOWriter(nil, nil)
	}
	return &OutfitPublisher{writer: writer}
}

// Publish は提案 JSON、Markdown のカード、アバター画像を書き出し、生成されたファイル情報を返却します。
func (p *OutfitPublisher) Publish(ctx context.Context, advice *domain.AdviceResult, image *domain.GeneratedImage, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if advice == nil {
		return result, fmt.Errorf("提案が空のため書き出せません")
	}

	base := opts.BaseName
	if base == "" {
		base = strings.ToLower(advice.Weather.City)
	}

	// 1. 提案 JSON
	advicePath, err := ResolveOutputPath(opts.OutputDir, base+adviceSuffix)
	if err != nil {
		return result, err
	}
	payload, err := json.MarshalIndent(advice, "", "  ")
	if err != nil {
		return result, fmt.Errorf("提案の JSON 変換に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, advicePath, bytes.NewReader(payload), "application/json"); err != nil {
		return result, fmt.Errorf("提案ファイルの書き込みに失敗しました: %w", err)
	}
	result.AdvicePath = advicePath

	// 2. 画像
	imageName := ""
	if image != nil {
		data, err := image.Bytes()
		if err != nil {
			return result, fmt.Errorf("画像データのデコードに失敗しました: %w", err)
		}
		imageName = SanitizeFileName(base + avatarSuffix + image.Extension())
		imagePath, err := ResolveOutputPath(opts.OutputDir, imageName)
		if err != nil {
			return result, err
		}
		if err := p.writer.Write(ctx, imagePath, bytes.NewReader(data), image.MimeType); err != nil {
			return result, fmt.Errorf("画像の書き込みに失敗しました %s: %w", imagePath, err)
		}
		result.ImagePath = imagePath
	}

	// 3. Markdown
	markdownPath, err := ResolveOutputPath(opts.OutputDir, base+markdownSuffix)
	if err != nil {
		return result, err
	}
	content := BuildMarkdown(advice, imageName)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	slog.InfoContext(ctx, "成果物を書き出しました", "advice", result.AdvicePath, "image", result.ImagePath)
	return result, nil
}

// BuildMarkdown は提案を表示用の Markdown に整形します。imagePath が空なら画像行を省きます。
func BuildMarkdown(advice *domain.AdviceResult, imagePath string) string {
	var sb strings.Builder
	w := advice.Weather
	fmt.Fprintf(&sb, "# %s\n\n", w.City)
	fmt.Fprintf(&sb, "- temp: %s\n", w.Temperature)
	fmt.Fprintf(&sb, "- range: %s\n", w.TemperatureRange)
	fmt.Fprintf(&sb, "- condition: %s\n", w.Condition)
	if w.Humidity != "" {
		fmt.Fprintf(&sb, "- humidity: %s\n", w.Humidity)
	}

	sb.WriteString("\n## Outfit\n\n")
	for _, item := range advice.Outfit {
		fmt.Fprintf(&sb, "- [%s] %s\n", item.Category, item.Describe())
	}

	if imagePath != "" {
		fmt.Fprintf(&sb, "\n![avatar](%s)\n", imagePath)
	}
	return sb.String()
}
