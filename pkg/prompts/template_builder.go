package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-outfit-kit/pkg/domain"
)

// PromptBuilder は、AIプロンプトを構築する契約です。
type PromptBuilder interface {
	BuildAdvice(city string, gender domain.Gender, lang domain.Language) (prompt string, style string, err error)
	BuildAvatar(gender domain.Gender, outfit domain.Outfit, lang domain.Language) (prompt string, err error)
}

// TextPromptBuilder は埋め込みテンプレートからプロンプトを組み立て、スタイルと背景の選択を内包します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
	selector  Selector
}

// NewTextPromptBuilder は TextPromptBuilder を初期化します。selector が nil の場合はランダムに選びます。
func NewTextPromptBuilder(selector Selector) (*TextPromptBuilder, error) {
	if selector == nil {
		selector = NewRandomSelector()
	}

	parsedTemplates := make(map[string]*template.Template)
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}

		tmpl, err := template.New(mode).Option("missingkey=error").Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
		selector:  selector,
	}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data any) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}

// BuildAdvice は都市の天気検索とコーディネート提案を求めるプロンプトを作ります。
// 選ばれたスタイルも返します。
func (b *TextPromptBuilder) BuildAdvice(city string, gender domain.Gender, lang domain.Language) (string, string, error) {
	style := Styles[b.selector.Pick(len(Styles))]
	prompt, err := b.Build(ModeAdvice, AdviceData{
		City:    city,
		Gender:  string(gender),
		Style:   style,
		Chinese: lang.IsChinese(),
	})
	if err != nil {
		return "", "", err
	}
	return prompt, style, nil
}

// BuildAvatar はコーディネートを着たモデルの写真を求めるプロンプトを作ります。
func (b *TextPromptBuilder) BuildAvatar(gender domain.Gender, outfit domain.Outfit, lang domain.Language) (string, error) {
	return b.Build(ModeAvatar, AvatarData{
		Ethnicity: Ethnicity(lang),
		Gender:    string(gender),
		Outfit:    outfit.Describe(),
		Location:  Locations[b.selector.Pick(len(Locations))],
	})
}
