package prompts

import (
	_ "embed"
)

const (
	ModeAdvice = "advice"
	ModeAvatar = "avatar"
)

// AdviceData は天気・コーディネート提案プロンプトに渡すデータ構造です。
type AdviceData struct {
	City    string
	Gender  string
	Style   string
	Chinese bool
}

// AvatarData はアバター画像プロンプトに渡すデータ構造です。
type AvatarData struct {
	Ethnicity string
	Gender    string
	Outfit    string
	Location  string
}

var (
	//go:embed templates/advice.tmpl
	AdvicePrompt string
	//go:embed templates/avatar.tmpl
	AvatarPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[string]string{
	ModeAdvice: AdvicePrompt,
	ModeAvatar: AvatarPrompt,
}
