package prompts

import "github.com/shouni/go-outfit-kit/pkg/domain"

// Styles は提案ごとに1つ選ばれるファッションの方向性です。
var Styles = []string{
	"Minimalist Korean (Clean lines, neutral tones)",
	"Urban Streetwear (Oversized, layered, textures)",
	"Modern Business (Smart casual, blazers, sleek)",
	"Old Money Aesthetic (Polished, cashmere, earth tones)",
	"City Boy / City Girl (Japanese magazine style, relaxed)",
	"Athleisure Luxe (Functional, sporty but expensive looking)",
	"Neo-Vintage (Retro pieces mixed with modern)",
}

// Locations はアバター画像の背景候補です。
var Locations = []string{
	"minimalist concrete architectural space with soft daylight",
	"busy futuristic tokyo street crossing, bokeh depth of field",
	"modern art gallery interior, clean white walls",
	"luxury coffee shop with glass windows, warm lighting",
	"rooftop garden at sunset, city skyline in background",
}

// Ethnicity は言語設定からモデルの人物像を決めます。
func Ethnicity(lang domain.Language) string {
	if lang.IsChinese() {
		return "East Asian"
	}
	return "Global"
}
