package domain

import "strings"

// Language は AI に応答させる言語です。
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "cn"
)

// ParseLanguage は言語コードを正規化します。未知のコードは英語として扱います。
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cn", "zh", "zh-cn", "zh-hans":
		return LanguageChinese
	default:
		return LanguageEnglish
	}
}

// IsChinese は簡体字中国語かどうかを返します。
func (l Language) IsChinese() bool {
	return l == LanguageChinese
}

// Gender はコーディネート対象の性別です。
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender は性別を正規化します。未知の値は female として扱います。
func ParseGender(s string) Gender {
	if strings.EqualFold(strings.TrimSpace(s), string(GenderMale)) {
		return GenderMale
	}
	return GenderFemale
}

// ModelAlias はユーザー向けの画像モデル名です。具体的なモデルIDへの解決は config パッケージが行います。
type ModelAlias string

const (
	ModelNanoBanana    ModelAlias = "nano-banana"
	ModelNanoBananaPro ModelAlias = "nano-banana-pro"
)
