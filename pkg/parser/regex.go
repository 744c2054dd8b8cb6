package parser

import "regexp"

var (
	// JSONFenceRegex は大文字小文字を問わず ```json の開始フェンスを特定します。
	JSONFenceRegex = regexp.MustCompile("(?i)```json")

	// FenceRegex は残りのフェンス記号を特定します。
	FenceRegex = regexp.MustCompile("```")
)
