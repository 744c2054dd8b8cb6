package parser

// truncate はログ出力用にテキストを先頭 n 文字までに切り詰めます。
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
