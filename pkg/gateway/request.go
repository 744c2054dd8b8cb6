package gateway

// Request は generateContent に送るリクエストボディです。
type Request struct {
	Contents []Content `json:"contents"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// Content はパーツの集まりです。
type Content struct {
	Parts []Part `json:"parts"`
}

// Part はテキストのみを送るパーツです。
type Part struct {
	Text string `json:"text"`
}

// Tool はモデルに付与するツール指定です。
type Tool struct {
	GoogleSearch *GoogleSearch `json:"googleSearch,omitempty"`
}

// GoogleSearch は Web 検索によるグラウンディングを要求します。空オブジェクトとして送られます。
type GoogleSearch struct{}

// NewTextRequest は単一のテキストパーツからなるリクエストを作成します。
func NewTextRequest(prompt string) Request {
	return Request{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}
}

// WithGoogleSearch は Web 検索ツールを付与したリクエストを返します。
func (r Request) WithGoogleSearch() Request {
	r.Tools = append(append([]Tool(nil), r.Tools...), Tool{GoogleSearch: &GoogleSearch{}})
	return r
}
