package gateway

import (
	"encoding/json"
	"fmt"
)

// DefaultInlineMimeType はインラインデータに MIME タイプが無い場合の既定値です。
const DefaultInlineMimeType = "image/png"

// Envelope は generateContent の応答を正規化した形です。
// ゲートウェイやプロキシによって camelCase と snake_case のフィールド名が混在するため、
// デコード時に一つの形へ揃え、以降の処理には持ち込みません。
type Envelope struct {
	Candidates []Candidate
	Usage      *Usage
}

// Candidate は応答候補の1つです。
type Candidate struct {
	Parts        []ResponsePart
	FinishReason string
}

// ResponsePart はテキストまたはインラインデータのどちらかを持ちます。
type ResponsePart struct {
	Text       string
	InlineData *Blob
}

// Blob は base64 エンコードされたバイナリと MIME タイプです。
type Blob struct {
	MimeType string
	Data     string
}

// Usage はトークン使用量です。ゲートウェイが返さない場合は nil です。
type Usage struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
}

// DecodeEnvelope は応答ボディを解析して Envelope を返します。
// ボディが JSON として解釈できない場合のみエラーになり、期待するパスが無いことはエラーにしません。
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("応答ボディの JSON 解析に失敗しました: %w", err)
	}

	env := &Envelope{}
	obj := asObject(root)
	for _, c := range asArray(obj["candidates"]) {
		env.Candidates = append(env.Candidates, normalizeCandidate(asObject(c)))
	}
	if usage := asObject(firstOf(obj, "usageMetadata", "usage_metadata")); usage != nil {
		env.Usage = &Usage{
			PromptTokens:     asInt(firstOf(usage, "promptTokenCount", "prompt_token_count")),
			CandidatesTokens: asInt(firstOf(usage, "candidatesTokenCount", "candidates_token_count")),
			TotalTokens:      asInt(firstOf(usage, "totalTokenCount", "total_token_count")),
		}
	}
	return env, nil
}

func normalizeCandidate(obj map[string]any) Candidate {
	c := Candidate{
		FinishReason: firstString(obj, "finishReason", "finish_reason"),
	}
	content := asObject(obj["content"])
	for _, p := range asArray(content["parts"]) {
		c.Parts = append(c.Parts, normalizePart(asObject(p)))
	}
	return c
}

func normalizePart(obj map[string]any) ResponsePart {
	part := ResponsePart{Text: asString(obj["text"])}

	// camelCase を優先し、データが無ければ snake_case を見ます。
	for _, key := range []string{"inlineData", "inline_data"} {
		blob := asObject(obj[key])
		data := asString(blob["data"])
		if data == "" {
			continue
		}
		mime := firstString(blob, "mimeType", "mime_type")
		if mime == "" {
			mime = DefaultInlineMimeType
		}
		part.InlineData = &Blob{MimeType: mime, Data: data}
		break
	}
	return part
}

// ExtractText は candidates[0].content.parts[0].text を返します。
// 途中のどの階層が欠けていても、テキストが空でも ok=false を返します。
func ExtractText(env *Envelope) (string, bool) {
	if env == nil || len(env.Candidates) == 0 {
		return "", false
	}
	parts := env.Candidates[0].Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", false
	}
	return parts[0].Text, true
}

// ExtractInlineImage は candidates[0] のパーツを走査し、最初に見つかったインラインデータを返します。
func ExtractInlineImage(env *Envelope) (Blob, bool) {
	if env == nil || len(env.Candidates) == 0 {
		return Blob{}, false
	}
	for _, part := range env.Candidates[0].Parts {
		if part.InlineData != nil {
			return *part.InlineData, true
		}
	}
	return Blob{}, false
}

func firstOf(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString は keys の順に見て、最初の空でない文字列を返します。
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asArray(v any) []any {
	a, _ := v.([]any)
	return a
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}
