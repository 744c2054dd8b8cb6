package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/config"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/parser"
	"github.com/shouni/go-outfit-kit/pkg/prompts"
)

const (
	// ErrNoResponse はテキスト応答が得られなかった場合のメッセージです。
	ErrNoResponse = "No response from AI"
	// ErrCityRequired は都市名が空の場合のメッセージです。
	ErrCityRequired = "City is required"
)

// AdviceRequest はテキスト生成ステージへの入力です。
type AdviceRequest struct {
	City     string
	Gender   domain.Gender
	Language domain.Language
}

// AdviceRunner は都市の天気を調べ、コーディネートの提案 JSON を生成します。
type AdviceRunner struct {
	cfg           config.Config
	promptBuilder prompts.PromptBuilder
	invoker       gateway.Invoker
	parser        parser.Parser
}

// NewAdviceRunner は依存関係を注入して初期化します。
func NewAdviceRunner(cfg config.Config, pb prompts.PromptBuilder, inv gateway.Invoker, p parser.Parser) *AdviceRunner {
	return &AdviceRunner{
		cfg:           cfg,
		promptBuilder: pb,
		invoker:       inv,
		parser:        p,
	}
}

// Run はテキストモデルに Google 検索付きで問い合わせ、応答を AdviceResult に変換します。
func (ar *AdviceRunner) Run(ctx context.Context, req AdviceRequest, gw gateway.Config) (*domain.AdviceResult, error) {
	city := strings.TrimSpace(req.City)
	if city == "" {
		return nil, apperr.New(apperr.KindInvalidInput, ErrCityRequired)
	}
	gender := req.Gender
	if gender == "" {
		gender = ar.cfg.Gender
	}
	lang := req.Language
	if lang == "" {
		lang = ar.cfg.Language
	}

	// 1. プロンプト構築
	prompt, style, err := ar.promptBuilder.BuildAdvice(city, gender, lang)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindConfig, err.Error())
	}

	// 2. テキストモデルの呼び出し
	slog.InfoContext(ctx, "AdviceRunner: コーディネートを問い合わせます", "city", city, "style", style, "model", ar.cfg.TextModel)
	env, err := ar.invoker.Invoke(ctx, ar.cfg.TextModel, gateway.NewTextRequest(prompt).WithGoogleSearch(), gw)
	if err != nil {
		return nil, err
	}
	logResponseMeta(ctx, "AdviceRunner", env)

	// 3. 応答の解析
	text, ok := gateway.ExtractText(env)
	if !ok {
		return nil, apperr.New(apperr.KindEmptyResult, ErrNoResponse)
	}
	advice, err := ar.parser.Parse(text)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "AdviceRunner: 提案を受け取りました", "city", advice.Weather.City, "temp", advice.Weather.Temperature, "items", len(advice.Outfit))
	return advice, nil
}

// logResponseMeta は応答の終了理由とトークン使用量をデバッグログに残します。
func logResponseMeta(ctx context.Context, name string, env *gateway.Envelope) {
	if env == nil {
		return
	}
	attrs := []any{"finish_reason", finishReason(env)}
	if u := env.Usage; u != nil {
		attrs = append(attrs, "prompt_tokens", u.PromptTokens, "candidates_tokens", u.CandidatesTokens, "total_tokens", u.TotalTokens)
	}
	slog.DebugContext(ctx, name+": 応答を受け取りました", attrs...)
}

// finishReason は先頭候補の終了理由を返します。候補が無ければ空です。
func finishReason(env *gateway.Envelope) string {
	if env == nil || len(env.Candidates) == 0 {
		return ""
	}
	return env.Candidates[0].FinishReason
}
