package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/shouni/go-outfit-kit/pkg/apperr"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout は1回の HTTP 呼び出しの既定タイムアウトです。画像生成を考慮して長めにとっています。
	DefaultTimeout = 120 * time.Second
	// ConnectivityModel は疎通確認に使う軽量モデルです。
	ConnectivityModel = "gemini-2.5-flash"
	// connectivityPrompt は疎通確認で送る最小のプロンプトです。
	connectivityPrompt = "Hello"

	// shortErrorBodyLimit 未満の非 JSON エラーボディはメッセージに付記します。
	shortErrorBodyLimit = 100
	maxResponseBytes    = 64 << 20
)

// ErrMissingAPIKey は API キーが空の場合のメッセージです。
const ErrMissingAPIKey = "API Key is missing"

// Invoker は generateContent を1回呼び出す契約です。Client がこれを実装します。
type Invoker interface {
	Invoke(ctx context.Context, modelID string, req Request, cfg Config) (*Envelope, error)
}

// Observer は呼び出し結果を受け取る計測用のフックです。
type Observer interface {
	ObserveCall(modelID string, kind apperr.Kind, statusCode int, elapsed time.Duration)
}

// Client は generateContent 互換のゲートウェイに認証付きで1回リクエストを送るクライアントです。
type Client struct {
	httpClient            httpkit.Doer
	timeout               time.Duration
	skipNetworkValidation bool
	limiter               *rate.Limiter
	maxRetries            int
	backOff               func() backoff.BackOff
	observer              Observer
}

// Option は Client の任意設定です。
type Option func(*Client)

// WithHTTPClient は内部で使う Doer を差し替えます。
// 指定した場合、WithTimeout と WithSkipNetworkValidation は無視されます。
func WithHTTPClient(d httpkit.Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.httpClient = d
		}
	}
}

// WithTimeout は HTTP 呼び出しのタイムアウトを設定します。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSkipNetworkValidation はループバックやプライベートアドレスへの接続を許可します。
// 既定では SSRF 対策付きのクライアントで接続先を検証します。
func WithSkipNetworkValidation(skip bool) Option {
	return func(c *Client) {
		c.skipNetworkValidation = skip
	}
}

// WithRateLimiter はリクエスト送信前に待機するレートリミッターを設定します。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRetry は 429/5xx と通信エラーに対する指数バックオフ付きの再試行を有効にします。
// 既定では再試行しません。
func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
	}
}

// WithObserver は呼び出しごとの計測フックを設定します。
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New は Client を生成します。
// httpkit.Client は Do だけを使い、再試行は Client 側で行います。
func New(opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		backOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httpkit.New(c.timeout, httpkit.WithSkipNetworkValidation(c.skipNetworkValidation))
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Invoke は {base}/models/{modelID}:generateContent に POST し、正規化した応答を返します。
// API キーが空の場合はネットワークに触れずに KindConfig のエラーを返します。
func (c *Client) Invoke(ctx context.Context, modelID string, req Request, cfg Config) (*Envelope, error) {
	apiKey := cfg.Key()
	if apiKey == "" {
		return nil, apperr.New(apperr.KindConfig, ErrMissingAPIKey)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindConfig, fmt.Sprintf("リクエストの JSON 変換に失敗しました: %v", err))
	}
	url := cfg.GenerateContentURL(modelID)

	if c.maxRetries == 0 {
		return c.attempt(ctx, modelID, url, apiKey, body)
	}

	var env *Envelope
	policy := backoff.WithContext(backoff.WithMaxRetries(c.backOff(), uint64(c.maxRetries)), ctx)
	err = backoff.RetryNotify(func() error {
		e, err := c.attempt(ctx, modelID, url, apiKey, body)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		env = e
		return nil
	}, policy, func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "ゲートウェイ呼び出しを再試行します", "model", modelID, "wait", wait, "error", apperr.Message(err))
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			return nil, apperr.Wrap(err, apperr.KindTransport, err.Error())
		}
		return nil, err
	}
	return env, nil
}

// TestConnectivity は固定の軽量モデルに最小のプロンプトを送り、キーとゲートウェイの組み合わせを確認します。
func (c *Client) TestConnectivity(ctx context.Context, cfg Config) (*Envelope, error) {
	return c.Invoke(ctx, ConnectivityModel, NewTextRequest(connectivityPrompt), cfg)
}

// attempt は1回分の HTTP 往復を行います。
func (c *Client) attempt(ctx context.Context, modelID, url, apiKey string, body []byte) (env *Envelope, err error) {
	start := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveCall(modelID, apperr.KindOf(err), status, time.Since(start))
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperr.Wrap(err, apperr.KindTransport, err.Error())
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindConfig, fmt.Sprintf("リクエストの作成に失敗しました: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	slog.DebugContext(ctx, "ゲートウェイにリクエストを送信します", "model", modelID, "url", url)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.WarnContext(ctx, "ゲートウェイとの通信に失敗しました", "model", modelID, "error", err)
		return nil, apperr.Wrap(err, apperr.KindTransport, err.Error())
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindTransport, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(resp.StatusCode, respBody)
		slog.WarnContext(ctx, "ゲートウェイがエラーを返しました", "model", modelID, "status", resp.StatusCode, "message", msg)
		return nil, &apperr.Error{Kind: apperr.KindGateway, Message: msg, StatusCode: resp.StatusCode}
	}

	env, err = DecodeEnvelope(respBody)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindFormat, "Invalid response from gateway")
	}
	return env, nil
}

// errorMessage は 2xx 以外の応答からユーザー向けメッセージを作ります。
// JSON の error.message があればそれを使い、JSON でない短いボディは汎用メッセージに付記します。
func errorMessage(status int, body []byte) string {
	msg := fmt.Sprintf("API Error: %d", status)

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		if len(body) > 0 && utf8.RuneCount(body) < shortErrorBodyLimit {
			msg += fmt.Sprintf(" (%s)", body)
		}
		return msg
	}

	if m := asString(asObject(asObject(payload)["error"])["message"]); m != "" {
		return m
	}
	return msg
}

func isRetryable(err error) bool {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Kind {
	case apperr.KindTransport:
		return !errors.Is(err, context.Canceled)
	case apperr.KindGateway:
		return appErr.StatusCode == http.StatusTooManyRequests || appErr.StatusCode >= 500
	}
	return false
}
