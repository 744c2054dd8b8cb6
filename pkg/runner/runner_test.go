package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/config"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/parser"
	"github.com/shouni/go-outfit-kit/pkg/prompts"
)

const tokyoJSON = `{"weather":{"city":"Tokyo","temp":"18","tempRange":"15°/21°","condition":"Clear","humidity":"40%"},"outfit":[{"id":"1","name":"Trench Coat","color":"Beige","type":"top"},{"id":"2","name":"Pleated Trousers","color":"Ivory","type":"bottom"},{"id":"3","name":"Loafers","color":"Burgundy","type":"shoes"},{"id":"4","name":"Silk Scarf","color":"Navy","type":"accessory"}]}`

// fakeGateway は受け取ったリクエストを記録し、モデルごとに決められた応答を返すテスト用のゲートウェイです。
type fakeGateway struct {
	mu       sync.Mutex
	models   []string
	prompts  []string
	hits     int32
	handlers map[string]http.HandlerFunc
}

func newFakeGateway(t *testing.T, handlers map[string]http.HandlerFunc) (*fakeGateway, gateway.Config) {
	t.Helper()
	fg := &fakeGateway{handlers: handlers}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fg.hits, 1)
		model := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/models/"), ":generateContent")

		var req gateway.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		fg.mu.Lock()
		fg.models = append(fg.models, model)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			fg.prompts = append(fg.prompts, req.Contents[0].Parts[0].Text)
		}
		fg.mu.Unlock()

		h, ok := fg.handlers[model]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fg, gateway.Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/"}
}

func textEnvelope(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}}},
		})
		_, _ = w.Write(body)
	}
}

func newRunners(t *testing.T) (*AdviceRunner, *AvatarRunner) {
	t.Helper()
	cfg := config.DefaultConfig()
	pb, err := prompts.NewTextPromptBuilder(prompts.FixedSelector(0))
	if err != nil {
		t.Fatal(err)
	}
	client := gateway.New(gateway.WithSkipNetworkValidation(true))
	return NewAdviceRunner(cfg, pb, client, parser.NewAdviceParser(nil)), NewAvatarRunner(cfg, pb, client)
}

func TestTokyoEndToEnd(t *testing.T) {
	fg, gw := newFakeGateway(t, map[string]http.HandlerFunc{
		config.DefaultTextModel: textEnvelope("```json\n" + tokyoJSON + "\n```"),
		"gemini-2.5-flash-image": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inline_data":{"mime_type":"image/jpeg","data":"QUJD"}}]}}]}`)
		},
	})
	adviceRunner, avatarRunner := newRunners(t)
	ctx := context.Background()

	advice, err := adviceRunner.Run(ctx, AdviceRequest{City: "Tokyo", Gender: domain.GenderFemale, Language: domain.LanguageEnglish}, gw)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if advice.Weather.Temperature != "18°" {
		t.Errorf("期待値 %q, 実際の値 %q", "18°", advice.Weather.Temperature)
	}

	img, err := avatarRunner.Run(ctx, AvatarRequest{Gender: domain.GenderFemale, Outfit: advice.Outfit, ModelAlias: domain.ModelNanoBanana, Language: domain.LanguageEnglish}, gw)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if img.DataURI() != "data:image/jpeg;base64,QUJD" {
		t.Errorf("data URI が違います: %s", img.DataURI())
	}

	if len(fg.prompts) != 2 {
		t.Fatalf("呼び出し回数 2 を期待しましたが %d でした", len(fg.prompts))
	}
	if !strings.Contains(fg.prompts[1], "Beige Trench Coat") {
		t.Errorf("画像プロンプトに Beige Trench Coat が含まれていません:\n%s", fg.prompts[1])
	}
	if fg.models[0] != config.DefaultTextModel || fg.models[1] != "gemini-2.5-flash-image" {
		t.Errorf("呼び出したモデルが違います: %v", fg.models)
	}
}

func TestAdviceRunner_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind apperr.Kind
		wantMsg  string
	}{
		{
			name:     "候補が無い",
			handler:  func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, `{"candidates":[]}`) },
			wantKind: apperr.KindEmptyResult,
			wantMsg:  ErrNoResponse,
		},
		{
			name:     "JSON ではないテキスト",
			handler:  textEnvelope("The weather in Tokyo is nice today."),
			wantKind: apperr.KindFormat,
			wantMsg:  parser.ErrInvalidFormat,
		},
		{
			name: "ゲートウェイのエラー",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":{"message":"Invalid token"}}`)
			},
			wantKind: apperr.KindGateway,
			wantMsg:  "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gw := newFakeGateway(t, map[string]http.HandlerFunc{config.DefaultTextModel: tt.handler})
			adviceRunner, _ := newRunners(t)

			_, err := adviceRunner.Run(context.Background(), AdviceRequest{City: "Tokyo"}, gw)
			if !apperr.IsKind(err, tt.wantKind) {
				t.Fatalf("%s を期待しましたが %v でした", tt.wantKind, err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("期待値 %q, 実際の値 %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestAdviceRunner_EmptyCity(t *testing.T) {
	fg, gw := newFakeGateway(t, map[string]http.HandlerFunc{config.DefaultTextModel: textEnvelope(tokyoJSON)})
	adviceRunner, _ := newRunners(t)

	_, err := adviceRunner.Run(context.Background(), AdviceRequest{City: "   "}, gw)
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("KindInvalidInput を期待しましたが %v でした", err)
	}
	if n := atomic.LoadInt32(&fg.hits); n != 0 {
		t.Errorf("ネットワーク呼び出しが %d 回発生しました", n)
	}
}

func TestAvatarRunner(t *testing.T) {
	t.Run("コーディネートが空なら呼び出さないこと", func(t *testing.T) {
		fg, gw := newFakeGateway(t, nil)
		_, avatarRunner := newRunners(t)

		img, err := avatarRunner.Run(context.Background(), AvatarRequest{}, gw)
		if img != nil || err != nil {
			t.Errorf("(nil, nil) を期待しましたが (%v, %v) でした", img, err)
		}
		if n := atomic.LoadInt32(&fg.hits); n != 0 {
			t.Errorf("ネットワーク呼び出しが %d 回発生しました", n)
		}
	})

	outfit := domain.Outfit{{ID: "1", Name: "Hoodie", Color: "Grey", Category: domain.CategoryTop}}

	t.Run("画像が無ければ No image generated", func(t *testing.T) {
		_, gw := newFakeGateway(t, map[string]http.HandlerFunc{"gemini-3-pro-image-preview": textEnvelope("I cannot draw that.")})
		_, avatarRunner := newRunners(t)

		_, err := avatarRunner.Run(context.Background(), AvatarRequest{Outfit: outfit, ModelAlias: domain.ModelNanoBananaPro}, gw)
		if !apperr.IsKind(err, apperr.KindEmptyResult) || err.Error() != ErrNoImage {
			t.Errorf("%q を期待しましたが %v でした", ErrNoImage, err)
		}
	})

	t.Run("未知のモデル名は設定エラー", func(t *testing.T) {
		fg, gw := newFakeGateway(t, nil)
		_, avatarRunner := newRunners(t)

		_, err := avatarRunner.Run(context.Background(), AvatarRequest{Outfit: outfit, ModelAlias: "banana-xl"}, gw)
		if !apperr.IsKind(err, apperr.KindConfig) {
			t.Errorf("KindConfig を期待しましたが %v でした", err)
		}
		if n := atomic.LoadInt32(&fg.hits); n != 0 {
			t.Errorf("ネットワーク呼び出しが %d 回発生しました", n)
		}
	})

	t.Run("中国語なら East Asian のモデル", func(t *testing.T) {
		fg, gw := newFakeGateway(t, map[string]http.HandlerFunc{
			"gemini-2.5-flash-image": func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"QUJD"}}]}}]}`)
			},
		})
		_, avatarRunner := newRunners(t)

		img, err := avatarRunner.Run(context.Background(), AvatarRequest{Outfit: outfit, Language: domain.LanguageChinese}, gw)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if img.MimeType != domain.DefaultImageMimeType {
			t.Errorf("既定の MIME タイプになっていません: %q", img.MimeType)
		}
		if !strings.Contains(fg.prompts[0], "East Asian") {
			t.Errorf("プロンプトに East Asian が含まれていません:\n%s", fg.prompts[0])
		}
	})
}

func TestLogResponseMeta(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	outfit := domain.Outfit{{ID: "1", Name: "Hoodie", Color: "Grey", Category: domain.CategoryTop}}
	_, gw := newFakeGateway(t, map[string]http.HandlerFunc{
		"gemini-2.5-flash-image": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"blocked"}]},"finish_reason":"SAFETY"}],"usage_metadata":{"prompt_token_count":12,"total_token_count":12}}`)
		},
	})
	_, avatarRunner := newRunners(t)

	if _, err := avatarRunner.Run(context.Background(), AvatarRequest{Outfit: outfit}, gw); !apperr.IsKind(err, apperr.KindEmptyResult) {
		t.Fatalf("KindEmptyResult を期待しましたが %v でした", err)
	}
	for _, want := range []string{"finish_reason=SAFETY", "prompt_tokens=12", "total_tokens=12"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("ログに %q が含まれていません:\n%s", want, buf.String())
		}
	}

	if got := finishReason(nil); got != "" {
		t.Errorf("nil の Envelope なら空のはずです: %q", got)
	}
}
