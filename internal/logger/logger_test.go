package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("%q: 期待値 %v, 実際の値 %v", in, want, got)
		}
	}
}

func TestNew_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	ctx := WithRequestID(context.Background(), "req-123")
	log.InfoContext(ctx, "こんにちは", "city", "Tokyo")
	log.DebugContext(ctx, "出力されないのだ")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("JSON 1行を期待しましたが %q でした: %v", buf.String(), err)
	}
	if rec["request_id"] != "req-123" || rec["city"] != "Tokyo" {
		t.Errorf("属性が違います: %v", rec)
	}
}
