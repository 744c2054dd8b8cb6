package builder

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-outfit-kit/internal/config"
	"github.com/shouni/go-outfit-kit/internal/metrics"
)

func TestInitializeIO_Local(t *testing.T) {
	dir := t.TempDir()
	rio, err := InitializeIO(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	defer rio.Close()

	path := filepath.Join(dir, "nested", "tokyo_advice.json")
	if err := rio.Writer.Write(context.Background(), path, strings.NewReader(`{"ok":true}`), "application/json"); err != nil {
		t.Fatalf("ローカルに書き込めなかったのだ: %v", err)
	}
	rc, err := rio.Reader.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("書いたファイルを開けなかったのだ: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, []byte(`{"ok":true}`)) {
		t.Errorf("内容が違うのだ: %s", data)
	}
}

func TestBuildAppContext_Metrics(t *testing.T) {
	newCfg := func() *config.Config {
		dir := t.TempDir()
		return &config.Config{
			APIKey:       "k",
			SettingsFile: filepath.Join(dir, "missing.yaml"),
			Options:      config.GenerateOptions{OutputDir: dir},
		}
	}

	appCtx, err := BuildAppContext(context.Background(), newCfg(), nil)
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	defer appCtx.Close()
	if appCtx.Metrics != nil {
		t.Error("指標を渡していないのにレジストリが作られたのだ")
	}
	if appCtx.IO == nil || appCtx.IO.Writer == nil {
		t.Error("入出力が初期化されていないのだ")
	}

	m := metrics.New()
	appCtx, err = BuildAppContext(context.Background(), newCfg(), m)
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	defer appCtx.Close()
	if appCtx.Metrics != m {
		t.Error("渡した指標が使われていないのだ")
	}
}
