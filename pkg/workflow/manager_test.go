package workflow

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/prompts"
)

func TestManager_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "gemini-2.5-flash-image"):
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`)
		case strings.Contains(r.URL.Path, "gemini-2.5-flash"):
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"weather\":{\"city\":\"Tokyo\",\"temp\":\"18\",\"tempRange\":\"15°/21°\",\"condition\":\"Clear\"},\"outfit\":[{\"id\":\"1\",\"name\":\"Trench Coat\",\"color\":\"Beige\",\"type\":\"top\"}]}"}]}}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.AllowPrivateNetwork = true
	m, err := New(ManagerArgs{Config: cfg, Selector: prompts.FixedSelector(0)})
	if err != nil {
		t.Fatalf("New が失敗しました: %v", err)
	}
	gw := gateway.Config{APIKey: "k", BaseURL: srv.URL}

	if err := m.TestConnectivity(context.Background(), gw); err != nil {
		t.Errorf("疎通確認が失敗しました: %v", err)
	}
	if err := m.TestConnectivity(context.Background(), gateway.Config{BaseURL: srv.URL}); !apperr.IsKind(err, apperr.KindConfig) {
		t.Errorf("キーが空なら KindConfig を期待しましたが %v でした", err)
	}

	session, err := m.NewSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := session.Search(context.Background(), SearchRequest{City: "Tokyo", Gender: domain.GenderFemale}, gw)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if snap.Advice.Weather.Temperature != "18°" || snap.Image.DataURI() != "data:image/png;base64,QUJD" {
		t.Errorf("結果が違います: %+v", snap)
	}

	pr, err := m.BuildPublishRunner()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	res, err := pr.Run(context.Background(), snap.Advice, snap.Image, dir)
	if err != nil {
		t.Fatalf("書き出しに失敗しました: %v", err)
	}
	if _, err := os.Stat(res.ImagePath); err != nil {
		t.Errorf("画像が書き出されていません: %v", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelAlias = "unknown"
	if _, err := New(ManagerArgs{Config: cfg}); err == nil {
		t.Error("不正な設定でエラーになりませんでした")
	}
}

// memStore は remoteio の InputReader と OutputWriter をメモリ上で満たします。
type memStore struct {
	files map[string]string
}

func (s *memStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	body, ok := s.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *memStore) List(_ context.Context, _ string, _ func(string) error) error {
	return nil
}

func (s *memStore) Write(_ context.Context, uri string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[uri] = string(data)
	return nil
}

func TestManager_ReaderWriter(t *testing.T) {
	store := &memStore{files: map[string]string{
		"s3://outfit/in/tokyo.json": `{"weather":{"city":"Tokyo","temp":18,"tempRange":"15°/21°","condition":"Clear"},"outfit":[{"id":"1","name":"Trench Coat","color":"Beige","type":"top"}]}`,
	}}
	m, err := New(ManagerArgs{Config: DefaultConfig(), Reader: store, Writer: store})
	if err != nil {
		t.Fatal(err)
	}

	advice, err := m.Parser().ParseFromPath(context.Background(), "s3://outfit/in/tokyo.json")
	if err != nil {
		t.Fatalf("Reader から読み込めませんでした: %v", err)
	}

	pr, err := m.BuildPublishRunner()
	if err != nil {
		t.Fatal(err)
	}
	res, err := pr.Run(context.Background(), advice, nil, "s3://outfit/out")
	if err != nil {
		t.Fatalf("Writer に書き出せませんでした: %v", err)
	}
	if res.AdvicePath != "s3://outfit/out/tokyo_advice.json" {
		t.Errorf("提案の URI が違います: %s", res.AdvicePath)
	}
	if !strings.Contains(store.files[res.MarkdownPath], "# Tokyo") {
		t.Errorf("Markdown が Writer に渡っていません: %v", store.files)
	}
}
