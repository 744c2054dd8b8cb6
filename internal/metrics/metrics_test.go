package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-outfit-kit/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCall(t *testing.T) {
	m := New()
	m.ObserveCall("gemini-2.5-flash", "", 200, time.Second)
	m.ObserveCall("gemini-2.5-flash", apperr.KindGateway, 502, time.Second)
	m.ObserveCall("gemini-2.5-flash", apperr.KindGateway, 502, time.Second)

	if got := testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("gemini-2.5-flash", "success", "200")); got != 1 {
		t.Errorf("成功の件数が違うのだ: %v", got)
	}
	if got := testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("gemini-2.5-flash", "gateway", "502")); got != 2 {
		t.Errorf("失敗の件数が違うのだ: %v", got)
	}
}

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage("advice", nil)
	m.ObserveStage("image", apperr.New(apperr.KindEmptyResult, "No image generated"))
	m.ObserveStage("image", errors.New("boom"))

	if got := testutil.ToFloat64(m.StageTotal.WithLabelValues("image", "empty_result")); got != 1 {
		t.Errorf("empty_result の件数が違うのだ: %v", got)
	}
	if got := testutil.ToFloat64(m.StageTotal.WithLabelValues("image", "error")); got != 1 {
		t.Errorf("error の件数が違うのだ: %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("POST", "/api/advice", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `outfit_http_requests_total{method="POST",path="/api/advice",status="200"} 1`) {
		t.Errorf("指標が出力されていないのだ:\n%s", body)
	}
}
