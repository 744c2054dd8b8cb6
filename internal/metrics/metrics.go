// Package metrics はゲートウェイ呼び出しと HTTP API の Prometheus 指標を集めるのだ。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shouni/go-outfit-kit/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "outfit"

// Metrics は専用のレジストリに登録された指標の集まりなのだ。
type Metrics struct {
	registry *prometheus.Registry

	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	StageTotal          *prometheus.CounterVec
}

// New は新しいレジストリに指標を登録して返すのだ。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "calls_total",
				Help:      "Total number of generateContent calls",
			},
			[]string{"model", "result", "status"},
		),
		GatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "call_duration_seconds",
				Help:      "generateContent call duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		StageTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "stage_total",
				Help:      "Total number of completed advice/image stages",
			},
			[]string{"stage", "result"},
		),
	}
}

// ObserveCall は gateway.Observer を実装するのだ。
func (m *Metrics) ObserveCall(modelID string, kind apperr.Kind, statusCode int, elapsed time.Duration) {
	result := "success"
	if kind != "" {
		result = string(kind)
	}
	m.GatewayCallsTotal.WithLabelValues(modelID, result, strconv.Itoa(statusCode)).Inc()
	m.GatewayCallDuration.WithLabelValues(modelID).Observe(elapsed.Seconds())
}

// ObserveStage は提案・画像ステージの結果を数えるのだ。
func (m *Metrics) ObserveStage(stage string, err error) {
	result := "success"
	if err != nil {
		result = string(apperr.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	m.StageTotal.WithLabelValues(stage, result).Inc()
}

// ObserveHTTP は HTTP リクエスト1件分の指標を記録するのだ。
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler は /metrics 用のハンドラーを返すのだ。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
