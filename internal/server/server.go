// Package server はブラウザ UI 向けの HTTP API を提供するのだ。
// サーバーは Session をひとつだけ持ち、すべてのリクエストがそれを共有するのだ。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-outfit-kit/internal/metrics"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/workflow"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// BaseURLHeader はリクエストごとにゲートウェイの URL を上書きするヘッダーなのだ。
	BaseURLHeader = "X-Gateway-Base-URL"

	DefaultPingTTL       = 5 * time.Minute
	defaultPingErrorTTL  = 10 * time.Second
	defaultShutdownGrace = 10 * time.Second
)

// Options はサーバーの挙動を調整するのだ。
type Options struct {
	AllowedOrigins []string
	PingTTL        time.Duration
}

// Server は gin のルーターと、共有の Session を持つのだ。
type Server struct {
	manager  *workflow.Manager
	session  *workflow.Session
	metrics  *metrics.Metrics
	defaults gateway.Config

	pingCache *cache.Cache
	pingGroup singleflight.Group
	pingTTL   time.Duration

	engine *gin.Engine
}

// New は Manager から Session を作り、ルーティングを組み立てるのだ。
// defaults はリクエストに認証情報が無いときに使うのだ。
func New(mgr *workflow.Manager, m *metrics.Metrics, defaults gateway.Config, opts Options) (*Server, error) {
	reporter := workflow.ReporterFunc(func(s workflow.Snapshot) {
		slog.Debug("状態が変わったのだ", "state", s.State, "city", s.City)
	})
	session, err := mgr.NewSession(reporter)
	if err != nil {
		return nil, err
	}

	ttl := opts.PingTTL
	if ttl <= 0 {
		ttl = DefaultPingTTL
	}

	s := &Server{
		manager:   mgr,
		session:   session,
		metrics:   m,
		defaults:  defaults,
		pingCache: cache.New(ttl, 2*ttl),
		pingTTL:   ttl,
	}
	s.engine = s.routes(opts)
	return s, nil
}

func (s *Server) routes(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(recovery(), requestID(), observe(s.metrics), corsMiddleware(opts.AllowedOrigins))

	r.GET("/healthz", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.POST("/advice", s.search)
		api.POST("/avatar", s.regenerate)
		api.GET("/session", s.snapshot)
		api.POST("/ping", s.ping)
	}
	return r
}

// Handler は http.Handler としてのルーターを返すのだ。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe は ctx がキャンセルされるまで待ち受け、終了時には穏やかに停止するのだ。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(ctx, "HTTP サーバーを起動するのだ", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownGrace)
		defer cancel()
		slog.InfoContext(ctx, "HTTP サーバーを停止するのだ...")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
