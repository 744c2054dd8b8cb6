package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/shouni/go-outfit-kit/internal/logger"
	"github.com/shouni/go-outfit-kit/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDをやり取りするヘッダーなのだ。
const RequestIDHeader = "X-Request-ID"

// requestID はリクエストIDを context とレスポンスヘッダーに載せるのだ。
// クライアントが付けてきた ID はそのまま使うのだ。
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// recovery は panic をログに残して 500 を返すのだ。
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(c.Request.Context(), "panic から復帰したのだ",
					"error", fmt.Errorf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}

// observe はアクセスログと HTTP の指標を記録するのだ。
func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		elapsed := time.Since(start)
		if m != nil {
			m.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), elapsed)
		}
		slog.DebugContext(c.Request.Context(), "リクエストを処理したのだ",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"elapsed", elapsed,
		)
	}
}

// corsMiddleware はブラウザ UI からの呼び出しを許可するのだ。
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader, BaseURLHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	})
}
