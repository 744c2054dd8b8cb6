package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/workflow"

	"github.com/gin-gonic/gin"
)

// adviceRequest は POST /api/advice の本文なのだ。
type adviceRequest struct {
	City     string `json:"city"`
	Gender   string `json:"gender"`
	Language string `json:"lang"`
	Model    string `json:"model"`
}

// avatarRequest は POST /api/avatar の本文なのだ。
type avatarRequest struct {
	Model string `json:"model"`
}

type errorResponse struct {
	Error string         `json:"error"`
	Kind  apperr.Kind    `json:"kind,omitempty"`
	State workflow.State `json:"state,omitempty"`
}

type pingResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Cached bool   `json:"cached"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

// search は提案を取得し、続けて画像を生成するのだ。
// 画像だけが失敗した場合は、提案を含む Snapshot を 200 で返すのだ。
func (s *Server) search(c *gin.Context) {
	var body adviceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: apperr.KindInvalidInput})
		return
	}

	cfg := s.manager.Config()
	req := workflow.SearchRequest{
		City:       body.City,
		Gender:     cfg.Gender,
		Language:   cfg.Language,
		ModelAlias: domain.ModelAlias(strings.TrimSpace(body.Model)),
	}
	if body.Gender != "" {
		req.Gender = domain.ParseGender(body.Gender)
	}
	if body.Language != "" {
		req.Language = domain.ParseLanguage(body.Language)
	}

	gw, err := s.gatewayConfig(c)
	if err != nil {
		s.respondError(c, err, s.session.Snapshot().State)
		return
	}

	snap, err := s.session.Search(c.Request.Context(), req, gw)
	s.observeSearch(snap, err)
	switch {
	case errors.Is(err, workflow.ErrStaleResult):
		s.respondStale(c)
	case err != nil && snap.State == workflow.StateAdviceFailed:
		s.respondError(c, err, snap.State)
	default:
		c.JSON(http.StatusOK, snap)
	}
}

// regenerate は保持しているコーディネートで画像だけを作り直すのだ。
func (s *Server) regenerate(c *gin.Context) {
	var body avatarRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: apperr.KindInvalidInput})
			return
		}
	}

	gw, err := s.gatewayConfig(c)
	if err != nil {
		s.respondError(c, err, s.session.Snapshot().State)
		return
	}

	snap, err := s.session.RegenerateImage(c.Request.Context(), domain.ModelAlias(strings.TrimSpace(body.Model)), gw)
	switch {
	case errors.Is(err, workflow.ErrStaleResult):
		s.respondStale(c)
	case err != nil:
		if s.metrics != nil {
			s.metrics.ObserveStage("image", err)
		}
		s.respondError(c, err, snap.State)
	default:
		if s.metrics != nil && snap.Image != nil {
			s.metrics.ObserveStage("image", nil)
		}
		c.JSON(http.StatusOK, snap)
	}
}

// ping は認証情報ごとに疎通確認の結果を一定時間キャッシュするのだ。
// 同じ認証情報への同時リクエストは1回の呼び出しにまとめるのだ。
func (s *Server) ping(c *gin.Context) {
	gw, err := s.gatewayConfig(c)
	if err != nil {
		s.respondError(c, err, "")
		return
	}
	key := fingerprint(gw)

	if v, ok := s.pingCache.Get(key); ok {
		if res, ok := v.(pingResponse); ok {
			res.Cached = true
			c.JSON(pingStatus(res), res)
			return
		}
	}

	ctx := context.WithoutCancel(c.Request.Context())
	val, _, shared := s.pingGroup.Do(key, func() (interface{}, error) {
		err := s.manager.TestConnectivity(ctx, gw)
		res := pingResponse{OK: err == nil}
		switch {
		case err == nil:
			s.pingCache.Set(key, res, s.pingTTL)
		case apperr.IsKind(err, apperr.KindTransport):
			res.Error = apperr.Message(err)
		default:
			res.Error = apperr.Message(err)
			s.pingCache.Set(key, res, defaultPingErrorTTL)
		}
		return res, nil
	})

	res, ok := val.(pingResponse)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected ping result"})
		return
	}
	if shared {
		slog.DebugContext(c.Request.Context(), "疎通確認を相乗りしたのだ", "key", key)
	}
	c.JSON(pingStatus(res), res)
}

// errForeignBaseURL は Bearer トークン無しで接続先だけを差し替えようとしたときのエラーなのだ。
var errForeignBaseURL = apperr.New(apperr.KindConfig, BaseURLHeader+" requires an Authorization bearer token")

// gatewayConfig はヘッダーの認証情報を優先し、無ければサーバーの既定値を使うのだ。
// 接続先を差し替えるリクエストは、自分のキーも持ってこないといけないのだ。
// サーバーのキーは呼び出し側が選んだホストへは送らないのだ。
func (s *Server) gatewayConfig(c *gin.Context) (gateway.Config, error) {
	gw := s.defaults
	var token string
	if auth := c.GetHeader("Authorization"); auth != "" {
		if t, ok := strings.CutPrefix(auth, "Bearer "); ok {
			token = strings.TrimSpace(t)
		}
	}
	if token != "" {
		gw.APIKey = token
	}
	if base := strings.TrimSpace(c.GetHeader(BaseURLHeader)); base != "" {
		if token == "" {
			return gateway.Config{}, errForeignBaseURL
		}
		gw.BaseURL = base
	}
	return gw, nil
}

func (s *Server) observeSearch(snap workflow.Snapshot, err error) {
	if s.metrics == nil || errors.Is(err, workflow.ErrStaleResult) {
		return
	}
	if snap.State == workflow.StateAdviceFailed {
		s.metrics.ObserveStage("advice", err)
		return
	}
	s.metrics.ObserveStage("advice", nil)
	if snap.Advice != nil && len(snap.Advice.Outfit) > 0 {
		s.metrics.ObserveStage("image", err)
	}
}

func (s *Server) respondError(c *gin.Context, err error, state workflow.State) {
	kind := apperr.KindOf(err)
	slog.WarnContext(c.Request.Context(), "リクエストに失敗したのだ", "kind", kind, "error", apperr.Message(err))
	c.JSON(StatusFor(err), errorResponse{Error: apperr.Message(err), Kind: kind, State: state})
}

func (s *Server) respondStale(c *gin.Context) {
	c.JSON(http.StatusConflict, errorResponse{Error: workflow.ErrStaleResult.Error(), State: s.session.Snapshot().State})
}

// StatusFor はエラーの種類を HTTP ステータスに対応付けるのだ。
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindConfig, apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindTransport:
		return http.StatusGatewayTimeout
	case apperr.KindGateway, apperr.KindFormat, apperr.KindEmptyResult:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func pingStatus(res pingResponse) int {
	if res.OK {
		return http.StatusOK
	}
	return http.StatusBadGateway
}

// fingerprint は API キーそのものをキャッシュのキーにしないためのハッシュなのだ。
// 実際に使う正規化済みの接続先とキーから作るのだ。
func fingerprint(gw gateway.Config) string {
	sum := sha256.Sum256([]byte(gw.Endpoint() + "\x00" + gw.Key()))
	return hex.EncodeToString(sum[:8])
}
