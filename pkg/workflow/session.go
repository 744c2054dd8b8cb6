package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/runner"
)

// State はユーザー操作1回分の進行状態です。
type State string

const (
	StateIdle            State = "idle"
	StateFetchingAdvice  State = "fetching_advice"
	StateAdviceReady     State = "advice_ready"
	StateAdviceFailed    State = "advice_failed"
	StateGeneratingImage State = "generating_image"
	StateImageReady      State = "image_ready"
	StateImageFailed     State = "image_failed"
)

// ErrStaleResult は、より新しいリクエストが開始されたために破棄された結果を表します。
var ErrStaleResult = errors.New("より新しいリクエストが開始されたため結果を破棄しました")

// SearchRequest は Search への入力です。
type SearchRequest struct {
	City       string
	Gender     domain.Gender
	Language   domain.Language
	ModelAlias domain.ModelAlias
}

// Snapshot は UI に渡す Session の状態のコピーです。
type Snapshot struct {
	State           State                  `json:"state"`
	City            string                 `json:"city,omitempty"`
	Advice          *domain.AdviceResult   `json:"advice,omitempty"`
	Image           *domain.GeneratedImage `json:"image,omitempty"`
	FetchingAdvice  bool                   `json:"fetchingAdvice"`
	GeneratingImage bool                   `json:"generatingImage"`
	AdviceError     string                 `json:"adviceError,omitempty"`
	ImageError      string                 `json:"imageError,omitempty"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Reporter は状態が変わるたびに Snapshot を受け取る進捗通知先です。
type Reporter interface {
	Report(Snapshot)
}

// ReporterFunc は関数を Reporter として使うためのアダプターです。
type ReporterFunc func(Snapshot)

func (f ReporterFunc) Report(s Snapshot) { f(s) }

// Session は提案と画像の2段階の流れを管理し、現在の提案・画像スロットを保持します。
// 各ステージは世代番号を持ち、最新でない呼び出しの結果はスロットに反映しません。
type Session struct {
	advice   AdviceRunner
	avatar   AvatarRunner
	reporter Reporter

	mu        sync.Mutex
	snap      Snapshot
	last      SearchRequest
	adviceGen uint64
	imageGen  uint64
	now       func() time.Time
}

// NewSession は Session を作成します。reporter は nil でも構いません。
func NewSession(advice AdviceRunner, avatar AvatarRunner, reporter Reporter) *Session {
	return &Session{
		advice:   advice,
		avatar:   avatar,
		reporter: reporter,
		snap:     Snapshot{State: StateIdle},
		now:      time.Now,
	}
}

// Snapshot は現在の状態を返します。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Search は提案を取得し、成功すればそのまま画像生成まで進めます。
// 提案の失敗は提案の進行中フラグだけを戻し、以前の提案と画像は残します。
// 画像生成の失敗は Snapshot に記録したうえでエラーとして返します。
func (s *Session) Search(ctx context.Context, req SearchRequest, gw gateway.Config) (Snapshot, error) {
	s.mu.Lock()
	s.adviceGen++
	gen := s.adviceGen
	s.snap.State = StateFetchingAdvice
	s.snap.City = strings.TrimSpace(req.City)
	s.snap.FetchingAdvice = true
	s.snap.AdviceError = ""
	snap := s.touchLocked()
	s.mu.Unlock()
	s.report(snap)

	advice, err := s.advice.Run(ctx, runner.AdviceRequest{City: req.City, Gender: req.Gender, Language: req.Language}, gw)

	s.mu.Lock()
	if gen != s.adviceGen {
		s.mu.Unlock()
		slog.DebugContext(ctx, "古い提案の結果を破棄しました", "city", req.City, "generation", gen)
		return Snapshot{}, ErrStaleResult
	}
	s.snap.FetchingAdvice = false
	if err != nil {
		s.snap.State = StateAdviceFailed
		s.snap.AdviceError = apperr.Message(err)
		snap = s.touchLocked()
		s.mu.Unlock()
		s.report(snap)
		slog.WarnContext(ctx, "提案の取得に失敗しました", "city", req.City, "error", apperr.Message(err))
		return snap, err
	}
	s.snap.Advice = advice
	s.snap.State = StateAdviceReady
	s.last = req
	snap = s.touchLocked()
	s.mu.Unlock()
	s.report(snap)

	if len(advice.Outfit) == 0 {
		return snap, nil
	}
	return s.generate(ctx, gen, advice.Outfit, req, gw)
}

// RegenerateImage は保持しているコーディネートで画像だけを作り直します。
// alias が空の場合は直前の検索で使ったモデルを使います。提案が無い場合は何もしません。
func (s *Session) RegenerateImage(ctx context.Context, alias domain.ModelAlias, gw gateway.Config) (Snapshot, error) {
	s.mu.Lock()
	if s.snap.Advice == nil || len(s.snap.Advice.Outfit) == 0 || s.snap.FetchingAdvice {
		snap := s.snap
		s.mu.Unlock()
		return snap, nil
	}
	adviceGen := s.adviceGen
	outfit := s.snap.Advice.Outfit
	req := s.last
	s.mu.Unlock()

	if alias != "" {
		req.ModelAlias = alias
	}
	return s.generate(ctx, adviceGen, outfit, req, gw)
}

func (s *Session) generate(ctx context.Context, adviceGen uint64, outfit domain.Outfit, req SearchRequest, gw gateway.Config) (Snapshot, error) {
	s.mu.Lock()
	if adviceGen != s.adviceGen {
		s.mu.Unlock()
		return Snapshot{}, ErrStaleResult
	}
	s.imageGen++
	gen := s.imageGen
	s.snap.State = StateGeneratingImage
	s.snap.GeneratingImage = true
	s.snap.ImageError = ""
	snap := s.touchLocked()
	s.mu.Unlock()
	s.report(snap)

	img, err := s.avatar.Run(ctx, runner.AvatarRequest{
		Gender:     req.Gender,
		Outfit:     outfit,
		ModelAlias: req.ModelAlias,
		Language:   req.Language,
	}, gw)

	s.mu.Lock()
	if gen != s.imageGen {
		s.mu.Unlock()
		slog.DebugContext(ctx, "古い画像の結果を破棄しました", "generation", gen)
		return Snapshot{}, ErrStaleResult
	}
	s.snap.GeneratingImage = false
	next := StateImageReady
	switch {
	case err != nil:
		next = StateImageFailed
		s.snap.ImageError = apperr.Message(err)
	case img != nil:
		s.snap.Image = img
	}
	// 画像の生成中に新しい検索が始まっていれば、状態はそちらの進行を優先します。
	if !s.snap.FetchingAdvice {
		s.snap.State = next
	}
	snap = s.touchLocked()
	s.mu.Unlock()
	s.report(snap)

	if err != nil {
		slog.WarnContext(ctx, "画像の生成に失敗しました", "error", apperr.Message(err))
		return snap, err
	}
	return snap, nil
}

func (s *Session) touchLocked() Snapshot {
	s.snap.UpdatedAt = s.now()
	return s.snap
}

func (s *Session) report(snap Snapshot) {
	if s.reporter != nil {
		s.reporter.Report(snap)
	}
}
