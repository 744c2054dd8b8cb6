package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/config"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/prompts"
)

// ErrNoImage は画像が得られなかった場合のメッセージです。
const ErrNoImage = "No image generated"

// AvatarRequest は画像生成ステージへの入力です。
type AvatarRequest struct {
	Gender     domain.Gender
	Outfit     domain.Outfit
	ModelAlias domain.ModelAlias
	Language   domain.Language
}

// AvatarRunner は提案されたコーディネートを着たモデルの写真を生成します。
type AvatarRunner struct {
	cfg           config.Config
	promptBuilder prompts.PromptBuilder
	invoker       gateway.Invoker
}

// NewAvatarRunner は依存関係を注入して初期化します。
func NewAvatarRunner(cfg config.Config, pb prompts.PromptBuilder, inv gateway.Invoker) *AvatarRunner {
	return &AvatarRunner{
		cfg:           cfg,
		promptBuilder: pb,
		invoker:       inv,
	}
}

// Run は画像モデルを呼び出し、最初のインライン画像を返します。
// コーディネートが空の場合は何もせず (nil, nil) を返します。
func (vr *AvatarRunner) Run(ctx context.Context, req AvatarRequest, gw gateway.Config) (*domain.GeneratedImage, error) {
	if len(req.Outfit) == 0 {
		slog.DebugContext(ctx, "AvatarRunner: コーディネートが空のためスキップします")
		return nil, nil
	}

	alias := req.ModelAlias
	if alias == "" {
		alias = vr.cfg.ModelAlias
	}
	modelID, err := config.ResolveImageModel(alias)
	if err != nil {
		return nil, err
	}
	gender := req.Gender
	if gender == "" {
		gender = vr.cfg.Gender
	}
	lang := req.Language
	if lang == "" {
		lang = vr.cfg.Language
	}

	prompt, err := vr.promptBuilder.BuildAvatar(gender, req.Outfit, lang)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindConfig, err.Error())
	}

	slog.InfoContext(ctx, "AvatarRunner: アバター画像を生成します", "model", modelID, "items", len(req.Outfit))
	env, err := vr.invoker.Invoke(ctx, modelID, gateway.NewTextRequest(prompt), gw)
	if err != nil {
		return nil, err
	}
	logResponseMeta(ctx, "AvatarRunner", env)

	blob, ok := gateway.ExtractInlineImage(env)
	if !ok {
		slog.WarnContext(ctx, "AvatarRunner: 応答に画像がありません", "model", modelID, "finish_reason", finishReason(env))
		return nil, apperr.New(apperr.KindEmptyResult, ErrNoImage)
	}
	return &domain.GeneratedImage{MimeType: blob.MimeType, Data: blob.Data}, nil
}
