package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/go-outfit-kit/examples"
	"github.com/shouni/go-outfit-kit/internal/builder"
	"github.com/shouni/go-outfit-kit/internal/config"
	"github.com/shouni/go-outfit-kit/pkg/apperr"
	"github.com/shouni/go-outfit-kit/pkg/domain"
	"github.com/shouni/go-outfit-kit/pkg/parser"
	"github.com/shouni/go-outfit-kit/pkg/runner"
	"github.com/shouni/go-outfit-kit/pkg/workflow"
)

// ExecuteAdvice は、都市名から天気とコーディネートの提案を取得し（Phase 1）、
// アバター画像を生成して（Phase 2）、成果物を保存する（Phase 3）のだ。
// 生成した Markdown は out に書き出すのだ。
func ExecuteAdvice(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer appCtx.Close()
	wf := appCtx.Manager.Config()

	req := workflow.SearchRequest{
		City:       cfg.Options.City,
		Gender:     wf.Gender,
		Language:   wf.Language,
		ModelAlias: wf.ModelAlias,
	}

	// --- Phase 1 & 2: Advice / Image ---
	var (
		advice   *domain.AdviceResult
		image    *domain.GeneratedImage
		imageErr error
	)
	if cfg.Options.NoImage {
		advice, err = runAdviceStep(ctx, appCtx, req)
		if err != nil {
			return err
		}
	} else {
		advice, image, imageErr, err = runSessionStep(ctx, appCtx, req)
		if err != nil {
			return err
		}
	}

	// --- Phase 3: Publish Phase (公開/保存) ---
	if err := runPublishStep(ctx, appCtx, advice, image, out); err != nil {
		return err
	}
	if imageErr != nil {
		return fmt.Errorf("提案は保存したけど画像の生成に失敗したのだ: %w", imageErr)
	}

	slog.InfoContext(ctx, "提案と画像の生成が完了したのだ！", "city", advice.Weather.City)
	return nil
}

// ExecuteImageOnly は、保存済みの提案JSONファイルを読み込み、
// 画像生成と公開処理（Phase 2 & 3）だけを実行するのだ。
func ExecuteImageOnly(ctx context.Context, cfg *config.Config, out io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	advice, err := loadAdvice(ctx, appCtx, cfg.Options.AdviceFile)
	if err != nil {
		return err
	}

	image, err := runImageStep(ctx, appCtx, advice)
	if err != nil {
		return err
	}

	if err := runPublishStep(ctx, appCtx, advice, image, out); err != nil {
		return err
	}

	slog.InfoContext(ctx, "画像の再生成と保存が完了したのだ！")
	return nil
}

// ExecutePing は、現在の認証情報でゲートウェイに疎通確認を行うのだ。
func ExecutePing(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	slog.InfoContext(ctx, "疎通確認を開始するのだ...", "base_url", appCtx.Manager.Config().Gateway.BaseURL)
	if err := appCtx.Manager.TestConnectivity(ctx, appCtx.Config.Gateway()); err != nil {
		return fmt.Errorf("疎通確認に失敗したのだ: %w", err)
	}
	slog.InfoContext(ctx, "ゲートウェイとの疎通を確認できたのだ！")
	return nil
}

// loadAdvice は提案 JSON をローカルか gs:// / s3:// から読み込むのだ。path が空なら同梱のサンプルを使うのだ。
func loadAdvice(ctx context.Context, appCtx *builder.AppContext, path string) (*domain.AdviceResult, error) {
	if path == "" {
		slog.InfoContext(ctx, "提案ファイルの指定が無いので同梱のサンプルを使うのだ")
		return examples.LoadSampleAdvice()
	}
	advice, err := appCtx.Manager.Parser().ParseFromPath(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("提案ファイル '%s' を読み込めなかったのだ: %w", path, err)
	}
	return advice, nil
}

// runAdviceStep は AdviceRunner だけを実行するのだ。
func runAdviceStep(ctx context.Context, appCtx *builder.AppContext, req workflow.SearchRequest) (*domain.AdviceResult, error) {
	slog.InfoContext(ctx, "Phase 1: 提案の取得を開始するのだ...", "city", req.City)
	adviceRunner, err := appCtx.Manager.BuildAdviceRunner()
	if err != nil {
		return nil, fmt.Errorf("AdviceRunnerの構築に失敗したのだ: %w", err)
	}

	advice, err := adviceRunner.Run(ctx, runner.AdviceRequest{City: req.City, Gender: req.Gender, Language: req.Language}, appCtx.Config.Gateway())
	if err != nil {
		return nil, fmt.Errorf("提案の取得に失敗したのだ: %w", err)
	}
	return advice, nil
}

// runSessionStep は Session を通して提案と画像を続けて生成するのだ。
// 画像の失敗は提案を捨てずに imageErr として返すのだ。
func runSessionStep(ctx context.Context, appCtx *builder.AppContext, req workflow.SearchRequest) (advice *domain.AdviceResult, image *domain.GeneratedImage, imageErr error, err error) {
	slog.InfoContext(ctx, "Phase 1 & 2: 提案と画像の生成を開始するのだ...", "city", req.City, "model", req.ModelAlias)
	session, err := builder.BuildSession(appCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	snap, err := session.Search(ctx, req, appCtx.Config.Gateway())
	if snap.Advice == nil {
		if err == nil {
			err = apperr.New(apperr.KindFormat, parser.ErrInvalidFormat)
		}
		return nil, nil, nil, fmt.Errorf("提案の取得に失敗したのだ: %w", err)
	}

	if len(snap.Advice.Outfit) == 0 {
		slog.WarnContext(ctx, "コーディネートが空なので画像生成はスキップしたのだ")
		return snap.Advice, nil, nil, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "画像の生成に失敗したのだ", "error", apperr.Message(err))
		return snap.Advice, nil, err, nil
	}
	return snap.Advice, snap.Image, nil, nil
}

// runImageStep は AvatarRunner を使ってアバター画像を生成するのだ
func runImageStep(ctx context.Context, appCtx *builder.AppContext, advice *domain.AdviceResult) (*domain.GeneratedImage, error) {
	wf := appCtx.Manager.Config()
	slog.InfoContext(ctx, "Phase 2: 画像生成を開始するのだ...", "items", len(advice.Outfit), "model", wf.ModelAlias)
	avatarRunner, err := appCtx.Manager.BuildAvatarRunner()
	if err != nil {
		return nil, fmt.Errorf("AvatarRunnerの構築に失敗したのだ: %w", err)
	}

	image, err := avatarRunner.Run(ctx, runner.AvatarRequest{
		Gender:     wf.Gender,
		Outfit:     advice.Outfit,
		ModelAlias: wf.ModelAlias,
		Language:   wf.Language,
	}, appCtx.Config.Gateway())
	if err != nil {
		return nil, fmt.Errorf("画像生成に失敗したのだ: %w", err)
	}
	if image == nil {
		return nil, errors.New("コーディネートが空なので画像を生成できないのだ")
	}
	return image, nil
}

// runPublishStep は PublishRunner を使って最終成果物を保存するのだ
func runPublishStep(ctx context.Context, appCtx *builder.AppContext, advice *domain.AdviceResult, image *domain.GeneratedImage, out io.Writer) error {
	slog.InfoContext(ctx, "Phase 3: 公開処理を開始するのだ...", "output_dir", appCtx.Options.OutputDir)
	publishRunner, err := appCtx.Manager.BuildPublishRunner()
	if err != nil {
		return fmt.Errorf("PublishRunnerの構築に失敗したのだ: %w", err)
	}

	result, err := publishRunner.Run(ctx, advice, image, appCtx.Options.OutputDir)
	if err != nil {
		return fmt.Errorf("公開処理に失敗したのだ: %w", err)
	}

	if out != nil {
		if _, err := io.WriteString(out, publishRunner.BuildMarkdown(advice)); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "成果物を保存したのだ", "advice", result.AdvicePath, "markdown", result.MarkdownPath, "image", result.ImagePath)
	return nil
}
