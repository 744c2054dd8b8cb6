package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-outfit-kit/pkg/gateway"
	"github.com/shouni/go-outfit-kit/pkg/parser"
	"github.com/shouni/go-outfit-kit/pkg/prompts"

	"github.com/shouni/go-remote-io/remoteio"
	"golang.org/x/time/rate"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。nil のものは既定の実装で補います。
type ManagerArgs struct {
	Config        Config
	Invoker       gateway.Invoker
	Observer      gateway.Observer
	Selector      prompts.Selector
	PromptBuilder prompts.PromptBuilder
	Reader        remoteio.InputReader
	Writer        remoteio.OutputWriter
}

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
type Manager struct {
	cfg           Config
	invoker       gateway.Invoker
	promptBuilder prompts.PromptBuilder
	parser        parser.Parser
	writer        remoteio.OutputWriter
}

// New は、設定を基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if err := args.Config.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}

	pb, err := initializePromptBuilder(args.PromptBuilder, args.Selector)
	if err != nil {
		return nil, err
	}

	invoker := args.Invoker
	if invoker == nil {
		invoker = initializeGatewayClient(args.Config, args.Observer)
	}

	writer := args.Writer
	if writer == nil {
		writer = remoteio.NewUniversalIOWriter(nil, nil)
	}

	return &Manager{
		cfg:           args.Config,
		invoker:       invoker,
		promptBuilder: pb,
		parser:        parser.NewAdviceParser(args.Reader),
		writer:        writer,
	}, nil
}

// initializeGatewayClient は設定値からゲートウェイクライアントを組み立てます。
func initializeGatewayClient(cfg Config, observer gateway.Observer) *gateway.Client {
	opts := []gateway.Option{
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithRetry(cfg.MaxRetries),
		gateway.WithSkipNetworkValidation(cfg.AllowPrivateNetwork),
	}
	if cfg.RateInterval > 0 {
		opts = append(opts, gateway.WithRateLimiter(rate.NewLimiter(rate.Every(cfg.RateInterval), 1)))
	}
	if observer != nil {
		opts = append(opts, gateway.WithObserver(observer))
	}
	return gateway.New(opts...)
}

// initializePromptBuilder は PromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializePromptBuilder(pb prompts.PromptBuilder, selector prompts.Selector) (prompts.PromptBuilder, error) {
	if pb != nil {
		return pb, nil
	}

	builder, err := prompts.NewTextPromptBuilder(selector)
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return builder, nil
}

// Parser は Manager が Reader を通して使うパーサーを返します。
func (m *Manager) Parser() parser.Parser {
	return m.parser
}

// Config は Manager が使っている設定を返します。
func (m *Manager) Config() Config {
	return m.cfg
}

// TestConnectivity は軽量モデルに最小のリクエストを送り、認証情報を確認します。
func (m *Manager) TestConnectivity(ctx context.Context, gw gateway.Config) error {
	conn, ok := m.invoker.(Connectivity)
	if !ok {
		return fmt.Errorf("ゲートウェイクライアントが疎通確認に対応していません")
	}
	_, err := conn.TestConnectivity(ctx, gw)
	return err
}

// NewSession は Manager が構築した Runner を使う Session を作成します。
func (m *Manager) NewSession(reporter Reporter) (*Session, error) {
	advice, err := m.BuildAdviceRunner()
	if err != nil {
		return nil, err
	}
	avatar, err := m.BuildAvatarRunner()
	if err != nil {
		return nil, err
	}
	return NewSession(advice, avatar, reporter), nil
}
