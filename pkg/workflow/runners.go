package workflow

import (
	"github.com/shouni/go-outfit-kit/pkg/publisher"
	"github.com/shouni/go-outfit-kit/pkg/runner"
)

// BuildAdviceRunner は、天気とコーディネートの提案を担当する Runner を作成します。
func (m *Manager) BuildAdviceRunner() (AdviceRunner, error) {
	return runner.NewAdviceRunner(m.cfg, m.promptBuilder, m.invoker, m.parser), nil
}

// BuildAvatarRunner は、アバター画像の生成を担当する Runner を作成します。
func (m *Manager) BuildAvatarRunner() (AvatarRunner, error) {
	return runner.NewAvatarRunner(m.cfg, m.promptBuilder, m.invoker), nil
}

// BuildPublishRunner は、成果物のパブリッシュを担当する Runner を作成します。
func (m *Manager) BuildPublishRunner() (PublishRunner, error) {
	pub := publisher.NewOutfitPublisher(m.writer)
	return runner.NewDefaultPublisherRunner(m.cfg, pub), nil
}
