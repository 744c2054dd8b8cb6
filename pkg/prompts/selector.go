package prompts

import (
	"math/rand/v2"
	"sync"
)

// Selector は候補の中から1つのインデックスを選びます。テストでは固定値を返す実装に差し替えます。
type Selector interface {
	Pick(n int) int
}

// RandomSelector は一様乱数で選ぶ Selector です。複数のゴルーチンから安全に使えます。
type RandomSelector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSelector は実行ごとに異なる結果を返す RandomSelector を生成します。
func NewRandomSelector() *RandomSelector {
	return &RandomSelector{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSelector は再現可能な RandomSelector を生成します。
func NewSeededSelector(seed uint64) *RandomSelector {
	return &RandomSelector{rnd: rand.New(rand.NewPCG(seed, seed))}
}

func (s *RandomSelector) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}

// FixedSelector は常に同じインデックスを返します。範囲外の場合は末尾に丸めます。
type FixedSelector int

func (f FixedSelector) Pick(n int) int {
	i := int(f)
	switch {
	case n <= 0 || i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}
