package questions

import (
	"context"
	"math/rand"
	"sync"
)

// FallbackQuestion is returned when the prompt corpus is empty.
const FallbackQuestion = "Is water wet?"

// Source supplies a uniformly random prompt from a prompt corpus.
type Source interface {
	Draw(ctx context.Context) (string, error)
}

// StaticSource draws from a fixed in-memory list. Used by tests and local
// development.
type StaticSource struct {
	mu        sync.Mutex
	questions []string
	rng       *rand.Rand
}

func NewStaticSource(questions []string, seed int64) *StaticSource {
	return &StaticSource{
		questions: questions,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (s *StaticSource) Draw(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return FallbackQuestion, nil
	}
	return s.questions[s.rng.Intn(len(s.questions))], nil
}
