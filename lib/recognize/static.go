package recognize

import (
	"context"
	"image"
	"sync"
)

// Static replays a scripted sequence of answers, repeating the last one
// once the script runs out. It exists for tests and offline replay.
type Static struct {
	mu      sync.Mutex
	answers []string
	next    int
}

func NewStatic(answers ...string) *Static {
	return &Static{answers: answers}
}

func (s *Static) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.answers) == 0 {
		return "", nil
	}
	answer := s.answers[s.next]
	if s.next < len(s.answers)-1 {
		s.next++
	}
	return answer, nil
}
