// Package questions supplies the drawing prompts used by a game. A source
// returns a fresh ordered pool per game; the round controller claims entries
// from it one at a time.
package questions

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
)

type Source interface {
	FetchPool(ctx context.Context) ([]internal.Question, error)
}

type fallbackSource struct {
	primary  Source
	fallback Source
}

// WithFallback returns a Source that consults fallback whenever primary fails
// or comes back empty.
func WithFallback(primary, fallback Source) Source {
	return &fallbackSource{primary: primary, fallback: fallback}
}

func (s *fallbackSource) FetchPool(ctx context.Context) ([]internal.Question, error) {
	pool, err := s.primary.FetchPool(ctx)
	if err == nil && len(pool) > 0 {
		return pool, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("[FetchPool] primary question source failed, using fallback")
	} else {
		log.Warn().Msg("[FetchPool] primary question source returned no questions, using fallback")
	}
	pool, ferr := s.fallback.FetchPool(ctx)
	if ferr != nil {
		return nil, fmt.Errorf("fallback question source: %w", ferr)
	}
	return pool, nil
}

func numbered(contents []string, size int) []internal.Question {
	if size > 0 && len(contents) > size {
		contents = contents[:size]
	}
	pool := make([]internal.Question, 0, len(contents))
	for i, content := range contents {
		pool = append(pool, internal.Question{ID: i + 1, Content: content})
	}
	return pool
}
