package questions

import (
	"context"

	"github.com/scythe504/skribblr-party/internal"
)

var defaultPrompts = []string{
	"apple", "bicycle", "castle", "dolphin", "elephant",
	"firetruck", "guitar", "helicopter", "igloo", "jellyfish",
	"kite", "lighthouse", "mountain", "notebook", "octopus",
	"penguin", "rainbow", "snowman", "tornado", "umbrella",
}

// StaticSource hands out the same ordered list for every game.
type StaticSource struct {
	Prompts []string
	Size    int
}

func NewStaticSource(prompts []string, size int) *StaticSource {
	if len(prompts) == 0 {
		prompts = defaultPrompts
	}
	return &StaticSource{Prompts: prompts, Size: size}
}

func (s *StaticSource) FetchPool(ctx context.Context) ([]internal.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return numbered(s.Prompts, s.Size), nil
}
