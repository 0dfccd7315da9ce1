package game

import (
	"maps"
	"slices"

	"github.com/scythe504/skribblr-party/internal"
)

// ScoreLedger keeps the cumulative score of every participant per room.
type ScoreLedger struct {
	boards map[string]map[string]int
}

func NewScoreLedger() *ScoreLedger {
	return &ScoreLedger{boards: make(map[string]map[string]int)}
}

func (l *ScoreLedger) board(room string) map[string]int {
	b, ok := l.boards[room]
	if !ok {
		b = make(map[string]int)
		l.boards[room] = b
	}
	return b
}

// Record adds delta to the participant's total and returns the new total.
func (l *ScoreLedger) Record(room, name string, delta int) int {
	b := l.board(room)
	b[name] += delta
	return b[name]
}

func (l *ScoreLedger) Has(room, name string) bool {
	_, ok := l.boards[room][name]
	return ok
}

// Reset clears the room's scores for a new game.
func (l *ScoreLedger) Reset(room string) {
	l.boards[room] = make(map[string]int)
}

func (l *ScoreLedger) Forget(room, name string) {
	delete(l.boards[room], name)
}

func (l *ScoreLedger) Drop(room string) {
	delete(l.boards, room)
}

// EnsureAll gives every member without an entry a fallback score and returns
// the names that received one.
func (l *ScoreLedger) EnsureAll(room string, members []string, fallback func() int) []string {
	b := l.board(room)
	var injected []string
	for _, name := range members {
		if _, ok := b[name]; ok {
			continue
		}
		b[name] = fallback()
		injected = append(injected, name)
	}
	return injected
}

func (l *ScoreLedger) Snapshot(room string) map[string]int {
	out := make(map[string]int, len(l.boards[room]))
	maps.Copy(out, l.boards[room])
	return out
}

// Leaderboard ranks the given members by score, highest first. Ties keep join
// order. Members without an entry are left out.
func (l *ScoreLedger) Leaderboard(room string, members []string) []internal.Standing {
	b := l.boards[room]
	standings := make([]internal.Standing, 0, len(members))
	for _, name := range members {
		if score, ok := b[name]; ok {
			standings = append(standings, internal.Standing{Username: name, Score: score})
		}
	}
	slices.SortStableFunc(standings, func(a, b internal.Standing) int {
		return b.Score - a.Score
	})
	for idx := range standings {
		standings[idx].Position = idx + 1
	}
	return standings
}
