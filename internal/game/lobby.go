package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
)

// =============================================================================
// GAME FLOW - START & GAME OVER
// =============================================================================

// startGame loads a fresh question pool, resets the round state of the room
// and promotes the first drawer.
func (h *Hub) startGame(ctx context.Context, room *internal.Room) error {
	if !room.Status.Idle() {
		return fmt.Errorf("%w: start-game while %s", internal.ErrInvalidTransition, room.Status)
	}

	room.Pool = internal.NewQuestionPool(h.fetchQuestions(ctx, room.Name))
	room.Round = 0
	room.ClearRound()
	room.ResetAnswers()
	h.scores.Reset(room.Name)
	for _, m := range h.members(room) {
		m.ResetRoundState()
	}
	log.Info().Str("room", room.Name).Int("questions", room.Pool.Len()).Int("members", len(room.Members)).
		Msg("[startGame] game starting")

	h.promoteNextDrawer(room)
	return nil
}

// fetchQuestions never fails: a broken source yields an empty pool and the
// first promotion then ends the cycle.
func (h *Hub) fetchQuestions(ctx context.Context, roomName string) []internal.Question {
	ctx, cancel := context.WithTimeout(ctx, h.opts.FetchTimeout)
	defer cancel()

	pool, err := h.questions.FetchPool(ctx)
	if err != nil {
		log.Error().Str("room", roomName).Err(err).Msg("[fetchQuestions] question source failed, using empty pool")
		return nil
	}
	return pool
}

// gameOver settles the ledger and returns everyone to the room screen.
func (h *Hub) gameOver(room *internal.Room) {
	h.cancelLease(room.Name)
	injected := h.scores.EnsureAll(room.Name, room.Members, h.opts.FallbackScore)
	if len(injected) > 0 {
		log.Info().Str("room", room.Name).Strs("participants", injected).Msg("[gameOver] injected fallback scores")
	}

	room.ClearRound()
	room.Pool = nil
	room.Status = internal.StatusEnd
	for _, m := range h.members(room) {
		m.PageStatus = internal.PageInRoom
		m.ResetRoundState()
	}
	log.Info().Str("room", room.Name).Int("rounds", room.Round).Msg("[gameOver] game finished")
}
