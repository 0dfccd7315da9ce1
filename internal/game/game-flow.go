package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
)

// =============================================================================
// GAME FLOW - ROUNDS
// =============================================================================

// promoteNextDrawer starts the next round with the earliest member who has
// not drawn yet. When nobody is left, or the pool runs dry, the cycle ends.
func (h *Hub) promoteNextDrawer(room *internal.Room) {
	drawer, ok := h.chooseDrawer(room)
	if !ok {
		h.finishCycle(room, "every member has drawn")
		return
	}

	q, err := room.Pool.ClaimNext()
	if err != nil {
		log.Warn().Str("room", room.Name).Err(err).Msg("[promoteNextDrawer] cannot start round")
		h.finishCycle(room, "question pool exhausted")
		return
	}

	room.Drawer = drawer.Name
	room.Question = &q
	room.Round++
	room.Status = internal.StatusPlaying
	room.ResetAnswers()

	for _, m := range h.members(room) {
		if m.Name == drawer.Name {
			own := q
			m.PageStatus = internal.PageDrawing
			m.Question = &own
			continue
		}
		m.PageStatus = internal.PageGuessing
		m.Question = nil
	}
	log.Info().Str("room", room.Name).Int("round", room.Round).Str("drawer", drawer.Name).
		Int("questionsRemaining", room.Pool.Remaining()).Msg("[promoteNextDrawer] round started")

	h.armLease(room)
}

// chooseDrawer marks and returns the first member in join order whose draw
// flag is unset.
func (h *Hub) chooseDrawer(room *internal.Room) (*internal.Participant, bool) {
	for _, m := range h.members(room) {
		if !m.DrawFlag {
			m.DrawFlag = true
			return m, true
		}
	}
	return nil, false
}

// finishCycle parks the room in round_over with no drawer.
func (h *Hub) finishCycle(room *internal.Room, reason string) {
	h.cancelLease(room.Name)
	room.ClearRound()
	room.Status = internal.StatusRoundOver
	for _, m := range h.members(room) {
		m.PageStatus = internal.PageRoundOver
		m.Question = nil
	}
	log.Info().Str("room", room.Name).Int("round", room.Round).Str("reason", reason).Msg("[finishCycle] drawing cycle over")
}

func (h *Hub) nextRound(room *internal.Room) error {
	if room.Status != internal.StatusPlaying && room.Status != internal.StatusRoundOver {
		return fmt.Errorf("%w: next-round while %s", internal.ErrInvalidTransition, room.Status)
	}
	h.cancelLease(room.Name)
	h.promoteNextDrawer(room)
	return nil
}

// drawOver ends the drawer's round early. Only the current drawer may call it.
func (h *Hub) drawOver(room *internal.Room, p *internal.Participant) error {
	if room.Status != internal.StatusPlaying {
		return fmt.Errorf("%w: draw-over while %s", internal.ErrInvalidTransition, room.Status)
	}
	if room.Drawer != p.Name {
		return internal.ErrNotDrawer
	}
	h.endRound(room)
	return nil
}

// endRound closes the current round: every member gets a score entry and
// moves to the round-over screen. The drawer and question stay on the room so
// the answer can be revealed.
func (h *Hub) endRound(room *internal.Room) {
	h.cancelLease(room.Name)
	h.scores.EnsureAll(room.Name, room.Members, h.opts.FallbackScore)
	room.Status = internal.StatusRoundOver
	for _, m := range h.members(room) {
		m.PageStatus = internal.PageRoundOver
	}
	log.Info().Str("room", room.Name).Int("round", room.Round).Str("drawer", room.Drawer).Msg("[endRound] round over")
}
