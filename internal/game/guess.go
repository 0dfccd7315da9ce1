package game

import (
	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
)

// =============================================================================
// GUESS HANDLING
// =============================================================================

// recordGuessScore applies a peer-asserted score delta. The drawer's client
// decides correctness; the hub only checks that the target is a member.
func (h *Hub) recordGuessScore(room *internal.Room, name string, delta int) bool {
	if !room.HasMember(name) {
		log.Warn().Str("room", room.Name).Str("participant", name).Int("delta", delta).
			Msg("[recordGuessScore] score for non-member ignored")
		return false
	}
	total := h.scores.Record(room.Name, name, delta)
	log.Debug().Str("room", room.Name).Str("participant", name).Int("delta", delta).Int("total", total).
		Msg("[recordGuessScore] score recorded")

	h.pushRoom(room)
	return true
}

// recordAnswer keeps a guesser's latest chat line on the room's answer board.
func (h *Hub) recordAnswer(room *internal.Room, p *internal.Participant, text string) {
	if room.Status != internal.StatusPlaying || room.Drawer == p.Name || text == "" {
		return
	}
	room.SubmitAnswer(p.Name, text)
}
