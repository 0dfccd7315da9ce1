package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
)

// =============================================================================
// ROUND LEASE
// =============================================================================

// roundLease bounds how long a drawer may hold a round when ROUND_LEASE is
// configured. Expiry is delivered back through the hub inbox.
type roundLease struct {
	seq     uint64
	round   int
	started time.Time
	cancel  context.CancelFunc
}

type leaseExpiry struct {
	Room  string `json:"room"`
	Seq   uint64 `json:"seq"`
	Round int    `json:"round"`
}

// armLease starts the lease for the room's current round, replacing any
// earlier one.
func (h *Hub) armLease(room *internal.Room) {
	h.cancelLease(room.Name)
	if h.opts.RoundLease <= 0 {
		return
	}

	h.leaseSeq++
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.RoundLease)
	lease := &roundLease{seq: h.leaseSeq, round: room.Round, started: time.Now(), cancel: cancel}
	h.leases[room.Name] = lease

	expiry := leaseExpiry{Room: room.Name, Seq: lease.seq, Round: lease.round}
	duration := h.opts.RoundLease
	go func() {
		<-ctx.Done()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		data, err := json.Marshal(expiry)
		if err != nil {
			return
		}
		log.Debug().Str("room", expiry.Room).Int("round", expiry.Round).Dur("lease", duration).Msg("[armLease] lease expired")
		h.Submit(Event{Type: eventLeaseExpired, Data: data})
	}()
}

func (h *Hub) cancelLease(roomName string) {
	lease, ok := h.leases[roomName]
	if !ok {
		return
	}
	lease.cancel()
	delete(h.leases, roomName)
}

// handleLeaseExpired ends the round if the expiring lease is still the live
// one. Leases cancelled while the expiry was in flight are ignored.
func (h *Hub) handleLeaseExpired(raw json.RawMessage) {
	var expiry leaseExpiry
	if err := json.Unmarshal(raw, &expiry); err != nil {
		log.Warn().Err(err).Msg("[handleLeaseExpired] malformed expiry")
		return
	}
	lease, ok := h.leases[expiry.Room]
	if !ok || lease.seq != expiry.Seq {
		return
	}
	h.cancelLease(expiry.Room)

	room, ok := h.rooms.Get(expiry.Room)
	if !ok || room.Status != internal.StatusPlaying || room.Round != expiry.Round {
		return
	}
	log.Info().Str("room", room.Name).Int("round", room.Round).Str("drawer", room.Drawer).
		Dur("held", time.Since(lease.started)).Msg("[handleLeaseExpired] drawer lease expired, ending round")

	h.endRound(room)
	h.syncRoom(room)
	h.broadcastLobby()
}
