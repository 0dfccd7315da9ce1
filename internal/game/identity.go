package game

import (
	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
	"github.com/scythe504/skribblr-party/internal/utils"
)

// IdentityRegistry maps participant names to records and live connections to
// names. Records are never removed; a participant whose connection drops is
// only marked offline.
type IdentityRegistry struct {
	participants map[string]*internal.Participant
	order        []string
	bindings     map[string]string // connection id -> participant name
}

func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{
		participants: make(map[string]*internal.Participant),
		bindings:     make(map[string]string),
	}
}

// Register binds conn to name, creating the record on first use. If the name
// was bound to another connection, that connection is returned as stale.
func (r *IdentityRegistry) Register(name string, conn internal.Connection) (p *internal.Participant, stale internal.Connection) {
	p, ok := r.participants[name]
	if !ok {
		p = internal.NewParticipant(name, conn)
		r.participants[name] = p
		r.order = append(r.order, name)
	} else {
		if p.Conn != nil && p.Conn.ID() != conn.ID() {
			stale = p.Conn
			delete(r.bindings, stale.ID())
		}
		p.Conn = conn
	}
	r.bindings[conn.ID()] = name
	return p, stale
}

// Unbind marks the participant behind conn offline. It is a no-op for a
// connection that is not the participant's current binding.
func (r *IdentityRegistry) Unbind(conn internal.Connection) (*internal.Participant, bool) {
	if conn == nil {
		return nil, false
	}
	name, ok := r.bindings[conn.ID()]
	if !ok {
		return nil, false
	}
	delete(r.bindings, conn.ID())
	p := r.participants[name]
	if p == nil || p.Conn == nil || p.Conn.ID() != conn.ID() {
		return nil, false
	}
	p.Conn = nil
	return p, true
}

func (r *IdentityRegistry) ByConn(conn internal.Connection) (*internal.Participant, bool) {
	if conn == nil {
		return nil, false
	}
	name, ok := r.bindings[conn.ID()]
	if !ok {
		return nil, false
	}
	p, ok := r.participants[name]
	return p, ok
}

func (r *IdentityRegistry) Get(name string) (*internal.Participant, bool) {
	p, ok := r.participants[name]
	return p, ok
}

// All returns every known participant in registration order.
func (r *IdentityRegistry) All() []*internal.Participant {
	out := make([]*internal.Participant, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.participants[name])
	}
	return out
}

func (r *IdentityRegistry) Presence() map[string]internal.Presence {
	out := make(map[string]internal.Presence, len(r.participants))
	for name, p := range r.participants {
		out[name] = internal.Presence{Online: p.Online()}
	}
	return out
}

// =============================================================================
// REGISTRATION
// =============================================================================

// register binds conn to the participant called name and pushes that
// participant's view along with a lobby update.
func (h *Hub) register(rawName string, conn internal.Connection) error {
	name := utils.NormalizeName(rawName)
	if name == "" {
		return internal.ErrNameRequired
	}
	if conn == nil {
		return internal.ErrNotRegistered
	}

	// A socket speaks for one name at a time.
	if current, ok := h.identities.ByConn(conn); ok && current.Name != name {
		log.Info().Str("conn", conn.ID()).Str("from", current.Name).Str("to", name).Msg("[register] connection switching identity")
		h.unbind(conn)
	}

	p, stale := h.identities.Register(name, conn)
	if stale != nil {
		log.Info().Str("participant", name).Str("stale", stale.ID()).Str("conn", conn.ID()).
			Msg("[register] replaced stale connection")
	}
	log.Info().Str("participant", name).Str("conn", conn.ID()).Msg("[register] participant online")

	h.pushParticipant(p)
	if room, err := h.seatedRoom(p); err == nil {
		h.sendRoom(p, h.roomView(room))
	}
	h.broadcastLobby()
	return nil
}

// unbind takes the participant behind conn offline. A seated participant
// leaves their room exactly as with leave-room.
func (h *Hub) unbind(conn internal.Connection) {
	p, ok := h.identities.Unbind(conn)
	if !ok {
		return
	}
	log.Info().Str("participant", p.Name).Str("conn", conn.ID()).Msg("[unbind] participant offline")
	if _, seated := p.RoomName(); seated {
		h.leaveRoom(p)
		return
	}
	h.broadcastLobby()
}
