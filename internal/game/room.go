package game

import (
	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
	"github.com/scythe504/skribblr-party/internal/utils"
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// RoomRegistry holds the live rooms keyed by name, remembering creation order
// for the lobby listing.
type RoomRegistry struct {
	rooms     map[string]*internal.Room
	order     []string
	maxRounds int
}

func NewRoomRegistry(maxRounds int) *RoomRegistry {
	return &RoomRegistry{
		rooms:     make(map[string]*internal.Room),
		maxRounds: maxRounds,
	}
}

func (r *RoomRegistry) Create(name, creator string) (*internal.Room, error) {
	if name == "" {
		return nil, internal.ErrRoomNameRequired
	}
	if _, exists := r.rooms[name]; exists {
		return nil, internal.ErrRoomAlreadyExists
	}
	room := internal.NewRoom(name, creator, r.maxRounds)
	r.rooms[name] = room
	r.order = append(r.order, name)
	return room, nil
}

func (r *RoomRegistry) Join(name, participant string) (*internal.Room, error) {
	room, ok := r.rooms[name]
	if !ok {
		return nil, internal.ErrRoomNotFound
	}
	room.AddMember(participant)
	return room, nil
}

// Leave removes participant from the room and deletes the room once it is
// empty.
func (r *RoomRegistry) Leave(name, participant string) (room *internal.Room, deleted bool, err error) {
	room, ok := r.rooms[name]
	if !ok {
		return nil, false, internal.ErrRoomNotFound
	}
	if !room.RemoveMember(participant) {
		return room, false, internal.ErrNotInRoom
	}
	if room.IsEmpty() {
		r.remove(name)
		return room, true, nil
	}
	return room, false, nil
}

func (r *RoomRegistry) Get(name string) (*internal.Room, bool) {
	room, ok := r.rooms[name]
	return room, ok
}

// List returns the live rooms in creation order.
func (r *RoomRegistry) List() []*internal.Room {
	out := make([]*internal.Room, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.rooms[name])
	}
	return out
}

func (r *RoomRegistry) Len() int {
	return len(r.rooms)
}

func (r *RoomRegistry) remove(name string) {
	delete(r.rooms, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// =============================================================================
// MEMBERSHIP FLOWS
// =============================================================================

func (h *Hub) createRoom(p *internal.Participant, rawName string) error {
	name := utils.NormalizeName(rawName)
	if name == "" {
		return internal.ErrRoomNameRequired
	}
	if _, exists := h.rooms.Get(name); exists {
		return internal.ErrRoomAlreadyExists
	}

	h.detach(p)
	room, err := h.rooms.Create(name, p.Name)
	if err != nil {
		return err
	}
	p.Seat(room.Name, internal.PageInRoom)
	log.Info().Str("room", room.Name).Str("admin", p.Name).Msg("[createRoom] room created")

	h.syncRoom(room)
	h.broadcastLobby()
	return nil
}

func (h *Hub) joinRoom(p *internal.Participant, rawName string) error {
	name := utils.NormalizeName(rawName)
	room, ok := h.rooms.Get(name)
	if !ok {
		return internal.ErrRoomNotFound
	}
	if current, seated := p.RoomName(); seated && current == name {
		h.pushParticipant(p)
		h.sendRoom(p, h.roomView(room))
		return nil
	}

	h.detach(p)
	if _, err := h.rooms.Join(name, p.Name); err != nil {
		return err
	}

	// Late joiners pick up the phase the rest of the room is in.
	status := internal.PageInRoom
	switch room.Status {
	case internal.StatusPlaying:
		status = internal.PageGuessing
	case internal.StatusRoundOver:
		status = internal.PageRoundOver
	}
	p.Seat(room.Name, status)
	log.Info().Str("room", room.Name).Str("participant", p.Name).Str("status", string(room.Status)).Msg("[joinRoom] participant joined")

	h.syncRoom(room)
	h.broadcastLobby()
	return nil
}

// leaveRoom returns p to the lobby. It is also the disconnect path for seated
// participants.
func (h *Hub) leaveRoom(p *internal.Participant) {
	h.detach(p)
	h.pushParticipant(p)
	h.broadcastLobby()
}

// detach removes p from whatever room it is seated in and repairs the room:
// ledger entry, admin succession, drawer hand-off and deletion when empty.
func (h *Hub) detach(p *internal.Participant) {
	roomName, seated := p.RoomName()
	if !seated {
		return
	}
	p.Unseat()

	room, ok := h.rooms.Get(roomName)
	if !ok {
		return
	}
	wasDrawing := room.Status == internal.StatusPlaying && room.Drawer == p.Name

	room, deleted, err := h.rooms.Leave(roomName, p.Name)
	if err != nil {
		log.Warn().Str("room", roomName).Str("participant", p.Name).Err(err).Msg("[detach] membership out of sync")
		return
	}
	h.scores.Forget(roomName, p.Name)
	log.Info().Str("room", roomName).Str("participant", p.Name).Msg("[detach] participant left")

	if deleted {
		h.cancelLease(roomName)
		h.scores.Drop(roomName)
		log.Info().Str("room", roomName).Msg("[detach] room empty, deleted")
		return
	}
	if wasDrawing {
		log.Info().Str("room", roomName).Str("drawer", p.Name).Msg("[detach] drawer left mid-round, advancing")
		h.cancelLease(roomName)
		h.promoteNextDrawer(room)
	}
	h.syncRoom(room)
}
