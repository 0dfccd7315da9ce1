package game

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
	"github.com/scythe504/skribblr-party/internal/utils"
)

// =============================================================================
// DRAWING RELAY
// =============================================================================

// handleDrawData forwards a stroke or typed envelope to the rest of the room.
// Only the score and chat envelopes touch authoritative state.
func (h *Hub) handleDrawData(p *internal.Participant, raw json.RawMessage) {
	room, err := h.seatedRoom(p)
	if err != nil {
		log.Debug().Str("participant", p.Name).Err(err).Msg("[handleDrawData] dropping relay")
		return
	}

	if env, typed := internal.ParseRelay(raw); typed {
		switch env.Type {
		case internal.RelayScore:
			h.recordGuessScore(room, env.Username, env.Score)
		case internal.RelayChat:
			h.recordAnswer(room, p, env.Text)
		}
	}

	h.relay(room, p, internal.Message[json.RawMessage]{Type: internal.EventDrawData, Data: raw})
}

func (h *Hub) handleDrawClear(p *internal.Participant) {
	room, err := h.seatedRoom(p)
	if err != nil {
		log.Debug().Str("participant", p.Name).Err(err).Msg("[handleDrawClear] dropping clear")
		return
	}
	h.relay(room, p, internal.Message[any]{Type: internal.EventCanvasClear})
}

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

func (h *Hub) send(p *internal.Participant, msg any) {
	if err := p.SafeWriteJSON(msg); err != nil {
		log.Debug().Str("participant", p.Name).Err(err).Msg("[send] write failed")
	}
}

// relay sends msg to every member of room except the sender.
func (h *Hub) relay(room *internal.Room, sender *internal.Participant, msg any) {
	for _, m := range h.members(room) {
		if m.Name == sender.Name {
			continue
		}
		h.send(m, msg)
	}
}

// pushParticipant sends a participant its own view.
func (h *Hub) pushParticipant(p *internal.Participant) {
	h.send(p, internal.Message[internal.ParticipantView]{Type: internal.EventUpdateUser, Data: p.View()})
}

func (h *Hub) sendRoom(p *internal.Participant, view internal.RoomView) {
	h.send(p, internal.Message[internal.RoomView]{Type: internal.EventUpdateRoom, Data: view})
}

// pushRoom sends the room view to every member.
func (h *Hub) pushRoom(room *internal.Room) {
	view := h.roomView(room)
	for _, m := range h.members(room) {
		h.sendRoom(m, view)
	}
}

// syncRoom refreshes every member's own view and then the shared room view.
func (h *Hub) syncRoom(room *internal.Room) {
	for _, m := range h.members(room) {
		h.pushParticipant(m)
	}
	h.pushRoom(room)
}

// broadcastLobby sends the lobby listing to every online participant,
// whether seated or not.
func (h *Hub) broadcastLobby() {
	msg := internal.Message[internal.LobbyInfo]{Type: internal.EventLobbyInfo, Data: h.lobbyInfo()}
	for _, p := range h.identities.All() {
		if p.Online() {
			h.send(p, msg)
		}
	}
}

func (h *Hub) lobbyInfo() internal.LobbyInfo {
	rooms := h.rooms.List()
	info := internal.LobbyInfo{
		RoomList:    make([]internal.RoomSummary, 0, len(rooms)),
		OnlineUsers: h.identities.Presence(),
	}
	for _, room := range rooms {
		info.RoomList = append(info.RoomList, internal.RoomSummary{
			RoomName: room.Name,
			Admin:    room.Admin,
			Users:    append([]string(nil), room.Members...),
			Status:   room.Status,
		})
	}
	return info
}

// roomView renders the replica-facing state of a room. The pool is never
// exposed and the question is masked while it is being drawn.
func (h *Hub) roomView(room *internal.Room) internal.RoomView {
	answers := make(map[string]string, len(room.Answers))
	for name, answer := range room.Answers {
		answers[name] = answer
	}
	view := internal.RoomView{
		RoomName:           room.Name,
		Admin:              room.Admin,
		Users:              append([]string(nil), room.Members...),
		Round:              room.Round,
		MaxRounds:          room.MaxRounds,
		RoundSeconds:       h.opts.RoundSeconds,
		Status:             room.Status,
		Scores:             h.scores.Snapshot(room.Name),
		Answers:            answers,
		QuestionsRemaining: room.Pool.Remaining(),
	}
	if drawer, ok := room.CurrentDrawer(); ok {
		view.Drawer = &drawer
	}
	if room.Question != nil {
		if room.Status == internal.StatusPlaying {
			view.Hint = utils.GetMaskedWord(room.Question.Content)
		} else {
			q := *room.Question
			view.Question = &q
		}
	}
	if room.Status == internal.StatusRoundOver || room.Status == internal.StatusEnd {
		view.Leaderboard = h.scores.Leaderboard(room.Name, room.Members)
	}
	return view
}
