package game

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
	"github.com/scythe504/skribblr-party/internal/questions"
	"github.com/scythe504/skribblr-party/internal/utils"
)

const (
	eventLobbySnapshot = "lobby-snapshot"
	eventLeaseExpired  = "round-lease-expired"

	inboxSize = 1024
)

var ErrHubStopped = errors.New("hub stopped")

type Options struct {
	MaxRounds     int
	RoundSeconds  int
	RoundLease    time.Duration // zero leaves round timing to the drawer
	FetchTimeout  time.Duration
	FallbackScore func() int
	RelayRate     int
	RelayBurst    int
}

func DefaultOptions() Options {
	return Options{
		MaxRounds:     internal.DefaultMaxRounds,
		RoundSeconds:  internal.DefaultRoundSeconds,
		FetchTimeout:  3 * time.Second,
		FallbackScore: RandomFallback(10, 30),
		RelayRate:     120,
		RelayBurst:    240,
	}
}

// RandomFallback returns a scorer producing a uniform integer in [lo, hi].
func RandomFallback(lo, hi int) func() int {
	if hi < lo {
		hi = lo
	}
	return func() int {
		return lo + rand.Intn(hi-lo+1)
	}
}

// Event is one unit of work for the hub. Client events carry the sending
// connection and the raw payload of the envelope.
type Event struct {
	Conn  internal.Connection
	Type  string
	Data  json.RawMessage
	reply chan internal.LobbyInfo
}

// Hub is the authoritative side of the game. It owns every registry and
// applies events one at a time, so handlers never need locks.
type Hub struct {
	identities *IdentityRegistry
	rooms      *RoomRegistry
	scores     *ScoreLedger
	questions  questions.Source
	opts       Options

	inbox    chan Event
	done     chan struct{}
	leases   map[string]*roundLease
	leaseSeq uint64
}

func NewHub(src questions.Source, opts Options) *Hub {
	defaults := DefaultOptions()
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = defaults.MaxRounds
	}
	if opts.RoundSeconds <= 0 {
		opts.RoundSeconds = defaults.RoundSeconds
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaults.FetchTimeout
	}
	if opts.FallbackScore == nil {
		opts.FallbackScore = defaults.FallbackScore
	}
	if src == nil {
		src = questions.NewStaticSource(nil, internal.DefaultPoolSize)
	}
	return &Hub{
		identities: NewIdentityRegistry(),
		rooms:      NewRoomRegistry(opts.MaxRounds),
		scores:     NewScoreLedger(),
		questions:  src,
		opts:       opts,
		inbox:      make(chan Event, inboxSize),
		done:       make(chan struct{}),
		leases:     make(map[string]*roundLease),
	}
}

// Run processes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("[Run] hub event loop started")
	defer func() {
		for name := range h.leases {
			h.cancelLease(name)
		}
		close(h.done)
		log.Info().Msg("[Run] hub event loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.inbox:
			h.Handle(ctx, ev)
		}
	}
}

// Submit queues ev for the event loop. It reports false once the hub has
// stopped.
func (h *Hub) Submit(ev Event) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Lobby returns the current room listing and presence map.
func (h *Hub) Lobby(ctx context.Context) (internal.LobbyInfo, error) {
	reply := make(chan internal.LobbyInfo, 1)
	select {
	case h.inbox <- Event{Type: eventLobbySnapshot, reply: reply}:
	case <-h.done:
		return internal.LobbyInfo{}, ErrHubStopped
	case <-ctx.Done():
		return internal.LobbyInfo{}, ctx.Err()
	}
	select {
	case info := <-reply:
		return info, nil
	case <-h.done:
		return internal.LobbyInfo{}, ErrHubStopped
	case <-ctx.Done():
		return internal.LobbyInfo{}, ctx.Err()
	}
}

// Handle applies a single event. Only the event loop and tests call it.
func (h *Hub) Handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case eventLobbySnapshot:
		ev.reply <- h.lobbyInfo()
		return
	case eventLeaseExpired:
		h.handleLeaseExpired(ev.Data)
		return
	case internal.EventDisconnect:
		h.unbind(ev.Conn)
		return
	case internal.EventLogin:
		h.handleLogin(ev)
		return
	case internal.EventJoin:
		h.handleJoin(ev)
		return
	}

	p, ok := h.identities.ByConn(ev.Conn)
	if !ok {
		h.reject(ev.Conn, ev.Type, internal.ErrNotRegistered)
		return
	}

	var err error
	switch ev.Type {
	case internal.EventCreateRoom:
		var data internal.RoomRequestData
		if err = decode(ev.Data, &data); err == nil {
			err = h.createRoom(p, data.RoomName)
		}
	case internal.EventJoinRoom:
		var data internal.RoomRequestData
		if err = decode(ev.Data, &data); err == nil {
			err = h.joinRoom(p, data.RoomName)
		}
	case internal.EventLeaveRoom:
		h.leaveRoom(p)
	case internal.EventAdmin:
		var data internal.AdminData
		if err = decode(ev.Data, &data); err == nil {
			err = h.handleAdmin(ctx, p, data.Action)
		}
	case internal.EventDrawOver:
		err = h.handleDrawOver(p)
	case internal.EventDrawData:
		h.handleDrawData(p, ev.Data)
	case internal.EventDrawClear:
		h.handleDrawClear(p)
	default:
		log.Warn().Str("participant", p.Name).Str("type", ev.Type).Msg("[Handle] unknown event type")
	}

	if err != nil {
		h.reject(ev.Conn, ev.Type, err)
	}
}

func (h *Hub) handleLogin(ev Event) {
	var data internal.LoginData
	if err := decode(ev.Data, &data); err != nil {
		h.reject(ev.Conn, ev.Type, err)
		return
	}
	// Credentials are not checked; any non-empty name logs in.
	resp := internal.LoginResponseData{Result: true, Msg: "login successful"}
	if name := utils.NormalizeName(data.Username); name == "" {
		resp = internal.LoginResponseData{Result: false, Msg: internal.ErrNameRequired.Error()}
	}
	if ev.Conn != nil {
		if err := ev.Conn.Send(internal.Message[any]{Type: internal.EventLoginResponse, Data: resp}); err != nil {
			log.Debug().Err(err).Msg("[handleLogin] failed to send login response")
		}
	}
}

func (h *Hub) handleJoin(ev Event) {
	var data internal.JoinData
	if err := decode(ev.Data, &data); err != nil {
		h.reject(ev.Conn, ev.Type, err)
		return
	}
	if err := h.register(data.Username, ev.Conn); err != nil {
		h.reject(ev.Conn, ev.Type, err)
	}
}

func (h *Hub) handleAdmin(ctx context.Context, p *internal.Participant, action string) error {
	room, err := h.seatedRoom(p)
	if err != nil {
		return err
	}
	if room.Admin != p.Name {
		return internal.ErrNotAdmin
	}

	log.Info().Str("room", room.Name).Str("participant", p.Name).Str("action", action).Msg("[handleAdmin] admin action")
	switch action {
	case internal.ActionStartGame:
		err = h.startGame(ctx, room)
	case internal.ActionNextRound:
		err = h.nextRound(room)
	case internal.ActionGameOver:
		h.gameOver(room)
	default:
		log.Warn().Str("room", room.Name).Str("action", action).Err(internal.ErrUnknownAdminAction).Msg("[handleAdmin] ignoring action")
		return nil
	}
	if err != nil {
		return err
	}

	h.syncRoom(room)
	h.broadcastLobby()
	return nil
}

func (h *Hub) handleDrawOver(p *internal.Participant) error {
	room, err := h.seatedRoom(p)
	if err != nil {
		return err
	}
	if err := h.drawOver(room, p); err != nil {
		return err
	}
	h.syncRoom(room)
	h.broadcastLobby()
	return nil
}

// seatedRoom resolves the participant's weak room reference.
func (h *Hub) seatedRoom(p *internal.Participant) (*internal.Room, error) {
	name, ok := p.RoomName()
	if !ok {
		return nil, internal.ErrNotInRoom
	}
	room, ok := h.rooms.Get(name)
	if !ok {
		return nil, internal.ErrRoomNotFound
	}
	return room, nil
}

// members resolves the room's member names in join order.
func (h *Hub) members(room *internal.Room) []*internal.Participant {
	out := make([]*internal.Participant, 0, len(room.Members))
	for _, name := range room.Members {
		if p, ok := h.identities.Get(name); ok {
			out = append(out, p)
		}
	}
	return out
}

func (h *Hub) reject(conn internal.Connection, eventType string, err error) {
	log.Debug().Str("type", eventType).Err(err).Msg("[reject] event rejected")
	if conn == nil {
		return
	}
	msg := internal.Message[any]{Type: internal.EventError, Data: internal.ErrorData{Message: err.Error()}}
	if sendErr := conn.Send(msg); sendErr != nil {
		log.Debug().Err(sendErr).Msg("[reject] failed to send error")
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
