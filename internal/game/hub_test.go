package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scythe504/skribblr-party/internal"
	"github.com/scythe504/skribblr-party/internal/questions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var connSeq atomic.Int64

// fakeConn records every envelope the hub sends to it.
type fakeConn struct {
	id     string
	mu     sync.Mutex
	msgs   []internal.Message[json.RawMessage]
	closed bool
}

func newFakeConn(label string) *fakeConn {
	return &fakeConn{id: fmt.Sprintf("%s-%d", label, connSeq.Add(1))}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var env internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, env)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count(typ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

// last decodes the most recent message of the given type into v.
func (c *fakeConn) last(t *testing.T, typ string, v any) bool {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == typ {
			if v != nil {
				require.NoError(t, json.Unmarshal(c.msgs[i].Data, v))
			}
			return true
		}
	}
	return false
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

const fixedFallback = 15

func newTestHub(t *testing.T, prompts ...string) *Hub {
	t.Helper()
	if len(prompts) == 0 {
		prompts = []string{"apple", "banana", "cherry", "dragon", "eagle"}
	}
	opts := DefaultOptions()
	opts.FallbackScore = func() int { return fixedFallback }
	return NewHub(questions.NewStaticSource(prompts, len(prompts)), opts)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func dispatch(t *testing.T, h *Hub, conn internal.Connection, typ string, data any) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		raw = mustJSON(t, data)
	}
	h.Handle(context.Background(), Event{Conn: conn, Type: typ, Data: raw})
}

func join(t *testing.T, h *Hub, name string) *fakeConn {
	t.Helper()
	conn := newFakeConn(name)
	dispatch(t, h, conn, internal.EventJoin, internal.JoinData{Username: name})
	return conn
}

func participant(t *testing.T, h *Hub, name string) *internal.Participant {
	t.Helper()
	p, ok := h.identities.Get(name)
	require.True(t, ok, "participant %s not registered", name)
	return p
}

func room(t *testing.T, h *Hub, name string) *internal.Room {
	t.Helper()
	r, ok := h.rooms.Get(name)
	require.True(t, ok, "room %s not found", name)
	return r
}

func admin(t *testing.T, h *Hub, conn internal.Connection, action string) {
	t.Helper()
	dispatch(t, h, conn, internal.EventAdmin, internal.AdminData{Action: action})
}

func lastError(t *testing.T, conn *fakeConn) string {
	t.Helper()
	var data internal.ErrorData
	if !conn.last(t, internal.EventError, &data) {
		return ""
	}
	return data.Message
}

// roomWith creates room R1 owned by the first name and seats the rest.
func roomWith(t *testing.T, h *Hub, names ...string) map[string]*fakeConn {
	t.Helper()
	conns := make(map[string]*fakeConn, len(names))
	for i, name := range names {
		conns[name] = join(t, h, name)
		if i == 0 {
			dispatch(t, h, conns[name], internal.EventCreateRoom, internal.RoomRequestData{RoomName: "R1"})
			continue
		}
		dispatch(t, h, conns[name], internal.EventJoinRoom, internal.RoomRequestData{RoomName: "R1"})
	}
	return conns
}

func TestLogin(t *testing.T) {
	h := newTestHub(t)
	conn := newFakeConn("anon")

	dispatch(t, h, conn, internal.EventLogin, internal.LoginData{Username: "alice", Password: "whatever"})
	var resp internal.LoginResponseData
	require.True(t, conn.last(t, internal.EventLoginResponse, &resp))
	assert.True(t, resp.Result)

	dispatch(t, h, conn, internal.EventLogin, internal.LoginData{Username: "   "})
	require.True(t, conn.last(t, internal.EventLoginResponse, &resp))
	assert.False(t, resp.Result)

	_, ok := h.identities.Get("alice")
	assert.False(t, ok, "login does not register a participant")
}

func TestJoinRegistersParticipant(t *testing.T) {
	h := newTestHub(t)
	conn := join(t, h, "  alice ")

	p := participant(t, h, "alice")
	assert.True(t, p.Online())
	assert.Equal(t, internal.PageLobby, p.PageStatus)

	var view internal.ParticipantView
	require.True(t, conn.last(t, internal.EventUpdateUser, &view))
	assert.Equal(t, "alice", view.Username)
	assert.Nil(t, view.RoomName)

	var lobby internal.LobbyInfo
	require.True(t, conn.last(t, internal.EventLobbyInfo, &lobby))
	assert.Equal(t, internal.Presence{Online: true}, lobby.OnlineUsers["alice"])
	assert.Empty(t, lobby.RoomList)
}

func TestJoinRequiresName(t *testing.T) {
	h := newTestHub(t)
	conn := newFakeConn("anon")
	dispatch(t, h, conn, internal.EventJoin, internal.JoinData{Username: ""})
	assert.Equal(t, internal.ErrNameRequired.Error(), lastError(t, conn))
	assert.Empty(t, h.identities.All())
}

func TestEventsBeforeJoinRejected(t *testing.T) {
	h := newTestHub(t)
	conn := newFakeConn("anon")
	dispatch(t, h, conn, internal.EventCreateRoom, internal.RoomRequestData{RoomName: "R1"})
	assert.Equal(t, internal.ErrNotRegistered.Error(), lastError(t, conn))
	assert.Zero(t, h.rooms.Len())
}

func TestCreateAndJoinRoom(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	r := room(t, h, "R1")
	assert.Equal(t, "alice", r.Admin)
	assert.Equal(t, []string{"alice", "bob"}, r.Members)
	assert.Equal(t, internal.StatusWaiting, r.Status)

	for _, name := range []string{"alice", "bob"} {
		p := participant(t, h, name)
		assert.Equal(t, internal.PageInRoom, p.PageStatus)
		got, ok := p.RoomName()
		assert.True(t, ok)
		assert.Equal(t, "R1", got)
	}

	var view internal.RoomView
	require.True(t, conns["alice"].last(t, internal.EventUpdateRoom, &view))
	assert.Equal(t, []string{"alice", "bob"}, view.Users)
	assert.Nil(t, view.Drawer)

	var lobby internal.LobbyInfo
	require.True(t, conns["bob"].last(t, internal.EventLobbyInfo, &lobby))
	require.Len(t, lobby.RoomList, 1)
	assert.Equal(t, "R1", lobby.RoomList[0].RoomName)
	assert.Equal(t, []string{"alice", "bob"}, lobby.RoomList[0].Users)
}

func TestCreateDuplicateRoom(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice")
	bob := join(t, h, "bob")

	dispatch(t, h, bob, internal.EventCreateRoom, internal.RoomRequestData{RoomName: "R1"})
	assert.Equal(t, internal.ErrRoomAlreadyExists.Error(), lastError(t, bob))
	assert.Equal(t, internal.PageLobby, participant(t, h, "bob").PageStatus)
	assert.Equal(t, []string{"alice"}, room(t, h, "R1").Members)
	assert.Empty(t, lastError(t, conns["alice"]))
}

func TestJoinMissingRoom(t *testing.T) {
	h := newTestHub(t)
	bob := join(t, h, "bob")

	dispatch(t, h, bob, internal.EventJoinRoom, internal.RoomRequestData{RoomName: "nowhere"})
	assert.Equal(t, internal.ErrRoomNotFound.Error(), lastError(t, bob))
	assert.Equal(t, internal.PageLobby, participant(t, h, "bob").PageStatus)
}

func TestSwitchingRoomsLeavesPrevious(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	dispatch(t, h, conns["bob"], internal.EventCreateRoom, internal.RoomRequestData{RoomName: "R2"})
	assert.Equal(t, []string{"alice"}, room(t, h, "R1").Members)
	assert.Equal(t, "bob", room(t, h, "R2").Admin)

	dispatch(t, h, conns["alice"], internal.EventJoinRoom, internal.RoomRequestData{RoomName: "R2"})
	_, ok := h.rooms.Get("R1")
	assert.False(t, ok, "R1 emptied and deleted")
	assert.Equal(t, []string{"bob", "alice"}, room(t, h, "R2").Members)
}

func TestStartGame(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	admin(t, h, conns["alice"], internal.ActionStartGame)

	r := room(t, h, "R1")
	assert.Equal(t, internal.StatusPlaying, r.Status)
	assert.Equal(t, 1, r.Round)
	assert.Equal(t, "alice", r.Drawer)

	drawing, guessing := 0, 0
	for _, name := range r.Members {
		p := participant(t, h, name)
		switch p.PageStatus {
		case internal.PageDrawing:
			drawing++
			require.NotNil(t, p.Question)
			assert.Equal(t, "apple", p.Question.Content)
		case internal.PageGuessing:
			guessing++
			assert.Nil(t, p.Question)
		}
	}
	assert.Equal(t, 1, drawing)
	assert.Equal(t, 1, guessing)

	var view internal.RoomView
	require.True(t, conns["bob"].last(t, internal.EventUpdateRoom, &view))
	assert.Equal(t, internal.StatusPlaying, view.Status)
	require.NotNil(t, view.Drawer)
	assert.Equal(t, "alice", *view.Drawer)
	assert.Equal(t, "_ _ _ _ _", view.Hint)
	assert.Nil(t, view.Question, "the word is not revealed while drawing")
	assert.Equal(t, 4, view.QuestionsRemaining)
	assert.Empty(t, view.Scores)

	var bobView internal.ParticipantView
	require.True(t, conns["bob"].last(t, internal.EventUpdateUser, &bobView))
	assert.Equal(t, internal.PageGuessing, bobView.PageStatus)
	assert.Nil(t, bobView.Question)
}

func TestStartGameRequiresAdmin(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	admin(t, h, conns["bob"], internal.ActionStartGame)
	assert.Equal(t, internal.ErrNotAdmin.Error(), lastError(t, conns["bob"]))
	assert.Equal(t, internal.StatusWaiting, room(t, h, "R1").Status)
}

func TestStartGameWhilePlayingRejected(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	admin(t, h, conns["alice"], internal.ActionStartGame)
	assert.Contains(t, lastError(t, conns["alice"]), internal.ErrInvalidTransition.Error())
	assert.Equal(t, 1, room(t, h, "R1").Round)
}

func TestUnknownAdminActionIgnored(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice")
	conns["alice"].reset()

	admin(t, h, conns["alice"], "launch-rockets")
	assert.Zero(t, conns["alice"].count(internal.EventError))
	assert.Zero(t, conns["alice"].count(internal.EventUpdateRoom))
	assert.Equal(t, internal.StatusWaiting, room(t, h, "R1").Status)
}

func TestAdminActionOutsideRoom(t *testing.T) {
	h := newTestHub(t)
	alice := join(t, h, "alice")
	admin(t, h, alice, internal.ActionStartGame)
	assert.Equal(t, internal.ErrNotInRoom.Error(), lastError(t, alice))
}

func TestDrawOver(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	dispatch(t, h, conns["alice"], internal.EventDrawOver, nil)

	r := room(t, h, "R1")
	assert.Equal(t, internal.StatusRoundOver, r.Status)
	for _, name := range []string{"alice", "bob"} {
		assert.Equal(t, internal.PageRoundOver, participant(t, h, name).PageStatus)
	}

	var view internal.RoomView
	require.True(t, conns["bob"].last(t, internal.EventUpdateRoom, &view))
	assert.Equal(t, map[string]int{"alice": fixedFallback, "bob": fixedFallback}, view.Scores)
	require.NotNil(t, view.Question)
	assert.Equal(t, "apple", view.Question.Content, "the word is revealed after the round")
	assert.Len(t, view.Leaderboard, 2)

	var bobView internal.ParticipantView
	require.True(t, conns["bob"].last(t, internal.EventUpdateUser, &bobView))
	assert.Equal(t, internal.PageRoundOver, bobView.PageStatus)
}

func TestDrawOverOnlyFromDrawer(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	dispatch(t, h, conns["alice"], internal.EventDrawOver, nil)
	assert.Contains(t, lastError(t, conns["alice"]), internal.ErrInvalidTransition.Error())

	admin(t, h, conns["alice"], internal.ActionStartGame)
	dispatch(t, h, conns["bob"], internal.EventDrawOver, nil)
	assert.Equal(t, internal.ErrNotDrawer.Error(), lastError(t, conns["bob"]))
	assert.Equal(t, internal.StatusPlaying, room(t, h, "R1").Status)
}

func TestDrawerRotation(t *testing.T) {
	h := newTestHub(t)
	names := []string{"alice", "bob", "carol"}
	conns := roomWith(t, h, names...)
	r := room(t, h, "R1")

	admin(t, h, conns["alice"], internal.ActionStartGame)

	drawn := map[string]bool{}
	for round := 1; round <= len(names); round++ {
		require.Equal(t, internal.StatusPlaying, r.Status)
		assert.Equal(t, round, r.Round)
		assert.Equal(t, names[round-1], r.Drawer, "drawers follow join order")
		assert.False(t, drawn[r.Drawer], "no member draws twice in one game")
		drawn[r.Drawer] = true

		flagged := 0
		for _, name := range names {
			if participant(t, h, name).DrawFlag {
				flagged++
			}
		}
		assert.Equal(t, round, flagged, "the has-drawn set grows by one per round")

		admin(t, h, conns["alice"], internal.ActionNextRound)
	}

	assert.Equal(t, internal.StatusRoundOver, r.Status)
	_, hasDrawer := r.CurrentDrawer()
	assert.False(t, hasDrawer)
	assert.Nil(t, r.Question)
	for _, name := range names {
		assert.Equal(t, internal.PageRoundOver, participant(t, h, name).PageStatus)
	}

	var view internal.RoomView
	require.True(t, conns["carol"].last(t, internal.EventUpdateRoom, &view))
	assert.Nil(t, view.Drawer)
	assert.Empty(t, view.Hint)
}

func TestNextRoundRequiresGameInProgress(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice")
	admin(t, h, conns["alice"], internal.ActionNextRound)
	assert.Contains(t, lastError(t, conns["alice"]), internal.ErrInvalidTransition.Error())
}

func TestPoolExhaustionEndsCycle(t *testing.T) {
	h := newTestHub(t, "only")
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	r := room(t, h, "R1")
	require.Equal(t, internal.StatusPlaying, r.Status)
	assert.Zero(t, r.Pool.Remaining())

	admin(t, h, conns["alice"], internal.ActionNextRound)
	assert.Equal(t, internal.StatusRoundOver, r.Status)
	assert.Empty(t, lastError(t, conns["alice"]))
	for _, name := range []string{"alice", "bob"} {
		assert.Equal(t, internal.PageRoundOver, participant(t, h, name).PageStatus)
	}
}

func TestEmptyPoolOnStart(t *testing.T) {
	h := NewHub(failingSource{}, DefaultOptions())
	conns := roomWith(t, h, "alice")

	admin(t, h, conns["alice"], internal.ActionStartGame)
	assert.Equal(t, internal.StatusRoundOver, room(t, h, "R1").Status)
	assert.Empty(t, lastError(t, conns["alice"]))
}

type failingSource struct{}

func (failingSource) FetchPool(context.Context) ([]internal.Question, error) {
	return nil, fmt.Errorf("source offline")
}

func TestGameOver(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	dispatch(t, h, conns["alice"], internal.EventDrawData,
		json.RawMessage(`{"type":"score","username":"bob","score":40}`))
	admin(t, h, conns["alice"], internal.ActionGameOver)

	r := room(t, h, "R1")
	assert.Equal(t, internal.StatusEnd, r.Status)
	assert.Nil(t, r.Pool)
	_, hasDrawer := r.CurrentDrawer()
	assert.False(t, hasDrawer)
	for _, name := range []string{"alice", "bob"} {
		p := participant(t, h, name)
		assert.Equal(t, internal.PageInRoom, p.PageStatus)
		assert.False(t, p.DrawFlag)
		assert.Nil(t, p.Question)
	}

	var view internal.RoomView
	require.True(t, conns["alice"].last(t, internal.EventUpdateRoom, &view))
	assert.Equal(t, map[string]int{"alice": fixedFallback, "bob": 40}, view.Scores)
	assert.Equal(t, []internal.Standing{
		{Username: "bob", Score: 40, Position: 1},
		{Username: "alice", Score: fixedFallback, Position: 2},
	}, view.Leaderboard)

	// A finished room can start over with an empty ledger.
	admin(t, h, conns["alice"], internal.ActionStartGame)
	assert.Equal(t, internal.StatusPlaying, r.Status)
	assert.Equal(t, 1, r.Round)
	assert.Empty(t, h.scores.Snapshot("R1"))
}

func TestScoreEnvelope(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob", "carol")
	admin(t, h, conns["alice"], internal.ActionStartGame)
	for _, c := range conns {
		c.reset()
	}

	score := func(name string, delta int) {
		dispatch(t, h, conns["alice"], internal.EventDrawData,
			json.RawMessage(fmt.Sprintf(`{"type":"score","username":%q,"score":%d}`, name, delta)))
	}

	score("bob", 30)
	score("bob", 12)
	score("mallory", 99)

	assert.Equal(t, map[string]int{"bob": 42}, h.scores.Snapshot("R1"))
	assert.Equal(t, 3, conns["bob"].count(internal.EventDrawData), "envelopes are relayed even when ignored")
	assert.Zero(t, conns["alice"].count(internal.EventDrawData), "never echoed to the sender")

	var view internal.RoomView
	require.True(t, conns["carol"].last(t, internal.EventUpdateRoom, &view))
	assert.Equal(t, 42, view.Scores["bob"])
}

func TestRelayExcludesSender(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob", "carol")
	outsider := join(t, h, "dave")
	for _, c := range conns {
		c.reset()
	}

	stroke := internal.Stroke{X1: 1, Y1: 2, X2: 3, Y2: 4}
	dispatch(t, h, conns["alice"], internal.EventDrawData, stroke)
	dispatch(t, h, conns["alice"], internal.EventDrawClear, nil)

	for _, name := range []string{"bob", "carol"} {
		var got internal.Stroke
		require.True(t, conns[name].last(t, internal.EventDrawData, &got))
		assert.Equal(t, stroke, got)
		assert.Equal(t, 1, conns[name].count(internal.EventCanvasClear))
	}
	assert.Zero(t, conns["alice"].count(internal.EventDrawData))
	assert.Zero(t, conns["alice"].count(internal.EventCanvasClear))
	assert.Zero(t, outsider.count(internal.EventDrawData))

	dispatch(t, h, outsider, internal.EventDrawData, stroke)
	assert.Equal(t, 1, conns["bob"].count(internal.EventDrawData), "relay outside a room is dropped")
}

func TestChatRecordedAsAnswer(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	dispatch(t, h, conns["bob"], internal.EventDrawData, json.RawMessage(`{"type":"chat","text":"banana?","sender":"bob"}`))
	dispatch(t, h, conns["alice"], internal.EventDrawData, json.RawMessage(`{"type":"chat","text":"hint: fruit","sender":"alice"}`))

	r := room(t, h, "R1")
	assert.Equal(t, map[string]string{"bob": "banana?"}, r.Answers)

	admin(t, h, conns["alice"], internal.ActionNextRound)
	assert.Empty(t, r.Answers, "answers reset every round")
}

func TestLeaveTransfersAdmin(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob", "carol")
	dispatch(t, h, conns["bob"], internal.EventDrawData, json.RawMessage(`{"type":"score","username":"alice","score":5}`))

	dispatch(t, h, conns["alice"], internal.EventLeaveRoom, nil)

	r := room(t, h, "R1")
	assert.Equal(t, "bob", r.Admin)
	assert.Equal(t, []string{"bob", "carol"}, r.Members)
	assert.False(t, h.scores.Has("R1", "alice"), "leaving drops the ledger entry")

	alice := participant(t, h, "alice")
	assert.Equal(t, internal.PageLobby, alice.PageStatus)
	_, seated := alice.RoomName()
	assert.False(t, seated)

	var view internal.RoomView
	require.True(t, conns["carol"].last(t, internal.EventUpdateRoom, &view))
	assert.Equal(t, "bob", view.Admin)
}

func TestLastMemberLeavingDeletesRoom(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice")
	watcher := join(t, h, "bob")

	dispatch(t, h, conns["alice"], internal.EventLeaveRoom, nil)

	_, ok := h.rooms.Get("R1")
	assert.False(t, ok)
	var lobby internal.LobbyInfo
	require.True(t, watcher.last(t, internal.EventLobbyInfo, &lobby))
	assert.Empty(t, lobby.RoomList)

	// the name is free again
	dispatch(t, h, watcher, internal.EventCreateRoom, internal.RoomRequestData{RoomName: "R1"})
	assert.Equal(t, "bob", room(t, h, "R1").Admin)
}

func TestDisconnect(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	dispatch(t, h, conns["alice"], internal.EventDisconnect, nil)

	alice := participant(t, h, "alice")
	assert.False(t, alice.Online())
	_, seated := alice.RoomName()
	assert.False(t, seated)
	assert.Equal(t, []string{"bob"}, room(t, h, "R1").Members)
	assert.Equal(t, "bob", room(t, h, "R1").Admin)

	var lobby internal.LobbyInfo
	require.True(t, conns["bob"].last(t, internal.EventLobbyInfo, &lobby))
	assert.Equal(t, internal.Presence{Online: false}, lobby.OnlineUsers["alice"])

	// a second disconnect for the same handle is harmless
	dispatch(t, h, conns["alice"], internal.EventDisconnect, nil)
	assert.Len(t, h.identities.All(), 2)
}

func TestDrawerDisconnectAdvancesRound(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob", "carol")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	dispatch(t, h, conns["alice"], internal.EventDisconnect, nil)

	r := room(t, h, "R1")
	assert.Equal(t, internal.StatusPlaying, r.Status)
	assert.Equal(t, "bob", r.Drawer)
	assert.Equal(t, 2, r.Round)
	assert.Equal(t, internal.PageDrawing, participant(t, h, "bob").PageStatus)
	assert.Equal(t, internal.PageGuessing, participant(t, h, "carol").PageStatus)
}

func TestLateJoinerGuesses(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	carol := join(t, h, "carol")
	dispatch(t, h, carol, internal.EventJoinRoom, internal.RoomRequestData{RoomName: "R1"})

	assert.Equal(t, internal.PageGuessing, participant(t, h, "carol").PageStatus)
	assert.Equal(t, "alice", room(t, h, "R1").Drawer)
}

func TestRejoinReplacesStaleConnection(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")
	stale := conns["alice"]

	fresh := join(t, h, "alice")
	var view internal.ParticipantView
	require.True(t, fresh.last(t, internal.EventUpdateUser, &view))
	require.NotNil(t, view.RoomName)
	assert.Equal(t, "R1", *view.RoomName, "the seat survives a reconnect")
	assert.True(t, fresh.last(t, internal.EventUpdateRoom, nil))

	dispatch(t, h, stale, internal.EventDisconnect, nil)
	alice := participant(t, h, "alice")
	assert.True(t, alice.Online(), "a stale handle disconnecting is a no-op")
	assert.Equal(t, []string{"alice", "bob"}, room(t, h, "R1").Members)

	dispatch(t, h, stale, internal.EventDrawClear, nil)
	assert.Equal(t, internal.ErrNotRegistered.Error(), lastError(t, stale))
}

func TestConnectionSwitchingIdentity(t *testing.T) {
	h := newTestHub(t)
	conns := roomWith(t, h, "alice", "bob")

	dispatch(t, h, conns["alice"], internal.EventJoin, internal.JoinData{Username: "alicia"})

	assert.False(t, participant(t, h, "alice").Online())
	assert.Equal(t, []string{"bob"}, room(t, h, "R1").Members)
	p, ok := h.identities.ByConn(conns["alice"])
	require.True(t, ok)
	assert.Equal(t, "alicia", p.Name)
}

func TestRoomLeaseExpiry(t *testing.T) {
	opts := DefaultOptions()
	opts.RoundLease = time.Hour
	opts.FallbackScore = func() int { return fixedFallback }
	h := NewHub(questions.NewStaticSource([]string{"apple", "banana"}, 2), opts)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)

	lease, ok := h.leases["R1"]
	require.True(t, ok)
	t.Cleanup(lease.cancel)

	expire := func(seq uint64, round int) {
		h.Handle(context.Background(), Event{Type: eventLeaseExpired,
			Data: mustJSON(t, leaseExpiry{Room: "R1", Seq: seq, Round: round})})
	}

	expire(lease.seq+100, 1)
	assert.Equal(t, internal.StatusPlaying, room(t, h, "R1").Status, "unknown leases are ignored")

	expire(lease.seq, 1)
	r := room(t, h, "R1")
	assert.Equal(t, internal.StatusRoundOver, r.Status)
	assert.Equal(t, map[string]int{"alice": fixedFallback, "bob": fixedFallback}, h.scores.Snapshot("R1"))
	assert.NotContains(t, h.leases, "R1")
}

func TestLeaseCancelledOnDrawOver(t *testing.T) {
	opts := DefaultOptions()
	opts.RoundLease = time.Hour
	h := NewHub(questions.NewStaticSource([]string{"apple", "banana"}, 2), opts)
	conns := roomWith(t, h, "alice", "bob")
	admin(t, h, conns["alice"], internal.ActionStartGame)
	require.Contains(t, h.leases, "R1")

	dispatch(t, h, conns["alice"], internal.EventDrawOver, nil)
	assert.NotContains(t, h.leases, "R1")
}

func TestRunLoop(t *testing.T) {
	opts := DefaultOptions()
	opts.RoundLease = 20 * time.Millisecond
	h := NewHub(questions.NewStaticSource([]string{"apple", "banana"}, 2), opts)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	alice := newFakeConn("alice")
	submit := func(typ string, data any) {
		require.True(t, h.Submit(Event{Conn: alice, Type: typ, Data: mustJSON(t, data)}))
	}
	submit(internal.EventJoin, internal.JoinData{Username: "alice"})
	submit(internal.EventCreateRoom, internal.RoomRequestData{RoomName: "R1"})
	submit(internal.EventAdmin, internal.AdminData{Action: internal.ActionStartGame})

	// the drawer never ends the round, so the lease does
	assert.Eventually(t, func() bool {
		info, err := h.Lobby(context.Background())
		if err != nil || len(info.RoomList) != 1 {
			return false
		}
		return info.RoomList[0].Status == internal.StatusRoundOver
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-stopped

	assert.False(t, h.Submit(Event{Conn: alice, Type: internal.EventDisconnect}))
	_, err := h.Lobby(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}

func TestLobbyHonoursContext(t *testing.T) {
	h := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Lobby(ctx)
	assert.Error(t, err)
}
