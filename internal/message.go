package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Client to server events.
const (
	EventLogin      = "login"
	EventJoin       = "join"
	EventCreateRoom = "createRoom"
	EventJoinRoom   = "join-room"
	EventAdmin      = "admin"
	EventDrawOver   = "draw-over"
	EventDrawData   = "draw-data"
	EventDrawClear  = "draw-clear"
	EventLeaveRoom  = "leave-room"
	EventDisconnect = "disconnect"
)

// Server to client events.
const (
	EventLoginResponse = "login-response"
	EventUpdateUser    = "update-user"
	EventUpdateRoom    = "update-room"
	EventLobbyInfo     = "lobby-info"
	EventCanvasClear   = "canvas-clear"
	EventError         = "error"
)

const (
	ActionStartGame = "start-game"
	ActionNextRound = "next-round"
	ActionGameOver  = "game-over"
)

type LoginData struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponseData struct {
	Result bool   `json:"result"`
	Msg    string `json:"msg"`
}

type JoinData struct {
	Username string `json:"username"`
}

type RoomRequestData struct {
	RoomName string `json:"roomName"`
}

type AdminData struct {
	Action string `json:"action"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type RoomView struct {
	RoomName           string            `json:"roomName"`
	Admin              string            `json:"admin"`
	Users              []string          `json:"users"`
	Drawer             *string           `json:"drawer"`
	Round              int               `json:"round"`
	MaxRounds          int               `json:"maxRounds"`
	RoundSeconds       int               `json:"roundSeconds"`
	Status             RoomStatus        `json:"status"`
	Scores             map[string]int    `json:"scores"`
	Answers            map[string]string `json:"answers"`
	Hint               string            `json:"hint,omitempty"`
	Question           *Question         `json:"question,omitempty"` // revealed once the round is over
	QuestionsRemaining int               `json:"questionsRemaining"`
	Leaderboard        []Standing        `json:"leaderboard,omitempty"`
}

type RoomSummary struct {
	RoomName string     `json:"roomName"`
	Admin    string     `json:"admin"`
	Users    []string   `json:"users"`
	Status   RoomStatus `json:"status"`
}

type Presence struct {
	Online bool `json:"online"`
}

type LobbyInfo struct {
	RoomList    []RoomSummary       `json:"roomList"`
	OnlineUsers map[string]Presence `json:"onlineUsers"`
}
