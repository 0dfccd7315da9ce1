package internal

const (
	DefaultMaxRounds    = 3
	DefaultRoundSeconds = 60
	DefaultPoolSize     = 10
)

// PageStatus is the screen a participant's client renders. The numeric values
// are part of the wire protocol.
type PageStatus int

const (
	PageLobby PageStatus = iota + 1
	PageInRoom
	PageDrawing
	PageGuessing
	PageRoundOver
	PageGameOver
)

func (p PageStatus) String() string {
	switch p {
	case PageLobby:
		return "lobby"
	case PageInRoom:
		return "in_room"
	case PageDrawing:
		return "drawing"
	case PageGuessing:
		return "guessing"
	case PageRoundOver:
		return "round_over"
	case PageGameOver:
		return "game_over"
	}
	return "unknown"
}

type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusPlaying   RoomStatus = "playing"
	StatusRoundOver RoomStatus = "round_over"
	StatusEnd       RoomStatus = "end"
)

// Idle reports whether a new game may be started from this status.
func (s RoomStatus) Idle() bool {
	return s == StatusWaiting || s == StatusEnd
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}

type Standing struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}
