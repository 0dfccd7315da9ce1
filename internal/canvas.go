package internal

import "encoding/json"

// Stroke is an untyped draw-data payload: one line segment on the drawer's
// canvas. The server relays it without looking at the coordinates.
type Stroke struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Typed draw-data envelope variants.
const (
	RelayChat         = "chat"
	RelayScore        = "score"
	RelayTimer        = "timer"
	RelayDrawerInfo   = "drawer-info"
	RelayRequestState = "request-state"
	RelayState        = "state"
)

// RelayEnvelope is the subset of a typed draw-data payload the server reads.
type RelayEnvelope struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Score    int    `json:"score,omitempty"`
	Text     string `json:"text,omitempty"`
	Sender   string `json:"sender,omitempty"`
}

// ParseRelay inspects a draw-data payload. ok is false for strokes and for
// anything that is not a JSON object with a non-empty type field.
func ParseRelay(raw json.RawMessage) (RelayEnvelope, bool) {
	var env RelayEnvelope
	if len(raw) == 0 || raw[0] != '{' {
		return env, false
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return RelayEnvelope{}, false
	}
	return env, env.Type != ""
}
