package game

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
	wsclient "github.com/scythe504/skribblr-party/internal/websocket"
)

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientEvents are the envelope types a client may send. Disconnect and the
// hub's internal events are only ever produced server side.
var clientEvents = map[string]bool{
	internal.EventLogin:      true,
	internal.EventJoin:       true,
	internal.EventCreateRoom: true,
	internal.EventJoinRoom:   true,
	internal.EventAdmin:      true,
	internal.EventDrawOver:   true,
	internal.EventDrawData:   true,
	internal.EventDrawClear:  true,
	internal.EventLeaveRoom:  true,
}

// HandleWebSocket upgrades the request and feeds the connection's events into
// the hub. The participant identity is established later by a join event.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("[HandleWebSocket] upgrade failed")
		return
	}

	client := wsclient.NewClient(conn, h.opts.RelayRate, h.opts.RelayBurst)
	log.Info().Str("conn", client.ID()).Str("remote", r.RemoteAddr).Msg("[HandleWebSocket] connection opened")

	go client.WritePump()
	go h.handleMessages(client)
}

// handleMessages reads until the connection ends, then reports the
// disconnect to the hub.
func (h *Hub) handleMessages(client *wsclient.Client) {
	defer func() {
		_ = client.Close()
		h.Submit(Event{Conn: client, Type: internal.EventDisconnect})
		log.Info().Str("conn", client.ID()).Msg("[handleMessages] connection closed")
	}()

	err := client.ReadPump(func(raw []byte) {
		var baseMsg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &baseMsg); err != nil {
			log.Debug().Str("conn", client.ID()).Err(err).Msg("[handleMessages] failed to parse base message")
			return
		}
		if !clientEvents[baseMsg.Type] {
			log.Debug().Str("conn", client.ID()).Str("type", baseMsg.Type).Msg("[handleMessages] ignoring unknown message type")
			return
		}
		if (baseMsg.Type == internal.EventDrawData || baseMsg.Type == internal.EventDrawClear) && !client.Allow() {
			log.Warn().Str("conn", client.ID()).Str("type", baseMsg.Type).Msg("[handleMessages] relay rate exceeded, dropping")
			return
		}
		if !h.Submit(Event{Conn: client, Type: baseMsg.Type, Data: baseMsg.Data}) {
			_ = client.Close()
		}
	})
	log.Debug().Str("conn", client.ID()).Err(err).Msg("[handleMessages] read loop ended")
}
