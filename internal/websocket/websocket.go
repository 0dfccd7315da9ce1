package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal/utils"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBufferSize = 256
)

var (
	ErrClientClosed   = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Client owns one websocket connection. All writes go through a buffered queue
// drained by WritePump, so messages to a single client keep their order and
// callers never block on the network.
type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
}

// NewClient wraps conn. relayRate and relayBurst bound how many relay messages
// per second Allow admits; a non-positive rate disables the limit.
func NewClient(conn *websocket.Conn, relayRate, relayBurst int) *Client {
	limit := rate.Inf
	if relayRate > 0 {
		limit = rate.Limit(relayRate)
	}
	if relayBurst <= 0 {
		relayBurst = 1
	}
	return &Client{
		id:      utils.GenerateID(12),
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(limit, relayBurst),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send marshals msg and queues it. It fails instead of blocking when the
// client is gone or too slow to keep up.
func (c *Client) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		log.Warn().Str("conn", c.id).Msg("[Send] send buffer full, closing slow client")
		_ = c.Close()
		return ErrSendBufferFull
	}
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Allow reports whether another relay message fits in the rate budget.
func (c *Client) Allow() bool {
	return c.limiter.Allow()
}

// ReadPump delivers every inbound text frame to onMessage until the
// connection fails or the client is closed.
func (c *Client) ReadPump(onMessage func([]byte)) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Str("conn", c.id).Err(err).Msg("[ReadPump] unexpected close")
			}
			_ = c.Close()
			return err
		}
		onMessage(raw)
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
// It closes the underlying connection when it returns.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Str("conn", c.id).Err(err).Msg("[WritePump] write failed")
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued so that a final error message reaches
// the client before the close frame.
func (c *Client) flush() {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
