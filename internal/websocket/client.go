package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize  = 16
	pingInterval    = 30 * time.Second
	validateTimeout = 10 * time.Second
	maxReadBytes    = 4096

	// DefaultDebounce is the quiet period before a kiosk's typed code is validated.
	DefaultDebounce = 500 * time.Millisecond
)

// ValidateFunc checks a code typed on a kiosk and returns the reply to send.
type ValidateFunc func(ctx context.Context, code string) Message

// inbound is what kiosks send; only "validate" is understood.
type inbound struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// Client represents a single WebSocket connection.
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	send     chan []byte
	validate ValidateFunc
	debounce *Debouncer
}

// NewClient creates a Client tied to the given hub and connection. A nil
// validate makes the client receive-only.
func NewClient(hub *Hub, conn *ws.Conn, validate ValidateFunc, debounce time.Duration) *Client {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		validate: validate,
		debounce: NewDebouncer(debounce),
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.debounce.Stop()

	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxReadBytes)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		c.handle(ctx, data)
	}
}

// handle schedules a debounced validation for each "validate" message.
// Anything else is ignored.
func (c *Client) handle(ctx context.Context, data []byte) {
	if c.validate == nil {
		return
	}
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil || in.Type != "validate" {
		return
	}

	code := strings.TrimSpace(in.Code)
	c.debounce.Trigger(func(current func() bool) {
		vctx, cancel := context.WithTimeout(ctx, validateTimeout)
		defer cancel()

		reply := c.validate(vctx, code)
		if current() {
			c.hub.SendTo(c, reply)
		}
	})
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
