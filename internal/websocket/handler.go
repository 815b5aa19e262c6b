package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

type Options struct {
	// Greeting, when set, is sent right after the upgrade.
	Greeting func() (Message, bool)
	Validate ValidateFunc
	Debounce time.Duration
	// OriginPatterns lists allowed browser origins; empty allows any.
	OriginPatterns []string
}

// Handle returns an HTTP handler that upgrades connections to WebSocket and
// runs them as Hub clients.
func Handle(hub *Hub, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accept := &ws.AcceptOptions{OriginPatterns: opts.OriginPatterns}
		if len(opts.OriginPatterns) == 0 {
			accept.InsecureSkipVerify = true
		}
		conn, err := ws.Accept(w, r, accept)
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err, "path", r.URL.Path)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn, opts.Validate, opts.Debounce)
		if opts.Greeting != nil {
			if msg, ok := opts.Greeting(); ok {
				client.queue(msg)
			}
		}
		client.Run(r.Context())
	}
}

// queue buffers a message before the client is registered.
func (c *Client) queue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("marshal greeting", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
