package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:      hub,
		send:     make(chan []byte, sendBufferSize),
		debounce: NewDebouncer(DefaultDebounce),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c2)
	hub.Unregister(c2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(nil)

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(NewMessage("display", "updated", 0, map[string]any{"status": "no-active-code"}))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "display_updated", got.Type)
			assert.Equal(t, map[string]any{"status": "no-active-code"}, got.Data)
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	c := mockClient(hub)
	hub.Register(c)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(NewMessage("display", "updated", uint(i), nil))
	}
	assert.Len(t, c.send, sendBufferSize)
}

func TestSendTo(t *testing.T) {
	hub := NewHub(nil)
	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	assert.True(t, hub.SendTo(c1, NewMessage("qr_code", "validated", 0, nil)))
	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 0)

	hub.Unregister(c1)
	assert.False(t, hub.SendTo(c1, NewMessage("qr_code", "validated", 0, nil)), "unregistered client")
}

func TestConcurrentBroadcastAndUnregister(t *testing.T) {
	hub := NewHub(nil)
	clients := make([]*Client, 20)
	for i := range clients {
		clients[i] = mockClient(hub)
		hub.Register(clients[i])
	}

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Broadcast(NewMessage("display", "updated", 0, nil))
		}()
		go func(c *Client) {
			defer wg.Done()
			hub.Unregister(c)
		}(clients[i])
	}
	wg.Wait()
	assert.Equal(t, 0, hub.ClientCount())
}
