package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1", 3, time.Minute))
	}
	assert.False(t, rl.Allow("10.0.0.1", 3, time.Minute))
	assert.True(t, rl.Allow("10.0.0.2", 3, time.Minute), "keys are independent")

	clock = clock.Add(2 * time.Minute)
	assert.True(t, rl.Allow("10.0.0.1", 3, time.Minute), "new window")

	rl.Cleanup()
	assert.Len(t, rl.entries, 1)
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(NewRateLimiter(), ClientIP, 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/qr-codes/QR-1/validate", nil)
	req.RemoteAddr = "192.0.2.7:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/qr-codes/QR-X", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "path=/qr-codes/QR-X")
	assert.Contains(t, out, "request_id=")
}
