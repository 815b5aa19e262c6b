// Package display drives the public check-in screen. A Refresher polls for
// displayable codes and moves through loading → showing-code, no-active-code
// or error on every tick and on manual retry.
package display

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/models"
)

const DefaultInterval = 30 * time.Second

type Status string

const (
	StatusLoading      Status = "loading"
	StatusError        Status = "error"
	StatusShowingCode  Status = "showing-code"
	StatusNoActiveCode Status = "no-active-code"
)

// Code is the public view of a QR code; usage counters stay private.
type Code struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	ServiceType string    `json:"service_type"`
	ServiceDate time.Time `json:"service_date"`
	Location    string    `json:"location"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func publicCode(qr models.AttendanceQRCode) Code {
	return Code{
		Code:        qr.Code,
		Title:       qr.Title,
		ServiceType: qr.ServiceType,
		ServiceDate: qr.ServiceDate,
		Location:    qr.Location,
		ExpiresAt:   qr.ExpiresAt,
	}
}

type Snapshot struct {
	Status    Status    `json:"status"`
	Current   *Code     `json:"current,omitempty"`
	Codes     []Code    `json:"codes"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Source interface {
	DisplayCodes(ctx context.Context) ([]models.AttendanceQRCode, error)
}

// Publisher receives every state change, including the loading state.
type Publisher interface {
	Publish(s Snapshot)
}

type PublisherFunc func(Snapshot)

func (f PublisherFunc) Publish(s Snapshot) { f(s) }

type Refresher struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	timeout   time.Duration

	mu      sync.RWMutex
	current Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	retry   chan struct{}
}

func NewRefresher(source Source, publisher Publisher, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		timeout:   10 * time.Second,
		current:   Snapshot{Status: StatusLoading, Codes: []Code{}},
		retry:     make(chan struct{}, 1),
	}
}

func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Refresher) set(s Snapshot) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()

	if r.publisher != nil {
		r.publisher.Publish(s)
	}
}

// Refresh runs one loading cycle and returns the state it settled in. A
// failed query yields StatusError; the previous codes are not kept.
func (r *Refresher) Refresh(ctx context.Context) Snapshot {
	prev := r.Snapshot()
	r.set(Snapshot{Status: StatusLoading, Current: prev.Current, Codes: prev.Codes, UpdatedAt: time.Now().UTC()})

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	next := Snapshot{Codes: []Code{}, UpdatedAt: time.Now().UTC()}
	codes, err := r.source.DisplayCodes(ctx)
	switch {
	case err != nil:
		r.logger.Warn("display refresh failed", "error", err)
		next.Status = StatusError
		next.Error = "Unable to load check-in codes"
		var ce *checkin.Error
		if errors.As(err, &ce) {
			next.Error = ce.Message
		}
	case len(codes) == 0:
		next.Status = StatusNoActiveCode
	default:
		next.Status = StatusShowingCode
		for _, qr := range codes {
			next.Codes = append(next.Codes, publicCode(qr))
		}
		first := next.Codes[0]
		next.Current = &first
	}

	r.set(next)
	return next
}

// Retry asks the running loop for an immediate refresh. Requests made while
// one is already pending collapse into it.
func (r *Refresher) Retry() {
	select {
	case r.retry <- struct{}{}:
	default:
	}
}

// Start refreshes once, then on every interval tick and retry until ctx is
// cancelled or Stop is called.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Refresh(ctx)
			case <-r.retry:
				r.Refresh(ctx)
				ticker.Reset(r.interval)
			}
		}
	}()
}

func (r *Refresher) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
