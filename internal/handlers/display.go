package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/display"
	"github.com/KakraGeek/churchsuitegh/internal/websocket"
)

type DisplayHandler struct {
	refresher  *display.Refresher
	displayHub *websocket.Hub
	kioskHub   *websocket.Hub
	svc        *checkin.Service
	debounce   time.Duration
	origins    []string
}

func NewDisplayHandler(refresher *display.Refresher, displayHub, kioskHub *websocket.Hub, svc *checkin.Service, debounce time.Duration, origins []string) *DisplayHandler {
	return &DisplayHandler{
		refresher:  refresher,
		displayHub: displayHub,
		kioskHub:   kioskHub,
		svc:        svc,
		debounce:   debounce,
		origins:    origins,
	}
}

// Publisher broadcasts every refresher state to the display screens.
func Publisher(hub *websocket.Hub) display.Publisher {
	return display.PublisherFunc(func(s display.Snapshot) {
		hub.Broadcast(websocket.NewMessage("display", "updated", 0, s))
	})
}

type SnapshotOutput struct {
	Body display.Snapshot
}

func (h *DisplayHandler) HandleGet(ctx context.Context, _ *struct{}) (*SnapshotOutput, error) {
	return &SnapshotOutput{Body: h.refresher.Snapshot()}, nil
}

// HandleRefresh queues an immediate reload. The new state arrives over the
// display socket.
func (h *DisplayHandler) HandleRefresh(ctx context.Context, _ *struct{}) (*SnapshotOutput, error) {
	h.refresher.Retry()
	return &SnapshotOutput{Body: h.refresher.Snapshot()}, nil
}

func (h *DisplayHandler) HandleDisplaySocket() http.HandlerFunc {
	return websocket.Handle(h.displayHub, websocket.Options{
		OriginPatterns: h.origins,
		Greeting: func() (websocket.Message, bool) {
			return websocket.NewMessage("display", "updated", 0, h.refresher.Snapshot()), true
		},
	})
}

func (h *DisplayHandler) HandleKioskSocket() http.HandlerFunc {
	return websocket.Handle(h.kioskHub, websocket.Options{
		OriginPatterns: h.origins,
		Validate:       KioskValidator(h.svc),
		Debounce:       h.debounce,
	})
}

// KioskValidation is the reply to a kiosk's "validate" message.
type KioskValidation struct {
	Code       string              `json:"code"`
	Valid      bool                `json:"valid"`
	Kind       string              `json:"kind,omitempty"`
	Message    string              `json:"message,omitempty"`
	Validation *checkin.Validation `json:"validation,omitempty"`
}

func KioskValidator(svc *checkin.Service) websocket.ValidateFunc {
	return func(ctx context.Context, code string) websocket.Message {
		res := KioskValidation{Code: code}
		v, err := svc.Validate(ctx, code)
		if err != nil {
			res.Kind = checkin.KindOf(err).String()
			res.Message = "Something went wrong, please try again"
			var ce *checkin.Error
			if errors.As(err, &ce) {
				res.Message = ce.Message
			}
		} else {
			res.Valid = true
			res.Validation = &v
		}
		return websocket.NewMessage("qr_code", "validated", 0, res)
	}
}
