package handlers

import (
	"context"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/models"
)

type CodeHandler struct {
	svc         *checkin.Service
	authHandler *auth.AuthHandler
	display     Retrier
}

func NewCodeHandler(svc *checkin.Service, authHandler *auth.AuthHandler, display Retrier) *CodeHandler {
	return &CodeHandler{svc: svc, authHandler: authHandler, display: display}
}

// codesChanged pushes code edits to the screen without waiting for the next tick.
func (h *CodeHandler) codesChanged() {
	if h.display != nil {
		h.display.Retry()
	}
}

type CreateCodeInput struct {
	auth.AuthInput
	Body struct {
		Code            string    `json:"code,omitempty" doc:"Leave empty to generate one"`
		Title           string    `json:"title,omitempty"`
		EventID         *uint     `json:"event_id,omitempty"`
		ServiceType     string    `json:"service_type" doc:"e.g. sunday-service"`
		ServiceDate     time.Time `json:"service_date"`
		Location        string    `json:"location,omitempty"`
		ExpiresAt       time.Time `json:"expires_at"`
		MaxUses         *int      `json:"max_uses,omitempty" doc:"Omit for unlimited"`
		DisplayOnScreen bool      `json:"display_on_screen,omitempty"`
	}
}

type CodeOutput struct {
	Body models.AttendanceQRCode
}

func (h *CodeHandler) HandleCreate(ctx context.Context, input *CreateCodeInput) (*CodeOutput, error) {
	userID, err := staffOnly(ctx, h.authHandler, input.AuthInput)
	if err != nil {
		return nil, err
	}

	b := input.Body
	qr, err := h.svc.CreateCode(ctx, checkin.CodeSpec{
		Code:            b.Code,
		Title:           b.Title,
		EventID:         b.EventID,
		ServiceType:     b.ServiceType,
		ServiceDate:     b.ServiceDate,
		Location:        b.Location,
		ExpiresAt:       b.ExpiresAt,
		MaxUses:         b.MaxUses,
		DisplayOnScreen: b.DisplayOnScreen,
		CreatedByID:     &userID,
	})
	if err != nil {
		return nil, problem(err)
	}

	if qr.DisplayOnScreen {
		h.codesChanged()
	}
	return &CodeOutput{Body: qr}, nil
}

type ListCodesInput struct {
	auth.AuthInput
}

type ListCodesOutput struct {
	Body []models.AttendanceQRCode
}

func (h *CodeHandler) HandleList(ctx context.Context, input *ListCodesInput) (*ListCodesOutput, error) {
	if _, err := staffOnly(ctx, h.authHandler, input.AuthInput); err != nil {
		return nil, err
	}

	codes, err := h.svc.ListCodes(ctx)
	if err != nil {
		return nil, problem(err)
	}
	return &ListCodesOutput{Body: codes}, nil
}

type SetCodeActiveInput struct {
	auth.AuthInput
	Code string `path:"code"`
	Body struct {
		IsActive bool `json:"is_active"`
	}
}

func (h *CodeHandler) HandleSetActive(ctx context.Context, input *SetCodeActiveInput) (*CodeOutput, error) {
	if _, err := staffOnly(ctx, h.authHandler, input.AuthInput); err != nil {
		return nil, err
	}

	qr, err := h.svc.SetCodeActive(ctx, input.Code, input.Body.IsActive)
	if err != nil {
		return nil, problem(err)
	}

	h.codesChanged()
	return &CodeOutput{Body: qr}, nil
}
