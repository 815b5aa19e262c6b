package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
	"github.com/KakraGeek/churchsuitegh/internal/websocket"
	"github.com/danielgtaylor/huma/v2"
)

// Retrier is satisfied by the display refresher.
type Retrier interface {
	Retry()
}

type CheckInHandler struct {
	svc         *checkin.Service
	authHandler *auth.AuthHandler
	hub         *websocket.Hub
	display     Retrier
}

func NewCheckInHandler(svc *checkin.Service, authHandler *auth.AuthHandler, hub *websocket.Hub, display Retrier) *CheckInHandler {
	return &CheckInHandler{svc: svc, authHandler: authHandler, hub: hub, display: display}
}

func (h *CheckInHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type ValidateInput struct {
	Code string `path:"code" doc:"Code read from the QR image"`
}

type ValidateOutput struct {
	Body checkin.Validation
}

func (h *CheckInHandler) HandleValidate(ctx context.Context, input *ValidateInput) (*ValidateOutput, error) {
	v, err := h.svc.Validate(ctx, input.Code)
	if err != nil {
		return nil, problem(err)
	}
	return &ValidateOutput{Body: v}, nil
}

type CheckInInput struct {
	auth.AuthInput
	Body struct {
		Code     string `json:"code" doc:"Code read from the QR image"`
		MemberID uint   `json:"member_id" doc:"Member picked from the roster"`
		Location string `json:"location,omitempty"`
		Notes    string `json:"notes,omitempty" maxLength:"500"`
	}
}

type AttendanceOutput struct {
	Body models.Attendance
}

func (h *CheckInHandler) HandleCheckIn(ctx context.Context, input *CheckInInput) (*AttendanceOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	rec, err := h.svc.CheckIn(ctx, checkin.CheckInRequest{
		Code:         input.Body.Code,
		MemberID:     input.Body.MemberID,
		Location:     input.Body.Location,
		Notes:        input.Body.Notes,
		RecordedByID: &userID,
	})
	if err != nil {
		if checkin.KindOf(err) == checkin.KindLimitReached && h.display != nil {
			h.display.Retry()
		}
		return nil, problem(err)
	}

	h.broadcast(websocket.NewMessage("attendance", "created", rec.ID, rec))
	return &AttendanceOutput{Body: rec}, nil
}

type ManualInput struct {
	auth.AuthInput
	Body struct {
		MemberID    uint      `json:"member_id"`
		EventID     *uint     `json:"event_id,omitempty"`
		ServiceType string    `json:"service_type"`
		ServiceDate time.Time `json:"service_date"`
		Location    string    `json:"location,omitempty"`
		Notes       string    `json:"notes,omitempty"`
	}
}

func (h *CheckInHandler) HandleManual(ctx context.Context, input *ManualInput) (*AttendanceOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	rec, err := h.svc.RecordManual(ctx, checkin.ManualRequest{
		MemberID:     input.Body.MemberID,
		EventID:      input.Body.EventID,
		ServiceType:  input.Body.ServiceType,
		ServiceDate:  input.Body.ServiceDate,
		Location:     input.Body.Location,
		Notes:        input.Body.Notes,
		RecordedByID: &userID,
	})
	if err != nil {
		return nil, problem(err)
	}

	h.broadcast(websocket.NewMessage("attendance", "created", rec.ID, rec))
	return &AttendanceOutput{Body: rec}, nil
}

type ListAttendanceInput struct {
	auth.AuthInput
	ServiceDate string `query:"service_date" doc:"Day of service, YYYY-MM-DD"`
	MemberID    uint   `query:"member_id"`
	QRCodeID    uint   `query:"qr_code_id"`
}

type ListAttendanceOutput struct {
	Body []models.Attendance
}

func (h *CheckInHandler) HandleList(ctx context.Context, input *ListAttendanceInput) (*ListAttendanceOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	filter := store.AttendanceFilter{MemberID: input.MemberID, QRCodeID: input.QRCodeID}
	if input.ServiceDate != "" {
		day, err := time.Parse(time.DateOnly, input.ServiceDate)
		if err != nil {
			return nil, huma.Error400BadRequest("service_date must look like 2006-01-02")
		}
		filter.ServiceDate = &day
	}

	records, err := h.svc.ListAttendance(ctx, filter)
	if err != nil {
		return nil, problem(err)
	}
	return &ListAttendanceOutput{Body: records}, nil
}

// created sets 201 on POST operations that make a resource.
func created(o *huma.Operation) {
	o.DefaultStatus = http.StatusCreated
}
