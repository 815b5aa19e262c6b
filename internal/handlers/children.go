package handlers

import (
	"context"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/websocket"
)

type ChildrenHandler struct {
	svc         *checkin.Service
	authHandler *auth.AuthHandler
	hub         *websocket.Hub
}

func NewChildrenHandler(svc *checkin.Service, authHandler *auth.AuthHandler, hub *websocket.Hub) *ChildrenHandler {
	return &ChildrenHandler{svc: svc, authHandler: authHandler, hub: hub}
}

func (h *ChildrenHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type ChildCheckInInput struct {
	auth.AuthInput
	Body struct {
		Code        string `json:"code" doc:"Child tag, e.g. CHILD_0001"`
		ServiceType string `json:"service_type,omitempty"`
		Location    string `json:"location,omitempty" doc:"Room the child is dropped at"`
	}
}

type ChildCheckInOutput struct {
	Body checkin.ChildCheckInResult
}

func (h *ChildrenHandler) HandleCheckIn(ctx context.Context, input *ChildCheckInInput) (*ChildCheckInOutput, error) {
	operatorID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.CheckInChild(ctx, checkin.ChildCheckInRequest{
		Code:        input.Body.Code,
		OperatorID:  operatorID,
		ServiceType: input.Body.ServiceType,
		Location:    input.Body.Location,
	})
	if err != nil {
		return nil, problem(err)
	}

	h.broadcast(websocket.NewMessage("child_check_in", "created", res.CheckIn.ID, res))
	return &ChildCheckInOutput{Body: res}, nil
}

type ChildCheckOutInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type ChildCheckOutOutput struct {
	Body models.ChildCheckIn
}

func (h *ChildrenHandler) HandleCheckOut(ctx context.Context, input *ChildCheckOutInput) (*ChildCheckOutOutput, error) {
	operatorID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	rec, err := h.svc.CheckOutChild(ctx, input.ID, operatorID)
	if err != nil {
		return nil, problem(err)
	}

	h.broadcast(websocket.NewMessage("child_check_in", "closed", rec.ID, rec))
	return &ChildCheckOutOutput{Body: rec}, nil
}

type OpenCheckInsInput struct {
	auth.AuthInput
}

type OpenCheckInsOutput struct {
	Body []checkin.ChildCheckInResult
}

func (h *ChildrenHandler) HandleOpen(ctx context.Context, input *OpenCheckInsInput) (*OpenCheckInsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	open, err := h.svc.OpenChildCheckIns(ctx)
	if err != nil {
		return nil, problem(err)
	}
	return &OpenCheckInsOutput{Body: open}, nil
}
