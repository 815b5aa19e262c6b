package handlers

import (
	"context"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/auth"
	"github.com/KakraGeek/churchsuitegh/internal/checkin"
	"github.com/KakraGeek/churchsuitegh/internal/models"
)

type DirectoryHandler struct {
	svc         *checkin.Service
	authHandler *auth.AuthHandler
}

func NewDirectoryHandler(svc *checkin.Service, authHandler *auth.AuthHandler) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, authHandler: authHandler}
}

type CreateMemberInput struct {
	auth.AuthInput
	Body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name,omitempty"`
		Email     string `json:"email,omitempty"`
		Phone     string `json:"phone,omitempty"`
	}
}

type MemberOutput struct {
	Body models.Member
}

func (h *DirectoryHandler) HandleCreateMember(ctx context.Context, input *CreateMemberInput) (*MemberOutput, error) {
	if _, err := staffOnly(ctx, h.authHandler, input.AuthInput); err != nil {
		return nil, err
	}

	m, err := h.svc.CreateMember(ctx, checkin.MemberSpec{
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		Email:     input.Body.Email,
		Phone:     input.Body.Phone,
	})
	if err != nil {
		return nil, problem(err)
	}
	return &MemberOutput{Body: m}, nil
}

type GetByIDInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *DirectoryHandler) HandleGetMember(ctx context.Context, input *GetByIDInput) (*MemberOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	m, err := h.svc.Member(ctx, input.ID)
	if err != nil {
		return nil, problem(err)
	}
	return &MemberOutput{Body: m}, nil
}

type CreateChildInput struct {
	auth.AuthInput
	Body struct {
		FirstName      string    `json:"first_name"`
		LastName       string    `json:"last_name,omitempty"`
		DateOfBirth    time.Time `json:"date_of_birth,omitempty"`
		Gender         string    `json:"gender,omitempty"`
		MedicalNotes   string    `json:"medical_notes,omitempty"`
		EmergencyNotes string    `json:"emergency_notes,omitempty"`
		GuardianID     *uint     `json:"guardian_id,omitempty"`
		Code           string    `json:"code,omitempty" doc:"Tag suffix or full tag; generated when empty"`
	}
}

type ChildOutput struct {
	Body models.Child
}

func (h *DirectoryHandler) HandleCreateChild(ctx context.Context, input *CreateChildInput) (*ChildOutput, error) {
	if _, err := staffOnly(ctx, h.authHandler, input.AuthInput); err != nil {
		return nil, err
	}

	b := input.Body
	c, err := h.svc.CreateChild(ctx, checkin.ChildSpec{
		FirstName:      b.FirstName,
		LastName:       b.LastName,
		DateOfBirth:    b.DateOfBirth,
		Gender:         b.Gender,
		MedicalNotes:   b.MedicalNotes,
		EmergencyNotes: b.EmergencyNotes,
		GuardianID:     b.GuardianID,
		Code:           b.Code,
	})
	if err != nil {
		return nil, problem(err)
	}
	return &ChildOutput{Body: c}, nil
}

func (h *DirectoryHandler) HandleGetChild(ctx context.Context, input *GetByIDInput) (*ChildOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	c, err := h.svc.Child(ctx, input.ID)
	if err != nil {
		return nil, problem(err)
	}
	return &ChildOutput{Body: c}, nil
}

type CreateEventInput struct {
	auth.AuthInput
	Body struct {
		Name     string    `json:"name"`
		StartsAt time.Time `json:"starts_at"`
		Location string    `json:"location,omitempty"`
	}
}

type EventOutput struct {
	Body models.Event
}

func (h *DirectoryHandler) HandleCreateEvent(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	if _, err := staffOnly(ctx, h.authHandler, input.AuthInput); err != nil {
		return nil, err
	}

	e, err := h.svc.CreateEvent(ctx, checkin.EventSpec{
		Name:     input.Body.Name,
		StartsAt: input.Body.StartsAt,
		Location: input.Body.Location,
	})
	if err != nil {
		return nil, problem(err)
	}
	return &EventOutput{Body: e}, nil
}

type NotificationsOutput struct {
	Body []models.Notification
}

func (h *DirectoryHandler) HandleNotifications(ctx context.Context, input *GetByIDInput) (*NotificationsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	list, err := h.svc.Notifications(ctx, input.ID)
	if err != nil {
		return nil, problem(err)
	}
	return &NotificationsOutput{Body: list}, nil
}
