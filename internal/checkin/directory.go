package checkin

import (
	"context"
	"strings"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/google/uuid"
)

type MemberSpec struct {
	FirstName string `json:"first_name" validate:"required,max=80"`
	LastName  string `json:"last_name" validate:"max=80"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=32"`
}

func (s *Service) CreateMember(ctx context.Context, spec MemberSpec) (m models.Member, err error) {
	defer s.recoverPanic("create_member", &err)

	if err := s.check(spec); err != nil {
		return models.Member{}, err
	}
	m = models.Member{FirstName: spec.FirstName, LastName: spec.LastName, Email: spec.Email, Phone: spec.Phone, Active: true}
	if err := s.store.CreateMember(ctx, &m); err != nil {
		return models.Member{}, s.fail("create_member", translate(err, "Member not found"))
	}
	return m, nil
}

func (s *Service) Member(ctx context.Context, id uint) (m models.Member, err error) {
	defer s.recoverPanic("member", &err)

	m, err = s.store.FindMember(ctx, id)
	if err != nil {
		return models.Member{}, s.fail("member", translate(err, "Member not found"))
	}
	return m, nil
}

type ChildSpec struct {
	FirstName      string    `json:"first_name" validate:"required,max=80"`
	LastName       string    `json:"last_name" validate:"max=80"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	Gender         string    `json:"gender" validate:"max=16"`
	MedicalNotes   string    `json:"medical_notes" validate:"max=1000"`
	EmergencyNotes string    `json:"emergency_notes" validate:"max=1000"`
	GuardianID     *uint     `json:"guardian_id"`
	Code           string    `json:"code" validate:"omitempty,max=64,printascii"`
}

// CreateChild registers a child. Codes are forced under the children's
// prefix; an empty code gets a generated one.
func (s *Service) CreateChild(ctx context.Context, spec ChildSpec) (c models.Child, err error) {
	defer s.recoverPanic("create_child", &err)

	spec.Code = strings.TrimSpace(spec.Code)
	if err := s.check(spec); err != nil {
		return models.Child{}, err
	}
	switch {
	case spec.Code == "":
		spec.Code = s.childPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	case !strings.HasPrefix(spec.Code, s.childPrefix):
		spec.Code = s.childPrefix + spec.Code
	}
	if spec.GuardianID != nil {
		if _, err := s.store.FindMember(ctx, *spec.GuardianID); err != nil {
			return models.Child{}, s.fail("create_child", translate(err, "Guardian not found"))
		}
	}

	c = models.Child{
		FirstName:      spec.FirstName,
		LastName:       spec.LastName,
		DateOfBirth:    spec.DateOfBirth,
		Gender:         spec.Gender,
		MedicalNotes:   spec.MedicalNotes,
		EmergencyNotes: spec.EmergencyNotes,
		GuardianID:     spec.GuardianID,
		Code:           spec.Code,
	}
	if err := s.store.CreateChild(ctx, &c); err != nil {
		return models.Child{}, s.fail("create_child", translate(err, msgChildNotFound))
	}
	return c, nil
}

func (s *Service) Child(ctx context.Context, id uint) (c models.Child, err error) {
	defer s.recoverPanic("child", &err)

	c, err = s.store.FindChild(ctx, id)
	if err != nil {
		return models.Child{}, s.fail("child", translate(err, "Child not found"))
	}
	return c, nil
}

type EventSpec struct {
	Name     string    `json:"name" validate:"required,max=120"`
	StartsAt time.Time `json:"starts_at"`
	Location string    `json:"location" validate:"max=120"`
}

func (s *Service) CreateEvent(ctx context.Context, spec EventSpec) (e models.Event, err error) {
	defer s.recoverPanic("create_event", &err)

	if err := s.check(spec); err != nil {
		return models.Event{}, err
	}
	e = models.Event{Name: spec.Name, StartsAt: spec.StartsAt.UTC(), Location: spec.Location}
	if err := s.store.CreateEvent(ctx, &e); err != nil {
		return models.Event{}, s.fail("create_event", translate(err, "Event not found"))
	}
	return e, nil
}

func (s *Service) Notifications(ctx context.Context, memberID uint) (list []models.Notification, err error) {
	defer s.recoverPanic("notifications", &err)

	if _, err := s.store.FindMember(ctx, memberID); err != nil {
		return nil, s.fail("notifications", translate(err, "Member not found"))
	}
	list, err = s.store.ListNotifications(ctx, memberID)
	if err != nil {
		return nil, s.fail("notifications", translate(err, "Member not found"))
	}
	return list, nil
}
