package checkin

import (
	"context"
	"strings"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/google/uuid"
)

type CodeSpec struct {
	Code            string    `json:"code" validate:"omitempty,max=64,printascii"`
	Title           string    `json:"title" validate:"max=120"`
	EventID         *uint     `json:"event_id"`
	ServiceType     string    `json:"service_type" validate:"required,max=64"`
	ServiceDate     time.Time `json:"service_date"`
	Location        string    `json:"location" validate:"max=120"`
	ExpiresAt       time.Time `json:"expires_at"`
	MaxUses         *int      `json:"max_uses" validate:"omitempty,min=1"`
	DisplayOnScreen bool      `json:"display_on_screen"`
	CreatedByID     *uint     `json:"-"`
}

// GenerateCode returns a fresh code of the form QR-1A2B3C4D.
func GenerateCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "QR-" + strings.ToUpper(id[:8])
}

func (s *Service) CreateCode(ctx context.Context, spec CodeSpec) (qr models.AttendanceQRCode, err error) {
	defer s.recoverPanic("create_code", &err)

	spec.Code = strings.TrimSpace(spec.Code)
	if err := s.check(spec); err != nil {
		return models.AttendanceQRCode{}, err
	}
	if spec.ServiceDate.IsZero() {
		return models.AttendanceQRCode{}, newError(KindInvalidInput, "service_date is required")
	}
	if !spec.ExpiresAt.After(s.now()) {
		return models.AttendanceQRCode{}, newError(KindInvalidInput, "expires_at must be in the future")
	}
	if strings.HasPrefix(spec.Code, s.childPrefix) {
		return models.AttendanceQRCode{}, newError(KindInvalidInput, "code must not use the children's prefix "+s.childPrefix)
	}
	if spec.EventID != nil {
		if _, err := s.store.FindEvent(ctx, *spec.EventID); err != nil {
			return models.AttendanceQRCode{}, s.fail("create_code", translate(err, "Event not found"))
		}
	}
	if spec.Code == "" {
		spec.Code = GenerateCode()
	}

	qr = models.AttendanceQRCode{
		Code:            spec.Code,
		Title:           spec.Title,
		EventID:         spec.EventID,
		ServiceType:     spec.ServiceType,
		ServiceDate:     spec.ServiceDate.UTC(),
		Location:        spec.Location,
		IsActive:        true,
		ExpiresAt:       spec.ExpiresAt.UTC(),
		MaxUses:         spec.MaxUses,
		DisplayOnScreen: spec.DisplayOnScreen,
		CreatedByID:     spec.CreatedByID,
	}
	if err := s.store.CreateCode(ctx, &qr); err != nil {
		return models.AttendanceQRCode{}, s.fail("create_code", translate(err, msgCodeNotFound))
	}

	s.logger.Info("check-in code created", "code", qr.Code, "service_type", qr.ServiceType, "expires_at", qr.ExpiresAt)
	return qr, nil
}

func (s *Service) ListCodes(ctx context.Context) (codes []models.AttendanceQRCode, err error) {
	defer s.recoverPanic("list_codes", &err)

	codes, err = s.store.ListCodes(ctx)
	if err != nil {
		return nil, s.fail("list_codes", translate(err, msgCodeNotFound))
	}
	return codes, nil
}

func (s *Service) SetCodeActive(ctx context.Context, code string, active bool) (qr models.AttendanceQRCode, err error) {
	defer s.recoverPanic("set_code_active", &err)

	code = strings.TrimSpace(code)
	if code == "" {
		return models.AttendanceQRCode{}, newError(KindInvalidInput, msgEmptyCode)
	}
	qr, err = s.store.SetCodeActive(ctx, code, active)
	if err != nil {
		return models.AttendanceQRCode{}, s.fail("set_code_active", translate(err, msgCodeNotFound))
	}
	return qr, nil
}
