// Package checkin validates QR check-in codes and records member attendance
// and children's check-in and check-out against a store.Store.
//
// Every exported operation returns either a value or an *Error; panics
// raised underneath are recovered and reported as KindStorage so a single
// bad request never takes the process down.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/notifier"
	"github.com/KakraGeek/churchsuitegh/internal/store"
	"github.com/go-playground/validator/v10"
)

const DefaultChildCodePrefix = "CHILD_"

type Options struct {
	Notifier        notifier.Notifier
	Logger          *slog.Logger
	ChildCodePrefix string
	Clock           func() time.Time
}

type Service struct {
	store       store.Store
	notifier    notifier.Notifier
	logger      *slog.Logger
	validate    *validator.Validate
	childPrefix string
	now         func() time.Time
}

func NewService(st store.Store, opts Options) *Service {
	s := &Service{
		store:       st,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		validate:    newValidator(),
		childPrefix: opts.ChildCodePrefix,
		now:         opts.Clock,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.childPrefix == "" {
		s.childPrefix = DefaultChildCodePrefix
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and folds the first failures into one
// KindInvalidInput message such as "service_type is required".
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Kind: KindInvalidInput, Message: "Invalid request", Err: err}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return &Error{Kind: KindInvalidInput, Message: strings.Join(msgs, "; "), Err: err}
}

// fail logs err at a level matching its kind and returns it unchanged.
func (s *Service) fail(op string, err error) error {
	if KindOf(err) == KindStorage {
		s.logger.Error("check-in operation failed", "op", op, "error", err)
	} else {
		s.logger.Debug("check-in operation rejected", "op", op, "error", err)
	}
	return err
}

func (s *Service) recoverPanic(op string, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("check-in operation panicked", "op", op, "panic", r)
		*err = &Error{Kind: KindStorage, Message: msgStorage, Err: fmt.Errorf("panic: %v", r)}
	}
}

// notify runs fn against the configured notifier. Delivery problems are
// logged; the operation that triggered them has already committed.
func (s *Service) notify(op string, fn func(notifier.Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := fn(s.notifier); err != nil {
		s.logger.Warn("notification failed", "op", op, "error", err)
	}
}

type Validation struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	ServiceType string    `json:"service_type"`
	ServiceDate time.Time `json:"service_date"`
	EventID     *uint     `json:"event_id,omitempty"`
	Location    string    `json:"location"`
	ExpiresAt   time.Time `json:"expires_at"`
	UsesLeft    *int      `json:"uses_left,omitempty"`
}

func validationOf(qr models.AttendanceQRCode) Validation {
	v := Validation{
		Code:        qr.Code,
		Title:       qr.Title,
		ServiceType: qr.ServiceType,
		ServiceDate: qr.ServiceDate,
		EventID:     qr.EventID,
		Location:    qr.Location,
		ExpiresAt:   qr.ExpiresAt,
	}
	if qr.MaxUses != nil {
		left := *qr.MaxUses - qr.CurrentUses
		v.UsesLeft = &left
	}
	return v
}

// Validate reports whether code can be redeemed right now. It never writes.
func (s *Service) Validate(ctx context.Context, code string) (v Validation, err error) {
	defer s.recoverPanic("validate", &err)

	code = strings.TrimSpace(code)
	if code == "" {
		return Validation{}, newError(KindInvalidInput, msgEmptyCode)
	}

	qr, err := s.store.FindCode(ctx, code)
	if err != nil {
		return Validation{}, s.fail("validate", translate(err, msgCodeNotFound))
	}
	if ce := statusError(qr.Status(s.now())); ce != nil {
		return Validation{}, ce
	}
	return validationOf(qr), nil
}

type CheckInRequest struct {
	Code         string
	MemberID     uint
	Location     string
	Notes        string
	RecordedByID *uint
}

// CheckIn redeems code for a member. The usage increment and the attendance
// row commit together or not at all.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (rec models.Attendance, err error) {
	defer s.recoverPanic("check_in", &err)

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return models.Attendance{}, newError(KindInvalidInput, msgEmptyCode)
	}
	if req.MemberID == 0 {
		return models.Attendance{}, newError(KindInvalidInput, "Please select a member")
	}
	if _, err := s.store.FindMember(ctx, req.MemberID); err != nil {
		return models.Attendance{}, s.fail("check_in", translate(err, "Member not found"))
	}

	now := s.now()
	rec = models.Attendance{
		MemberID:     req.MemberID,
		CheckInTime:  now,
		Location:     strings.TrimSpace(req.Location),
		Notes:        strings.TrimSpace(req.Notes),
		RecordedByID: req.RecordedByID,
	}
	qr, err := s.store.Redeem(ctx, code, now, &rec)
	if err != nil {
		return models.Attendance{}, s.fail("check_in", translate(err, msgCodeNotFound))
	}

	s.logger.Info("member checked in",
		"member_id", rec.MemberID,
		"code", qr.Code,
		"uses", qr.CurrentUses,
	)
	if qr.Status(now) == models.CodeExhausted {
		s.notify("check_in", func(n notifier.Notifier) error { return n.NotifyCodeExhausted(ctx, qr) })
	}
	return rec, nil
}

type ManualRequest struct {
	MemberID     uint      `json:"member_id" validate:"required"`
	EventID      *uint     `json:"event_id"`
	ServiceType  string    `json:"service_type" validate:"required,max=64"`
	ServiceDate  time.Time `json:"service_date"`
	Location     string    `json:"location" validate:"max=120"`
	Notes        string    `json:"notes" validate:"max=500"`
	RecordedByID *uint     `json:"-"`
}

// RecordManual records attendance taken by staff without a code.
func (s *Service) RecordManual(ctx context.Context, req ManualRequest) (rec models.Attendance, err error) {
	defer s.recoverPanic("record_manual", &err)

	if err := s.check(req); err != nil {
		return models.Attendance{}, err
	}
	if req.ServiceDate.IsZero() {
		return models.Attendance{}, newError(KindInvalidInput, "service_date is required")
	}
	if _, err := s.store.FindMember(ctx, req.MemberID); err != nil {
		return models.Attendance{}, s.fail("record_manual", translate(err, "Member not found"))
	}
	if req.EventID != nil {
		if _, err := s.store.FindEvent(ctx, *req.EventID); err != nil {
			return models.Attendance{}, s.fail("record_manual", translate(err, "Event not found"))
		}
	}

	rec = models.Attendance{
		MemberID:      req.MemberID,
		EventID:       req.EventID,
		ServiceDate:   req.ServiceDate.UTC(),
		ServiceType:   req.ServiceType,
		CheckInTime:   s.now(),
		CheckInMethod: models.CheckInMethodManual,
		Location:      req.Location,
		Notes:         req.Notes,
		RecordedByID:  req.RecordedByID,
	}
	if err := s.store.CreateAttendance(ctx, &rec); err != nil {
		return models.Attendance{}, s.fail("record_manual", translate(err, "Member not found"))
	}
	return rec, nil
}

func (s *Service) ListAttendance(ctx context.Context, filter store.AttendanceFilter) (records []models.Attendance, err error) {
	defer s.recoverPanic("list_attendance", &err)

	records, err = s.store.ListAttendance(ctx, filter)
	if err != nil {
		return nil, s.fail("list_attendance", translate(err, "No attendance found"))
	}
	return records, nil
}

// DisplayCodes lists the codes the public screen may show, the one to show
// first at index 0. An empty list is not an error.
func (s *Service) DisplayCodes(ctx context.Context) (codes []models.AttendanceQRCode, err error) {
	defer s.recoverPanic("display_codes", &err)

	codes, err = s.store.ListDisplayable(ctx, s.now())
	if err != nil {
		return nil, s.fail("display_codes", translate(err, msgCodeNotFound))
	}
	if codes == nil {
		codes = []models.AttendanceQRCode{}
	}
	return codes, nil
}
