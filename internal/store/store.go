package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateCode     = errors.New("code already exists")
	ErrDuplicateCheckIn  = errors.New("member already checked in with this code")
	ErrOpenCheckIn       = errors.New("child already has an open check-in")
	ErrAlreadyCheckedOut = errors.New("check-in already closed")
)

// UnusableCodeError is returned by Redeem when the code cannot be redeemed
// at the time of the call.
type UnusableCodeError struct {
	Status models.CodeStatus
}

func (e *UnusableCodeError) Error() string {
	return fmt.Sprintf("code is %s", e.Status)
}

// AttendanceFilter narrows ListAttendance. Zero fields match everything;
// ServiceDate matches the whole UTC day it falls on.
type AttendanceFilter struct {
	ServiceDate *time.Time
	MemberID    uint
	QRCodeID    uint
}

type CodeStore interface {
	CreateCode(ctx context.Context, code *models.AttendanceQRCode) error
	FindCode(ctx context.Context, code string) (models.AttendanceQRCode, error)
	ListCodes(ctx context.Context) ([]models.AttendanceQRCode, error)
	// ListDisplayable returns codes flagged for the display screen that are
	// usable at now, soonest service first.
	ListDisplayable(ctx context.Context, now time.Time) ([]models.AttendanceQRCode, error)
	SetCodeActive(ctx context.Context, code string, active bool) (models.AttendanceQRCode, error)
}

type AttendanceStore interface {
	// Redeem checks the code at now, increments its usage counter with a
	// compare-and-increment and inserts rec, all or nothing. On success rec is
	// filled from the code and the updated code is returned.
	Redeem(ctx context.Context, code string, now time.Time, rec *models.Attendance) (models.AttendanceQRCode, error)
	CreateAttendance(ctx context.Context, rec *models.Attendance) error
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, error)
}

type ChildStore interface {
	CreateChild(ctx context.Context, child *models.Child) error
	FindChild(ctx context.Context, id uint) (models.Child, error)
	FindChildByCode(ctx context.Context, code string) (models.Child, error)
	FindCheckIn(ctx context.Context, id uint) (models.ChildCheckIn, error)
	// OpenCheckIn inserts rec unless the child already has an open check-in.
	OpenCheckIn(ctx context.Context, rec *models.ChildCheckIn) error
	// CloseCheckIn stamps the check-out of an open record.
	CloseCheckIn(ctx context.Context, id uint, operatorID uint, at time.Time) (models.ChildCheckIn, error)
	ListOpenCheckIns(ctx context.Context) ([]models.ChildCheckIn, error)
}

type DirectoryStore interface {
	CreateMember(ctx context.Context, member *models.Member) error
	FindMember(ctx context.Context, id uint) (models.Member, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	FindEvent(ctx context.Context, id uint) (models.Event, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientID uint) ([]models.Notification, error)
}

type Store interface {
	CodeStore
	AttendanceStore
	ChildStore
	DirectoryStore
	NotificationStore
}

// FillFromCode copies the service metadata of a redeemed code onto its
// attendance record. Location and event set by the caller are kept.
func FillFromCode(rec *models.Attendance, code models.AttendanceQRCode) {
	id := code.ID
	rec.QRCodeID = &id
	rec.CheckInMethod = models.CheckInMethodQRCode
	rec.ServiceType = code.ServiceType
	rec.ServiceDate = code.ServiceDate
	if rec.EventID == nil {
		rec.EventID = code.EventID
	}
	if rec.Location == "" {
		rec.Location = code.Location
	}
}

// DayBounds returns the UTC midnight starting the day of t and the next one.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}
