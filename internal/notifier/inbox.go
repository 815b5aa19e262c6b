package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
)

// Inbox stores in-app notifications for a child's guardian.
type Inbox struct {
	store store.NotificationStore
}

func NewInbox(s store.NotificationStore) *Inbox {
	return &Inbox{store: s}
}

func (i *Inbox) NotifyChildCheckIn(ctx context.Context, child models.Child, rec models.ChildCheckIn) error {
	if child.GuardianID == nil {
		return nil
	}
	return i.store.CreateNotification(ctx, &models.Notification{
		RecipientID: *child.GuardianID,
		Kind:        models.NotificationChildCheckIn,
		Title:       fmt.Sprintf("%s has been checked in", child.FirstName),
		Message:     fmt.Sprintf("Checked in at %s. Keep your pickup code ready.", rec.CheckInTime.Format("15:04")),
	})
}

func (i *Inbox) NotifyChildCheckOut(ctx context.Context, child models.Child, rec models.ChildCheckIn) error {
	if child.GuardianID == nil || rec.CheckOutTime == nil {
		return nil
	}
	return i.store.CreateNotification(ctx, &models.Notification{
		RecipientID: *child.GuardianID,
		Kind:        models.NotificationChildCheckOut,
		Title:       fmt.Sprintf("%s has been checked out", child.FirstName),
		Message:     fmt.Sprintf("Checked out at %s.", rec.CheckOutTime.Format("15:04")),
	})
}

// NotifyCodeExhausted is staff-only news; guardians get nothing.
func (i *Inbox) NotifyCodeExhausted(context.Context, models.AttendanceQRCode) error {
	return nil
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) NotifyChildCheckIn(ctx context.Context, child models.Child, rec models.ChildCheckIn) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.NotifyChildCheckIn(ctx, child, rec))
	}
	return errors.Join(errs...)
}

func (f Fanout) NotifyChildCheckOut(ctx context.Context, child models.Child, rec models.ChildCheckIn) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.NotifyChildCheckOut(ctx, child, rec))
	}
	return errors.Join(errs...)
}

func (f Fanout) NotifyCodeExhausted(ctx context.Context, code models.AttendanceQRCode) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.NotifyCodeExhausted(ctx, code))
	}
	return errors.Join(errs...)
}
