package checkin

import (
	"context"
	"strings"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/notifier"
)

const msgChildNotFound = "No child is registered with this code"

type ChildCheckInRequest struct {
	Code        string
	OperatorID  uint
	ServiceType string
	Location    string
}

// ChildCheckInResult carries the child's profile with the visit so the
// operator sees medical and emergency notes at the moment of hand-over.
type ChildCheckInResult struct {
	CheckIn models.ChildCheckIn `json:"check_in"`
	Child   models.Child        `json:"child"`
}

// CheckInChild opens a visit for the child bound to code. A child with an
// open visit is refused rather than silently checked out.
func (s *Service) CheckInChild(ctx context.Context, req ChildCheckInRequest) (res ChildCheckInResult, err error) {
	defer s.recoverPanic("check_in_child", &err)

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return ChildCheckInResult{}, newError(KindInvalidInput, msgEmptyCode)
	}
	if !strings.HasPrefix(code, s.childPrefix) || len(code) == len(s.childPrefix) {
		return ChildCheckInResult{}, newError(KindInvalidInput, "This is not a children's check-in code")
	}
	if req.OperatorID == 0 {
		return ChildCheckInResult{}, newError(KindInvalidInput, "An operator is required")
	}

	child, err := s.store.FindChildByCode(ctx, code)
	if err != nil {
		return ChildCheckInResult{}, s.fail("check_in_child", translate(err, msgChildNotFound))
	}

	rec := models.ChildCheckIn{
		ChildID:       child.ID,
		CheckedInByID: req.OperatorID,
		CheckInTime:   s.now(),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		Location:      strings.TrimSpace(req.Location),
	}
	if err := s.store.OpenCheckIn(ctx, &rec); err != nil {
		return ChildCheckInResult{}, s.fail("check_in_child", translate(err, msgChildNotFound))
	}

	s.logger.Info("child checked in", "child_id", child.ID, "check_in_id", rec.ID, "operator_id", req.OperatorID)
	s.notify("check_in_child", func(n notifier.Notifier) error { return n.NotifyChildCheckIn(ctx, child, rec) })
	return ChildCheckInResult{CheckIn: rec, Child: child}, nil
}

// CheckOutChild closes an open visit. Closing it twice is a KindConflict.
func (s *Service) CheckOutChild(ctx context.Context, checkInID, operatorID uint) (rec models.ChildCheckIn, err error) {
	defer s.recoverPanic("check_out_child", &err)

	if checkInID == 0 {
		return models.ChildCheckIn{}, newError(KindInvalidInput, "A check-in record is required")
	}
	if operatorID == 0 {
		return models.ChildCheckIn{}, newError(KindInvalidInput, "An operator is required")
	}

	open, err := s.store.FindCheckIn(ctx, checkInID)
	if err != nil {
		return models.ChildCheckIn{}, s.fail("check_out_child", translate(err, "Check-in record not found"))
	}
	if !open.Open() {
		return models.ChildCheckIn{}, newError(KindConflict, "This child has already been checked out")
	}

	at := s.now()
	if !at.After(open.CheckInTime) {
		at = open.CheckInTime.Add(time.Millisecond)
	}
	rec, err = s.store.CloseCheckIn(ctx, checkInID, operatorID, at)
	if err != nil {
		return models.ChildCheckIn{}, s.fail("check_out_child", translate(err, "Check-in record not found"))
	}

	s.logger.Info("child checked out", "child_id", rec.ChildID, "check_in_id", rec.ID, "operator_id", operatorID)
	if child, err := s.store.FindChild(ctx, rec.ChildID); err == nil {
		s.notify("check_out_child", func(n notifier.Notifier) error { return n.NotifyChildCheckOut(ctx, child, rec) })
	}
	return rec, nil
}

// OpenChildCheckIns lists the children currently in care, oldest visit first.
func (s *Service) OpenChildCheckIns(ctx context.Context) (out []ChildCheckInResult, err error) {
	defer s.recoverPanic("open_child_check_ins", &err)

	open, err := s.store.ListOpenCheckIns(ctx)
	if err != nil {
		return nil, s.fail("open_child_check_ins", translate(err, "Check-in record not found"))
	}

	out = make([]ChildCheckInResult, 0, len(open))
	for _, rec := range open {
		child, err := s.store.FindChild(ctx, rec.ChildID)
		if err != nil {
			return nil, s.fail("open_child_check_ins", translate(err, msgChildNotFound))
		}
		out = append(out, ChildCheckInResult{CheckIn: rec, Child: child})
	}
	return out, nil
}
