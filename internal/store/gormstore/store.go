package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
	"gorm.io/gorm"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func duplicate(err, as error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return as
	}
	return err
}

func (s *Store) CreateCode(ctx context.Context, code *models.AttendanceQRCode) error {
	return duplicate(s.db.WithContext(ctx).Create(code).Error, store.ErrDuplicateCode)
}

func (s *Store) FindCode(ctx context.Context, code string) (models.AttendanceQRCode, error) {
	var qr models.AttendanceQRCode
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&qr).Error; err != nil {
		return models.AttendanceQRCode{}, notFound(err)
	}
	return qr, nil
}

func (s *Store) ListCodes(ctx context.Context) ([]models.AttendanceQRCode, error) {
	var codes []models.AttendanceQRCode
	if err := s.db.WithContext(ctx).Order("id desc").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (s *Store) ListDisplayable(ctx context.Context, now time.Time) ([]models.AttendanceQRCode, error) {
	var candidates []models.AttendanceQRCode
	err := s.db.WithContext(ctx).
		Where("display_on_screen = ? AND is_active = ?", true, true).
		Where("max_uses IS NULL OR current_uses < max_uses").
		Order("service_date asc, expires_at asc").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	// expiry is checked with Status so it agrees with Redeem to the nanosecond
	codes := make([]models.AttendanceQRCode, 0, len(candidates))
	for _, c := range candidates {
		if c.Status(now) == models.CodeUsable {
			codes = append(codes, c)
		}
	}
	return codes, nil
}

func (s *Store) SetCodeActive(ctx context.Context, code string, active bool) (models.AttendanceQRCode, error) {
	var qr models.AttendanceQRCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&qr).Error; err != nil {
			return notFound(err)
		}
		qr.IsActive = active
		return tx.Model(&qr).Update("is_active", active).Error
	})
	if err != nil {
		return models.AttendanceQRCode{}, err
	}
	return qr, nil
}

func (s *Store) Redeem(ctx context.Context, code string, now time.Time, rec *models.Attendance) (models.AttendanceQRCode, error) {
	var qr models.AttendanceQRCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&qr).Error; err != nil {
			return notFound(err)
		}
		if st := qr.Status(now); st != models.CodeUsable {
			return &store.UnusableCodeError{Status: st}
		}

		var existing int64
		if err := tx.Model(&models.Attendance{}).
			Where("qr_code_id = ? AND member_id = ?", qr.ID, rec.MemberID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return store.ErrDuplicateCheckIn
		}

		// Compare-and-increment: a concurrent redemption that took the last
		// use leaves this statement matching no row.
		res := tx.Model(&models.AttendanceQRCode{}).
			Where("id = ? AND is_active = ?", qr.ID, true).
			Where("max_uses IS NULL OR current_uses < max_uses").
			UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &store.UnusableCodeError{Status: models.CodeExhausted}
		}
		qr.CurrentUses++

		store.FillFromCode(rec, qr)
		return tx.Create(rec).Error
	})
	if err != nil {
		return models.AttendanceQRCode{}, err
	}
	return qr, nil
}

func (s *Store) CreateAttendance(ctx context.Context, rec *models.Attendance) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *Store) ListAttendance(ctx context.Context, filter store.AttendanceFilter) ([]models.Attendance, error) {
	q := s.db.WithContext(ctx).Model(&models.Attendance{})
	if filter.MemberID != 0 {
		q = q.Where("member_id = ?", filter.MemberID)
	}
	if filter.QRCodeID != 0 {
		q = q.Where("qr_code_id = ?", filter.QRCodeID)
	}
	if filter.ServiceDate != nil {
		from, to := store.DayBounds(*filter.ServiceDate)
		q = q.Where("service_date >= ? AND service_date < ?", from, to)
	}

	var records []models.Attendance
	if err := q.Order("check_in_time asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) CreateChild(ctx context.Context, child *models.Child) error {
	return duplicate(s.db.WithContext(ctx).Create(child).Error, store.ErrDuplicateCode)
}

func (s *Store) FindChild(ctx context.Context, id uint) (models.Child, error) {
	var child models.Child
	if err := s.db.WithContext(ctx).First(&child, id).Error; err != nil {
		return models.Child{}, notFound(err)
	}
	return child, nil
}

func (s *Store) FindChildByCode(ctx context.Context, code string) (models.Child, error) {
	var child models.Child
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&child).Error; err != nil {
		return models.Child{}, notFound(err)
	}
	return child, nil
}

func (s *Store) FindCheckIn(ctx context.Context, id uint) (models.ChildCheckIn, error) {
	var rec models.ChildCheckIn
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return models.ChildCheckIn{}, notFound(err)
	}
	return rec, nil
}

func (s *Store) OpenCheckIn(ctx context.Context, rec *models.ChildCheckIn) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.ChildCheckIn{}).
			Where("child_id = ? AND check_out_time IS NULL", rec.ChildID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return store.ErrOpenCheckIn
		}
		return tx.Create(rec).Error
	})
	return duplicate(err, store.ErrOpenCheckIn)
}

func (s *Store) CloseCheckIn(ctx context.Context, id uint, operatorID uint, at time.Time) (models.ChildCheckIn, error) {
	var rec models.ChildCheckIn
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err)
		}

		res := tx.Model(&models.ChildCheckIn{}).
			Where("id = ? AND check_out_time IS NULL", id).
			Updates(map[string]any{
				"check_out_time":    at,
				"checked_out_by_id": operatorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrAlreadyCheckedOut
		}

		rec.CheckOutTime = &at
		rec.CheckedOutByID = &operatorID
		return nil
	})
	if err != nil {
		return models.ChildCheckIn{}, err
	}
	return rec, nil
}

func (s *Store) ListOpenCheckIns(ctx context.Context) ([]models.ChildCheckIn, error) {
	var open []models.ChildCheckIn
	err := s.db.WithContext(ctx).
		Where("check_out_time IS NULL").
		Order("check_in_time asc").
		Find(&open).Error
	if err != nil {
		return nil, err
	}
	return open, nil
}

func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	return s.db.WithContext(ctx).Create(member).Error
}

func (s *Store) FindMember(ctx context.Context, id uint) (models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return models.Member{}, notFound(err)
	}
	return member, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *Store) FindEvent(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, notFound(err)
	}
	return event, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("id desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
