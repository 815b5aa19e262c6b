package gormstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/database"
	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err, "failed to open database")
	return New(db)
}

func seedCode(t *testing.T, s *Store, code string, maxUses *int, expiresAt time.Time) models.AttendanceQRCode {
	t.Helper()
	qr := models.AttendanceQRCode{
		Code:            code,
		ServiceType:     "sunday-service",
		ServiceDate:     expiresAt.Add(-2 * time.Hour),
		Location:        "Main Sanctuary",
		IsActive:        true,
		ExpiresAt:       expiresAt,
		MaxUses:         maxUses,
		DisplayOnScreen: true,
	}
	require.NoError(t, s.CreateCode(context.Background(), &qr))
	return qr
}

func seedMember(t *testing.T, s *Store, name string) models.Member {
	t.Helper()
	m := models.Member{FirstName: name, Active: true}
	require.NoError(t, s.CreateMember(context.Background(), &m))
	return m
}

func TestRedeem_IncrementsAndRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	qr := seedCode(t, s, "QR-SUNDAY-001", nil, now.Add(24*time.Hour))
	member := seedMember(t, s, "Ama")

	rec := models.Attendance{MemberID: member.ID, CheckInTime: now}
	updated, err := s.Redeem(ctx, qr.Code, now, &rec)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentUses)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, models.CheckInMethodQRCode, rec.CheckInMethod)
	require.NotNil(t, rec.QRCodeID)
	assert.Equal(t, qr.ID, *rec.QRCodeID)
	assert.Equal(t, "Main Sanctuary", rec.Location)

	stored, err := s.FindCode(ctx, qr.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUses)

	records, err := s.ListAttendance(ctx, store.AttendanceFilter{QRCodeID: qr.ID})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRedeem_DuplicateLeavesCounterAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	qr := seedCode(t, s, "QR-DUP", nil, now.Add(time.Hour))
	member := seedMember(t, s, "Kofi")

	first := models.Attendance{MemberID: member.ID, CheckInTime: now}
	_, err := s.Redeem(ctx, qr.Code, now, &first)
	require.NoError(t, err)

	second := models.Attendance{MemberID: member.ID, CheckInTime: now}
	_, err = s.Redeem(ctx, qr.Code, now, &second)
	assert.ErrorIs(t, err, store.ErrDuplicateCheckIn)

	stored, err := s.FindCode(ctx, qr.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUses)
}

func TestRedeem_UnusableCodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	member := seedMember(t, s, "Esi")

	t.Run("NotFound", func(t *testing.T) {
		rec := models.Attendance{MemberID: member.ID}
		_, err := s.Redeem(ctx, "QR-MISSING", now, &rec)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Expired", func(t *testing.T) {
		qr := seedCode(t, s, "QR-OLD", nil, now.Add(-time.Minute))
		rec := models.Attendance{MemberID: member.ID}
		_, err := s.Redeem(ctx, qr.Code, now, &rec)

		var unusable *store.UnusableCodeError
		require.True(t, errors.As(err, &unusable))
		assert.Equal(t, models.CodeExpired, unusable.Status)
	})

	t.Run("Exhausted", func(t *testing.T) {
		one := 1
		qr := seedCode(t, s, "QR-ONCE", &one, now.Add(time.Hour))
		other := seedMember(t, s, "Yaw")

		first := models.Attendance{MemberID: other.ID}
		_, err := s.Redeem(ctx, qr.Code, now, &first)
		require.NoError(t, err)

		rec := models.Attendance{MemberID: member.ID}
		_, err = s.Redeem(ctx, qr.Code, now, &rec)
		var unusable *store.UnusableCodeError
		require.True(t, errors.As(err, &unusable))
		assert.Equal(t, models.CodeExhausted, unusable.Status)
		assert.Zero(t, rec.ID)
	})
}

func TestRedeem_ConcurrentNeverExceedsMaxUses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	limit := 3
	qr := seedCode(t, s, "QR-RACE", &limit, now.Add(time.Hour))

	const attempts = 10
	members := make([]models.Member, attempts)
	for i := range members {
		members[i] = seedMember(t, s, "racer")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, m := range members {
		wg.Add(1)
		go func(memberID uint) {
			defer wg.Done()
			rec := models.Attendance{MemberID: memberID, CheckInTime: now}
			if _, err := s.Redeem(ctx, qr.Code, now, &rec); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(m.ID)
	}
	wg.Wait()

	assert.Equal(t, limit, succeeded)

	stored, err := s.FindCode(ctx, qr.Code)
	require.NoError(t, err)
	assert.Equal(t, limit, stored.CurrentUses)

	records, err := s.ListAttendance(ctx, store.AttendanceFilter{QRCodeID: qr.ID})
	require.NoError(t, err)
	assert.Len(t, records, limit)
}

func TestListDisplayable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	later := seedCode(t, s, "QR-LATER", nil, now.Add(48*time.Hour))
	sooner := seedCode(t, s, "QR-SOONER", nil, now.Add(3*time.Hour))
	seedCode(t, s, "QR-EXPIRED", nil, now.Add(-time.Hour))

	hidden := models.AttendanceQRCode{Code: "QR-HIDDEN", ServiceType: "prayer", IsActive: true, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.CreateCode(ctx, &hidden))

	_, err := s.SetCodeActive(ctx, "QR-LATER", true)
	require.NoError(t, err)

	codes, err := s.ListDisplayable(ctx, now)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, sooner.Code, codes[0].Code)
	assert.Equal(t, later.Code, codes[1].Code)

	_, err = s.SetCodeActive(ctx, "QR-SOONER", false)
	require.NoError(t, err)

	codes, err = s.ListDisplayable(ctx, now)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, later.Code, codes[0].Code)
}

func TestChildCheckInLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	child := models.Child{FirstName: "Akosua", Code: "CHILD_0001", MedicalNotes: "Peanut allergy"}
	require.NoError(t, s.CreateChild(ctx, &child))

	found, err := s.FindChildByCode(ctx, "CHILD_0001")
	require.NoError(t, err)
	assert.Equal(t, child.ID, found.ID)

	rec := models.ChildCheckIn{ChildID: child.ID, CheckedInByID: 7, CheckInTime: now}
	require.NoError(t, s.OpenCheckIn(ctx, &rec))

	again := models.ChildCheckIn{ChildID: child.ID, CheckedInByID: 7, CheckInTime: now}
	assert.ErrorIs(t, s.OpenCheckIn(ctx, &again), store.ErrOpenCheckIn)

	open, err := s.ListOpenCheckIns(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	closed, err := s.CloseCheckIn(ctx, rec.ID, 8, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutTime)
	require.NotNil(t, closed.CheckedOutByID)
	assert.Equal(t, uint(8), *closed.CheckedOutByID)

	_, err = s.CloseCheckIn(ctx, rec.ID, 8, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, store.ErrAlreadyCheckedOut)

	_, err = s.CloseCheckIn(ctx, 9999, 8, now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// a closed visit does not block the next one
	next := models.ChildCheckIn{ChildID: child.ID, CheckedInByID: 7, CheckInTime: now.Add(7 * 24 * time.Hour)}
	require.NoError(t, s.OpenCheckIn(ctx, &next))
	assert.NotEqual(t, rec.ID, next.ID)
}

func TestCreateCode_Duplicate(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	seedCode(t, s, "QR-ONE", nil, now.Add(time.Hour))
	dup := models.AttendanceQRCode{Code: "QR-ONE", ServiceType: "sunday-service", IsActive: true, ExpiresAt: now.Add(time.Hour)}
	assert.ErrorIs(t, s.CreateCode(context.Background(), &dup), store.ErrDuplicateCode)
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		n := models.Notification{RecipientID: 3, Kind: models.NotificationChildCheckIn, Title: title}
		require.NoError(t, s.CreateNotification(ctx, &n))
	}
	other := models.Notification{RecipientID: 4, Kind: models.NotificationChildCheckOut, Title: "other"}
	require.NoError(t, s.CreateNotification(ctx, &other))

	list, err := s.ListNotifications(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
}
