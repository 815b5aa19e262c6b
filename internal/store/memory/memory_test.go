package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeem_RespectsLimitUnderContention(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	limit := 4
	qr := models.AttendanceQRCode{Code: "QR-YOUTH", ServiceType: "youth", IsActive: true, ExpiresAt: now.Add(time.Hour), MaxUses: &limit}
	require.NoError(t, s.CreateCode(ctx, &qr))

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		ok, exhausted int
	)
	for i := 0; i < 12; i++ {
		m := models.Member{FirstName: "m"}
		require.NoError(t, s.CreateMember(ctx, &m))

		wg.Add(1)
		go func(memberID uint) {
			defer wg.Done()
			rec := models.Attendance{MemberID: memberID, CheckInTime: now}
			_, err := s.Redeem(ctx, qr.Code, now, &rec)

			mu.Lock()
			defer mu.Unlock()
			var unusable *store.UnusableCodeError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &unusable) && unusable.Status == models.CodeExhausted:
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(m.ID)
	}
	wg.Wait()

	assert.Equal(t, limit, ok)
	assert.Equal(t, 12-limit, exhausted)

	got, err := s.FindCode(ctx, qr.Code)
	require.NoError(t, err)
	assert.Equal(t, limit, got.CurrentUses)
}

func TestChildCheckIns_OneOpenPerChild(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	child := models.Child{FirstName: "Kwame", Code: "CHILD_0001"}
	require.NoError(t, s.CreateChild(ctx, &child))

	first := models.ChildCheckIn{ChildID: child.ID, CheckedInByID: 1, CheckInTime: now}
	require.NoError(t, s.OpenCheckIn(ctx, &first))

	second := models.ChildCheckIn{ChildID: child.ID, CheckedInByID: 1, CheckInTime: now}
	assert.ErrorIs(t, s.OpenCheckIn(ctx, &second), store.ErrOpenCheckIn)

	closed, err := s.CloseCheckIn(ctx, first.ID, 2, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, closed.Open())

	_, err = s.CloseCheckIn(ctx, first.ID, 2, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, store.ErrAlreadyCheckedOut)

	require.NoError(t, s.OpenCheckIn(ctx, &second), "a new visit after check-out")
	assert.NotEqual(t, first.ID, second.ID)
}
