package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/KakraGeek/churchsuitegh/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every table in maps behind one mutex, so each method is
// atomic with respect to the others.
type Store struct {
	mu     sync.RWMutex
	nextID uint

	codes         map[string]*models.AttendanceQRCode
	attendance    []*models.Attendance
	members       map[uint]*models.Member
	events        map[uint]*models.Event
	children      map[uint]*models.Child
	checkIns      map[uint]*models.ChildCheckIn
	notifications []*models.Notification
}

func New() *Store {
	return &Store{
		codes:    make(map[string]*models.AttendanceQRCode),
		members:  make(map[uint]*models.Member),
		events:   make(map[uint]*models.Event),
		children: make(map[uint]*models.Child),
		checkIns: make(map[uint]*models.ChildCheckIn),
	}
}

// newID returns the next id and a creation time. Caller holds s.mu.
func (s *Store) newID() (uint, time.Time) {
	s.nextID++
	return s.nextID, time.Now().UTC()
}

func (s *Store) CreateCode(_ context.Context, code *models.AttendanceQRCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code.Code]; exists {
		return store.ErrDuplicateCode
	}
	code.ID, code.CreatedAt = s.newID()
	code.UpdatedAt = code.CreatedAt
	cp := *code
	s.codes[code.Code] = &cp
	return nil
}

func (s *Store) FindCode(_ context.Context, code string) (models.AttendanceQRCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[code]
	if !ok {
		return models.AttendanceQRCode{}, store.ErrNotFound
	}
	return *c, nil
}

func (s *Store) ListCodes(_ context.Context) ([]models.AttendanceQRCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AttendanceQRCode, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListDisplayable(_ context.Context, now time.Time) ([]models.AttendanceQRCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.AttendanceQRCode{}
	for _, c := range s.codes {
		if c.DisplayOnScreen && c.Status(now) == models.CodeUsable {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ServiceDate.Equal(out[j].ServiceDate) {
			return out[i].ServiceDate.Before(out[j].ServiceDate)
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out, nil
}

func (s *Store) SetCodeActive(_ context.Context, code string, active bool) (models.AttendanceQRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return models.AttendanceQRCode{}, store.ErrNotFound
	}
	c.IsActive = active
	c.UpdatedAt = time.Now().UTC()
	return *c, nil
}

func (s *Store) Redeem(_ context.Context, code string, now time.Time, rec *models.Attendance) (models.AttendanceQRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return models.AttendanceQRCode{}, store.ErrNotFound
	}
	if st := c.Status(now); st != models.CodeUsable {
		return models.AttendanceQRCode{}, &store.UnusableCodeError{Status: st}
	}
	for _, a := range s.attendance {
		if a.MemberID == rec.MemberID && a.QRCodeID != nil && *a.QRCodeID == c.ID {
			return models.AttendanceQRCode{}, store.ErrDuplicateCheckIn
		}
	}

	c.CurrentUses++
	c.UpdatedAt = now

	store.FillFromCode(rec, *c)
	rec.ID, rec.CreatedAt = s.newID()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.attendance = append(s.attendance, &cp)
	return *c, nil
}

func (s *Store) CreateAttendance(_ context.Context, rec *models.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID, rec.CreatedAt = s.newID()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.attendance = append(s.attendance, &cp)
	return nil
}

func (s *Store) ListAttendance(_ context.Context, filter store.AttendanceFilter) ([]models.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Attendance{}
	for _, a := range s.attendance {
		if filter.MemberID != 0 && a.MemberID != filter.MemberID {
			continue
		}
		if filter.QRCodeID != 0 && (a.QRCodeID == nil || *a.QRCodeID != filter.QRCodeID) {
			continue
		}
		if filter.ServiceDate != nil {
			from, to := store.DayBounds(*filter.ServiceDate)
			if a.ServiceDate.Before(from) || !a.ServiceDate.Before(to) {
				continue
			}
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.Before(out[j].CheckInTime) })
	return out, nil
}

func (s *Store) CreateChild(_ context.Context, child *models.Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.children {
		if c.Code == child.Code {
			return store.ErrDuplicateCode
		}
	}
	child.ID, child.CreatedAt = s.newID()
	child.UpdatedAt = child.CreatedAt
	cp := *child
	s.children[child.ID] = &cp
	return nil
}

func (s *Store) FindChild(_ context.Context, id uint) (models.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.children[id]
	if !ok {
		return models.Child{}, store.ErrNotFound
	}
	return *c, nil
}

func (s *Store) FindChildByCode(_ context.Context, code string) (models.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.children {
		if c.Code == code {
			return *c, nil
		}
	}
	return models.Child{}, store.ErrNotFound
}

func (s *Store) FindCheckIn(_ context.Context, id uint) (models.ChildCheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ci, ok := s.checkIns[id]
	if !ok {
		return models.ChildCheckIn{}, store.ErrNotFound
	}
	return *ci, nil
}

func (s *Store) OpenCheckIn(_ context.Context, rec *models.ChildCheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ci := range s.checkIns {
		if ci.ChildID == rec.ChildID && ci.Open() {
			return store.ErrOpenCheckIn
		}
	}
	rec.ID, rec.CreatedAt = s.newID()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.checkIns[rec.ID] = &cp
	return nil
}

func (s *Store) CloseCheckIn(_ context.Context, id uint, operatorID uint, at time.Time) (models.ChildCheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, ok := s.checkIns[id]
	if !ok {
		return models.ChildCheckIn{}, store.ErrNotFound
	}
	if !ci.Open() {
		return models.ChildCheckIn{}, store.ErrAlreadyCheckedOut
	}
	out := at
	ci.CheckOutTime = &out
	ci.CheckedOutByID = &operatorID
	ci.UpdatedAt = at
	return *ci, nil
}

func (s *Store) ListOpenCheckIns(_ context.Context) ([]models.ChildCheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ChildCheckIn{}
	for _, ci := range s.checkIns {
		if ci.Open() {
			out = append(out, *ci)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.Before(out[j].CheckInTime) })
	return out, nil
}

func (s *Store) CreateMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member.ID, member.CreatedAt = s.newID()
	member.UpdatedAt = member.CreatedAt
	cp := *member
	s.members[member.ID] = &cp
	return nil
}

func (s *Store) FindMember(_ context.Context, id uint) (models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return models.Member{}, store.ErrNotFound
	}
	return *m, nil
}

func (s *Store) CreateEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID, event.CreatedAt = s.newID()
	event.UpdatedAt = event.CreatedAt
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *Store) FindEvent(_ context.Context, id uint) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return models.Event{}, store.ErrNotFound
	}
	return *e, nil
}

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID, n.CreatedAt = s.newID()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, recipientID uint) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].RecipientID == recipientID {
			out = append(out, *s.notifications[i])
		}
	}
	return out, nil
}
