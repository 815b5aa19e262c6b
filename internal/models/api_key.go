package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets an unattended kiosk act on behalf of the staff member who issued it.
type APIKey struct {
	gorm.Model
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       User       `json:"-"`
	Key        string     `gorm:"uniqueIndex" json:"key"`
	Name       string     `json:"name"`
	Location   string     `json:"location"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// All lists every model the schema is migrated from.
func All() []any {
	return []any{
		&User{},
		&APIKey{},
		&Member{},
		&Event{},
		&AttendanceQRCode{},
		&Attendance{},
		&Child{},
		&ChildCheckIn{},
		&Notification{},
	}
}
