package models

import (
	"time"

	"gorm.io/gorm"
)

// CodeStatus is the redeemability of a QR code at a given instant.
type CodeStatus string

const (
	CodeUsable    CodeStatus = "usable"
	CodeExpired   CodeStatus = "expired"
	CodeInactive  CodeStatus = "inactive"
	CodeExhausted CodeStatus = "exhausted"
)

type AttendanceQRCode struct {
	gorm.Model
	Code            string    `gorm:"uniqueIndex;not null" json:"code"`
	Title           string    `json:"title"`
	EventID         *uint     `json:"event_id,omitempty"`
	ServiceType     string    `gorm:"not null" json:"service_type"`
	ServiceDate     time.Time `json:"service_date"`
	Location        string    `json:"location"`
	IsActive        bool      `gorm:"not null" json:"is_active"`
	ExpiresAt       time.Time `gorm:"index" json:"expires_at"`
	MaxUses         *int      `json:"max_uses,omitempty"`
	CurrentUses     int       `gorm:"not null;default:0" json:"current_uses"`
	DisplayOnScreen bool      `json:"display_on_screen"`
	CreatedByID     *uint     `json:"created_by_id,omitempty"`
}

// Status reports whether the code can be redeemed at now. Expiry wins over
// the active flag, which wins over the usage limit.
func (c AttendanceQRCode) Status(now time.Time) CodeStatus {
	switch {
	case now.After(c.ExpiresAt):
		return CodeExpired
	case !c.IsActive:
		return CodeInactive
	case c.MaxUses != nil && c.CurrentUses >= *c.MaxUses:
		return CodeExhausted
	default:
		return CodeUsable
	}
}
