package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CheckInMethodQRCode = "qr-code"
	CheckInMethodManual = "manual"
)

type Attendance struct {
	gorm.Model
	MemberID      uint       `gorm:"not null;index" json:"member_id"`
	EventID       *uint      `json:"event_id,omitempty"`
	ServiceDate   time.Time  `gorm:"index" json:"service_date"`
	ServiceType   string     `json:"service_type"`
	CheckInTime   time.Time  `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time,omitempty"`
	CheckInMethod string     `gorm:"not null" json:"check_in_method"`
	QRCodeID      *uint      `gorm:"column:qr_code_id;index" json:"qr_code_id,omitempty"`
	Location      string     `json:"location"`
	Notes         string     `json:"notes"`
	RecordedByID  *uint      `json:"recorded_by_id,omitempty"`
}
