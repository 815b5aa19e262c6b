package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationChildCheckIn  = "child_check_in"
	NotificationChildCheckOut = "child_check_out"
)

type Notification struct {
	gorm.Model
	RecipientID uint       `gorm:"not null;index" json:"recipient_id"`
	Kind        string     `gorm:"not null" json:"kind"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}
