package models

import (
	"time"

	"gorm.io/gorm"
)

type Child struct {
	gorm.Model
	FirstName      string    `gorm:"not null" json:"first_name"`
	LastName       string    `json:"last_name"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	Gender         string    `json:"gender"`
	MedicalNotes   string    `json:"medical_notes"`
	EmergencyNotes string    `json:"emergency_notes"`
	GuardianID     *uint     `json:"guardian_id,omitempty"`
	Code           string    `gorm:"uniqueIndex;not null" json:"code"`
}

// ChildCheckIn is one visit of a child. A nil CheckOutTime means the child
// is still in care; the partial index keeps that to one row per child.
type ChildCheckIn struct {
	gorm.Model
	ChildID        uint       `gorm:"not null;uniqueIndex:idx_child_open_check_in,where:check_out_time IS NULL" json:"child_id"`
	CheckedInByID  uint       `gorm:"not null" json:"checked_in_by_id"`
	CheckInTime    time.Time  `gorm:"not null" json:"check_in_time"`
	ServiceType    string     `json:"service_type"`
	Location       string     `json:"location"`
	CheckedOutByID *uint      `json:"checked_out_by_id,omitempty"`
	CheckOutTime   *time.Time `json:"check_out_time,omitempty"`
}

func (c ChildCheckIn) Open() bool {
	return c.CheckOutTime == nil
}
