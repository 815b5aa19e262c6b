package models

import (
	"time"

	"gorm.io/gorm"
)

type Member struct {
	gorm.Model
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Active    bool   `gorm:"not null;default:true" json:"active"`
}

type Event struct {
	gorm.Model
	Name     string    `gorm:"not null" json:"name"`
	StartsAt time.Time `json:"starts_at"`
	Location string    `json:"location"`
}
