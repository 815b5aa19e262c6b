package models

import (
	"gorm.io/gorm"
)

// User is a staff operator signed in through Discord.
type User struct {
	gorm.Model
	DiscordID string `gorm:"uniqueIndex"`
	Username  string
	Email     string
	Avatar    string
	Staff     bool
}
