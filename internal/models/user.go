package models

import "time"

// User represents application user. UID is the opaque identifier the ledger
// keys on; it is stable for the life of the account and never reused.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	UID          string `gorm:"size:36;uniqueIndex;not null"`
	Email        string `gorm:"size:128;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	LastLoginAt *time.Time
	LastLoginIP string `gorm:"size:64"`
}
