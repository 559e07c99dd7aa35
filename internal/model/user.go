package model

import "time"

// User represents an authenticated user in the system.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Timezone     *string   `json:"timezone" gorm:"size:64"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Location returns the user's zone, or fallback when unset or unloadable.
func (u *User) Location(fallback *time.Location) *time.Location {
	if u.Timezone == nil || *u.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(*u.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
