package model

import (
	"time"

	"gorm.io/gorm"
)

// TimeLayout is the wire and storage format of entry times.
const TimeLayout = "15:04"

// MoodEntry is one self-reported mood record owned by a user.
type MoodEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index:idx_mood_entries_user_date,priority:1;index:idx_mood_entries_user_level,priority:1"`
	MoodLevel  int       `json:"mood_level" gorm:"not null;index:idx_mood_entries_user_level,priority:2"`
	EntryDate  Date      `json:"entry_date" gorm:"not null;index:idx_mood_entries_user_date,priority:2"`
	EntryTime  *string   `json:"entry_time" gorm:"size:5"`
	Notes      *string   `json:"notes" gorm:"type:text"`
	Activities []string  `json:"activities" gorm:"type:text;serializer:json"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Description is the vocabulary label of the entry's mood level.
func (e *MoodEntry) Description() string {
	return MoodDescription(e.MoodLevel)
}

// Emoji is the vocabulary emoji of the entry's mood level.
func (e *MoodEntry) Emoji() string {
	return MoodEmoji(e.MoodLevel)
}

// BeforeSave stores an empty list instead of null.
func (e *MoodEntry) BeforeSave(tx *gorm.DB) error {
	if e.Activities == nil {
		e.Activities = []string{}
	}
	return nil
}

// AfterFind normalises legacy null activity columns.
func (e *MoodEntry) AfterFind(tx *gorm.DB) error {
	if e.Activities == nil {
		e.Activities = []string{}
	}
	return nil
}

// MoodAggregate is a count and mean over mood levels.
type MoodAggregate struct {
	Count   int64
	Average float64
}

// MoodLevelCount is one row of the per-level distribution.
type MoodLevelCount struct {
	MoodLevel int
	Count     int64
}
