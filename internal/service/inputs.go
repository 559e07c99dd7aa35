package service

// Request inputs. Validation tags name JSON fields so errors are keyed the
// way clients sent them.

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name                 string  `json:"name" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	Password             string  `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string  `json:"password_confirmation"`
	Timezone             *string `json:"timezone" validate:"omitempty,timezone"`
	// TimezoneHint comes from the X-Timezone header and is ignored when invalid.
	TimezoneHint string `json:"-" validate:"-"`
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput is a partial profile update.
type UpdateProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
	// Present holds the JSON keys sent, explicit nulls included. When nil,
	// a field counts as sent if its pointer is set.
	Present map[string]bool `json:"-" validate:"-"`
}

// ChangePasswordInput is the payload of a password change.
type ChangePasswordInput struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// CreateMoodEntryInput is the payload of a new mood entry.
type CreateMoodEntryInput struct {
	MoodLevel  *int     `json:"mood_level" validate:"required,min=1,max=5"`
	EntryDate  *string  `json:"entry_date" validate:"omitempty,date"`
	EntryTime  *string  `json:"entry_time" validate:"omitempty,hhmm"`
	Notes      *string  `json:"notes" validate:"omitempty,max=1000"`
	Activities []string `json:"activities" validate:"omitempty,max=20,dive,max=100"`
}

// UpdateMoodEntryInput is a partial mood entry update.
type UpdateMoodEntryInput struct {
	MoodLevel  *int     `json:"mood_level" validate:"omitempty,min=1,max=5"`
	EntryDate  *string  `json:"entry_date" validate:"omitempty,date"`
	EntryTime  *string  `json:"entry_time" validate:"omitempty,hhmm"`
	Notes      *string  `json:"notes" validate:"omitempty,max=1000"`
	Activities []string `json:"activities" validate:"omitempty,max=20,dive,max=100"`
	// Present works as in UpdateProfileInput.
	Present map[string]bool `json:"-" validate:"-"`
}

// ListMoodEntriesQuery holds the listing query string.
type ListMoodEntriesQuery struct {
	StartDate string `query:"start_date" json:"start_date" validate:"omitempty,date"`
	EndDate   string `query:"end_date" json:"end_date" validate:"omitempty,date"`
	MoodLevel *int   `query:"mood_level" json:"mood_level" validate:"omitempty,min=1,max=5"`
	PerPage   *int   `query:"per_page" json:"per_page"`
	Page      *int   `query:"page" json:"page"`
}

// sent reports whether key was part of a partial update.
func sent(present map[string]bool, key string, set bool) bool {
	if present == nil {
		return set
	}
	return present[key]
}
