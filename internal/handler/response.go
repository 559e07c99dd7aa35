package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"moodtracker/internal/auth"
	"moodtracker/internal/errors"
	"moodtracker/internal/logging"
	"moodtracker/internal/model"
)

// StatusSuccess marks successful envelopes.
const StatusSuccess = "success"

// Envelope wraps every successful response body.
type Envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}

func success(c echo.Context, status int, data, meta interface{}, message string) error {
	return c.JSON(status, Envelope{
		Status:  StatusSuccess,
		Data:    data,
		Meta:    meta,
		Message: message,
	})
}

// fail maps a service error onto the error envelope. Internal failures are
// logged here and reported without detail.
func fail(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logging.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest() error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Status: "error",
		Error:  "invalid request body",
		Code:   "INVALID_REQUEST",
	})
}

// identity returns the caller resolved by the auth middleware.
func identity(c echo.Context) (*auth.Identity, error) {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return nil, errors.ErrUnauthenticated
	}
	return id, nil
}

// bindPatch decodes a partial update body into dst and reports which keys
// were sent, explicit nulls included.
func bindPatch(c echo.Context, dst interface{}) (map[string]bool, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return map[string]bool{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(raw))
	for key := range raw {
		present[key] = true
	}
	return present, nil
}

// OwnerResponse is the owner attached to an entry.
type OwnerResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// EntryMeta carries the vocabulary of an entry's level.
type EntryMeta struct {
	MoodDescription string `json:"mood_description"`
	MoodEmoji       string `json:"mood_emoji"`
}

// MoodEntryResponse is the public view of a mood entry.
type MoodEntryResponse struct {
	ID              uint           `json:"id"`
	UserID          uint           `json:"user_id"`
	MoodLevel       int            `json:"mood_level"`
	MoodDescription string         `json:"mood_description"`
	MoodEmoji       string         `json:"mood_emoji"`
	EntryDate       model.Date     `json:"entry_date"`
	EntryTime       *string        `json:"entry_time"`
	Notes           *string        `json:"notes"`
	Activities      []string       `json:"activities"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	User            *OwnerResponse `json:"user,omitempty"`
}

func newMoodEntryResponse(e *model.MoodEntry) *MoodEntryResponse {
	if e == nil {
		return nil
	}
	resp := &MoodEntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		MoodLevel:       e.MoodLevel,
		MoodDescription: e.Description(),
		MoodEmoji:       e.Emoji(),
		EntryDate:       e.EntryDate,
		EntryTime:       e.EntryTime,
		Notes:           e.Notes,
		Activities:      e.Activities,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if resp.Activities == nil {
		resp.Activities = []string{}
	}
	if e.User != nil {
		resp.User = &OwnerResponse{ID: e.User.ID, Name: e.User.Name}
	}
	return resp
}

func entryMeta(e *model.MoodEntry) EntryMeta {
	return EntryMeta{MoodDescription: e.Description(), MoodEmoji: e.Emoji()}
}
