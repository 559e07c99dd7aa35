package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"moodtracker/internal/errors"
	"moodtracker/internal/model"
	"moodtracker/internal/service"
)

// MoodEntryHandler serves the caller's mood entries.
type MoodEntryHandler struct {
	svc service.MoodEntryService
}

// NewMoodEntryHandler creates a new mood entry handler.
func NewMoodEntryHandler(svc service.MoodEntryService) *MoodEntryHandler {
	return &MoodEntryHandler{svc: svc}
}

// LatestEntrySummary is the compact latest entry in list metadata.
type LatestEntrySummary struct {
	MoodLevel       int        `json:"mood_level"`
	EntryDate       model.Date `json:"entry_date"`
	MoodDescription string     `json:"mood_description"`
	MoodEmoji       string     `json:"mood_emoji"`
}

// ListMeta describes a page of entries and the caller's totals.
type ListMeta struct {
	CurrentPage  int                 `json:"current_page"`
	PerPage      int                 `json:"per_page"`
	Total        int64               `json:"total"`
	LastPage     int                 `json:"last_page"`
	TotalEntries int64               `json:"total_entries"`
	AverageMood  float64             `json:"average_mood"`
	LatestEntry  *LatestEntrySummary `json:"latest_entry"`
}

// StatsResponse is the statistics payload.
type StatsResponse struct {
	TotalEntries int64                      `json:"total_entries"`
	AverageMood  float64                    `json:"average_mood"`
	LatestEntry  *MoodEntryResponse         `json:"latest_entry"`
	ThisMonth    service.MonthStats         `json:"this_month"`
	Distribution map[int]service.LevelStats `json:"mood_distribution"`
}

func entryID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.ErrMoodEntryNotFound
	}
	return uint(id), nil
}

// listQuery reads the listing filters. Numeric parameters stay nil when absent.
func listQuery(c echo.Context) (service.ListMoodEntriesQuery, error) {
	var (
		q                       service.ListMoodEntriesQuery
		level, perPage, pageNum int
	)
	err := echo.QueryParamsBinder(c).
		String("start_date", &q.StartDate).
		String("end_date", &q.EndDate).
		Int("mood_level", &level).
		Int("per_page", &perPage).
		Int("page", &pageNum).
		BindError()
	if err != nil {
		return q, err
	}

	params := c.QueryParams()
	if params.Has("mood_level") {
		q.MoodLevel = &level
	}
	if params.Has("per_page") {
		q.PerPage = &perPage
	}
	if params.Has("page") {
		q.Page = &pageNum
	}
	return q, nil
}

// List godoc
// @Summary List the caller's mood entries
// @Tags mood-entries
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "Inclusive lower bound, YYYY-MM-DD"
// @Param end_date query string false "Inclusive upper bound, YYYY-MM-DD"
// @Param mood_level query int false "Exact mood level 1-5"
// @Param per_page query int false "Page size (default 15)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} Envelope{data=[]MoodEntryResponse,meta=ListMeta}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /mood-entries [get]
func (h *MoodEntryHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}

	q, err := listQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Status: "error",
			Error:  "invalid query parameters",
			Code:   "INVALID_REQUEST",
		})
	}

	page, err := h.svc.List(c.Request().Context(), id.UserID, q)
	if err != nil {
		return fail(c, err)
	}

	data := make([]*MoodEntryResponse, 0, len(page.Entries))
	for i := range page.Entries {
		data = append(data, newMoodEntryResponse(&page.Entries[i]))
	}

	meta := ListMeta{
		CurrentPage:  page.Page,
		PerPage:      page.PerPage,
		Total:        page.Total,
		LastPage:     page.LastPage,
		TotalEntries: page.TotalEntries,
		AverageMood:  page.AverageMood,
	}
	if page.Latest != nil {
		meta.LatestEntry = &LatestEntrySummary{
			MoodLevel:       page.Latest.MoodLevel,
			EntryDate:       page.Latest.EntryDate,
			MoodDescription: page.Latest.Description(),
			MoodEmoji:       page.Latest.Emoji(),
		}
	}
	return success(c, http.StatusOK, data, meta, "")
}

// Create godoc
// @Summary Record a mood entry
// @Tags mood-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateMoodEntryInput true "Entry; date and time default to now in the user's zone"
// @Success 201 {object} Envelope{data=MoodEntryResponse,meta=EntryMeta}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /mood-entries [post]
func (h *MoodEntryHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.CreateMoodEntryInput
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}

	entry, err := h.svc.Create(c.Request().Context(), id.UserID, req)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusCreated, newMoodEntryResponse(entry), entryMeta(entry), "Mood entry created successfully")
}

// Show godoc
// @Summary Get one of the caller's mood entries
// @Tags mood-entries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mood entry ID"
// @Success 200 {object} Envelope{data=MoodEntryResponse,meta=EntryMeta}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /mood-entries/{id} [get]
func (h *MoodEntryHandler) Show(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	entryID, err := entryID(c)
	if err != nil {
		return fail(c, err)
	}

	entry, err := h.svc.Get(c.Request().Context(), id.UserID, entryID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, newMoodEntryResponse(entry), entryMeta(entry), "")
}

// Update godoc
// @Summary Change some fields of a mood entry
// @Tags mood-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mood entry ID"
// @Param request body service.UpdateMoodEntryInput true "Fields to change; null clears notes, time or activities"
// @Success 200 {object} Envelope{data=MoodEntryResponse,meta=EntryMeta}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /mood-entries/{id} [put]
func (h *MoodEntryHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	entryID, err := entryID(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.UpdateMoodEntryInput
	present, err := bindPatch(c, &req)
	if err != nil {
		return badRequest()
	}
	req.Present = present

	entry, err := h.svc.Update(c.Request().Context(), id.UserID, entryID, req)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, newMoodEntryResponse(entry), entryMeta(entry), "Mood entry updated successfully")
}

// Delete godoc
// @Summary Delete a mood entry
// @Tags mood-entries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Mood entry ID"
// @Success 200 {object} Envelope
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /mood-entries/{id} [delete]
func (h *MoodEntryHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	entryID, err := entryID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.svc.Delete(c.Request().Context(), id.UserID, entryID); err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, nil, nil, "Mood entry deleted successfully")
}

// Stats godoc
// @Summary Aggregate statistics over the caller's entries
// @Tags mood-entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=StatsResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Router /mood-entries-stats [get]
func (h *MoodEntryHandler) Stats(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}

	stats, err := h.svc.Stats(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, http.StatusOK, StatsResponse{
		TotalEntries: stats.TotalEntries,
		AverageMood:  stats.AverageMood,
		LatestEntry:  newMoodEntryResponse(stats.LatestEntry),
		ThisMonth:    stats.ThisMonth,
		Distribution: stats.Distribution,
	}, nil, "")
}
