package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gorm.io/gorm"

	apperrors "moodtracker/internal/errors"
	"moodtracker/internal/logging"
	"moodtracker/internal/metrics"
	"moodtracker/internal/model"
	"moodtracker/internal/repository"
	"moodtracker/internal/validation"
)

// MoodEntryPage is one page of a user's entries plus overall totals.
type MoodEntryPage struct {
	Entries  []model.MoodEntry
	Total    int64
	Page     int
	PerPage  int
	LastPage int

	// Unfiltered totals for the user.
	TotalEntries int64
	AverageMood  float64
	Latest       *model.MoodEntry
}

// MonthStats aggregates the current calendar month.
type MonthStats struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// LevelStats is one bucket of the mood distribution.
type LevelStats struct {
	Count       int64  `json:"count"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// MoodStats aggregates all of a user's entries.
type MoodStats struct {
	TotalEntries int64              `json:"total_entries"`
	AverageMood  float64            `json:"average_mood"`
	LatestEntry  *model.MoodEntry   `json:"latest_entry"`
	ThisMonth    MonthStats         `json:"this_month"`
	Distribution map[int]LevelStats `json:"mood_distribution"`
}

// MoodEntryService implements mood entry use cases for one owner at a time.
type MoodEntryService interface {
	Create(ctx context.Context, userID uint, in CreateMoodEntryInput) (*model.MoodEntry, error)
	Get(ctx context.Context, userID, id uint) (*model.MoodEntry, error)
	Update(ctx context.Context, userID, id uint, in UpdateMoodEntryInput) (*model.MoodEntry, error)
	Delete(ctx context.Context, userID, id uint) error
	List(ctx context.Context, userID uint, q ListMoodEntriesQuery) (*MoodEntryPage, error)
	Stats(ctx context.Context, userID uint) (*MoodStats, error)
}

type moodEntryService struct {
	users   repository.UserRepository
	entries repository.MoodEntryRepository
	opts    Options
}

// NewMoodEntryService creates a new mood entry service.
func NewMoodEntryService(users repository.UserRepository, entries repository.MoodEntryRepository, opts Options) MoodEntryService {
	return &moodEntryService{
		users:   users,
		entries: entries,
		opts:    opts.withDefaults(),
	}
}

func (s *moodEntryService) owner(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// today is the current date in the user's zone.
func (s *moodEntryService) today(user *model.User) (model.Date, string) {
	now := s.opts.Now().In(user.Location(s.opts.DefaultLocation))
	return model.DateOf(now), now.Format(model.TimeLayout)
}

func (s *moodEntryService) Create(ctx context.Context, userID uint, in CreateMoodEntryInput) (*model.MoodEntry, error) {
	user, err := s.owner(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	if err := validation.ValidateStruct(&in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}

	today, nowClock := s.today(user)
	date := today
	if in.EntryDate != nil && !verr.Has("entry_date") {
		date = s.checkEntryDate(verr, *in.EntryDate, today)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	entry := &model.MoodEntry{
		UserID:     user.ID,
		MoodLevel:  *in.MoodLevel,
		EntryDate:  date,
		EntryTime:  &nowClock,
		Notes:      normalizeNotes(in.Notes),
		Activities: normalizeActivities(in.Activities),
	}
	if in.EntryTime != nil {
		clock := *in.EntryTime
		entry.EntryTime = &clock
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create mood entry: %w", err)
	}
	entry.User = user

	metrics.RecordMoodEntryOperation("create")
	metrics.RecordMoodLevel(strconv.Itoa(entry.MoodLevel))
	logging.Ctx(ctx).Debug().Uint("user_id", user.ID).Uint("entry_id", entry.ID).Msg("mood entry created")
	return entry, nil
}

// checkEntryDate parses a validated date and rejects future dates.
func (s *moodEntryService) checkEntryDate(verr *apperrors.ValidationError, raw string, today model.Date) model.Date {
	date, err := model.ParseDate(raw)
	if err != nil {
		verr.Add("entry_date", "The entry date field must be a valid date in YYYY-MM-DD format.")
		return today
	}
	if date.After(today) {
		verr.Add("entry_date", "The entry date field must be a date before or equal to today.")
	}
	return date
}

// Get returns the entry when userID owns it. A foreign entry yields
// ErrMoodEntryForbidden and a missing one ErrMoodEntryNotFound.
func (s *moodEntryService) Get(ctx context.Context, userID, id uint) (*model.MoodEntry, error) {
	entry, err := s.entries.FindForUser(ctx, userID, id)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find mood entry: %w", err)
	}

	_, found, err := s.entries.OwnerOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find mood entry owner: %w", err)
	}
	if found {
		logging.Ctx(ctx).Warn().Uint("user_id", userID).Uint("entry_id", id).Msg("foreign mood entry access")
		return nil, apperrors.ErrMoodEntryForbidden
	}
	return nil, apperrors.ErrMoodEntryNotFound
}

// Update changes only the sent fields. Null notes or time clear them and
// null activities become an empty list.
func (s *moodEntryService) Update(ctx context.Context, userID, id uint, in UpdateMoodEntryInput) (*model.MoodEntry, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	user, err := s.owner(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	if err := validation.ValidateStruct(&in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}

	levelSent := sent(in.Present, "mood_level", in.MoodLevel != nil)
	dateSent := sent(in.Present, "entry_date", in.EntryDate != nil)
	timeSent := sent(in.Present, "entry_time", in.EntryTime != nil)
	notesSent := sent(in.Present, "notes", in.Notes != nil)
	activitiesSent := sent(in.Present, "activities", in.Activities != nil)

	if levelSent && in.MoodLevel == nil {
		verr.Add("mood_level", "The mood level field is required.")
	}
	if dateSent && in.EntryDate == nil {
		verr.Add("entry_date", "The entry date field is required.")
	}

	date := entry.EntryDate
	if dateSent && in.EntryDate != nil && !verr.Has("entry_date") {
		today, _ := s.today(user)
		date = s.checkEntryDate(verr, *in.EntryDate, today)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if levelSent {
		entry.MoodLevel = *in.MoodLevel
	}
	if dateSent {
		entry.EntryDate = date
	}
	if timeSent {
		entry.EntryTime = nil
		if in.EntryTime != nil {
			clock := *in.EntryTime
			entry.EntryTime = &clock
		}
	}
	if notesSent {
		entry.Notes = normalizeNotes(in.Notes)
	}
	if activitiesSent {
		entry.Activities = normalizeActivities(in.Activities)
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update mood entry: %w", err)
	}
	metrics.RecordMoodEntryOperation("update")
	return entry, nil
}

func (s *moodEntryService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted concurrently.
			return apperrors.ErrMoodEntryNotFound
		}
		return fmt.Errorf("delete mood entry: %w", err)
	}
	metrics.RecordMoodEntryOperation("delete")
	return nil
}

func (s *moodEntryService) List(ctx context.Context, userID uint, q ListMoodEntriesQuery) (*MoodEntryPage, error) {
	verr := &apperrors.ValidationError{}
	if err := validation.ValidateStruct(&q); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}

	var filter repository.MoodEntryFilter
	if q.StartDate != "" && !verr.Has("start_date") {
		d, err := model.ParseDate(q.StartDate)
		if err == nil {
			filter.StartDate = &d
		}
	}
	if q.EndDate != "" && !verr.Has("end_date") {
		d, err := model.ParseDate(q.EndDate)
		if err == nil {
			filter.EndDate = &d
		}
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		verr.Add("end_date", "The end date field must be a date after or equal to start date.")
	}
	filter.MoodLevel = q.MoodLevel

	page := repository.Page{Number: 1, Size: s.opts.DefaultPerPage}
	if q.PerPage != nil {
		if *q.PerPage < 1 || *q.PerPage > s.opts.MaxPerPage {
			verr.Add("per_page", fmt.Sprintf("The per page field must be between 1 and %d.", s.opts.MaxPerPage))
		} else {
			page.Size = *q.PerPage
		}
	}
	if q.Page != nil {
		if *q.Page < 1 {
			verr.Add("page", "The page field must be at least 1.")
		} else {
			page.Number = *q.Page
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	entries, total, err := s.entries.List(ctx, userID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	agg, err := s.entries.Aggregate(ctx, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate moods: %w", err)
	}
	latest, found, err := s.entries.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest mood: %w", err)
	}
	if !found {
		latest = nil
	}

	return &MoodEntryPage{
		Entries:      entries,
		Total:        total,
		Page:         page.Number,
		PerPage:      page.Size,
		LastPage:     lastPage(total, page.Size),
		TotalEntries: agg.Count,
		AverageMood:  agg.Average,
		Latest:       latest,
	}, nil
}

func lastPage(total int64, size int) int {
	if total == 0 || size <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

// Stats reports totals, the current month in the user's zone and the
// distribution of recorded levels. The average is not rounded.
func (s *moodEntryService) Stats(ctx context.Context, userID uint) (*MoodStats, error) {
	user, err := s.owner(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.entries.Aggregate(ctx, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate moods: %w", err)
	}

	today, _ := s.today(user)
	monthStart := model.NewDate(today.Year(), today.Month(), 1)
	// Day 0 of the next month is the last day of this one.
	monthEnd := model.NewDate(today.Year(), today.Month()+1, 0)
	month, err := s.entries.Aggregate(ctx, userID, &monthStart, &monthEnd)
	if err != nil {
		return nil, fmt.Errorf("aggregate month: %w", err)
	}

	latest, found, err := s.entries.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest mood: %w", err)
	}
	if !found {
		latest = nil
	}

	rows, err := s.entries.Distribution(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("mood distribution: %w", err)
	}
	distribution := make(map[int]LevelStats, len(rows))
	for _, row := range rows {
		distribution[row.MoodLevel] = LevelStats{
			Count:       row.Count,
			Description: model.MoodDescription(row.MoodLevel),
			Emoji:       model.MoodEmoji(row.MoodLevel),
		}
	}

	return &MoodStats{
		TotalEntries: all.Count,
		AverageMood:  all.Average,
		LatestEntry:  latest,
		ThisMonth:    MonthStats{Count: month.Count, Average: month.Average},
		Distribution: distribution,
	}, nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil || *notes == "" {
		return nil
	}
	n := *notes
	return &n
}

func normalizeActivities(activities []string) []string {
	out := make([]string, 0, len(activities))
	return append(out, activities...)
}
