package repository

import (
	"context"

	"gorm.io/gorm"

	"moodtracker/internal/model"
)

// MoodEntryFilter narrows a listing. Nil fields do not filter.
type MoodEntryFilter struct {
	StartDate *model.Date
	EndDate   *model.Date
	MoodLevel *int
}

// Page selects a 1-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// MoodEntryRepository defines mood entry persistence. Every read and write
// takes the owning user id and filters on it.
type MoodEntryRepository interface {
	Create(ctx context.Context, entry *model.MoodEntry) error
	Update(ctx context.Context, entry *model.MoodEntry) error
	Delete(ctx context.Context, userID, id uint) error
	FindForUser(ctx context.Context, userID, id uint) (*model.MoodEntry, error)
	OwnerOf(ctx context.Context, id uint) (ownerID uint, found bool, err error)
	List(ctx context.Context, userID uint, filter MoodEntryFilter, page Page) ([]model.MoodEntry, int64, error)
	Aggregate(ctx context.Context, userID uint, from, to *model.Date) (model.MoodAggregate, error)
	Latest(ctx context.Context, userID uint) (*model.MoodEntry, bool, error)
	Distribution(ctx context.Context, userID uint) ([]model.MoodLevelCount, error)
}

type moodEntryRepository struct {
	db *gorm.DB
}

// NewMoodEntryRepository builds a GORM-backed repository.
func NewMoodEntryRepository(db *gorm.DB) MoodEntryRepository {
	return &moodEntryRepository{db: db}
}

func (r *moodEntryRepository) owned(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.MoodEntry{}).Where("user_id = ?", userID)
}

func (r *moodEntryRepository) Create(ctx context.Context, entry *model.MoodEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Update writes every mutable column of entry, restricted to its owner.
func (r *moodEntryRepository) Update(ctx context.Context, entry *model.MoodEntry) error {
	return r.db.WithContext(ctx).Model(entry).
		Where("user_id = ?", entry.UserID).
		Select("mood_level", "entry_date", "entry_time", "notes", "activities").
		Updates(entry).Error
}

func (r *moodEntryRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.MoodEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moodEntryRepository) FindForUser(ctx context.Context, userID, id uint) (*model.MoodEntry, error) {
	var entry model.MoodEntry
	if err := r.db.WithContext(ctx).Preload("User").Where("user_id = ? AND id = ?", userID, id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// OwnerOf returns only the owning user id of an entry, so callers can tell
// a foreign entry from a missing one without loading its contents.
func (r *moodEntryRepository) OwnerOf(ctx context.Context, id uint) (uint, bool, error) {
	var owners []uint
	if err := r.db.WithContext(ctx).Model(&model.MoodEntry{}).
		Where("id = ?", id).Limit(1).Pluck("user_id", &owners).Error; err != nil {
		return 0, false, err
	}
	if len(owners) == 0 {
		return 0, false, nil
	}
	return owners[0], true, nil
}

func (r *moodEntryRepository) List(ctx context.Context, userID uint, filter MoodEntryFilter, page Page) ([]model.MoodEntry, int64, error) {
	q := r.owned(ctx, userID)
	if filter.StartDate != nil {
		q = q.Where("entry_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("entry_date <= ?", *filter.EndDate)
	}
	if filter.MoodLevel != nil {
		q = q.Where("mood_level = ?", *filter.MoodLevel)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries := []model.MoodEntry{}
	err := q.Preload("User").
		Order("entry_date DESC").
		Order("entry_time IS NULL").
		Order("entry_time DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Aggregate counts and averages the user's mood levels, optionally within
// an inclusive date range. The average is 0 when there are no entries.
func (r *moodEntryRepository) Aggregate(ctx context.Context, userID uint, from, to *model.Date) (model.MoodAggregate, error) {
	q := r.owned(ctx, userID)
	if from != nil {
		q = q.Where("entry_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("entry_date <= ?", *to)
	}

	var agg model.MoodAggregate
	err := q.Select("COUNT(*) AS count, COALESCE(AVG(mood_level), 0) AS average").Scan(&agg).Error
	return agg, err
}

func (r *moodEntryRepository) Latest(ctx context.Context, userID uint) (*model.MoodEntry, bool, error) {
	var entries []model.MoodEntry
	if err := r.owned(ctx, userID).Preload("User").Order("entry_date DESC").Order("id DESC").Limit(1).Find(&entries).Error; err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, nil
	}
	return &entries[0], true, nil
}

func (r *moodEntryRepository) Distribution(ctx context.Context, userID uint) ([]model.MoodLevelCount, error) {
	rows := []model.MoodLevelCount{}
	err := r.owned(ctx, userID).
		Select("mood_level, COUNT(*) AS count").
		Group("mood_level").
		Order("mood_level").
		Scan(&rows).Error
	return rows, err
}
