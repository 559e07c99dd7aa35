package service

import (
	"context"
	"fmt"
	"time"

	"moodtracker/internal/model"
	"moodtracker/internal/repository"
)

// UserSummary is the public view of a user with its mood totals.
type UserSummary struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Timezone        *string   `json:"timezone"`
	CreatedAt       time.Time `json:"created_at"`
	LatestMoodEmoji *string   `json:"latest_mood_emoji"`
	AverageMood     float64   `json:"average_mood"`
	TotalEntries    int64     `json:"total_entries"`
}

func summarize(ctx context.Context, entries repository.MoodEntryRepository, user *model.User) (*UserSummary, error) {
	agg, err := entries.Aggregate(ctx, user.ID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("aggregate moods: %w", err)
	}

	latest, found, err := entries.Latest(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("latest mood: %w", err)
	}

	summary := &UserSummary{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Timezone:     user.Timezone,
		CreatedAt:    user.CreatedAt,
		AverageMood:  RoundAverage(agg.Average),
		TotalEntries: agg.Count,
	}
	if found {
		emoji := latest.Emoji()
		summary.LatestMoodEmoji = &emoji
	}
	return summary, nil
}
