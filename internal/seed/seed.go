// Package seed fills a database with a demo user and a plausible mood history.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moodtracker/internal/logging"
	"moodtracker/internal/model"
	"moodtracker/internal/repository"
)

// DefaultPassword is set on demo users created by Seed.
const DefaultPassword = "password123"

var activityPools = map[int][]string{
	1: {"stayed in bed", "argument", "sick", "overtime", "bad news"},
	2: {"commute", "chores", "poor sleep", "deadline", "rainy day"},
	3: {"work", "groceries", "reading", "cooking", "emails"},
	4: {"walk", "coffee with friends", "gym", "movie", "gardening"},
	5: {"hiking", "family dinner", "concert", "vacation", "celebration"},
}

var notes = map[int][]string{
	1: {"Rough day.", "Everything felt heavy."},
	2: {"Not my best day.", "Tired and a bit down."},
	3: {"Ordinary day.", "Nothing special happened."},
	4: {"Pretty good overall.", "Felt productive."},
	5: {"Fantastic day!", "Felt great all day."},
}

// Options controls a seeding run.
type Options struct {
	Email    string
	Name     string
	Password string
	Timezone string
	// Days is how far back the history reaches, today included.
	Days int
	// SkipRate is the chance of leaving a day without an entry.
	SkipRate   float64
	BcryptCost int
	Now        func() time.Time
	Rand       *rand.Rand
}

// Result summarizes a seeding run.
type Result struct {
	User        *model.User
	CreatedUser bool
	Entries     int
}

// Seeder writes demo data through the repositories.
type Seeder struct {
	users   repository.UserRepository
	entries repository.MoodEntryRepository
}

// New creates a seeder.
func New(users repository.UserRepository, entries repository.MoodEntryRepository) *Seeder {
	return &Seeder{users: users, entries: entries}
}

// Seed creates the demo user when absent and records one entry per day for
// opts.Days days ending today in the user's zone.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Result, error) {
	if opts.Email == "" {
		return nil, errors.New("email is required")
	}
	if opts.Days < 1 {
		return nil, fmt.Errorf("days must be positive, got %d", opts.Days)
	}
	if opts.Name == "" {
		opts.Name = "Demo User"
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(opts.Now().UnixNano()), 0))
	}

	user, created, err := s.ensureUser(ctx, opts)
	if err != nil {
		return nil, err
	}

	now := opts.Now().In(user.Location(time.UTC))
	today := model.DateOf(now)
	rng := opts.Rand

	// A slowly drifting baseline keeps neighbouring days similar.
	baseline := 3.0
	count := 0
	for offset := opts.Days - 1; offset >= 0; offset-- {
		baseline += rng.Float64() - 0.5
		baseline = min(max(baseline, 1.5), 4.5)
		if rng.Float64() < opts.SkipRate {
			continue
		}

		level := min(max(int(baseline+rng.Float64()), 1), 5)

		clock := fmt.Sprintf("%02d:%02d", 7+rng.IntN(15), rng.IntN(60))
		entry := &model.MoodEntry{
			UserID:     user.ID,
			MoodLevel:  level,
			EntryDate:  today.AddDays(-offset),
			EntryTime:  &clock,
			Activities: pick(rng, activityPools[level], 1+rng.IntN(3)),
		}
		if rng.IntN(2) == 0 {
			note := notes[level][rng.IntN(len(notes[level]))]
			entry.Notes = &note
		}
		if err := s.entries.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("create entry for %s: %w", entry.EntryDate, err)
		}
		count++
	}

	logging.Ctx(ctx).Info().
		Str("email", user.Email).
		Bool("created_user", created).
		Int("entries", count).
		Msg("seed complete")
	return &Result{User: user, CreatedUser: created, Entries: count}, nil
}

func (s *Seeder) ensureUser(ctx context.Context, opts Options) (*model.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, opts.Email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.BcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	user = &model.User{
		Name:         opts.Name,
		Email:        opts.Email,
		PasswordHash: string(hashed),
	}
	if opts.Timezone != "" {
		if _, err := time.LoadLocation(opts.Timezone); err != nil {
			return nil, false, fmt.Errorf("timezone %q: %w", opts.Timezone, err)
		}
		tz := opts.Timezone
		user.Timezone = &tz
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

func pick(rng *rand.Rand, pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}
