package seed

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moodtracker/internal/db"
	"moodtracker/internal/repository"
)

func newSeeder(t *testing.T) (*Seeder, repository.MoodEntryRepository) {
	t.Helper()
	database, err := db.NewSQLite(db.InMemory)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	entries := repository.NewMoodEntryRepository(database)
	return New(repository.NewUserRepository(database), entries), entries
}

func TestSeedCreatesUserAndHistory(t *testing.T) {
	seeder, entries := newSeeder(t)
	now := time.Date(2025, time.June, 20, 23, 30, 0, 0, time.UTC)

	result, err := seeder.Seed(context.Background(), Options{
		Email:      "demo@example.com",
		Timezone:   "Asia/Tokyo",
		Days:       10,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return now },
		Rand:       rand.New(rand.NewPCG(1, 2)),
	})
	require.NoError(t, err)
	assert.True(t, result.CreatedUser)
	assert.Equal(t, 10, result.Entries)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte(DefaultPassword)))

	list, total, err := entries.List(context.Background(), result.User.ID, repository.MoodEntryFilter{}, repository.Page{Number: 1, Size: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	// 23:30 UTC is already the next day in Tokyo.
	assert.Equal(t, "2025-06-21", list[0].EntryDate.String())
	assert.Equal(t, "2025-06-12", list[len(list)-1].EntryDate.String())
	for _, e := range list {
		assert.GreaterOrEqual(t, e.MoodLevel, 1)
		assert.LessOrEqual(t, e.MoodLevel, 5)
		assert.NotEmpty(t, e.Activities)
		for _, a := range e.Activities {
			assert.Contains(t, activityPools[e.MoodLevel], a)
		}
	}
}

func TestSeedReusesExistingUser(t *testing.T) {
	seeder, _ := newSeeder(t)
	opts := Options{Email: "demo@example.com", Days: 3, BcryptCost: bcrypt.MinCost, Rand: rand.New(rand.NewPCG(3, 4))}

	first, err := seeder.Seed(context.Background(), opts)
	require.NoError(t, err)
	second, err := seeder.Seed(context.Background(), opts)
	require.NoError(t, err)

	assert.False(t, second.CreatedUser)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestSeedSkipsDays(t *testing.T) {
	seeder, _ := newSeeder(t)
	result, err := seeder.Seed(context.Background(), Options{
		Email: "demo@example.com", Days: 30, SkipRate: 1,
		BcryptCost: bcrypt.MinCost, Rand: rand.New(rand.NewPCG(5, 6)),
	})
	require.NoError(t, err)
	assert.Zero(t, result.Entries)
}

func TestSeedRejectsBadOptions(t *testing.T) {
	seeder, _ := newSeeder(t)
	ctx := context.Background()

	_, err := seeder.Seed(ctx, Options{Days: 3})
	assert.Error(t, err)
	_, err = seeder.Seed(ctx, Options{Email: "a@example.com"})
	assert.Error(t, err)
	_, err = seeder.Seed(ctx, Options{Email: "a@example.com", Days: 1, Timezone: "Nowhere/Land", BcryptCost: bcrypt.MinCost})
	assert.Error(t, err)
}

func TestPick(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	got := pick(rng, []string{"a", "b"}, 5)
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}
