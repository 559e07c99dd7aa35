package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moodtracker/internal/auth"
	"moodtracker/internal/cache"
	"moodtracker/internal/db"
	"moodtracker/internal/model"
	"moodtracker/internal/repository"
)

// testEnv wires real repositories over in-memory SQLite and a miniredis
// backed credential store, with the clock pinned.
type testEnv struct {
	users   repository.UserRepository
	entries repository.MoodEntryRepository
	cache   *cache.Client
	tokens  *auth.TokenStore
	jwt     *auth.JWTService
	redis   *miniredis.Miniredis
	now     time.Time
	opts    Options
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	database, err := db.NewSQLite(db.InMemory)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	client := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	env := &testEnv{
		users:   repository.NewUserRepository(database),
		entries: repository.NewMoodEntryRepository(database),
		cache:   client,
		tokens:  auth.NewTokenStore(client),
		jwt:     auth.NewJWTService("test-secret", time.Hour),
		redis:   mr,
		now:     now,
	}
	env.opts = Options{
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return env.now },
	}
	return env
}

func (e *testEnv) authService() AuthService {
	return NewAuthService(e.users, e.entries, e.jwt, e.tokens, e.opts)
}

func (e *testEnv) userService() UserService {
	return NewUserService(e.users, e.entries, e.tokens, e.cache, e.opts)
}

func (e *testEnv) moodService() MoodEntryService {
	return NewMoodEntryService(e.users, e.entries, e.opts)
}

func (e *testEnv) register(t *testing.T, email string, tz *string) *AuthResult {
	t.Helper()
	result, err := e.authService().Register(context.Background(), RegisterInput{
		Name:                 "User " + email,
		Email:                email,
		Password:             "password123",
		PasswordConfirmation: "password123",
		Timezone:             tz,
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) addEntry(t *testing.T, userID uint, level int, date string) *model.MoodEntry {
	t.Helper()
	entry, err := e.moodService().Create(context.Background(), userID, CreateMoodEntryInput{
		MoodLevel: &level,
		EntryDate: &date,
	})
	require.NoError(t, err)
	return entry
}

func intPtr(i int) *int { return &i }
