package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moodtracker/internal/errors"
	"moodtracker/internal/model"
)

func TestUserService_ProfileSummary(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	user := env.register(t, "ada@example.com", nil)
	svc := env.userService()
	ctx := context.Background()

	profile, err := svc.Profile(ctx, user.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, 0.0, profile.AverageMood)
	assert.Equal(t, int64(0), profile.TotalEntries)
	assert.Nil(t, profile.LatestMoodEmoji)

	for i, level := range []int{1, 2, 3, 4, 5} {
		env.addEntry(t, user.User.ID, level, model.NewDate(2025, 6, 1+i).String())
	}

	profile, err = svc.Profile(ctx, user.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, profile.AverageMood)
	assert.Equal(t, int64(5), profile.TotalEntries)
	require.NotNil(t, profile.LatestMoodEmoji)
	assert.Equal(t, "😁", *profile.LatestMoodEmoji)
}

func TestUserService_ProfileCache(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	user := env.register(t, "ada@example.com", nil)
	svc := env.userService()
	ctx := context.Background()

	_, err := svc.Profile(ctx, user.User.ID)
	require.NoError(t, err)
	assert.True(t, env.redis.Exists("user:1"))

	cached, err := env.redis.Get("user:1")
	require.NoError(t, err)
	assert.NotContains(t, cached, "password")

	name := "Ada Lovelace"
	_, err = svc.UpdateProfile(ctx, user.User.ID, UpdateProfileInput{Name: &name})
	require.NoError(t, err)
	assert.False(t, env.redis.Exists("user:1"))

	profile, err := svc.Profile(ctx, user.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.Name)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	ada := env.register(t, "ada@example.com", nil)
	env.register(t, "bob@example.com", nil)
	svc := env.userService()
	ctx := context.Background()

	same := "ada@example.com"
	tz := "America/New_York"
	profile, err := svc.UpdateProfile(ctx, ada.User.ID, UpdateProfileInput{Email: &same, Timezone: &tz})
	require.NoError(t, err, "own email is allowed")
	require.NotNil(t, profile.Timezone)
	assert.Equal(t, "America/New_York", *profile.Timezone)
	assert.Equal(t, "User ada@example.com", profile.Name)

	taken := "bob@example.com"
	badTZ := "Moon/Base"
	empty := ""
	tests := []struct {
		name  string
		input UpdateProfileInput
		field string
	}{
		{name: "email of another user", input: UpdateProfileInput{Email: &taken}, field: "email"},
		{name: "invalid timezone", input: UpdateProfileInput{Timezone: &badTZ}, field: "timezone"},
		{name: "empty name", input: UpdateProfileInput{Name: &empty}, field: "name"},
		{name: "null email", input: UpdateProfileInput{Present: map[string]bool{"email": true}}, field: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, ada.User.ID, tt.input)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.Has(tt.field), "fields: %v", verr.Fields)
		})
	}

	profile, err = svc.UpdateProfile(ctx, ada.User.ID, UpdateProfileInput{Present: map[string]bool{"timezone": true}})
	require.NoError(t, err)
	assert.Nil(t, profile.Timezone)
}

func TestUserService_ChangePasswordRevokesAll(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	registered := env.register(t, "ada@example.com", nil)
	authSvc := env.authService()
	ctx := context.Background()

	second, err := authSvc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	for _, token := range []string{registered.Token, second.Token} {
		_, err := authSvc.Authenticate(ctx, token)
		require.NoError(t, err)
	}

	svc := env.userService()
	err = svc.ChangePassword(ctx, registered.User.ID, ChangePasswordInput{
		CurrentPassword:      "wrong-password",
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("current_password"))

	_, err = authSvc.Authenticate(ctx, registered.Token)
	require.NoError(t, err, "failed change keeps credentials")

	require.NoError(t, svc.ChangePassword(ctx, registered.User.ID, ChangePasswordInput{
		CurrentPassword:      "password123",
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
	}))

	for _, token := range []string{registered.Token, second.Token} {
		_, err := authSvc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	}

	_, err = authSvc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = authSvc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestUserService_LogoutRevokesOnlyCurrent(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	first := env.register(t, "ada@example.com", nil)
	authSvc := env.authService()
	ctx := context.Background()

	second, err := authSvc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	identity, err := authSvc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	require.NoError(t, authSvc.Logout(ctx, identity))

	_, err = authSvc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = authSvc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestUserService_DisplayTime(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	tz := "Asia/Kolkata"
	user := env.register(t, "ada@example.com", &tz)
	svc := env.userService()
	ctx := context.Background()

	date := model.NewDate(2025, 1, 15)
	got, err := svc.DisplayTime(ctx, user.User.ID, "10:00", &date)
	require.NoError(t, err)
	assert.Equal(t, "15:30", got)

	got, err = svc.DisplayTime(ctx, user.User.ID, "20:00", nil)
	require.NoError(t, err)
	assert.Equal(t, "01:30", got)

	_, err = svc.DisplayTime(ctx, user.User.ID, "8pm", nil)
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUserService_DeleteAccount(t *testing.T) {
	env := newTestEnv(t, pinnedNow)
	ada := env.register(t, "ada@example.com", nil)
	bob := env.register(t, "bob@example.com", nil)
	ctx := context.Background()

	env.addEntry(t, ada.User.ID, 3, "2025-06-01")
	bobs := env.addEntry(t, bob.User.ID, 4, "2025-06-01")

	svc := env.userService()
	require.NoError(t, svc.DeleteAccount(ctx, ada.User.ID))

	_, err := env.authService().Authenticate(ctx, ada.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = svc.Profile(ctx, ada.User.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	agg, err := env.entries.Aggregate(ctx, ada.User.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.Count)

	_, err = env.moodService().Get(ctx, bob.User.ID, bobs.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAccount(ctx, ada.User.ID), apperrors.ErrUserNotFound)
}
