package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moodtracker/internal/auth"
	"moodtracker/internal/cache"
	apperrors "moodtracker/internal/errors"
	"moodtracker/internal/logging"
	"moodtracker/internal/metrics"
	"moodtracker/internal/model"
	"moodtracker/internal/repository"
	"moodtracker/internal/validation"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes account operations for an authenticated user.
type UserService interface {
	Profile(ctx context.Context, userID uint) (*UserSummary, error)
	UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*UserSummary, error)
	ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error
	DisplayTime(ctx context.Context, userID uint, clock string, date *model.Date) (string, error)
	DeleteAccount(ctx context.Context, userID uint) error
}

type userService struct {
	users      repository.UserRepository
	entries    repository.MoodEntryRepository
	tokenStore auth.TokenStoreInterface
	cache      *cache.Client
	opts       Options
}

// NewUserService builds a UserService with repositories and cache.
func NewUserService(users repository.UserRepository, entries repository.MoodEntryRepository, tokenStore auth.TokenStoreInterface, cache *cache.Client, opts Options) UserService {
	return &userService{
		users:      users,
		entries:    entries,
		tokenStore: tokenStore,
		cache:      cache,
		opts:       opts.withDefaults(),
	}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// cachedUser returns the profile fields of a user. The password hash is not
// cached, so callers that need it read the repository.
func (s *userService) cachedUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.ProfileCacheHits.Inc()
			return &cached, nil
		}
	}
	metrics.ProfileCacheMisses.Inc()

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) findUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) invalidate(ctx context.Context, id uint) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

func (s *userService) Profile(ctx context.Context, userID uint) (*UserSummary, error) {
	user, err := s.cachedUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.entries, user)
}

// UpdateProfile changes only the fields that were sent. A null timezone
// clears it; name and email cannot be cleared.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*UserSummary, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	if err := validation.ValidateStruct(&in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}

	nameSent := sent(in.Present, "name", in.Name != nil)
	emailSent := sent(in.Present, "email", in.Email != nil)
	tzSent := sent(in.Present, "timezone", in.Timezone != nil)

	if nameSent && (in.Name == nil || *in.Name == "") {
		verr.Add("name", "The name field is required.")
	}
	if emailSent && in.Email == nil {
		verr.Add("email", "The email field is required.")
	}
	if emailSent && in.Email != nil && !verr.Has("email") {
		taken, err := s.users.EmailTaken(ctx, *in.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if nameSent {
		user.Name = *in.Name
	}
	if emailSent {
		user.Email = *in.Email
	}
	if tzSent {
		if in.Timezone == nil || *in.Timezone == "" {
			user.Timezone = nil
		} else {
			tz := *in.Timezone
			user.Timezone = &tz
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, user.ID)

	return summarize(ctx, s.entries, user)
}

// ChangePassword replaces the password and revokes every credential of the user.
func (s *userService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	verr := &apperrors.ValidationError{}
	if err := validation.ValidateStruct(&in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if in.CurrentPassword != "" && !verr.Has("current_password") {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			verr.Add("current_password", "The current password is incorrect.")
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.invalidate(ctx, user.ID)

	revoked, err := s.tokenStore.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("revoke credentials: %w", err)
	}
	metrics.RecordRevocation("password_change", revoked)
	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Int("revoked", revoked).Msg("password changed")
	return nil
}

// DisplayTime reads an HH:MM wall-clock time on date as UTC and renders it
// in the user's zone. date defaults to today. Stored data is never changed.
func (s *userService) DisplayTime(ctx context.Context, userID uint, clock string, date *model.Date) (string, error) {
	if !validation.IsClockTime(clock) {
		return "", apperrors.NewValidationError("time", "The time field must match the format HH:MM.")
	}

	user, err := s.cachedUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return DisplayTime(user, s.opts.DefaultLocation, clock, date, s.opts.Now()), nil
}

// DisplayTime converts clock on date, taken as UTC, into the user's zone.
func DisplayTime(user *model.User, fallback *time.Location, clock string, date *model.Date, now time.Time) string {
	d := model.DateOf(now.UTC())
	if date != nil && !date.IsZero() {
		d = *date
	}
	parsed, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return clock
	}
	utc := time.Date(d.Year(), d.Month(), d.Time().Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
	return utc.In(user.Location(fallback)).Format(model.TimeLayout)
}

// DeleteAccount removes the user, its entries and every credential.
func (s *userService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.invalidate(ctx, userID)

	revoked, err := s.tokenStore.RevokeAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke credentials: %w", err)
	}
	metrics.RecordRevocation("account_deleted", revoked)
	logging.Ctx(ctx).Info().Uint("user_id", userID).Msg("account deleted")
	return nil
}
