package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"moodtracker/internal/auth"
	apperrors "moodtracker/internal/errors"
	"moodtracker/internal/logging"
	"moodtracker/internal/metrics"
	"moodtracker/internal/model"
	"moodtracker/internal/repository"
	"moodtracker/internal/validation"
)

// TokenType is the scheme clients send credentials with.
const TokenType = "Bearer"

// AuthResult is a user summary with a freshly issued credential.
type AuthResult struct {
	User      *UserSummary `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, identity *auth.Identity) error
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type authService struct {
	users      repository.UserRepository
	entries    repository.MoodEntryRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	opts       Options
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, entries repository.MoodEntryRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, opts Options) AuthService {
	return &authService{
		users:      users,
		entries:    entries,
		jwtService: jwtService,
		tokenStore: tokenStore,
		opts:       opts.withDefaults(),
	}
}

// Register creates a user with a hashed password and signs it in.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	verr := &apperrors.ValidationError{}
	if err := validation.ValidateStruct(&in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}

	if !verr.Has("email") {
		taken, err := s.users.EmailTaken(ctx, in.Email, 0)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
	}
	if err := verr.OrNil(); err != nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Timezone:     s.resolveTimezone(in.Timezone, in.TimezoneHint),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.signIn(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthAttempt("register", true)
	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("user registered")
	return result, nil
}

// resolveTimezone prefers the explicit field, then a valid hint, then the default zone.
func (s *authService) resolveTimezone(explicit *string, hint string) *string {
	if explicit != nil && *explicit != "" {
		tz := *explicit
		return &tz
	}
	if validation.IsTimezone(hint) {
		return &hint
	}
	tz := s.opts.DefaultLocation.String()
	return &tz
}

// Login verifies credentials and issues a new token. Earlier tokens stay valid.
func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		metrics.RecordAuthAttempt("login", false)
		logging.Ctx(ctx).Warn().Msg("login failed")
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		metrics.RecordAuthAttempt("login", false)
		logging.Ctx(ctx).Warn().Uint("user_id", user.ID).Msg("login failed")
		return nil, apperrors.ErrInvalidCredentials
	}

	result, err := s.signIn(ctx, user)
	if err != nil {
		return nil, err
	}
	metrics.RecordAuthAttempt("login", true)
	return result, nil
}

func (s *authService) signIn(ctx context.Context, user *model.User) (*AuthResult, error) {
	issued, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.tokenStore.StoreToken(ctx, issued.ID, user.ID, s.jwtService.TTL()); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	summary, err := summarize(ctx, s.entries, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      summary,
		Token:     issued.Token,
		TokenType: TokenType,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Logout revokes only the credential of the current request.
func (s *authService) Logout(ctx context.Context, identity *auth.Identity) error {
	if identity == nil {
		return apperrors.ErrUnauthenticated
	}
	if err := s.tokenStore.RevokeToken(ctx, identity.TokenID, identity.UserID); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	metrics.RecordRevocation("logout", 1)
	logging.Ctx(ctx).Info().Uint("user_id", identity.UserID).Msg("credential revoked")
	return nil
}

// Authenticate resolves a bearer token to an identity. The credential store
// is consulted on every call; a store failure rejects the token.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	active, err := s.tokenStore.IsTokenActive(ctx, claims.ID, claims.UserID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("credential store unavailable")
		return nil, apperrors.ErrUnauthenticated
	}
	if !active {
		return nil, apperrors.ErrUnauthenticated
	}

	identity := &auth.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
