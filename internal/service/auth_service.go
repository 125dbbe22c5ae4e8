package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"

	"wallhub/internal/apperr"
	"wallhub/internal/config"
	"wallhub/internal/ids"
	"wallhub/internal/models"
	"wallhub/internal/repository"
	"wallhub/internal/security"
)

type AuthService struct {
	users    UserStore
	security config.SecurityConfig
	admin    config.AdminConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, sec config.SecurityConfig, admin config.AdminConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		security: sec,
		admin:    admin,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.DisplayName, validation.Length(0, 64)),
	)
}

type AuthResult struct {
	AccessToken string
	User        models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	const op = "register"
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := input.Validate(); err != nil {
		return AuthResult{}, apperr.Invalid(op, err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, apperr.Internal(op, err)
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName, _, _ = strings.Cut(input.Email, "@")
	}

	now := s.now()
	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return AuthResult{}, apperr.Conflict(op, "email already registered")
		}
		return AuthResult{}, apperr.Internal(op, err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	return s.issue(op, user)
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	const op = "login"
	email := strings.TrimSpace(strings.ToLower(input.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.Unauthenticated(op, "invalid credentials")
		}
		return AuthResult{}, apperr.Internal(op, err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apperr.Unauthenticated(op, "invalid credentials")
	}
	if user.Status != models.UserStatusActive {
		return AuthResult{}, apperr.Forbidden(op, "user suspended")
	}

	return s.issue(op, user)
}

// AdminLogin checks the single configured admin account. The admin is not
// a user row; its token carries the curated owner id.
func (s *AuthService) AdminLogin(_ context.Context, input LoginInput) (AuthResult, error) {
	const op = "admin login"
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return AuthResult{}, apperr.Forbidden(op, "admin login is disabled")
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(s.admin.Email))) == 1
	passwordOK, err := security.VerifyPassword(input.Password, []byte(s.admin.PasswordHash))
	if err != nil {
		return AuthResult{}, apperr.Internal(op, err)
	}
	if !emailOK || !passwordOK {
		return AuthResult{}, apperr.Unauthenticated(op, "invalid credentials")
	}

	return s.issue(op, models.User{
		ID:          models.CuratedOwner,
		Email:       email,
		DisplayName: "Administrator",
		Role:        models.UserRoleAdmin,
		Status:      models.UserStatusActive,
	})
}

func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	const op = "me"
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, apperr.NotFound(op, "user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(op, err)
	}
	return user, nil
}

func (s *AuthService) issue(op string, user models.User) (AuthResult, error) {
	token, err := security.GenerateAccessToken(
		s.security.JWTAccessSecret,
		user.ID,
		string(user.Role),
		s.security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, apperr.Internal(op, err)
	}
	return AuthResult{AccessToken: token, User: user}, nil
}
