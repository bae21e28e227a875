package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"consentdesk/internal/user"
	"consentdesk/pkg/apperrors"
	"consentdesk/pkg/sentinel"
)

type Service struct {
	users  user.Store
	tokens *TokenService
	logger *slog.Logger
}

func NewService(users user.Store, tokens *TokenService, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Register creates a user with a bcrypt-hashed password. Usernames are
// unique; registering a taken name is a conflict.
func (s *Service) Register(ctx context.Context, username, password string) (user.User, error) {
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if len(password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return user.User{}, apperrors.Validation(fields)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return user.User{}, apperrors.New(apperrors.CodeConflict, "username already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return user.User{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to register user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to register user")
	}

	created, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		return user.User{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to register user")
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// Login verifies the password and returns a signed access token. Unknown
// username and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, username, password string) (string, user.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", user.User{}, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
		}
		return "", user.User{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to sign in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", user.User{}, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateToken(u)
	if err != nil {
		return "", user.User{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to sign in")
	}
	return token, u, nil
}
