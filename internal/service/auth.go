package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// Registration messages, shown to the visitor verbatim.
const (
	MsgUsernameTaken    = "Username is already taken!"
	MsgUsernameRequired = "Username must not be empty!"
	MsgEmailRequired    = "Email must not be empty!"
	MsgPasswordRequired = "Password must not be empty!"
	MsgPasswordMismatch = "Passwords must match!"
)

// ErrInvalidCredentials is returned by Login for an unknown user or a wrong
// password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = apperror.Unauthorized("invalid username or password")

// AuthService handles registration and login.
//
//	AuthHandler (HTTP) → AuthService → UserRepository
//	                                 ↘ PasswordService (bcrypt)
//
// Issuing the session cookie is NOT done here: that's an HTTP concern and
// lives in the session package.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Registration is the sign-up form.
type Registration struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Register creates an account.
//
// CHECK ORDER:
// The checks run in a fixed order and the first failure wins:
//  1. username already taken   → Conflict
//  2. empty username           → ValidationFailed
//  3. empty email              → ValidationFailed
//  4. empty password           → ValidationFailed
//  5. password ≠ confirmation  → ValidationFailed
//
// The unique username index still guards the insert, so two simultaneous
// sign-ups for the same name produce one account and one Conflict.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*model.User, error) {
	if reg.Username != "" {
		_, err := s.users.GetByUsername(ctx, reg.Username)
		if err == nil {
			return nil, apperror.Conflict(MsgUsernameTaken)
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: checking username %q: %w", reg.Username, err)
		}
	}

	switch {
	case reg.Username == "":
		return nil, apperror.ValidationFailed("username", MsgUsernameRequired)
	case reg.Email == "":
		return nil, apperror.ValidationFailed("email", MsgEmailRequired)
	case reg.Password == "":
		return nil, apperror.ValidationFailed("password", MsgPasswordRequired)
	case reg.Password != reg.Confirm:
		return nil, apperror.ValidationFailed("verify", MsgPasswordMismatch)
	}

	hash, err := s.passwords.Hash(reg.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     reg.Username,
		PasswordHash: hash,
		Email:        reg.Email,
		Description:  "",
		ProfilePic:   model.DefaultProfilePic,
		Helpful:      []string{},
		Cafes:        []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict(MsgUsernameTaken)
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", reg.Username, err)
	}

	s.logger.Info("user registered", slog.String("username", user.Username))
	return user, nil
}

// Login checks a username and password and returns the account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login failed: unknown user", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: loading user %q: %w", username, err)
	}

	// Accounts created through GitHub have no password and can't log in here.
	if user.PasswordHash == "" || !s.passwords.Matches(user.PasswordHash, password) {
		s.logger.Info("login failed: wrong password", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// LoginOrRegisterGitHub maps a GitHub profile to an account, creating it on
// first sign-in. The GitHub login becomes the username.
//
// A local account that already owns that username (it has a password) is
// never taken over: the GitHub sign-in fails with Conflict instead.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	if gh == nil || gh.Login == "" {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	existing, err := s.users.GetByUsername(ctx, gh.Login)
	switch {
	case err == nil && existing.PasswordHash != "":
		return nil, apperror.Conflict(MsgUsernameTaken)
	case err == nil:
		return existing, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: loading user %q: %w", gh.Login, err)
	}

	pic := gh.AvatarURL
	if pic == "" {
		pic = model.DefaultProfilePic
	}
	user := &model.User{
		Username:   gh.Login,
		Email:      gh.Email,
		ProfilePic: pic,
		Helpful:    []string{},
		Cafes:      []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user %q: %w", gh.Login, err)
	}

	s.logger.Info("user registered via GitHub",
		slog.String("username", user.Username),
		slog.Int64("githubID", gh.ID),
	)
	return user, nil
}
