package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// ProfileService edits a user's own profile.
type ProfileService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewProfileService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// ProfileEdit is the edit-profile form.
type ProfileEdit struct {
	Description string
	Password    string
	Confirm     string
}

// GetForEdit returns the profile actor may edit. Users can only edit their
// own profile.
func (s *ProfileService) GetForEdit(ctx context.Context, actor, username string) (*model.User, error) {
	if actor != username {
		return nil, apperror.Forbidden("you can only edit your own profile")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/profile: loading %q: %w", username, err)
	}
	return user, nil
}

// EditProfile always updates the description. The password changes only
// when a new one is given and it equals the confirmation; otherwise the old
// password stays.
func (s *ProfileService) EditProfile(ctx context.Context, actor, username string, edit ProfileEdit) error {
	if actor != username {
		return apperror.Forbidden("you can only edit your own profile")
	}

	update := repository.ProfileUpdate{Description: edit.Description}
	if edit.Password != "" && edit.Password == edit.Confirm {
		hash, err := s.passwords.Hash(edit.Password)
		if err != nil {
			return apperror.ValidationFailed("password", err.Error())
		}
		update.PasswordHash = hash
	}

	if err := s.users.UpdateProfile(ctx, username, update); err != nil {
		return fmt.Errorf("service/profile: updating %q: %w", username, err)
	}

	s.logger.Info("profile updated",
		slog.String("username", username),
		slog.Bool("passwordChanged", update.PasswordHash != ""),
	)
	return nil
}
