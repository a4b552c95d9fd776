package services

import (
	"context"
	"fmt"
	"strings"

	"notebook/internal/factories"
	"notebook/internal/models"
	"notebook/internal/repositories"

	"github.com/rs/zerolog"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// UserService handles profile reads and updates.
type UserService struct {
	userRepo repositories.UserRepository
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "users").Logger(),
	}
}

// GetUser retrieves a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserEntity, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers returns a page of users, newest first. limit falls back to
// DefaultListLimit and is capped at MaxListLimit.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.UserValue, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.FindMany(ctx, repositories.ListParams{Limit: limit, Offset: offset})
}

// UpdateProfile changes the name and email of a user. Empty arguments keep
// the current value.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, email string) (*models.UserEntity, error) {
	current, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	values := current.Values()
	if name = strings.TrimSpace(name); name != "" {
		values.Name = name
	}
	if email = normalizeEmail(email); email != "" {
		values.Email = email
	}

	user, err := models.NewUserValue(values)
	if err != nil {
		return nil, err
	}
	changed, err := current.WithUser(user)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.Update(ctx, changed, repositories.UpdateUserOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return updated, nil
}

// ChangePassword replaces the credential after checking the current
// password.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if err := checkPassword("password change", newPassword); err != nil {
		return err
	}

	current, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.VerifyPassword(currentPassword) {
		return ErrInvalidCredentials
	}

	credential, err := factories.UpdatedCredential(current.CredentialValue(), newPassword)
	if err != nil {
		return err
	}
	changed, err := current.WithCredential(credential)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.Update(ctx, changed, repositories.UpdateUserOptions{UpdateCredential: true}); err != nil {
		return fmt.Errorf("failed to change password for user %s: %w", id, err)
	}
	s.logger.Info().Str("user_id", id).Msg("password changed")
	return nil
}

// DeleteUser removes the user and everything it owns.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
