package repositories

import (
	"context"

	"notebook/internal/models"
)

// ListParams bounds a list query. A Limit of zero means no limit.
type ListParams struct {
	Limit  int
	Offset int
}

// UpdateUserOptions controls which rows UserRepository.Update writes.
type UpdateUserOptions struct {
	UpdateCredential bool
}

// UserRepository defines the interface for user aggregate persistence.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.UserEntity, error)
	FindByEmail(ctx context.Context, email string) (*models.UserEntity, error)
	// FindMany returns users ordered by creation time, newest first.
	FindMany(ctx context.Context, params ListParams) ([]models.UserValue, error)
	Create(ctx context.Context, user *models.UserEntity) (*models.UserEntity, error)
	Update(ctx context.Context, user *models.UserEntity, opts UpdateUserOptions) (*models.UserEntity, error)
	Delete(ctx context.Context, id string) error
}
