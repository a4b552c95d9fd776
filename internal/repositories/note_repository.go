package repositories

import (
	"context"

	"notebook/internal/models"
)

// NoteRepository defines the interface for note aggregate persistence.
type NoteRepository interface {
	FindByID(ctx context.Context, id string) (*models.NoteEntity, error)
	FindManyByUserID(ctx context.Context, userID string) ([]*models.NoteEntity, error)
	Create(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error)
	Update(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error)
	Delete(ctx context.Context, id string) error
}
