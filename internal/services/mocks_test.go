package services_test

import (
	"context"
	"testing"

	"notebook/internal/factories"
	"notebook/internal/models"
	"notebook/internal/repositories"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.UserEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserEntity), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.UserEntity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserEntity), args.Error(1)
}

func (m *MockUserRepository) FindMany(ctx context.Context, params repositories.ListParams) ([]models.UserValue, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserValue), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.UserEntity) (*models.UserEntity, error) {
	args := m.Called(ctx, user)
	return userResult(args, user)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.UserEntity, opts repositories.UpdateUserOptions) (*models.UserEntity, error) {
	args := m.Called(ctx, user, opts)
	return userResult(args, user)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNoteRepository is a mock implementation of repositories.NoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) FindByID(ctx context.Context, id string) (*models.NoteEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NoteEntity), args.Error(1)
}

func (m *MockNoteRepository) FindManyByUserID(ctx context.Context, userID string) ([]*models.NoteEntity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.NoteEntity), args.Error(1)
}

func (m *MockNoteRepository) Create(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error) {
	args := m.Called(ctx, note)
	return noteResult(args, note)
}

func (m *MockNoteRepository) Update(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error) {
	args := m.Called(ctx, note)
	return noteResult(args, note)
}

func (m *MockNoteRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	args := m.Called(ctx, eventType, data)
	return args.Error(0)
}

// echo makes Create and Update return the entity they were given.
const echo = "echo"

func userResult(args mock.Arguments, in *models.UserEntity) (*models.UserEntity, error) {
	switch v := args.Get(0).(type) {
	case string:
		if v == echo {
			return in, args.Error(1)
		}
	case *models.UserEntity:
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func noteResult(args mock.Arguments, in *models.NoteEntity) (*models.NoteEntity, error) {
	switch v := args.Get(0).(type) {
	case string:
		if v == echo {
			return in, args.Error(1)
		}
	case *models.NoteEntity:
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func newUser(t *testing.T, email, password string) *models.UserEntity {
	t.Helper()
	user, err := factories.NewUserEntity("Test User", email, password)
	require.NoError(t, err)
	return user
}

func newNote(t *testing.T, userID string, tags ...string) *models.NoteEntity {
	t.Helper()
	note, err := factories.NewNote("title", "content", userID)
	require.NoError(t, err)
	tagValues, err := factories.NewTags(tags, userID)
	require.NoError(t, err)
	entity, err := factories.BuildNoteEntity(note, tagValues)
	require.NoError(t, err)
	return entity
}
