package services_test

import (
	"context"
	"errors"
	"testing"

	"notebook/internal/models"
	"notebook/internal/repositories"
	"notebook/internal/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNoteService(t *testing.T) (*services.NoteService, *MockNoteRepository, *MockPublisher) {
	t.Helper()
	repo := new(MockNoteRepository)
	publisher := new(MockPublisher)
	return services.NewNoteService(repo, publisher, zerolog.Nop()), repo, publisher
}

func TestNoteService_CreateNote(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(n *models.NoteEntity) bool {
		return n.UserID() == "user-1" && n.Values().Title == "Shopping" &&
			assert.ObjectsAreEqual([]string{"food", "home"}, n.TagNames())
	})).Return(echo, nil).Once()
	publisher.On("Publish", ctx, services.EventNoteCreated, mock.Anything).Return(nil).Once()

	note, err := service.CreateNote(ctx, "user-1", services.NoteInput{
		Title:   " Shopping ",
		Content: "milk, eggs",
		Tags:    []string{"food", " home", "food"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "home"}, note.TagNames())
	for _, tag := range note.Tags() {
		assert.Equal(t, "user-1", tag.UserID)
	}
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestNoteService_CreateNoteValidation(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()

	_, err := service.CreateNote(ctx, "user-1", services.NoteInput{Title: "", Content: "body"})
	assert.True(t, models.IsValidationError(err))

	_, err = service.CreateNote(ctx, "user-1", services.NoteInput{Title: "t", Content: "body", Tags: []string{"  "}})
	assert.True(t, models.IsValidationError(err))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNoteService_CreateNoteRepositoryFailure(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()

	txErr := &repositories.TransactionError{Op: repositories.OpNoteCreate, Step: "insert note"}
	repo.On("Create", ctx, mock.Anything).Return(nil, txErr).Once()

	_, err := service.CreateNote(ctx, "user-1", services.NoteInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, repositories.ErrNoteCreateTx)
	assert.ErrorIs(t, err, repositories.ErrTransaction)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNoteService_GetNoteHidesOtherUsersNotes(t *testing.T) {
	service, repo, _ := newNoteService(t)
	ctx := context.Background()
	note := newNote(t, "owner")

	repo.On("FindByID", ctx, note.ID()).Return(note, nil)

	found, err := service.GetNote(ctx, "owner", note.ID())
	require.NoError(t, err)
	assert.Equal(t, note.ID(), found.ID())

	_, err = service.GetNote(ctx, "intruder", note.ID())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = service.UpdateNote(ctx, "intruder", note.ID(), services.NoteInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.ErrorIs(t, service.DeleteNote(ctx, "intruder", note.ID()), repositories.ErrNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestNoteService_ListNotes(t *testing.T) {
	service, repo, _ := newNoteService(t)
	ctx := context.Background()
	notes := []*models.NoteEntity{newNote(t, "user-1", "a"), newNote(t, "user-1")}

	repo.On("FindManyByUserID", ctx, "user-1").Return(notes, nil).Once()
	list, err := service.ListNotes(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, notes, list)
	repo.AssertExpectations(t)
}

func TestNoteService_UpdateNoteKeepsTagsWhenNil(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()
	note := newNote(t, "user-1", "a", "b")

	repo.On("FindByID", ctx, note.ID()).Return(note, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(n *models.NoteEntity) bool {
		return n.Values().Title == "New" && n.Values().Content == "Body" &&
			assert.ObjectsAreEqual([]string{"a", "b"}, n.TagNames())
	})).Return(echo, nil).Once()
	publisher.On("Publish", ctx, services.EventNoteUpdated, mock.Anything).Return(nil).Once()

	updated, err := service.UpdateNote(ctx, "user-1", note.ID(), services.NoteInput{Title: "New", Content: "Body"})
	require.NoError(t, err)
	assert.Equal(t, note.Values().CreatedAt, updated.Values().CreatedAt)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestNoteService_UpdateNoteReplacesTags(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()
	note := newNote(t, "user-1", "a", "b")

	repo.On("FindByID", ctx, note.ID()).Return(note, nil).Twice()
	repo.On("Update", ctx, mock.MatchedBy(func(n *models.NoteEntity) bool {
		return assert.ObjectsAreEqual([]string{"x"}, n.TagNames())
	})).Return(echo, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(n *models.NoteEntity) bool {
		return len(n.TagNames()) == 0
	})).Return(echo, nil).Once()
	publisher.On("Publish", ctx, services.EventNoteUpdated, mock.Anything).Return(nil).Twice()

	updated, err := service.UpdateNote(ctx, "user-1", note.ID(), services.NoteInput{Title: "t", Content: "c", Tags: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, updated.TagNames())

	cleared, err := service.UpdateNote(ctx, "user-1", note.ID(), services.NoteInput{Title: "t", Content: "c", Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.TagNames())
	repo.AssertExpectations(t)
}

func TestNoteService_DeleteNote(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()
	note := newNote(t, "user-1")

	repo.On("FindByID", ctx, note.ID()).Return(note, nil).Once()
	repo.On("Delete", ctx, note.ID()).Return(nil).Once()
	publisher.On("Publish", ctx, services.EventNoteDeleted, mock.Anything).Return(errors.New("broker down")).Once()

	assert.NoError(t, service.DeleteNote(ctx, "user-1", note.ID()))

	repo.On("FindByID", ctx, "missing").Return(nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, service.DeleteNote(ctx, "user-1", "missing"), repositories.ErrNotFound)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestNoteService_AddTag(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()
	note := newNote(t, "user-1", "a")

	repo.On("FindByID", ctx, note.ID()).Return(note, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(n *models.NoteEntity) bool {
		return assert.ObjectsAreEqual([]string{"a", "b"}, n.TagNames())
	})).Return(echo, nil).Once()
	publisher.On("Publish", ctx, services.EventNoteUpdated, mock.Anything).Return(nil).Once()

	updated, err := service.AddTag(ctx, "user-1", note.ID(), " b ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, updated.TagNames())

	// already present: nothing is written
	same, err := service.AddTag(ctx, "user-1", note.ID(), "a")
	require.NoError(t, err)
	assert.Equal(t, note, same)

	_, err = service.AddTag(ctx, "user-1", note.ID(), "")
	assert.True(t, models.IsValidationError(err))

	repo.AssertNumberOfCalls(t, "Update", 1)
	publisher.AssertExpectations(t)
}

func TestNoteService_RemoveTag(t *testing.T) {
	service, repo, publisher := newNoteService(t)
	ctx := context.Background()
	note := newNote(t, "user-1", "a", "b")

	repo.On("FindByID", ctx, note.ID()).Return(note, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(n *models.NoteEntity) bool {
		return assert.ObjectsAreEqual([]string{"b"}, n.TagNames())
	})).Return(echo, nil).Once()
	publisher.On("Publish", ctx, services.EventNoteUpdated, mock.Anything).Return(nil).Once()

	updated, err := service.RemoveTag(ctx, "user-1", note.ID(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, updated.TagNames())

	same, err := service.RemoveTag(ctx, "user-1", note.ID(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, note, same)

	repo.AssertNumberOfCalls(t, "Update", 1)
	publisher.AssertExpectations(t)
}

func TestNoteService_WithoutPublisher(t *testing.T) {
	repo := new(MockNoteRepository)
	service := services.NewNoteService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(echo, nil).Once()
	_, err := service.CreateNote(ctx, "user-1", services.NoteInput{Title: "t", Content: "c"})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
