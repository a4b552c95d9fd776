package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"notebook/internal/factories"
	"notebook/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMNoteRepository_CreateAndFind(t *testing.T) {
	db, users, notes := newRepos(t)
	ctx := context.Background()
	owner := createUser(t, users, "notes@example.com")

	created, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "groceries", "home", "todo", "home"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"home", "todo"}, created.TagNames())
	assert.Equal(t, int64(2), countRows(t, db, "tags", "user_id = ?", owner.ID()))
	assert.Equal(t, int64(2), countRows(t, db, "note_tags", "note_id = ?", created.ID()))

	found, err := notes.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, "groceries", found.Values().Title)
	assert.Equal(t, owner.ID(), found.UserID())
	assert.Equal(t, []string{"home", "todo"}, found.TagNames())
	for _, tag := range found.Tags() {
		assert.Equal(t, owner.ID(), tag.UserID)
	}

	_, err = notes.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMNoteRepository_TagOrderMatchesReads(t *testing.T) {
	_, users, notes := newRepos(t)
	ctx := context.Background()
	owner := createUser(t, users, "order@example.com")

	created, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "ordered", "zeta", "alpha", "mid"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, created.TagNames())

	found, err := notes.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, created.TagNames(), found.TagNames())

	tags, err := factories.NewTags([]string{"yak", "bee"}, owner.ID())
	require.NoError(t, err)
	retagged, err := found.WithTags(tags)
	require.NoError(t, err)

	updated, err := notes.Update(ctx, retagged)
	require.NoError(t, err)
	assert.Equal(t, []string{"bee", "yak"}, updated.TagNames())

	found, err = notes.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, updated.TagNames(), found.TagNames())
}

func TestGORMNoteRepository_ReusesExistingTags(t *testing.T) {
	db, users, notes := newRepos(t)
	ctx := context.Background()
	owner := createUser(t, users, "reuse@example.com")

	first, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "first", "shared"))
	require.NoError(t, err)
	second, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "second", "shared", "extra"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), countRows(t, db, "tags", "user_id = ? AND name = ?", owner.ID(), "shared"))
	assert.Equal(t, first.Tags()[0].ID, tagID(t, second, "shared"))
}

func TestGORMNoteRepository_CrossUserTagsAreIndependent(t *testing.T) {
	db, users, notes := newRepos(t)
	ctx := context.Background()
	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	aliceNote, err := notes.Create(ctx, newNoteEntity(t, alice.ID(), "alice", "work"))
	require.NoError(t, err)
	bobNote, err := notes.Create(ctx, newNoteEntity(t, bob.ID(), "bob", "work"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), countRows(t, db, "tags", "name = ?", "work"))
	assert.NotEqual(t, tagID(t, aliceNote, "work"), tagID(t, bobNote, "work"))
	assert.Equal(t, alice.ID(), aliceNote.Tags()[0].UserID)
	assert.Equal(t, bob.ID(), bobNote.Tags()[0].UserID)
}

func TestGORMNoteRepository_UpdateReplacesTags(t *testing.T) {
	db, users, notes := newRepos(t)
	ctx := context.Background()
	owner := createUser(t, users, "update@example.com")

	created, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "draft", "a", "b"))
	require.NoError(t, err)

	value, err := factories.UpdatedNote(noteValue(t, created), "final", "new content")
	require.NoError(t, err)
	x, err := factories.NewTags([]string{"x"}, owner.ID())
	require.NoError(t, err)
	changed, err := factories.BuildNoteEntity(value, x)
	require.NoError(t, err)

	updated, err := notes.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Values().Title)
	assert.Equal(t, "new content", updated.Values().Content)
	assert.Equal(t, []string{"x"}, updated.TagNames())
	assert.Equal(t, created.Values().CreatedAt.Unix(), updated.Values().CreatedAt.Unix())

	found, err := notes.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, found.TagNames())
	assert.Equal(t, int64(1), countRows(t, db, "note_tags", "note_id = ?", created.ID()))
	// tags a and b survive as rows
	assert.Equal(t, int64(3), countRows(t, db, "tags", "user_id = ?", owner.ID()))
}

func TestGORMNoteRepository_UpdateToNoTags(t *testing.T) {
	db, users, notes := newRepos(t)
	ctx := context.Background()
	owner := createUser(t, users, "untag@example.com")

	created, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "tagged", "a"))
	require.NoError(t, err)
	cleared, err := created.WithTags(nil)
	require.NoError(t, err)

	updated, err := notes.Update(ctx, cleared)
	require.NoError(t, err)
	assert.Empty(t, updated.TagNames())
	assert.Zero(t, countRows(t, db, "note_tags", "note_id = ?", created.ID()))
}

func TestGORMNoteRepository_UpdateMissing(t *testing.T) {
	_, users, notes := newRepos(t)
	owner := createUser(t, users, "missing@example.com")

	_, err := notes.Update(context.Background(), newNoteEntity(t, owner.ID(), "ghost", "a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNoteUpdateTx)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	var txErr *repositories.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "update note", txErr.Step)
}

func TestGORMNoteRepository_CreateForUnknownUser(t *testing.T) {
	db, _, notes := newRepos(t)

	_, err := notes.Create(context.Background(), newNoteEntity(t, "no-such-user", "orphan", "a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNoteCreateTx)
	assert.Zero(t, countRows(t, db, "notes", ""))
	assert.Zero(t, countRows(t, db, "tags", ""))
}

// Deleting a note drops its links but keeps the tag rows.
func TestGORMNoteRepository_DeleteKeepsTags(t *testing.T) {
	db, users, notes := newRepos(t)
	ctx := context.Background()
	owner := createUser(t, users, "delete@example.com")

	created, err := notes.Create(ctx, newNoteEntity(t, owner.ID(), "temp", "t1"))
	require.NoError(t, err)

	require.NoError(t, notes.Delete(ctx, created.ID()))

	_, err = notes.FindByID(ctx, created.ID())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Zero(t, countRows(t, db, "note_tags", "note_id = ?", created.ID()))
	assert.Equal(t, int64(1), countRows(t, db, "tags", "user_id = ? AND name = ?", owner.ID(), "t1"))

	assert.ErrorIs(t, notes.Delete(ctx, created.ID()), repositories.ErrNotFound)
}

func TestGORMNoteRepository_FindManyByUserID(t *testing.T) {
	_, users, notes := newRepos(t)
	ctx := context.Background()
	alice := createUser(t, users, "list-a@example.com")
	bob := createUser(t, users, "list-b@example.com")

	older, err := notes.Create(ctx, newNoteEntity(t, alice.ID(), "older", "b", "a"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := notes.Create(ctx, newNoteEntity(t, alice.ID(), "newer"))
	require.NoError(t, err)
	_, err = notes.Create(ctx, newNoteEntity(t, bob.ID(), "bob's", "a"))
	require.NoError(t, err)

	list, err := notes.FindManyByUserID(ctx, alice.ID())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID(), list[0].ID())
	assert.Empty(t, list[0].TagNames())
	assert.Equal(t, older.ID(), list[1].ID())
	assert.Equal(t, []string{"a", "b"}, list[1].TagNames())

	none, err := notes.FindManyByUserID(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
