package repositories_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"notebook/internal/database"
	"notebook/internal/factories"
	"notebook/internal/models"
	"notebook/internal/repositories"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB returns a migrated sqlite database private to the test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notebook.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)

	db, err := database.Open("sqlite", dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newRepos(t *testing.T) (*gorm.DB, *repositories.GORMUserRepository, *repositories.GORMNoteRepository) {
	t.Helper()
	db := openTestDB(t)
	return db, repositories.NewGORMUserRepository(db, zerolog.Nop()), repositories.NewGORMNoteRepository(db, zerolog.Nop())
}

func createUser(t *testing.T, repo repositories.UserRepository, email string) *models.UserEntity {
	t.Helper()
	entity, err := factories.NewUserEntity("Test User", email, "password123")
	require.NoError(t, err)
	created, err := repo.Create(context.Background(), entity)
	require.NoError(t, err)
	return created
}

func newNoteEntity(t *testing.T, userID, title string, tags ...string) *models.NoteEntity {
	t.Helper()
	note, err := factories.NewNote(title, "content of "+title, userID)
	require.NoError(t, err)
	tagValues, err := factories.NewTags(tags, userID)
	require.NoError(t, err)
	entity, err := factories.BuildNoteEntity(note, tagValues)
	require.NoError(t, err)
	return entity
}

func countRows(t *testing.T, db *gorm.DB, table, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func noteValue(t *testing.T, note *models.NoteEntity) models.NoteValue {
	t.Helper()
	v, err := models.NewNoteValue(note.Values())
	require.NoError(t, err)
	return v
}

func tagID(t *testing.T, note *models.NoteEntity, name string) string {
	t.Helper()
	for _, tag := range note.Tags() {
		if tag.Name == name {
			return tag.ID
		}
	}
	t.Fatalf("note %s has no tag %q", note.ID(), name)
	return ""
}
