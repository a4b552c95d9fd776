package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"notebook/internal/factories"
	"notebook/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMNoteRepository is a GORM implementation of NoteRepository.
type GORMNoteRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewGORMNoteRepository creates a new instance of GORMNoteRepository.
func NewGORMNoteRepository(db *gorm.DB, logger zerolog.Logger) *GORMNoteRepository {
	return &GORMNoteRepository{
		db:     db,
		logger: logger.With().Str("repository", "notes").Logger(),
	}
}

// FindByID retrieves a note with the tags linked to it.
func (r *GORMNoteRepository) FindByID(ctx context.Context, id string) (*models.NoteEntity, error) {
	db := r.db.WithContext(ctx)

	var rec noteRecord
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.logger.Error().Err(err).Str("note_id", id).Msg("failed to get note")
		return nil, fmt.Errorf("failed to get note %s: %w", id, ErrQuery)
	}

	tags, err := linkedTags(db, []string{rec.ID})
	if err != nil {
		r.logger.Error().Err(err).Str("note_id", id).Msg("failed to load note tags")
		return nil, fmt.Errorf("failed to load tags of note %s: %w", id, ErrQuery)
	}
	return toNoteEntity(rec, tags[rec.ID])
}

// FindManyByUserID lists a user's notes, newest first, with their tags.
func (r *GORMNoteRepository) FindManyByUserID(ctx context.Context, userID string) ([]*models.NoteEntity, error) {
	db := r.db.WithContext(ctx)

	var recs []noteRecord
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list notes")
		return nil, fmt.Errorf("failed to list notes: %w", ErrQuery)
	}
	if len(recs) == 0 {
		return []*models.NoteEntity{}, nil
	}

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	tags, err := linkedTags(db, ids)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load note tags")
		return nil, fmt.Errorf("failed to load note tags: %w", ErrQuery)
	}

	notes := make([]*models.NoteEntity, 0, len(recs))
	for _, rec := range recs {
		entity, err := toNoteEntity(rec, tags[rec.ID])
		if err != nil {
			return nil, err
		}
		notes = append(notes, entity)
	}
	return notes, nil
}

// Create inserts the note, upserts its tags for the note's owner and links
// them, all in one transaction.
func (r *GORMNoteRepository) Create(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error) {
	noteRec := newNoteRecord(note.NoteArgs())
	names := note.TagNames()

	var created *models.NoteEntity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Create(&noteRec)
		if res.Error != nil {
			return stepFailed("insert note", res.Error)
		}
		if res.RowsAffected == 0 {
			return stepFailed("insert note", errNoRows)
		}

		tags, err := relinkTags(tx, noteRec.ID, noteRec.UserID, names)
		if err != nil {
			return err
		}

		entity, err := toNoteEntity(noteRec, tags)
		if err != nil {
			return stepFailed("rehydrate", err)
		}
		created = entity
		return nil
	})
	if err != nil {
		return nil, r.failed(OpNoteCreate, err, noteRec, names)
	}
	return created, nil
}

// Update rewrites title and content, then replaces every tag link of the
// note: links are deleted wholesale and rebuilt from the entity's tag set.
func (r *GORMNoteRepository) Update(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error) {
	noteRec := newNoteRecord(note.NoteArgs())
	names := note.TagNames()

	var updated *models.NoteEntity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&noteRecord{}).Where("id = ?", noteRec.ID).Updates(map[string]interface{}{
			"title":      noteRec.Title,
			"content":    noteRec.Content,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return stepFailed("update note", res.Error)
		}
		if res.RowsAffected == 0 {
			return stepFailed("update note", errNoRows)
		}

		var current noteRecord
		if err := tx.First(&current, "id = ?", noteRec.ID).Error; err != nil {
			return stepFailed("select note", err)
		}

		if err := tx.Where("note_id = ?", noteRec.ID).Delete(&noteTagRecord{}).Error; err != nil {
			return stepFailed("delete note tags", err)
		}

		tags, err := relinkTags(tx, current.ID, current.UserID, names)
		if err != nil {
			return err
		}

		entity, err := toNoteEntity(current, tags)
		if err != nil {
			return stepFailed("rehydrate", err)
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, r.failed(OpNoteUpdate, err, noteRec, names)
	}
	return updated, nil
}

// Delete removes the note and its tag links. Tags stay: other notes may
// still reference them.
func (r *GORMNoteRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", id).Delete(&noteTagRecord{}).Error; err != nil {
			return stepFailed("delete note tags", err)
		}
		res := tx.Where("id = ?", id).Delete(&noteRecord{})
		if res.Error != nil {
			return stepFailed("delete note", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return r.failed(OpNoteDelete, err, noteRecord{ID: id}, nil)
	}
	return nil
}

func (r *GORMNoteRepository) failed(op TxOp, err error, note noteRecord, tagNames []string) error {
	txErr := newTransactionError(op, err)
	r.logger.Error().
		Err(err).
		Str("op", string(op)).
		Str("step", txErr.Step).
		Str("note_id", note.ID).
		Str("user_id", note.UserID).
		Str("title", note.Title).
		Strs("tags", tagNames).
		Msg("transaction rolled back")
	return txErr
}

// relinkTags makes sure a tag row exists for every name under userID, then
// links each of them to noteID. Existing rows win: the insert ignores
// (user_id, name) conflicts and the ids are read back afterwards.
func relinkTags(tx *gorm.DB, noteID, userID string, names []string) ([]tagRecord, error) {
	if len(names) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	candidates := make([]tagRecord, 0, len(names))
	for _, name := range names {
		id, err := factories.NewID()
		if err != nil {
			return nil, stepFailed("upsert tags", err)
		}
		candidates = append(candidates, tagRecord{ID: id, Name: name, UserID: userID, CreatedAt: now, UpdatedAt: now})
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&candidates).Error
	if err != nil {
		return nil, stepFailed("upsert tags", err)
	}

	var found []tagRecord
	if err := tx.Where("user_id = ? AND name IN ?", userID, names).Find(&found).Error; err != nil {
		return nil, stepFailed("select tags", err)
	}
	if len(found) != len(names) {
		return nil, stepFailed("select tags", fmt.Errorf("expected %d tags, found %d", len(names), len(found)))
	}

	byName := make(map[string]tagRecord, len(found))
	for _, t := range found {
		byName[t.Name] = t
	}
	tags := make([]tagRecord, 0, len(names))
	links := make([]noteTagRecord, 0, len(names))
	for _, name := range names {
		tag := byName[name]
		id, err := factories.NewID()
		if err != nil {
			return nil, stepFailed("insert note tags", err)
		}
		tags = append(tags, tag)
		links = append(links, noteTagRecord{ID: id, NoteID: noteID, TagID: tag.ID})
	}

	if err := tx.Create(&links).Error; err != nil {
		return nil, stepFailed("insert note tags", err)
	}
	sortByName(tags)
	return tags, nil
}

// linkedTags loads the tags of each note, keyed by note id and sorted by
// name.
func linkedTags(db *gorm.DB, noteIDs []string) (map[string][]tagRecord, error) {
	var links []noteTagRecord
	if err := db.Where("note_id IN ?", noteIDs).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return map[string][]tagRecord{}, nil
	}

	tagIDs := make([]string, 0, len(links))
	for _, l := range links {
		tagIDs = append(tagIDs, l.TagID)
	}
	var tags []tagRecord
	if err := db.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]tagRecord, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}

	out := make(map[string][]tagRecord, len(noteIDs))
	for _, l := range links {
		if t, ok := byID[l.TagID]; ok {
			out[l.NoteID] = append(out[l.NoteID], t)
		}
	}
	for id := range out {
		sortByName(out[id])
	}
	return out, nil
}

// sortByName gives a note's tags the same order on every read and write.
func sortByName(tags []tagRecord) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
}
