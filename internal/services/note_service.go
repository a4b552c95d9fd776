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

// NoteService handles business logic related to notes and their tags. Every
// operation is scoped to the calling user: another user's note is reported
// as repositories.ErrNotFound.
type NoteService struct {
	noteRepo  repositories.NoteRepository
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewNoteService creates a new NoteService. publisher may be nil.
func NewNoteService(noteRepo repositories.NoteRepository, publisher EventPublisher, logger zerolog.Logger) *NoteService {
	return &NoteService{
		noteRepo:  noteRepo,
		publisher: publisher,
		logger:    logger.With().Str("service", "notes").Logger(),
	}
}

// NoteInput carries the writable fields of a note. On update a nil Tags
// keeps the current tags; an empty, non-nil slice clears them.
type NoteInput struct {
	Title   string
	Content string
	Tags    []string
}

// CreateNote stores a new note for userID.
func (s *NoteService) CreateNote(ctx context.Context, userID string, in NoteInput) (*models.NoteEntity, error) {
	note, err := factories.NewNote(strings.TrimSpace(in.Title), in.Content, userID)
	if err != nil {
		return nil, err
	}
	tags, err := factories.NewTags(cleanTagNames(in.Tags), userID)
	if err != nil {
		return nil, err
	}
	entity, err := factories.BuildNoteEntity(note, tags)
	if err != nil {
		return nil, err
	}

	created, err := s.noteRepo.Create(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	publish(ctx, s.publisher, s.logger, EventNoteCreated, newNoteEvent(created))
	return created, nil
}

// GetNote retrieves one of userID's notes.
func (s *NoteService) GetNote(ctx context.Context, userID, id string) (*models.NoteEntity, error) {
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.UserID() != userID {
		return nil, repositories.ErrNotFound
	}
	return note, nil
}

// ListNotes returns userID's notes, newest first.
func (s *NoteService) ListNotes(ctx context.Context, userID string) ([]*models.NoteEntity, error) {
	return s.noteRepo.FindManyByUserID(ctx, userID)
}

// UpdateNote rewrites a note and, unless in.Tags is nil, its tag set.
func (s *NoteService) UpdateNote(ctx context.Context, userID, id string, in NoteInput) (*models.NoteEntity, error) {
	current, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	note, err := factories.UpdatedNote(current.Note(), strings.TrimSpace(in.Title), in.Content)
	if err != nil {
		return nil, err
	}
	changed, err := current.WithNote(note)
	if err != nil {
		return nil, err
	}
	if in.Tags != nil {
		tags, err := factories.NewTags(cleanTagNames(in.Tags), userID)
		if err != nil {
			return nil, err
		}
		if changed, err = changed.WithTags(tags); err != nil {
			return nil, err
		}
	}

	return s.save(ctx, changed)
}

// DeleteNote removes one of userID's notes. Its tags stay.
func (s *NoteService) DeleteNote(ctx context.Context, userID, id string) error {
	if _, err := s.GetNote(ctx, userID, id); err != nil {
		return err
	}
	if err := s.noteRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}

	publish(ctx, s.publisher, s.logger, EventNoteDeleted, noteEvent{NoteID: id, UserID: userID})
	return nil
}

// AddTag links the tag called name to the note. Adding a tag the note
// already has changes nothing.
func (s *NoteService) AddTag(ctx context.Context, userID, id, name string) (*models.NoteEntity, error) {
	current, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if current.HasTag(name) {
		return current, nil
	}

	tag, err := factories.NewTag(name, userID)
	if err != nil {
		return nil, err
	}
	changed, err := current.AddTag(tag)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, changed)
}

// RemoveTag unlinks the tag called name from the note. The tag row itself is
// kept for the user's other notes.
func (s *NoteService) RemoveTag(ctx context.Context, userID, id, name string) (*models.NoteEntity, error) {
	current, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !current.HasTag(name) {
		return current, nil
	}

	changed, err := current.RemoveTag(name)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, changed)
}

func (s *NoteService) save(ctx context.Context, note *models.NoteEntity) (*models.NoteEntity, error) {
	updated, err := s.noteRepo.Update(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", note.ID(), err)
	}

	publish(ctx, s.publisher, s.logger, EventNoteUpdated, newNoteEvent(updated))
	return updated, nil
}

func newNoteEvent(note *models.NoteEntity) noteEvent {
	return noteEvent{
		NoteID: note.ID(),
		UserID: note.UserID(),
		Title:  note.Values().Title,
		Tags:   note.TagNames(),
	}
}

// cleanTagNames trims every name. Blank names are kept so validation
// reports them.
func cleanTagNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}
