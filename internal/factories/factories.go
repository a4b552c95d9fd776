// Package factories builds value objects and aggregates. The New* functions
// create fresh records (new id, current timestamps); the Build* functions
// assemble aggregates from values that already exist, e.g. rows read back
// from storage.
package factories

import (
	"fmt"
	"time"

	"notebook/internal/models"
	"notebook/pkg/password"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewID returns a fresh 21 character NanoID.
func NewID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return id, nil
}

func now() time.Time {
	return time.Now().UTC()
}

// NewUser creates a user value with a generated id.
func NewUser(name, email string) (models.UserValue, error) {
	id, err := NewID()
	if err != nil {
		return models.UserValue{}, err
	}
	ts := now()
	return models.NewUserValue(models.User{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

// NewCredential hashes plaintext and creates the credential for userID.
func NewCredential(userID, plaintext string) (models.UserCredentialValue, error) {
	id, err := NewID()
	if err != nil {
		return models.UserCredentialValue{}, err
	}
	hashed, err := password.Hash(plaintext)
	if err != nil {
		return models.UserCredentialValue{}, fmt.Errorf("hash password: %w", err)
	}
	ts := now()
	return models.NewUserCredentialValue(models.UserCredential{
		ID:             id,
		UserID:         userID,
		HashedPassword: hashed,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	})
}

// UpdatedCredential re-hashes plaintext into a copy of current, keeping its
// id, owner and creation time.
func UpdatedCredential(current models.UserCredentialValue, plaintext string) (models.UserCredentialValue, error) {
	hashed, err := password.Hash(plaintext)
	if err != nil {
		return models.UserCredentialValue{}, fmt.Errorf("hash password: %w", err)
	}
	c := current.Values()
	c.HashedPassword = hashed
	c.UpdatedAt = now()
	return models.NewUserCredentialValue(c)
}

// NewUserEntity builds a signup aggregate: a new user and its credential.
func NewUserEntity(name, email, plaintext string) (*models.UserEntity, error) {
	user, err := NewUser(name, email)
	if err != nil {
		return nil, err
	}
	credential, err := NewCredential(user.ID(), plaintext)
	if err != nil {
		return nil, err
	}
	return models.NewUserEntity(user, credential)
}

// BuildUserEntity assembles an aggregate from existing values.
func BuildUserEntity(user models.UserValue, credential models.UserCredentialValue) (*models.UserEntity, error) {
	return models.NewUserEntity(user, credential)
}

func NewNote(title, content, userID string) (models.NoteValue, error) {
	id, err := NewID()
	if err != nil {
		return models.NoteValue{}, err
	}
	ts := now()
	return models.NewNoteValue(models.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		UserID:    userID,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

// UpdatedNote copies current with a new title and content.
func UpdatedNote(current models.NoteValue, title, content string) (models.NoteValue, error) {
	n := current.Values()
	n.Title = title
	n.Content = content
	n.UpdatedAt = now()
	return models.NewNoteValue(n)
}

func NewTag(name, userID string) (models.TagValue, error) {
	id, err := NewID()
	if err != nil {
		return models.TagValue{}, err
	}
	ts := now()
	return models.NewTagValue(models.Tag{
		ID:        id,
		Name:      name,
		UserID:    userID,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
}

// NewTags creates one tag per name. Duplicates are kept here and collapsed
// when the entity is built.
func NewTags(names []string, userID string) ([]models.TagValue, error) {
	tags := make([]models.TagValue, 0, len(names))
	for _, name := range names {
		tag, err := NewTag(name, userID)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// BuildNoteEntity assembles a note aggregate. Tags with the same owner and
// name are reduced to their first occurrence.
func BuildNoteEntity(note models.NoteValue, tags []models.TagValue) (*models.NoteEntity, error) {
	return models.NewNoteEntity(note, tags)
}
