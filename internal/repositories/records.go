package repositories

import (
	"fmt"
	"time"

	"notebook/internal/factories"
	"notebook/internal/models"
)

// Rows of the persisted layout. AutoMigrate derives the tables, unique
// indexes and ON DELETE CASCADE foreign keys from these tags.

type userRecord struct {
	ID         string                `gorm:"primaryKey;type:varchar(36)"`
	Name       string                `gorm:"type:text;not null"`
	Email      string                `gorm:"type:varchar(320);not null;uniqueIndex"`
	CreatedAt  time.Time             `gorm:"not null;index"`
	UpdatedAt  time.Time             `gorm:"not null"`
	Credential *userCredentialRecord `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

func (userRecord) TableName() string { return "users" }

type userCredentialRecord struct {
	ID             string      `gorm:"primaryKey;type:varchar(36)"`
	UserID         string      `gorm:"type:varchar(36);not null;uniqueIndex"`
	User           *userRecord `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	HashedPassword string      `gorm:"type:varchar(512);not null"`
	CreatedAt      time.Time   `gorm:"not null"`
	UpdatedAt      time.Time   `gorm:"not null"`
}

func (userCredentialRecord) TableName() string { return "user_credentials" }

type noteRecord struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)"`
	Title     string      `gorm:"type:varchar(128);not null"`
	Content   string      `gorm:"type:text;not null"`
	UserID    string      `gorm:"type:varchar(36);not null;index"`
	User      *userRecord `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"not null;index"`
	UpdatedAt time.Time   `gorm:"not null"`
}

func (noteRecord) TableName() string { return "notes" }

type tagRecord struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)"`
	Name      string      `gorm:"type:varchar(128);not null;uniqueIndex:idx_tags_user_id_name,priority:2"`
	UserID    string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_tags_user_id_name,priority:1"`
	User      *userRecord `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"not null"`
	UpdatedAt time.Time   `gorm:"not null"`
}

func (tagRecord) TableName() string { return "tags" }

type noteTagRecord struct {
	ID     string      `gorm:"primaryKey;type:varchar(36)"`
	NoteID string      `gorm:"type:varchar(36);not null;index"`
	Note   *noteRecord `gorm:"foreignKey:NoteID;references:ID;constraint:OnDelete:CASCADE"`
	TagID  string      `gorm:"type:varchar(36);not null;index"`
	Tag    *tagRecord  `gorm:"foreignKey:TagID;references:ID;constraint:OnDelete:CASCADE"`
}

func (noteTagRecord) TableName() string { return "note_tags" }

// Models lists the records in dependency order for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&userRecord{},
		&userCredentialRecord{},
		&noteRecord{},
		&tagRecord{},
		&noteTagRecord{},
	}
}

func newUserRecord(u models.User) userRecord {
	return userRecord{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newUserCredentialRecord(c models.UserCredential) userCredentialRecord {
	return userCredentialRecord{
		ID:             c.ID,
		UserID:         c.UserID,
		HashedPassword: c.HashedPassword,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r userRecord) toValue() (models.UserValue, error) {
	return models.NewUserValue(models.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

func (r userCredentialRecord) toValue() (models.UserCredentialValue, error) {
	return models.NewUserCredentialValue(models.UserCredential{
		ID:             r.ID,
		UserID:         r.UserID,
		HashedPassword: r.HashedPassword,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	})
}

// toEntity rehydrates the aggregate; credential overrides r.Credential when
// given.
func (r userRecord) toEntity(credential *userCredentialRecord) (*models.UserEntity, error) {
	if credential == nil {
		credential = r.Credential
	}
	if credential == nil {
		return nil, fmt.Errorf("user %s has no credential row", r.ID)
	}
	user, err := r.toValue()
	if err != nil {
		return nil, err
	}
	cred, err := credential.toValue()
	if err != nil {
		return nil, err
	}
	return factories.BuildUserEntity(user, cred)
}

func newNoteRecord(n models.Note) noteRecord {
	return noteRecord{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		UserID:    n.UserID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (r noteRecord) toValue() (models.NoteValue, error) {
	return models.NewNoteValue(models.Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

func (r tagRecord) toValue() (models.TagValue, error) {
	return models.NewTagValue(models.Tag{
		ID:        r.ID,
		Name:      r.Name,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
}

func toNoteEntity(note noteRecord, tags []tagRecord) (*models.NoteEntity, error) {
	value, err := note.toValue()
	if err != nil {
		return nil, err
	}
	tagValues := make([]models.TagValue, 0, len(tags))
	for _, t := range tags {
		tv, err := t.toValue()
		if err != nil {
			return nil, err
		}
		tagValues = append(tagValues, tv)
	}
	return factories.BuildNoteEntity(value, tagValues)
}
