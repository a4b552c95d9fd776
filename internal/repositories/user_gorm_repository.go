package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notebook/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB, logger zerolog.Logger) *GORMUserRepository {
	return &GORMUserRepository{
		db:     db,
		logger: logger.With().Str("repository", "users").Logger(),
	}
}

// FindByID retrieves a user and its credential by user id.
func (r *GORMUserRepository) FindByID(ctx context.Context, id string) (*models.UserEntity, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail retrieves a user and its credential by email address.
func (r *GORMUserRepository) FindByEmail(ctx context.Context, email string) (*models.UserEntity, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GORMUserRepository) findOne(ctx context.Context, query string, arg string) (*models.UserEntity, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Preload("Credential").First(&rec, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.logger.Error().Err(err).Str("where", query).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", ErrQuery)
	}
	entity, err := rec.toEntity(nil)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", rec.ID).Msg("failed to rehydrate user")
		return nil, fmt.Errorf("failed to rehydrate user %s: %w", rec.ID, err)
	}
	return entity, nil
}

// FindMany lists users newest first.
func (r *GORMUserRepository) FindMany(ctx context.Context, params ListParams) ([]models.UserValue, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}
	if params.Offset > 0 {
		q = q.Offset(params.Offset)
	}

	var recs []userRecord
	if err := q.Find(&recs).Error; err != nil {
		r.logger.Error().Err(err).Int("limit", params.Limit).Int("offset", params.Offset).Msg("failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", ErrQuery)
	}

	users := make([]models.UserValue, 0, len(recs))
	for _, rec := range recs {
		v, err := rec.toValue()
		if err != nil {
			return nil, fmt.Errorf("failed to rehydrate user %s: %w", rec.ID, err)
		}
		users = append(users, v)
	}
	return users, nil
}

// Create inserts the user row and its credential row in one transaction.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.UserEntity) (*models.UserEntity, error) {
	userRec := newUserRecord(user.UserArgs())
	credRec := newUserCredentialRecord(user.CredentialArgs())

	var created *models.UserEntity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Create(&userRec)
		if res.Error != nil {
			return stepFailed("insert user", res.Error)
		}
		if res.RowsAffected == 0 {
			return stepFailed("insert user", errNoRows)
		}

		res = tx.Create(&credRec)
		if res.Error != nil {
			return stepFailed("insert credential", res.Error)
		}
		if res.RowsAffected == 0 {
			return stepFailed("insert credential", errNoRows)
		}

		entity, err := userRec.toEntity(&credRec)
		if err != nil {
			return stepFailed("rehydrate", err)
		}
		created = entity
		return nil
	})
	if err != nil {
		return nil, r.failed(OpUserCreate, err, userRec, credRec.ID)
	}
	return created, nil
}

// Update writes name and email, and the credential when
// opts.UpdateCredential is set. Otherwise the returned entity keeps the
// caller's credential.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.UserEntity, opts UpdateUserOptions) (*models.UserEntity, error) {
	userArgs := user.UserArgs()
	credArgs := user.CredentialArgs()

	var updated *models.UserEntity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRecord{}).Where("id = ?", userArgs.ID).Updates(map[string]interface{}{
			"name":       userArgs.Name,
			"email":      userArgs.Email,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return stepFailed("update user", res.Error)
		}
		if res.RowsAffected == 0 {
			return stepFailed("update user", errNoRows)
		}

		if opts.UpdateCredential {
			res = tx.Model(&userCredentialRecord{}).Where("user_id = ?", credArgs.UserID).Updates(map[string]interface{}{
				"hashed_password": credArgs.HashedPassword,
				"updated_at":      credArgs.UpdatedAt,
			})
			if res.Error != nil {
				return stepFailed("update credential", res.Error)
			}
			if res.RowsAffected == 0 {
				return stepFailed("update credential", errNoRows)
			}
		}

		var rec userRecord
		if err := tx.Preload("Credential").First(&rec, "id = ?", userArgs.ID).Error; err != nil {
			return stepFailed("select user", err)
		}

		credential := rec.Credential
		if !opts.UpdateCredential {
			keep := newUserCredentialRecord(credArgs)
			credential = &keep
		}
		entity, err := rec.toEntity(credential)
		if err != nil {
			return stepFailed("rehydrate", err)
		}
		updated = entity
		return nil
	})
	if err != nil {
		credID := ""
		if opts.UpdateCredential {
			credID = credArgs.ID
		}
		return nil, r.failed(OpUserUpdate, err, newUserRecord(userArgs), credID)
	}
	return updated, nil
}

// Delete removes the user together with everything it owns: credential,
// notes, their tag links and its tags.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		notes := tx.Model(&noteRecord{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("note_id IN (?)", notes).Delete(&noteTagRecord{}).Error; err != nil {
			return stepFailed("delete note tags", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&noteRecord{}).Error; err != nil {
			return stepFailed("delete notes", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&tagRecord{}).Error; err != nil {
			return stepFailed("delete tags", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&userCredentialRecord{}).Error; err != nil {
			return stepFailed("delete credential", err)
		}
		res := tx.Where("id = ?", id).Delete(&userRecord{})
		if res.Error != nil {
			return stepFailed("delete user", res.Error)
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
		return r.failed(OpUserDelete, err, userRecord{ID: id}, "")
	}
	return nil
}

// failed logs the raw cause of a rolled back transaction and returns its
// typed replacement. Password material is never logged.
func (r *GORMUserRepository) failed(op TxOp, err error, user userRecord, credentialID string) error {
	txErr := newTransactionError(op, err)
	ev := r.logger.Error().
		Err(err).
		Str("op", string(op)).
		Str("step", txErr.Step).
		Str("user_id", user.ID)
	if user.Email != "" {
		ev = ev.Str("email", user.Email)
	}
	if credentialID != "" {
		ev = ev.Str("credential_id", credentialID)
	}
	ev.Msg("transaction rolled back")
	return txErr
}
