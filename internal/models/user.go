package models

import (
	"time"

	"notebook/pkg/password"
)

// User is the snapshot held by a UserValue.
type User struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
}

// UserValue is an immutable, validated user record.
type UserValue struct {
	v User
}

// NewUserValue validates u and freezes it. It is used both for fresh input
// and for rows read back from storage.
func NewUserValue(u User) (UserValue, error) {
	if err := Validate("user", u); err != nil {
		return UserValue{}, err
	}
	return UserValue{v: u}, nil
}

// Values returns a copy of the record.
func (u UserValue) Values() User { return u.v }

func (u UserValue) ID() string { return u.v.ID }

func (u UserValue) IsZero() bool { return u.v.ID == "" }

// UserCredential is the snapshot held by a UserCredentialValue.
type UserCredential struct {
	ID             string    `json:"id" validate:"required"`
	UserID         string    `json:"user_id" validate:"required"`
	HashedPassword string    `json:"-" validate:"required,passwordhash"`
	CreatedAt      time.Time `json:"created_at" validate:"required"`
	UpdatedAt      time.Time `json:"updated_at" validate:"required"`
}

// UserCredentialValue is an immutable, validated credential record.
type UserCredentialValue struct {
	v UserCredential
}

func NewUserCredentialValue(c UserCredential) (UserCredentialValue, error) {
	if err := Validate("user credential", c); err != nil {
		return UserCredentialValue{}, err
	}
	return UserCredentialValue{v: c}, nil
}

func (c UserCredentialValue) Values() UserCredential { return c.v }

func (c UserCredentialValue) IsZero() bool { return c.v.ID == "" }

// VerifyPassword checks plaintext against the stored hash.
func (c UserCredentialValue) VerifyPassword(plaintext string) bool {
	return password.Verify(plaintext, c.v.HashedPassword)
}

// UserEntity is the user aggregate: the user row plus the credential it
// exclusively owns.
type UserEntity struct {
	user       UserValue
	credential UserCredentialValue
}

// NewUserEntity binds a user to its credential. A credential that belongs to
// a different user is rejected rather than silently re-pointed.
func NewUserEntity(user UserValue, credential UserCredentialValue) (*UserEntity, error) {
	if user.IsZero() {
		return nil, newValidationError("user entity", "user", "is required")
	}
	if credential.IsZero() {
		return nil, newValidationError("user entity", "credential", "is required")
	}
	if credential.v.UserID != user.v.ID {
		return nil, newValidationError("user entity", "credential.user_id", "does not match user id")
	}
	return &UserEntity{user: user, credential: credential}, nil
}

func (e *UserEntity) Values() User { return e.user.Values() }

func (e *UserEntity) ID() string { return e.user.ID() }

func (e *UserEntity) Credential() UserCredential { return e.credential.Values() }

// CredentialValue returns the credential value object.
func (e *UserEntity) CredentialValue() UserCredentialValue { return e.credential }

// UserArgs is the row written to the users table.
func (e *UserEntity) UserArgs() User { return e.user.Values() }

// CredentialArgs is the row written to the user_credentials table. The owner
// is always taken from the user value.
func (e *UserEntity) CredentialArgs() UserCredential {
	c := e.credential.Values()
	c.UserID = e.user.ID()
	return c
}

func (e *UserEntity) VerifyPassword(plaintext string) bool {
	return e.credential.VerifyPassword(plaintext)
}

// WithUser returns a copy of the entity holding a new user value.
func (e *UserEntity) WithUser(user UserValue) (*UserEntity, error) {
	return NewUserEntity(user, e.credential)
}

// WithCredential returns a copy of the entity holding a new credential.
func (e *UserEntity) WithCredential(credential UserCredentialValue) (*UserEntity, error) {
	return NewUserEntity(e.user, credential)
}
