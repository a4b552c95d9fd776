package repositories

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors returned by the repositories. Driver errors never leave
// this package; they are logged and replaced by one of these.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrQuery    = errors.New("query failed")
)

// TxOp names the aggregate operation a transaction belongs to.
type TxOp string

const (
	OpUserCreate TxOp = "user.create"
	OpUserUpdate TxOp = "user.update"
	OpUserDelete TxOp = "user.delete"
	OpNoteCreate TxOp = "note.create"
	OpNoteUpdate TxOp = "note.update"
	OpNoteDelete TxOp = "note.delete"
)

// TransactionError reports a rolled back multi-statement write. Cause is nil
// or one of ErrNotFound / ErrConflict.
type TransactionError struct {
	Op    TxOp
	Step  string
	Cause error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("%s transaction failed", e.Op)
	if e.Op == "" {
		msg = "transaction failed"
	}
	if e.Step != "" {
		msg += " at " + e.Step
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransactionError) Unwrap() error { return e.Cause }

// Is matches another *TransactionError with the same Op. A target without an
// Op (ErrTransaction) matches every transaction error.
func (e *TransactionError) Is(target error) bool {
	t, ok := target.(*TransactionError)
	if !ok {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}

var (
	ErrTransaction  = &TransactionError{}
	ErrUserCreateTx = &TransactionError{Op: OpUserCreate}
	ErrUserUpdateTx = &TransactionError{Op: OpUserUpdate}
	ErrUserDeleteTx = &TransactionError{Op: OpUserDelete}
	ErrNoteCreateTx = &TransactionError{Op: OpNoteCreate}
	ErrNoteUpdateTx = &TransactionError{Op: OpNoteUpdate}
	ErrNoteDeleteTx = &TransactionError{Op: OpNoteDelete}
)

// errNoRows marks a write that reported success but touched nothing.
var errNoRows = errors.New("no rows affected")

// stepError tags a failure inside a transaction with the statement that
// produced it.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }

func (e *stepError) Unwrap() error { return e.err }

func stepFailed(step string, err error) error {
	return &stepError{step: step, err: err}
}

// isUniqueViolation detects duplicate key errors from both sqlite and
// postgres, with or without gorm's error translation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// newTransactionError classifies err, the value returned by
// gorm.DB.Transaction, into a *TransactionError.
func newTransactionError(op TxOp, err error) *TransactionError {
	txErr := &TransactionError{Op: op, Step: "commit"}

	var se *stepError
	if errors.As(err, &se) {
		txErr.Step = se.step
	}

	switch {
	case isUniqueViolation(err):
		txErr.Cause = ErrConflict
	case errors.Is(err, errNoRows), errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		txErr.Cause = ErrNotFound
	}
	return txErr
}
