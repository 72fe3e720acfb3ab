package services

import (
	"errors"
	"fmt"
	"strings"

	"courtside/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindForbidden       ErrorKind = "forbidden"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindStoreFailure    ErrorKind = "store_failure"
)

// Error is returned for every rule violation. Code is a stable machine-readable
// identifier; Host is set when a comment was addressed through the wrong host
// and names the host it actually belongs to.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Host    *models.Host
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func notFound(code, format string, args ...any) *Error {
	return newError(KindNotFound, code, format, args...)
}

func conflict(code, format string, args ...any) *Error {
	return newError(KindConflict, code, format, args...)
}

func forbidden(code, format string, args ...any) *Error {
	return newError(KindForbidden, code, format, args...)
}

func unauthorized(code, format string, args ...any) *Error {
	return newError(KindUnauthorized, code, format, args...)
}

func invalidArgument(code, format string, args ...any) *Error {
	return newError(KindInvalidArgument, code, format, args...)
}

// wrongHost reports that a comment was addressed under `requested` but lives
// under `actual`.
func wrongHost(commentID uint, requested, actual models.Host) *Error {
	e := invalidArgument("wrong_entity_type", "comment #%d belongs to %s, not %s", commentID, actual, requested)
	e.Host = &actual
	return e
}

// KindOf classifies any error returned by this package. Errors that are not
// *Error are store failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// storeError passes domain errors through and wraps everything else as a
// StoreFailure. Unique-constraint violations become Conflict so a racing
// duplicate insert is reported like the up-front check would have.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if isUniqueViolation(err) {
		return &Error{Kind: KindConflict, Code: "duplicate", Message: op + ": already exists", Err: err}
	}
	return &Error{Kind: KindStoreFailure, Code: "store_failure", Message: op, Err: err}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
