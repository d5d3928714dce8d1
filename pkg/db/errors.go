package db

import (
	"context"
	"database/sql/driver"
	stdErrors "errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

const (
	ReasonConstraintViolation = "constraint_violation"
	ReasonStorageUnavailable  = "storage_unavailable"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateCheckViolation      = "23514"
	sqlStateSerialization       = "40001"
	sqlStateDeadlock            = "40P01"
	sqlStateLockNotAvailable    = "55P03"
	sqlStateQueryCanceled       = "57014"
	sqlStateAdminShutdown       = "57P01"
)

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, the helper also requires
// the constraint to match.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pkgerrors.SQLState(err) == sqlStateUniqueViolation {
		return constraintName == "" || pkgerrors.Constraint(err) == constraintName ||
			strings.Contains(err.Error(), constraintName)
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err was raised by a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.SQLState(err) == sqlStateForeignKeyViolation {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsUnavailable reports whether err means the store could not complete the
// statement: connection loss, timeouts, lock waits, cancellation.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if stdErrors.Is(err, context.DeadlineExceeded) || stdErrors.Is(err, context.Canceled) ||
		stdErrors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if stdErrors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if stdErrors.As(err, &connectErr) {
		return true
	}
	state := pkgerrors.SQLState(err)
	switch {
	case strings.HasPrefix(state, "08"):
		return true
	case state == sqlStateSerialization, state == sqlStateDeadlock, state == sqlStateLockNotAvailable,
		state == sqlStateQueryCanceled, state == sqlStateAdminShutdown:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sql: database is closed")
}

// Classify maps a raw store error into the typed taxonomy: constraint failures
// become terminal conflicts, availability failures become retryable dependency
// errors, anything else is internal. Already typed errors pass through.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	switch {
	case IsUniqueViolation(err, ""), IsForeignKeyViolation(err),
		pkgerrors.SQLState(err) == sqlStateCheckViolation:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message).
			WithReason(ReasonConstraintViolation)
	case IsUnavailable(err):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message).
			WithReason(ReasonStorageUnavailable)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
}
