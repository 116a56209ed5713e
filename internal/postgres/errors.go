package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/lib/pq"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
)

// Postgres error codes the admission path reacts to
const (
	pqUniqueViolation      pq.ErrorCode = "23505"
	pqForeignKeyViolation  pq.ErrorCode = "23503"
	pqCheckViolation       pq.ErrorCode = "23514"
	pqSerializationFailure pq.ErrorCode = "40001"
	pqDeadlockDetected     pq.ErrorCode = "40P01"
	pqAdminShutdown        pq.ErrorCode = "57P01"
	pqCannotConnectNow     pq.ErrorCode = "57P03"
	pqQueryCanceled        pq.ErrorCode = "57014"
	pqTooManyConnections   pq.ErrorCode = "53300"

	pqClassConnection pq.ErrorClass = "08"
)

// Unique constraints that guard invoice numbering. A violation of either is
// a lost race for a number, not a duplicate resource.
const (
	ConstraintInvoiceNumber   = "invoices_business_number_key"
	ConstraintInvoiceSequence = "invoices_business_sequence_key"
)

// ClassifyError maps a driver error onto the application error taxonomy.
// Errors that already carry an application mark are returned unchanged.
func ClassifyError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("The requested resource was not found").
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPQ(err, pqErr, msg)
	}

	if IsTransientError(err) {
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("The database is temporarily unavailable, please retry").
			Mark(ierr.ErrTransient)
	}

	return ierr.WithError(err).
		WithMessage(msg).
		WithHint("Database operation failed").
		Mark(ierr.ErrDatabase)
}

func classifyPQ(err error, pqErr *pq.Error, msg string) error {
	switch {
	case pqErr.Code == pqUniqueViolation && isInvoiceNumberConstraint(pqErr.Constraint):
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("Invoice number already taken for this business").
			WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
			Mark(ierr.ErrSequenceConflict)
	case pqErr.Code == pqUniqueViolation:
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("Resource already exists").
			WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
			Mark(ierr.ErrAlreadyExists)
	case pqErr.Code == pqForeignKeyViolation:
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("Referenced resource was not found").
			Mark(ierr.ErrNotFound)
	case pqErr.Code == pqCheckViolation:
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("Operation would violate a data constraint").
			WithReportableDetails(map[string]any{"constraint": pqErr.Constraint}).
			Mark(ierr.ErrInvalidOperation)
	case isTransientCode(pqErr.Code):
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("The database is temporarily unavailable, please retry").
			Mark(ierr.ErrTransient)
	}

	return ierr.WithError(err).
		WithMessage(msg).
		WithHint("Database operation failed").
		Mark(ierr.ErrDatabase)
}

func isTransientCode(code pq.ErrorCode) bool {
	switch code {
	case pqSerializationFailure, pqDeadlockDetected, pqAdminShutdown,
		pqCannotConnectNow, pqQueryCanceled, pqTooManyConnections:
		return true
	}
	return code.Class() == pqClassConnection
}

// IsTransientError reports whether a raw error is a network or connection
// level failure that is safe to retry.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isTransientCode(pqErr.Code)
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation on the
// named constraint, or on any constraint when name is empty.
func IsUniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqUniqueViolation && (name == "" || pqErr.Constraint == name)
}

func isInvoiceNumberConstraint(name string) bool {
	return name == ConstraintInvoiceNumber || name == ConstraintInvoiceSequence
}

func isClassified(err error) bool {
	for _, sentinel := range []error{
		ierr.ErrNotFound,
		ierr.ErrAlreadyExists,
		ierr.ErrValidation,
		ierr.ErrInvalidQuantity,
		ierr.ErrInvalidOperation,
		ierr.ErrPermissionDenied,
		ierr.ErrUnauthorized,
		ierr.ErrTransient,
		ierr.ErrSequenceConflict,
		ierr.ErrDatabase,
		ierr.ErrSystem,
	} {
		if ierr.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// shouldReport limits Sentry capture to infrastructure failures
func shouldReport(err error) bool {
	return ierr.IsTransient(err) || ierr.IsDatabase(err)
}
