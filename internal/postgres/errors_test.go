package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/lib/pq"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"no rows", sql.ErrNoRows, ierr.IsNotFound},
		{"invoice number race", &pq.Error{Code: "23505", Constraint: ConstraintInvoiceNumber}, ierr.IsSequenceConflict},
		{"sequence race", &pq.Error{Code: "23505", Constraint: ConstraintInvoiceSequence}, ierr.IsSequenceConflict},
		{"duplicate payment reference", &pq.Error{Code: "23505", Constraint: "credit_purchases_payment_reference_key"}, ierr.IsAlreadyExists},
		{"serialization failure", &pq.Error{Code: "40001"}, ierr.IsTransient},
		{"deadlock", &pq.Error{Code: "40P01"}, ierr.IsTransient},
		{"connection failure class", &pq.Error{Code: "08006"}, ierr.IsTransient},
		{"admin shutdown", &pq.Error{Code: "57P01"}, ierr.IsTransient},
		{"too many connections", &pq.Error{Code: "53300"}, ierr.IsTransient},
		{"syntax error", &pq.Error{Code: "42601"}, ierr.IsDatabase},
		{"deadline", context.DeadlineExceeded, ierr.IsTransient},
		{"bad conn", driver.ErrBadConn, ierr.IsTransient},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ierr.IsTransient},
		{"dns", &net.DNSError{Err: "no such host", Name: "db"}, ierr.IsTransient},
		{"unknown", fmt.Errorf("boom"), ierr.IsDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyError(tt.err, "test operation")
			assert.Error(t, err)
			assert.True(t, tt.check(err), "unexpected classification: %v", err)
		})
	}
}

func TestClassifyErrorKeepsExistingMarks(t *testing.T) {
	original := ierr.NewError("no credits").Mark(ierr.ErrInvalidQuantity)
	err := ClassifyError(original, "wrapped")

	assert.True(t, ierr.IsInvalidQuantity(err))
	assert.False(t, ierr.IsDatabase(err))
}

func TestClassifyErrorNil(t *testing.T) {
	assert.NoError(t, ClassifyError(nil, "noop"))
}

func TestTransientNeverConflatedWithSequenceConflict(t *testing.T) {
	err := ClassifyError(&pq.Error{Code: "23505", Constraint: ConstraintInvoiceNumber}, "insert invoice")
	assert.False(t, ierr.IsTransient(err))
	assert.False(t, ierr.IsAlreadyExists(err))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: ConstraintInvoiceNumber})
	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, ConstraintInvoiceNumber))
	assert.False(t, IsUniqueViolation(err, "other"))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain"), ""))
}
