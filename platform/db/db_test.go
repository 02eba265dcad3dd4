package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "customers_natural_key"}
	wrapped := fmt.Errorf("insert customer: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected wrapped 23505 to be detected")
	}
	if !IsUniqueViolation(wrapped, "customers_natural_key") {
		t.Fatal("expected matching constraint to be detected")
	}
	if IsUniqueViolation(wrapped, "channels_compound_key") {
		t.Fatal("expected other constraint name to be rejected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation must not count as unique violation")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("plain errors must not count as unique violation")
	}
}
