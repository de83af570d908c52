package pg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !isUniqueViolation(dup) {
		t.Fatal("23505 must be detected")
	}
	if !isUniqueViolation(fmt.Errorf("pg: insert identity record: %w", dup)) {
		t.Fatal("wrapped 23505 must be detected")
	}

	if isUniqueViolation(nil) {
		t.Fatal("nil is not a violation")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Fatal("plain errors are not violations")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Fatal("other pg codes are not violations")
	}
}
