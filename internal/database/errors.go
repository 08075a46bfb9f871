package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const (
	// postgresUniqueViolation is the SQLSTATE for unique_violation.
	postgresUniqueViolation = "23505"
	// mysqlDuplicateEntry is ER_DUP_ENTRY.
	mysqlDuplicateEntry = 1062
)

// IsUniqueViolation reports whether err was raised by a unique constraint,
// for both the postgres and the mysql drivers.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == postgresUniqueViolation
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}

	return false
}

// UniqueViolationConstraint returns the constraint name reported by postgres.
// MySQL does not expose it and an empty string is returned.
func UniqueViolationConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == postgresUniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
