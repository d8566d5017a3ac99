// Package sqlxrepos implements the repository interfaces on PostgreSQL
// using sqlx.
package sqlxrepos

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func stringArray(vals []string) driver.Valuer {
	return pq.Array(vals)
}
