package database

import (
	"errors"
	"strings"

	domainGateway "gateway-registry/internal/domain/gateway"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// uniqueViolationFields maps index and column names to payload fields. Order
// matters: the first match wins.
var uniqueViolationFields = []struct {
	marker string
	field  string
}{
	{"serial_number", domainGateway.FieldSerialNumber},
	{"ipv4_address", domainGateway.FieldIPv4Address},
	{"uid", domainGateway.FieldUID},
}

// translateError turns a unique index rejection into a ConflictError naming
// the offending field. Other errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var detail string

	var pgErr *pgconn.PgError
	var sqliteErr sqlite3.Error
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		detail = pgErr.ConstraintName + " " + pgErr.Detail
	case errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		detail = sqliteErr.Error()
	default:
		return err
	}

	for _, candidate := range uniqueViolationFields {
		if strings.Contains(detail, candidate.marker) {
			return &domainGateway.ConflictError{Field: candidate.field}
		}
	}
	return &domainGateway.ConflictError{}
}
