package database

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether err is a postgres unique constraint violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

// IsTransient reports whether err is a transient store failure that is worth
// retrying: timeouts, connectivity loss, pool exhaustion. Validation errors
// and constraint violations are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Pool-acquire timeouts surface as context deadline errors
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code):
			return true
		case pgErr.Code == pgerrcode.TooManyConnections:
			return true
		case pgErr.Code == pgerrcode.LockNotAvailable:
			return true
		case pgErr.Code == pgerrcode.QueryCanceled:
			return true
		}
		return false
	}

	return pgconn.SafeToRetry(err)
}
