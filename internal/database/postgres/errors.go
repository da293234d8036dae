package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/knexgen/internal/errs"
)

// PostgreSQL SQLSTATE codes the introspection queries can realistically hit.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrClassConnection     = "08"
	pgErrInsufficientPrivs   = "42501"
	pgErrInvalidPassword     = "28P01"
	pgErrInvalidAuthSpec     = "28000"
	pgErrInvalidCatalogName  = "3D000"
	pgErrQueryCanceled       = "57014"
	pgErrCannotConnectNow    = "57P03"
	pgErrTooManyConnections  = "53300"
	pgErrUndefinedTable      = "42P01"
	pgErrUndefinedColumn     = "42703"
	pgErrSyntaxError         = "42601"
	pgErrUndefinedObjectType = "42704"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(kindForCode(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Anything else never reached the server: TLS, network, DNS.
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

func kindForCode(code string) errs.ErrKind {
	switch code {
	case pgErrInsufficientPrivs, pgErrInvalidPassword, pgErrInvalidAuthSpec:
		return errs.ErrKindPermissionDenied
	case pgErrInvalidCatalogName:
		return errs.ErrKindNotFound
	case pgErrQueryCanceled:
		return errs.ErrKindTimeout
	case pgErrCannotConnectNow, pgErrTooManyConnections:
		return errs.ErrKindConnectionFailed
	case pgErrUndefinedTable, pgErrUndefinedColumn, pgErrSyntaxError, pgErrUndefinedObjectType:
		return errs.ErrKindQueryFailed
	}
	if len(code) >= 2 && code[:2] == pgErrClassConnection {
		return errs.ErrKindConnectionFailed
	}
	return errs.ErrKindQueryFailed
}
