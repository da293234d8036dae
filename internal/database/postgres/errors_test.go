package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/knexgen/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), errs.ErrKindTimeout},
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"insufficient privilege", &pgconn.PgError{Code: "42501", Message: "permission denied for schema x"}, errs.ErrKindPermissionDenied},
		{"bad password", &pgconn.PgError{Code: "28P01"}, errs.ErrKindPermissionDenied},
		{"unknown database", &pgconn.PgError{Code: "3D000"}, errs.ErrKindNotFound},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, errs.ErrKindTimeout},
		{"too many connections", &pgconn.PgError{Code: "53300"}, errs.ErrKindConnectionFailed},
		{"connection class", &pgconn.PgError{Code: "08006"}, errs.ErrKindConnectionFailed},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, errs.ErrKindQueryFailed},
		{"other sqlstate", &pgconn.PgError{Code: "22P02"}, errs.ErrKindQueryFailed},
		{"plain", errors.New("something odd"), errs.ErrKindQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "query failed")
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.NoError(t, mapError(nil, "x"))
}

func TestMapError_IncludesServerMessage(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: "42501", Message: "permission denied for table users"}, "query failed")
	assert.Contains(t, err.Error(), "query failed: permission denied for table users")
}

func TestWithDefault(t *testing.T) {
	assert.Equal(t, int32(4), withDefault(0, 4))
	assert.Equal(t, int32(8), withDefault(8, 4))
}
