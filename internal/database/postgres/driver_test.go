package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"cancelled wrapped", fmt.Errorf("query: %w", context.Canceled), errs.ErrKindTimeout},
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"connection exception", &pgconn.PgError{Code: "08006", Message: "connection failure"}, errs.ErrKindConnectionFailed},
		{"bad password", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, errs.ErrKindPermissionDenied},
		{"insufficient privilege", &pgconn.PgError{Code: "42501", Message: "permission denied"}, errs.ErrKindPermissionDenied},
		{"undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, errs.ErrKindNotFound},
		{"invalid schema", &pgconn.PgError{Code: "3F000", Message: "schema does not exist"}, errs.ErrKindNotFound},
		{"syntax", &pgconn.PgError{Code: "42601", Message: "syntax error"}, errs.ErrKindQueryFailed},
		{"statement timeout", &pgconn.PgError{Code: "57014", Message: "canceling statement"}, errs.ErrKindTimeout},
		{"network", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "catalog")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.Nil(t, mapError(nil, "x"))
}

func TestNewRejectsBadDSN(t *testing.T) {
	_, err := New(context.Background(), database.DefaultConfig("postgres://%zz"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}
