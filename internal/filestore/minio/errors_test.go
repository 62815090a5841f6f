package minio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/filestore"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"no such bucket code only", miniogo.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusOK}, errs.ErrKindNotFound},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"unauthorized status", miniogo.ErrorResponse{StatusCode: http.StatusUnauthorized}, errs.ErrKindPermissionDenied},
		{"bad bucket name", miniogo.ErrorResponse{Code: "InvalidBucketName", StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindTimeout},
		{"network", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "store")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
	assert.Nil(t, mapError(nil, "x"))
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), &filestore.Config{})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}
