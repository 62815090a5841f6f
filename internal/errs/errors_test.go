package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/errs"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *errs.Error
		want string
	}{
		{
			name: "kind and message",
			err:  errs.New(errs.ErrKindInvalidInput, "empty corpus"),
			want: "[invalid_input] empty corpus",
		},
		{
			name: "located at attribute",
			err:  errs.New(errs.ErrKindUnresolvedType, "unknown scalar type Money").At("Order", "total"),
			want: "[unresolved_type] Order.total: unknown scalar type Money",
		},
		{
			name: "located at entity",
			err:  errs.New(errs.ErrKindDuplicateName, "entity declared twice").At("Order", ""),
			want: "[duplicate_name] Order: entity declared twice",
		},
		{
			name: "with cause",
			err:  errs.Wrap(errs.ErrKindConnectionFailed, "ping failed", errors.New("refused")),
			want: "[connection_failed] ping failed: refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredicatesFollowWrapChain(t *testing.T) {
	base := errs.New(errs.ErrKindDanglingMappedBy, "no attribute order on OrderItem")
	wrapped := fmt.Errorf("build: %w", base)

	assert.True(t, errs.IsDanglingMappedBy(wrapped))
	assert.False(t, errs.IsUnresolvedType(wrapped))
	assert.Equal(t, errs.ErrKindDanglingMappedBy, errs.KindOf(wrapped))
	assert.Equal(t, errs.ErrKindUnknown, errs.KindOf(errors.New("plain")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := errs.Wrap(errs.ErrKindQueryFailed, "catalog read", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestAtKeepsExistingLocation(t *testing.T) {
	err := errs.New(errs.ErrKindUnresolvedType, "x").At("Order", "total")
	err.At("", "")
	assert.Equal(t, "Order", err.Entity)
	assert.Equal(t, "total", err.Attribute)
}
