package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

func TestIsBoilerplate(t *testing.T) {
	for _, name := range []string{"equals", "hashCode", "toString", "copy", "component1", "Component12", "String", "Equal", "GoString"} {
		assert.True(t, isBoilerplate(name), name)
	}
	for _, name := range []string{"submit", "components", "componentX", "copyLines", "toStringify"} {
		assert.False(t, isBoilerplate(name), name)
	}
}

func TestDiscoverOperations(t *testing.T) {
	r := newTestResolver()
	e := &corpus.EntityDescriptor{
		Name:    "Order",
		Package: "com.acme.cart",
		Members: []*corpus.MemberDescriptor{
			{Name: "cancel", Public: true, Marker: corpus.MarkerAction},
			{Name: "lookup", Public: true, Marker: corpus.MarkerQuery},
			{Name: "hashCode", Public: true, Marker: corpus.MarkerAction},
			{Name: "internal", Public: false, Marker: corpus.MarkerAction},
			{Name: "plain", Public: true},
		},
	}
	svc := &corpus.ServiceDescriptor{
		Name: "OrderService",
		Members: []*corpus.MemberDescriptor{
			{Name: "open", Public: true, ReadOnly: true},
			{Name: "purge", Public: true},
			{Name: "findAll", Public: true, Inherited: true},
			{Name: "wire", Public: true, Implementation: true},
		},
	}

	ops, err := discoverOperations(r, e, svc)
	require.NoError(t, err)
	require.Len(t, ops, 4)

	assert.Equal(t, "cancel", ops[0].Name)
	assert.Equal(t, "lookup", ops[1].Name)
	assert.Equal(t, OperationAction, ops[1].Kind, "instance operations are always actions")
	assert.True(t, ops[1].IsInstanceOperation)
	assert.Equal(t, "open", ops[2].Name)
	assert.Equal(t, OperationFinder, ops[2].Kind)
	assert.False(t, ops[2].IsInstanceOperation)
	assert.Equal(t, "purge", ops[3].Name)
	assert.Equal(t, OperationAction, ops[3].Kind)

	ops, err = discoverOperations(r, e, nil)
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}

func TestDiscoverOperations_BadParameter(t *testing.T) {
	e := &corpus.EntityDescriptor{
		Name:    "Order",
		Package: "com.acme.cart",
		Members: []*corpus.MemberDescriptor{{
			Name:       "pay",
			Public:     true,
			Marker:     corpus.MarkerAction,
			Parameters: []corpus.ParameterDescriptor{{Name: "amount", Type: corpus.TypeDescriptor{Name: "Money"}}},
		}},
	}
	_, err := discoverOperations(newTestResolver(), e, nil)
	require.Error(t, err)
	assert.True(t, errs.IsUnresolvedType(err))

	var se *errs.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Order", se.Entity)
	assert.Equal(t, "pay.amount", se.Attribute)
}
