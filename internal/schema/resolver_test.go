package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

func newTestResolver() *TypeResolver {
	order := &corpus.EntityDescriptor{Name: "Order", Package: "com.acme.cart"}
	renamed := &corpus.EntityDescriptor{Name: "Cust", Package: "com.acme.crm", Naming: corpus.Naming{Name: "Customer"}}
	index := typeSet{
		order.Type().QualifiedName():   order,
		renamed.Type().QualifiedName(): renamed,
	}
	return NewTypeResolver(index, []*corpus.EntityDescriptor{order, renamed})
}

func TestResolve_Primitives(t *testing.T) {
	r := newTestResolver()
	tests := []struct {
		raw  string
		want string
	}{
		{"string", String},
		{"String", String},
		{"java.lang.String", String},
		{"int64", Integer},
		{"Long", Integer},
		{"kotlin.Int", Integer},
		{"float64", Double},
		{"java.math.BigDecimal", Double},
		{"bool", Boolean},
		{"Boolean", Boolean},
		{"java.time.LocalDate", Date},
		{"Date", Date},
		{"time.Time", DateTime},
		{"java.time.LocalDateTime", DateTime},
		{"java.time.LocalTime", Time},
		{"Time", Time},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, lits, err := r.Resolve(corpus.ParseType(tt.raw), false)
			require.NoError(t, err)
			assert.Nil(t, lits)
			assert.Equal(t, TypeRef{Namespace: BuiltinNamespace, Name: tt.want, Kind: KindPrimitive}, got)
		})
	}
}

func TestResolve_LobWins(t *testing.T) {
	r := newTestResolver()
	for _, raw := range []string{"String", "[]byte", "com.acme.cart.Order"} {
		got, _, err := r.Resolve(corpus.ParseType(raw), true)
		require.NoError(t, err)
		assert.Equal(t, TypeRef{Namespace: BuiltinNamespace, Name: Blob, Kind: KindBlob}, got, raw)
	}
}

func TestResolve_Enumeration(t *testing.T) {
	r := newTestResolver()
	got, lits, err := r.Resolve(corpus.TypeDescriptor{
		Package: "com.acme.cart",
		Name:    "OrderStatus",
		Enum:    []string{"Open", "Closed", "Canceled"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, TypeRef{Namespace: "cart", Name: "OrderStatus", Kind: KindEnumeration}, got)
	assert.Equal(t, []EnumerationLiteral{{Name: "Open"}, {Name: "Closed"}, {Name: "Canceled"}}, lits)
}

func TestResolve_Entity(t *testing.T) {
	r := newTestResolver()

	got, _, err := r.Resolve(corpus.ParseType("com.acme.cart.Order"), false)
	require.NoError(t, err)
	assert.Equal(t, TypeRef{Namespace: "cart", Name: "Order", Kind: KindEntity}, got)

	got, _, err = r.Resolve(corpus.ParseType("com.acme.crm.Cust"), false)
	require.NoError(t, err)
	assert.Equal(t, "Customer", got.Name, "entities are referenced by their schema name")
}

func TestResolve_TupleAndUnresolved(t *testing.T) {
	r := newTestResolver()

	got, _, err := r.Resolve(corpus.ParseType("com.acme.cart.Address"), false)
	require.NoError(t, err)
	assert.Equal(t, TypeRef{Namespace: "cart", Name: "Address", Kind: KindTuple}, got)

	_, _, err = r.Resolve(corpus.ParseType("Money"), false)
	assert.True(t, errs.IsUnresolvedType(err))
}

func TestNamespaceOf(t *testing.T) {
	assert.Equal(t, "cart", NamespaceOf("com.acme.cart"))
	assert.Equal(t, "cart", NamespaceOf("github.com/acme/shop/cart"))
	assert.Equal(t, "cart", NamespaceOf("cart"))
	assert.Equal(t, "cart", NamespaceOf("com.acme.cart."))
}
