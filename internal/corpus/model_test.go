package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/errs"
)

func loadCart(t *testing.T) *Model {
	t.Helper()
	m, err := LoadYAML("testdata/cart.yaml")
	require.NoError(t, err)
	return m
}

func TestLoadYAML_DeclarationOrder(t *testing.T) {
	m := loadCart(t)

	var names []string
	for _, e := range m.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Category", "Product", "OrderItem", "Order", "Customer"}, names)
	assert.Equal(t, StandardDefaults(), m.Defaults())
}

func TestLoadYAML_QualifiesLocalTypes(t *testing.T) {
	m := loadCart(t)
	order := m.Entity(TypeDescriptor{Package: "com.acme.cart", Name: "Order"})
	require.NotNil(t, order)

	customer := order.Attribute("customer")
	require.NotNil(t, customer)
	assert.Equal(t, "com.acme.cart.Customer", customer.Type.QualifiedName())
	assert.True(t, m.IsEntity(customer.Type))

	status := order.Attribute("status")
	require.NotNil(t, status)
	assert.Equal(t, []string{"Open", "Closed", "Canceled"}, status.Type.Enum)
	assert.False(t, m.IsEntity(status.Type))

	id := order.Attribute("id")
	assert.True(t, id.Type.IsSimple(), "primitive names stay unqualified")

	addItem := order.Members[0]
	assert.Equal(t, "com.acme.cart.Product", addItem.Parameters[0].Type.QualifiedName())
	assert.True(t, addItem.Public, "public defaults to true")
}

func TestLoadYAML_Flags(t *testing.T) {
	m := loadCart(t)
	d := m.Defaults()
	product := m.Entity(TypeDescriptor{Package: "com.acme.cart", Name: "Product"})

	category := product.Attribute("category")
	assert.Equal(t, FlagFalse, category.Optional)
	assert.True(t, category.Required(d))
	assert.Equal(t, ManyToOne, category.Association.Kind)

	available := product.Attribute("available")
	assert.Equal(t, FlagUnset, available.Optional)
	assert.False(t, available.Required(d))
	assert.True(t, available.Initializable(d))
	assert.True(t, available.HasDefault)
	assert.Equal(t, "Products that can be added to a cart", product.Naming.Description)
}

func TestServiceFor(t *testing.T) {
	m := loadCart(t)
	byName := func(name string) *EntityDescriptor {
		return m.Entity(TypeDescriptor{Package: "com.acme.cart", Name: name})
	}

	svc := m.ServiceFor(byName("Category"))
	require.NotNil(t, svc)
	assert.Equal(t, "CategoryService", svc.Name)
	assert.Equal(t, "com.acme.cart.Category", svc.Members[0].Parameters[0].Type.QualifiedName())

	assert.Nil(t, m.ServiceFor(byName("Product")))
	assert.False(t, m.ServiceFor(byName("Order")).Members[1].Public)
}

func TestServiceExplicitBinding(t *testing.T) {
	m, err := ParseYAML([]byte(`
entities:
  - name: Person
    package: acme.people
    attributes: [{name: name, type: String}]
services:
  - name: Directory
    package: acme.people
    entity: Person
    members: [{name: lookup, marker: query}]
`))
	require.NoError(t, err)
	svc := m.ServiceFor(m.Entities()[0])
	require.NotNil(t, svc)
	assert.Equal(t, "Directory", svc.Name)
}

func TestNewModelRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errs.ErrKind
	}{
		{
			name: "duplicate entity",
			doc: `
entities:
  - {name: A, package: p, attributes: []}
  - {name: A, package: p, attributes: []}
`,
			kind: errs.ErrKindDuplicateName,
		},
		{
			name: "duplicate attribute",
			doc: `
entities:
  - name: A
    package: p
    attributes: [{name: x, type: String}, {name: x, type: Integer}]
`,
			kind: errs.ErrKindDuplicateName,
		},
		{
			name: "missing package",
			doc: `
entities:
  - {name: A, attributes: []}
`,
			kind: errs.ErrKindInvalidInput,
		},
		{
			name: "unknown key",
			doc: `
entities:
  - {name: A, package: p, attributes: [], colour: red}
`,
			kind: errs.ErrKindInvalidInput,
		},
		{
			name: "nil member",
			doc: `
entities:
  - {name: A, package: p, attributes: [], members: [~]}
`,
			kind: errs.ErrKindInvalidInput,
		},
		{
			name: "unnamed member",
			doc: `
entities:
  - {name: A, package: p, attributes: [], members: [{public: true}]}
`,
			kind: errs.ErrKindInvalidInput,
		},
		{
			name: "nil service member",
			doc: `
entities:
  - {name: A, package: p, attributes: []}
services:
  - {name: S, package: p, entity: A, members: [~]}
`,
			kind: errs.ErrKindInvalidInput,
		},
		{
			name: "service bound to unknown entity",
			doc: `
entities:
  - {name: A, package: p, attributes: []}
services:
  - {name: S, package: p, entity: B, members: []}
`,
			kind: errs.ErrKindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err), err.Error())
		})
	}
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeDescriptor{Name: "String"}, ParseType("String"))
	assert.Equal(t, TypeDescriptor{Package: "java.time", Name: "LocalDate"}, ParseType("java.time.LocalDate"))
	assert.Equal(t, TypeDescriptor{Package: "github.com/acme/cart", Name: "Order"}, ParseType("github.com/acme/cart.Order"))
}

func TestParseAssociationKind(t *testing.T) {
	for in, want := range map[string]AssociationKind{
		"one_to_many": OneToMany,
		"OneToOne":    OneToOne,
		"many-to-one": ManyToOne,
		"ManyToMany":  ManyToMany,
	} {
		got, ok := ParseAssociationKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseAssociationKind("sideways")
	assert.False(t, ok)
}

func TestDocumentRoundTrip(t *testing.T) {
	m := loadCart(t)
	doc := &Document{Defaults: m.Defaults(), Entities: m.Entities()}

	data, err := doc.ToYAML()
	require.NoError(t, err)

	again, err := ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, again.Entities(), len(m.Entities()))
	items := again.Entities()[3].Attribute("items")
	assert.True(t, items.Association.OrphanRemoval)
	assert.Equal(t, OneToMany, items.Association.Kind)
	assert.Equal(t, []string{"Open", "Closed", "Canceled"}, again.Entities()[3].Attribute("status").Type.Enum)
}

func TestFlagResolve(t *testing.T) {
	assert.True(t, FlagUnset.Resolve(true))
	assert.False(t, FlagUnset.Resolve(false))
	assert.True(t, FlagTrue.Resolve(false))
	assert.False(t, FlagFalse.Resolve(true))
	assert.Equal(t, FlagTrue, FlagOf(true))
}
