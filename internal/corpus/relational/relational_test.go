package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/schema"
)

func col(name, dataType string, nullable bool) *database.ColumnInfo {
	return &database.ColumnInfo{Name: name, DataType: dataType, Nullable: nullable}
}

func table(name string, pk []string, cols []*database.ColumnInfo, fks ...*database.ForeignKey) *database.TableInfo {
	t := &database.TableInfo{Name: name, Columns: cols, PrimaryKey: pk, ForeignKeys: fks}
	database.MarkKeys(t, nil)
	return t
}

func fk(column, ref, onDelete string) *database.ForeignKey {
	return &database.ForeignKey{Name: "fk_" + column, Column: column, RefTable: ref, RefColumn: "id", OnDelete: onDelete}
}

// shopSchema is a small storefront catalog, tables sorted by name.
func shopSchema() *database.Schema {
	email := col("email", "character varying", false)
	email.IsUnique = true
	now := "now()"
	placed := col("placed_at", "timestamp without time zone", true)
	placed.Default = &now

	return &database.Schema{Name: "shop", Tables: []*database.TableInfo{
		table("categories", []string{"id"}, []*database.ColumnInfo{
			col("id", "bigint", false),
			col("parent_id", "bigint", true),
		}, fk("parent_id", "categories", "NO ACTION")),
		table("customers", []string{"id"}, []*database.ColumnInfo{
			col("id", "bigint", false),
			email,
		}),
		table("order_items", []string{"id"}, []*database.ColumnInfo{
			col("id", "bigint", false),
			col("order_id", "bigint", false),
			col("quantity", "integer", false),
		}, fk("order_id", "orders", "CASCADE")),
		table("orders", []string{"id"}, []*database.ColumnInfo{
			col("id", "bigint", false),
			col("customer_id", "bigint", false),
			col("referrer_id", "bigint", true),
			placed,
			col("status", "order_status", false),
		}, fk("customer_id", "customers", "NO ACTION"), fk("referrer_id", "customers", "SET NULL")),
		table("product_tags", []string{"product_id", "tag_id"}, []*database.ColumnInfo{
			col("product_id", "bigint", false),
			col("tag_id", "bigint", false),
		}, fk("product_id", "products", "CASCADE"), fk("tag_id", "tags", "CASCADE")),
		table("products", []string{"id"}, []*database.ColumnInfo{
			col("id", "bigint", false),
			col("picture", "bytea", true),
			col("price", "numeric", false),
		}),
		table("tags", []string{"id"}, []*database.ColumnInfo{
			col("id", "bigint", false),
			col("label", "text", false),
		}),
	}}
}

func convertShop(t *testing.T) *corpus.Document {
	t.Helper()
	doc, err := Convert(shopSchema(), Options{})
	require.NoError(t, err)
	return doc
}

func entity(t *testing.T, doc *corpus.Document, name string) *corpus.EntityDescriptor {
	t.Helper()
	for _, e := range doc.Entities {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("entity %s not found", name)
	return nil
}

func TestConvert_Entities(t *testing.T) {
	doc := convertShop(t)

	var names []string
	for _, e := range doc.Entities {
		names = append(names, e.Name)
		assert.Equal(t, "shop", e.Package)
	}
	assert.Equal(t, []string{"Category", "Customer", "OrderItem", "Order", "Product", "Tag"}, names)
	assert.Equal(t, "Order item", entity(t, doc, "OrderItem").Naming.Label)
}

func TestConvert_Columns(t *testing.T) {
	doc := convertShop(t)
	order := entity(t, doc, "Order")

	id := order.Attribute("id")
	require.NotNil(t, id)
	assert.True(t, id.Identifier)

	placed := order.Attribute("placedAt")
	require.NotNil(t, placed)
	assert.Equal(t, schema.DateTime, placed.Type.Name)
	assert.Equal(t, corpus.FlagTrue, placed.Optional)
	assert.True(t, placed.HasDefault)

	status := order.Attribute("status")
	require.NotNil(t, status)
	assert.Equal(t, schema.String, status.Type.Name)
	assert.Equal(t, corpus.FlagFalse, status.Optional)

	email := entity(t, doc, "Customer").Attribute("email")
	require.NotNil(t, email)
	assert.Equal(t, corpus.FlagTrue, email.Unique)

	picture := entity(t, doc, "Product").Attribute("picture")
	require.NotNil(t, picture)
	assert.True(t, picture.Lob)
}

func TestConvert_ForeignKeys(t *testing.T) {
	doc := convertShop(t)

	item := entity(t, doc, "OrderItem").Attribute("order")
	require.NotNil(t, item)
	require.NotNil(t, item.Association)
	assert.Equal(t, corpus.ManyToOne, item.Association.Kind)
	assert.Equal(t, "shop.Order", item.Type.QualifiedName())
	assert.Equal(t, corpus.FlagFalse, item.Optional)

	items := entity(t, doc, "Order").Attribute("orderItems")
	require.NotNil(t, items)
	assert.True(t, items.Collection)
	assert.Equal(t, corpus.OneToMany, items.Association.Kind)
	assert.Equal(t, "order", items.Association.MappedBy)
	assert.True(t, items.Association.OrphanRemoval)

	customer := entity(t, doc, "Customer")
	byCustomer := customer.Attribute("ordersByCustomer")
	byReferrer := customer.Attribute("ordersByReferrer")
	require.NotNil(t, byCustomer)
	require.NotNil(t, byReferrer)
	assert.Equal(t, "customer", byCustomer.Association.MappedBy)
	assert.Equal(t, "referrer", byReferrer.Association.MappedBy)
	assert.False(t, byCustomer.Association.OrphanRemoval)
}

func TestConvert_SelfReference(t *testing.T) {
	category := entity(t, convertShop(t), "Category")

	parent := category.Attribute("parent")
	require.NotNil(t, parent)
	assert.Equal(t, "shop.Category", parent.Type.QualifiedName())

	children := category.Attribute("categories")
	require.NotNil(t, children)
	assert.Equal(t, "parent", children.Association.MappedBy)
}

func TestConvert_JoinTable(t *testing.T) {
	doc := convertShop(t)

	for _, e := range doc.Entities {
		assert.NotEqual(t, "ProductTag", e.Name)
	}
	tags := entity(t, doc, "Product").Attribute("tags")
	require.NotNil(t, tags)
	assert.Equal(t, corpus.ManyToMany, tags.Association.Kind)
	assert.Empty(t, tags.Association.MappedBy)

	products := entity(t, doc, "Tag").Attribute("products")
	require.NotNil(t, products)
	assert.Equal(t, "tags", products.Association.MappedBy)
}

func TestConvert_TypeOverrides(t *testing.T) {
	doc, err := Convert(shopSchema(), Options{
		Package:       "com.acme.shop",
		TypeOverrides: map[string]string{"NUMERIC": schema.String},
	})
	require.NoError(t, err)
	price := entity(t, doc, "Product").Attribute("price")
	assert.Equal(t, schema.String, price.Type.Name)
	assert.Equal(t, "com.acme.shop", doc.Entities[0].Package)

	_, err = Convert(shopSchema(), Options{TypeOverrides: map[string]string{"numeric": "Money"}})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestConvert_NilSchema(t *testing.T) {
	_, err := Convert(nil, Options{})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestConvert_BuildsSchema(t *testing.T) {
	m, err := corpus.NewModel(convertShop(t))
	require.NoError(t, err)

	res, err := schema.NewBuilder(m).Build(context.Background())
	require.NoError(t, err)
	s := res.Schema

	order := s.Entity("shop", "Order")
	require.NotNil(t, order)
	items := order.Relationship("orderItems")
	require.NotNil(t, items)
	assert.Equal(t, schema.StyleChild, items.Style)

	back := s.Opposite(items)
	require.NotNil(t, back)
	assert.Equal(t, "order", back.Name)
	assert.Equal(t, schema.StyleParent, back.Style)
	assert.True(t, back.IsRequired)

	customer := order.Relationship("customer")
	require.NotNil(t, customer)
	assert.Equal(t, schema.StyleLink, customer.Style)
	assert.Equal(t, "ordersByCustomer", customer.Opposite)

	assert.NotNil(t, order.Property("status"))
	assert.Nil(t, order.Property("id"))
	assert.Equal(t, schema.KindBlob, s.Entity("shop", "Product").Property("picture").Type.Kind)
	assert.Zero(t, res.Count(schema.WarnAmbiguousOpposite))
}

type stubCatalog struct {
	database.Catalog
	schema *database.Schema
	err    error
}

func (c stubCatalog) InspectSchema(context.Context) (*database.Schema, error) {
	return c.schema, c.err
}

func TestLoad(t *testing.T) {
	m, err := Load(context.Background(), stubCatalog{schema: shopSchema()}, Options{})
	require.NoError(t, err)
	assert.Len(t, m.Entities(), 6)

	_, err = Load(context.Background(), stubCatalog{err: errs.New(errs.ErrKindConnectionFailed, "down")}, Options{})
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "OrderItem", entityName("order_items"))
	assert.Equal(t, "Category", entityName("categories"))
	assert.Equal(t, "Address", entityName("addresses"))
	assert.Equal(t, "Status", entityName("status"))
	assert.Equal(t, "customer", referenceName("customer_id"))
	assert.Equal(t, "customer", referenceName("customerId"))
	assert.Equal(t, "owner", referenceName("owner"))
	assert.Equal(t, "placedAt", lowerCamel("placed_at"))
	assert.Equal(t, "id", lowerCamel("ID"))
	assert.Equal(t, "categories", plural("category"))
	assert.Equal(t, "keys", plural("key"))
	assert.Equal(t, "boxes", plural("box"))
}
