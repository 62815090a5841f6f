package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koustreak/metaschema/internal/corpus"
)

func TestClassify(t *testing.T) {
	e := &corpus.EntityDescriptor{
		Name:    "Order",
		Package: "com.acme.cart",
		Attributes: []*corpus.AttributeDescriptor{
			{Name: "id", Type: corpus.ParseType("Long"), Identifier: true},
			{Name: "code", Type: corpus.ParseType("String")},
			{Name: "customer", Type: corpus.ParseType("com.acme.crm.Customer")},
			{Name: "lines", Type: corpus.ParseType("com.acme.cart.Line"), Collection: true,
				Association: &corpus.Association{Kind: corpus.OneToMany}},
			{Name: "notes", Type: corpus.ParseType("String"), Collection: true},
		},
	}
	customer := &corpus.EntityDescriptor{Name: "Customer", Package: "com.acme.crm"}
	isEntity := typeSet{customer.Type().QualifiedName(): customer}

	p := Classify(e, isEntity)

	names := func(as []*corpus.AttributeDescriptor) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.Name)
		}
		return out
	}
	assert.Equal(t, []string{"code", "notes"}, names(p.Properties))
	// lines is an association even though Line is not a known entity
	assert.Equal(t, []string{"customer", "lines"}, names(p.Relationships))
}
