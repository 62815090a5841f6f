package schema

import "github.com/koustreak/metaschema/internal/corpus"

// Partition splits an entity's attributes. Identifiers appear in neither list.
type Partition struct {
	Properties    []*corpus.AttributeDescriptor
	Relationships []*corpus.AttributeDescriptor
}

// Classify partitions e's attributes in declaration order. An attribute is a
// relationship when it declares an association or its element type is an
// entity.
func Classify(e *corpus.EntityDescriptor, isEntity corpus.EntityPredicate) Partition {
	var p Partition
	for _, a := range e.Attributes {
		switch {
		case a.Identifier:
		case isRelationship(a, isEntity):
			p.Relationships = append(p.Relationships, a)
		default:
			p.Properties = append(p.Properties, a)
		}
	}
	return p
}

func isRelationship(a *corpus.AttributeDescriptor, isEntity corpus.EntityPredicate) bool {
	return a.IsAssociation() || isEntity.IsEntity(a.Type)
}
