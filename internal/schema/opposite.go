package schema

import (
	"fmt"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

// oppositeFinder locates the reciprocal end of a relationship.
type oppositeFinder struct {
	entities map[string]*corpus.EntityDescriptor
	isEntity corpus.EntityPredicate
}

// find returns the opposite of attr, declared on owner. A nil result with a
// nil error means the relationship has no opposite; ambiguous reports that
// more than one structural candidate existed.
//
// Rules, first match wins:
//  1. attr's own mapped-by names the opposite; it must be a relationship on
//     the target.
//  2. a target relationship whose mapped-by names attr.
//  3. the single target relationship back to owner.
func (f *oppositeFinder) find(owner *corpus.EntityDescriptor, attr *corpus.AttributeDescriptor) (opposite *corpus.AttributeDescriptor, ambiguous bool, err error) {
	target := f.entities[attr.Type.QualifiedName()]
	if target == nil {
		return nil, false, nil
	}

	if mappedBy := attr.Association.MappedByName(); mappedBy != "" {
		opp := target.Attribute(mappedBy)
		if opp == nil || opp == attr || opp.Identifier || !isRelationship(opp, f.isEntity) {
			return nil, false, errs.New(errs.ErrKindDanglingMappedBy,
				fmt.Sprintf("mapped-by %q does not name a relationship of %s", mappedBy, target.Name)).
				At(owner.Name, attr.Name)
		}
		return opp, false, nil
	}

	ownerType := owner.Type().QualifiedName()
	var candidates []*corpus.AttributeDescriptor
	for _, b := range target.Attributes {
		if b == attr || b.Identifier || !isRelationship(b, f.isEntity) {
			continue
		}
		if b.Association.MappedByName() == attr.Name {
			return b, false, nil
		}
		if b.Type.QualifiedName() == ownerType {
			candidates = append(candidates, b)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0], false, nil
	case 0:
		return nil, false, nil
	default:
		return nil, true, nil
	}
}
