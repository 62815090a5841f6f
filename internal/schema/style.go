package schema

import "github.com/koustreak/metaschema/internal/corpus"

// ClassifyStyle derives the ownership style of attr from the association
// metadata on both ends. opposite may be nil.
//
//	one-to-many / one-to-one    orphan removal here        CHILD
//	many-to-one / many-to-many  orphan removal on opposite PARENT
//	anything else                                          LINK
//
// For PARENT the opposite must itself be one-to-many or one-to-one.
func ClassifyStyle(attr, opposite *corpus.AttributeDescriptor) Style {
	if attr == nil || attr.Association == nil {
		return StyleLink
	}
	switch attr.Association.Kind {
	case corpus.OneToMany, corpus.OneToOne:
		if attr.Association.OrphanRemoval {
			return StyleChild
		}
	case corpus.ManyToOne, corpus.ManyToMany:
		if ownsChildren(opposite) {
			return StyleParent
		}
	}
	return StyleLink
}

func ownsChildren(a *corpus.AttributeDescriptor) bool {
	if a == nil || a.Association == nil {
		return false
	}
	k := a.Association.Kind
	return (k == corpus.OneToMany || k == corpus.OneToOne) && a.Association.OrphanRemoval
}

// relationshipFlags applies style overrides on top of the declared flags.
// A PARENT end is required and neither initializable nor editable. When this
// end is CHILD the opposite is reported read-only and required.
func relationshipFlags(rel *Relationship, attr, opposite *corpus.AttributeDescriptor, d corpus.Defaults) {
	parent := rel.Style == StyleParent
	rel.IsEditable = !parent && attr.Editable(d)
	rel.IsInitializable = !parent && attr.Initializable(d)
	rel.IsRequired = parent || attr.Required(d)

	if opposite == nil {
		return
	}
	child := rel.Style == StyleChild
	rel.IsOppositeReadOnly = child || opposite.ReadOnly(d)
	// A child cannot exist without its parent, so the parent end counts as
	// required even when it is not declared so.
	rel.IsOppositeRequired = child || opposite.Required(d)
}
