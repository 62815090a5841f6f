// Package corpus defines the descriptor contracts the schema builder reads
// from, and Model, an in-memory corpus that every concrete source (YAML
// documents, Go packages, database catalogs) is converted into.
//
// Descriptors are plain records. Nothing in this package inspects runtime
// type information; a source decides what an entity, an association or an
// operation is and records that decision here.
package corpus

import (
	"strings"
)

// Provider enumerates the entities of a corpus in declaration order, together
// with the defaults that apply to attribute flags left unset.
type Provider interface {
	Entities() []*EntityDescriptor
	Defaults() Defaults
}

// ServiceRegistry returns the service associated with an entity, or nil.
type ServiceRegistry interface {
	ServiceFor(e *EntityDescriptor) *ServiceDescriptor
}

// EntityPredicate reports whether a type is one of the corpus entities.
type EntityPredicate interface {
	IsEntity(t TypeDescriptor) bool
}

// Naming carries explicit naming overrides. Empty fields mean "not set".
type Naming struct {
	Name        string `yaml:"name,omitempty"`
	Label       string `yaml:"label,omitempty"`
	Description string `yaml:"description,omitempty"`
	Symbol      string `yaml:"symbol,omitempty"`
}

// NameOr returns the override name when it is non-blank, otherwise fallback.
func (n Naming) NameOr(fallback string) string {
	if s := strings.TrimSpace(n.Name); s != "" {
		return s
	}
	return fallback
}

// TypeDescriptor identifies a raw type. Package is empty for simple scalar
// names such as "string" or "Long". Enum lists the constants of an
// enumerated type in declaration order.
type TypeDescriptor struct {
	Package string   `yaml:"package,omitempty"`
	Name    string   `yaml:"name"`
	Enum    []string `yaml:"enum,omitempty"`
}

// QualifiedName is Package + "." + Name, or Name for simple types.
func (t TypeDescriptor) QualifiedName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// IsSimple reports whether t is an unqualified scalar name.
func (t TypeDescriptor) IsSimple() bool {
	return t.Package == ""
}

// IsEnum reports whether t carries enumeration constants.
func (t TypeDescriptor) IsEnum() bool {
	return len(t.Enum) > 0
}

func (t TypeDescriptor) String() string {
	return t.QualifiedName()
}

// ParseType splits a qualified type name on its last dot.
// "com.acme.cart.Order" becomes {Package: "com.acme.cart", Name: "Order"}.
func ParseType(s string) TypeDescriptor {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "."); i > 0 && i < len(s)-1 {
		return TypeDescriptor{Package: s[:i], Name: s[i+1:]}
	}
	return TypeDescriptor{Name: s}
}

// AssociationKind is the structural shape of an association end.
type AssociationKind int

const (
	OneToOne AssociationKind = iota + 1
	OneToMany
	ManyToOne
	ManyToMany
)

var associationKindNames = map[AssociationKind]string{
	OneToOne:   "one_to_one",
	OneToMany:  "one_to_many",
	ManyToOne:  "many_to_one",
	ManyToMany: "many_to_many",
}

func (k AssociationKind) String() string {
	if s, ok := associationKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseAssociationKind accepts snake_case, kebab-case and CamelCase forms.
func ParseAssociationKind(s string) (AssociationKind, bool) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(s)))
	switch norm {
	case "onetoone":
		return OneToOne, true
	case "onetomany":
		return OneToMany, true
	case "manytoone":
		return ManyToOne, true
	case "manytomany":
		return ManyToMany, true
	}
	return 0, false
}

// Association holds the ownership metadata of one association end.
// OrphanRemoval means the targets are deleted together with the owner.
type Association struct {
	Kind          AssociationKind `yaml:"kind"`
	MappedBy      string          `yaml:"mapped_by,omitempty"`
	OrphanRemoval bool            `yaml:"orphan_removal,omitempty"`
}

// MappedByName returns the trimmed mapped-by reference, or "".
func (a *Association) MappedByName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.MappedBy)
}

// AttributeDescriptor describes one declared attribute of an entity.
// For collections Type is the element type.
type AttributeDescriptor struct {
	Name        string         `yaml:"name"`
	Type        TypeDescriptor `yaml:"type"`
	Collection  bool           `yaml:"collection,omitempty"`
	Identifier  bool           `yaml:"identifier,omitempty"`
	Association *Association   `yaml:"association,omitempty"`
	Insertable  Flag           `yaml:"insertable,omitempty"`
	Updatable   Flag           `yaml:"updatable,omitempty"`
	Optional    Flag           `yaml:"optional,omitempty"`
	Unique      Flag           `yaml:"unique,omitempty"`
	Visible     Flag           `yaml:"visible,omitempty"`
	Lob         bool           `yaml:"lob,omitempty"`
	HasDefault  bool           `yaml:"has_default,omitempty"`
	Naming      Naming         `yaml:"naming,omitempty"`
}

// IsAssociation reports whether the attribute declares an association.
func (a *AttributeDescriptor) IsAssociation() bool {
	return a.Association != nil
}

// Initializable reports whether the attribute may be set on creation.
func (a *AttributeDescriptor) Initializable(d Defaults) bool {
	return a.Insertable.Resolve(d.Insertable)
}

// Editable reports whether the attribute may be changed after creation.
func (a *AttributeDescriptor) Editable(d Defaults) bool {
	return a.Updatable.Resolve(d.Updatable)
}

// ReadOnly reports whether the attribute is neither initializable nor editable.
func (a *AttributeDescriptor) ReadOnly(d Defaults) bool {
	return !a.Initializable(d) && !a.Editable(d)
}

// Required reports whether a single-valued attribute must have a value.
// Collections are never required.
func (a *AttributeDescriptor) Required(d Defaults) bool {
	return !a.Collection && !a.Optional.Resolve(d.Optional)
}

// IsUnique reports whether values are unique across instances.
func (a *AttributeDescriptor) IsUnique(d Defaults) bool {
	return a.Unique.Resolve(d.Unique)
}

// UserVisible reports whether the attribute is exposed to end users.
func (a *AttributeDescriptor) UserVisible(d Defaults) bool {
	return a.Visible.Resolve(d.UserVisible)
}

// Marker tags a member as a domain operation.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerAction
	MarkerQuery
)

func (m Marker) String() string {
	switch m {
	case MarkerAction:
		return "action"
	case MarkerQuery:
		return "query"
	default:
		return "none"
	}
}

// ParseMarker maps "action" and "query" to markers; anything else is MarkerNone.
func ParseMarker(s string) Marker {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "action":
		return MarkerAction
	case "query":
		return MarkerQuery
	default:
		return MarkerNone
	}
}

// ParameterDescriptor is one value parameter of a member.
type ParameterDescriptor struct {
	Name string         `yaml:"name"`
	Type TypeDescriptor `yaml:"type"`
}

// MemberDescriptor describes a callable member of an entity or service.
// Implementation marks members that exist for the implementation only.
// ReadOnly marks members that run in a read-only transaction.
// Inherited marks members contributed by a generic base service.
type MemberDescriptor struct {
	Name           string                `yaml:"name"`
	Public         bool                  `yaml:"public"`
	Marker         Marker                `yaml:"marker,omitempty"`
	Implementation bool                  `yaml:"implementation,omitempty"`
	ReadOnly       bool                  `yaml:"read_only,omitempty"`
	Inherited      bool                  `yaml:"inherited,omitempty"`
	Parameters     []ParameterDescriptor `yaml:"parameters,omitempty"`
}

// EntityDescriptor describes one entity type. Role discriminates role
// variants of a shared concept, such as customer and employee persons.
type EntityDescriptor struct {
	Name       string                 `yaml:"name"`
	Package    string                 `yaml:"package"`
	Role       string                 `yaml:"role,omitempty"`
	Naming     Naming                 `yaml:"naming,omitempty"`
	Attributes []*AttributeDescriptor `yaml:"attributes"`
	Members    []*MemberDescriptor    `yaml:"members,omitempty"`
}

// Type returns the entity's own type descriptor.
func (e *EntityDescriptor) Type() TypeDescriptor {
	return TypeDescriptor{Package: e.Package, Name: e.Name}
}

// Attribute returns the attribute with the given name, or nil.
func (e *EntityDescriptor) Attribute(name string) *AttributeDescriptor {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ServiceDescriptor describes the service collaborator of an entity.
// Entity binds the service explicitly; when empty the service is matched
// by the <Entity>Service naming convention within its package.
type ServiceDescriptor struct {
	Name    string              `yaml:"name"`
	Package string              `yaml:"package"`
	Entity  string              `yaml:"entity,omitempty"`
	Members []*MemberDescriptor `yaml:"members"`
}

// EnumDescriptor declares an enumerated type and its constants.
type EnumDescriptor struct {
	Package  string   `yaml:"package"`
	Name     string   `yaml:"name"`
	Literals []string `yaml:"literals"`
}

// Type returns the enumeration's type descriptor, constants included.
func (e *EnumDescriptor) Type() TypeDescriptor {
	return TypeDescriptor{Package: e.Package, Name: e.Name, Enum: e.Literals}
}
