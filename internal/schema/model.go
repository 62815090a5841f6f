// Package schema turns a corpus of entity descriptors into a Schema: the
// namespaces, entities, properties, relationships and operations of a
// domain model.
//
// A Schema is built once by a Builder and never modified afterwards, so it
// may be shared between goroutines without locking.
package schema

import (
	"fmt"
	"strings"
)

// BuiltinNamespace holds the primitive types and Blob.
const BuiltinNamespace = "builtin"

// TypeKind classifies a TypeRef.
type TypeKind int

const (
	KindPrimitive TypeKind = iota + 1
	KindEntity
	KindEnumeration
	KindBlob
	KindTuple
)

var typeKindNames = [...]string{
	KindPrimitive:   "Primitive",
	KindEntity:      "Entity",
	KindEnumeration: "Enumeration",
	KindBlob:        "Blob",
	KindTuple:       "Tuple",
}

func (k TypeKind) String() string {
	if k > 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "Unknown"
}

func (k TypeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TypeKind) UnmarshalText(b []byte) error {
	for i, name := range typeKindNames {
		if name != "" && name == string(b) {
			*k = TypeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown type kind %q", b)
}

// Style is the ownership semantics of a relationship.
type Style int

const (
	StyleLink Style = iota
	StyleParent
	StyleChild
)

func (s Style) String() string {
	switch s {
	case StyleParent:
		return "PARENT"
	case StyleChild:
		return "CHILD"
	default:
		return "LINK"
	}
}

func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Style) UnmarshalText(b []byte) error {
	switch string(b) {
	case "PARENT":
		*s = StyleParent
	case "CHILD":
		*s = StyleChild
	case "LINK":
		*s = StyleLink
	default:
		return fmt.Errorf("unknown relationship style %q", b)
	}
	return nil
}

// OperationKind distinguishes state-changing actions from finders.
type OperationKind int

const (
	OperationAction OperationKind = iota
	OperationFinder
)

func (k OperationKind) String() string {
	if k == OperationFinder {
		return "Finder"
	}
	return "Action"
}

func (k OperationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OperationKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Action":
		*k = OperationAction
	case "Finder":
		*k = OperationFinder
	default:
		return fmt.Errorf("unknown operation kind %q", b)
	}
	return nil
}

// Direction of a parameter. Only In exists.
type Direction string

const DirectionIn Direction = "In"

// TypeRef is a resolved, namespaced reference to a type.
type TypeRef struct {
	Namespace string   `json:"namespace" yaml:"namespace"`
	Name      string   `json:"name" yaml:"name"`
	Kind      TypeKind `json:"kind" yaml:"kind"`
}

// FullName is namespace.name.
func (t TypeRef) FullName() string {
	return t.Namespace + "." + t.Name
}

func (t TypeRef) String() string {
	return fmt.Sprintf("%s (%s)", t.FullName(), t.Kind)
}

// EnumerationLiteral is one constant of an enumerated type.
type EnumerationLiteral struct {
	Name string `json:"name" yaml:"name"`
}

// Property is a scalar attribute of an entity.
type Property struct {
	Name                string               `json:"name" yaml:"name"`
	Label               string               `json:"label,omitempty" yaml:"label,omitempty"`
	Description         string               `json:"description,omitempty" yaml:"description,omitempty"`
	Symbol              string               `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Type                TypeRef              `json:"type" yaml:"type"`
	IsMultiple          bool                 `json:"multiple" yaml:"multiple"`
	HasDefault          bool                 `json:"hasDefault" yaml:"hasDefault"`
	IsInitializable     bool                 `json:"initializable" yaml:"initializable"`
	IsEditable          bool                 `json:"editable" yaml:"editable"`
	IsRequired          bool                 `json:"required" yaml:"required"`
	IsDerived           bool                 `json:"derived" yaml:"derived"`
	IsAutoGenerated     bool                 `json:"autoGenerated" yaml:"autoGenerated"`
	IsUnique            bool                 `json:"unique" yaml:"unique"`
	IsUserVisible       bool                 `json:"userVisible" yaml:"userVisible"`
	EnumerationLiterals []EnumerationLiteral `json:"enumerationLiterals,omitempty" yaml:"enumerationLiterals,omitempty"`
}

// Literal returns the enumeration literal with the given name.
func (p *Property) Literal(name string) (EnumerationLiteral, bool) {
	for _, l := range p.EnumerationLiterals {
		if l.Name == name {
			return l, true
		}
	}
	return EnumerationLiteral{}, false
}

// Relationship is an association from one entity to another.
// Opposite names the reciprocal relationship on the target entity; it is
// resolved with Schema.Opposite.
type Relationship struct {
	Name               string  `json:"name" yaml:"name"`
	Label              string  `json:"label,omitempty" yaml:"label,omitempty"`
	Description        string  `json:"description,omitempty" yaml:"description,omitempty"`
	Symbol             string  `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Type               TypeRef `json:"type" yaml:"type"`
	Style              Style   `json:"style" yaml:"style"`
	IsMultiple         bool    `json:"multiple" yaml:"multiple"`
	IsEditable         bool    `json:"editable" yaml:"editable"`
	IsInitializable    bool    `json:"initializable" yaml:"initializable"`
	IsRequired         bool    `json:"required" yaml:"required"`
	Opposite           string  `json:"opposite,omitempty" yaml:"opposite,omitempty"`
	IsOppositeReadOnly bool    `json:"oppositeReadOnly" yaml:"oppositeReadOnly"`
	IsOppositeRequired bool    `json:"oppositeRequired" yaml:"oppositeRequired"`
}

// Parameter is an input of an operation.
type Parameter struct {
	Name      string    `json:"name" yaml:"name"`
	Type      TypeRef   `json:"type" yaml:"type"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Operation is a callable exposed by an entity or its service.
type Operation struct {
	Name                string        `json:"name" yaml:"name"`
	IsInstanceOperation bool          `json:"instanceOperation" yaml:"instanceOperation"`
	Kind                OperationKind `json:"kind" yaml:"kind"`
	Parameters          []Parameter   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Entity is a domain type with identity.
type Entity struct {
	Name          string          `json:"name" yaml:"name"`
	Namespace     string          `json:"namespace" yaml:"namespace"`
	Role          string          `json:"role,omitempty" yaml:"role,omitempty"`
	Label         string          `json:"label,omitempty" yaml:"label,omitempty"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
	Symbol        string          `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Properties    []*Property     `json:"properties" yaml:"properties"`
	Relationships []*Relationship `json:"relationships" yaml:"relationships"`
	Operations    []*Operation    `json:"operations" yaml:"operations"`
}

// TypeRef returns the reference other members use to point at e.
func (e *Entity) TypeRef() TypeRef {
	return TypeRef{Namespace: e.Namespace, Name: e.Name, Kind: KindEntity}
}

// Property returns the property with the given name, or nil.
func (e *Entity) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Relationship returns the relationship with the given name, or nil.
func (e *Entity) Relationship(name string) *Relationship {
	for _, r := range e.Relationships {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Operation returns the first operation with the given name, or nil.
func (e *Entity) Operation(name string) *Operation {
	for _, o := range e.Operations {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Namespace groups the entities declared in one source package.
type Namespace struct {
	Name     string    `json:"name" yaml:"name"`
	Entities []*Entity `json:"entities" yaml:"entities"`
}

// Entity returns the entity with the given name, or nil.
func (n *Namespace) Entity(name string) *Entity {
	for _, e := range n.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Schema is the root of an extracted domain model.
type Schema struct {
	Namespaces []*Namespace `json:"namespaces" yaml:"namespaces"`
}

// Namespace returns the namespace with the given name, or nil.
func (s *Schema) Namespace(name string) *Namespace {
	for _, n := range s.Namespaces {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Entity returns the named entity, or nil.
func (s *Schema) Entity(namespace, name string) *Entity {
	if n := s.Namespace(namespace); n != nil {
		return n.Entity(name)
	}
	return nil
}

// FindEntity returns the entity t refers to, or nil when t is not an
// entity reference.
func (s *Schema) FindEntity(t TypeRef) *Entity {
	if t.Kind != KindEntity {
		return nil
	}
	return s.Entity(t.Namespace, t.Name)
}

// Opposite returns the reciprocal of r, or nil when r has none.
func (s *Schema) Opposite(r *Relationship) *Relationship {
	if r == nil || r.Opposite == "" {
		return nil
	}
	target := s.FindEntity(r.Type)
	if target == nil {
		return nil
	}
	return target.Relationship(r.Opposite)
}

// Entities returns every entity in namespace order.
func (s *Schema) Entities() []*Entity {
	var out []*Entity
	for _, n := range s.Namespaces {
		out = append(out, n.Entities...)
	}
	return out
}

// Stats counts the members of a schema.
type Stats struct {
	Namespaces    int
	Entities      int
	Properties    int
	Relationships int
	Operations    int
}

// Stats counts the schema's members.
func (s *Schema) Stats() Stats {
	st := Stats{Namespaces: len(s.Namespaces)}
	for _, e := range s.Entities() {
		st.Entities++
		st.Properties += len(e.Properties)
		st.Relationships += len(e.Relationships)
		st.Operations += len(e.Operations)
	}
	return st
}

// NamespaceOf maps a package path to its namespace: the last segment after
// splitting on '.' and '/'.
func NamespaceOf(pkg string) string {
	pkg = strings.TrimRight(pkg, "./")
	if i := strings.LastIndexAny(pkg, "./"); i >= 0 {
		return pkg[i+1:]
	}
	return pkg
}
