package corpus

import (
	"fmt"

	"github.com/koustreak/metaschema/internal/errs"
)

// Document is the serialisable shape of a corpus. Sources fill one in and
// hand it to NewModel.
type Document struct {
	Defaults     Defaults             `yaml:"defaults"`
	Enumerations []*EnumDescriptor    `yaml:"enumerations,omitempty"`
	Entities     []*EntityDescriptor  `yaml:"entities"`
	Services     []*ServiceDescriptor `yaml:"services,omitempty"`
}

// NewDocument returns an empty Document carrying StandardDefaults.
func NewDocument() *Document {
	return &Document{Defaults: StandardDefaults()}
}

// Model is an indexed, in-memory corpus. It implements Provider,
// ServiceRegistry and EntityPredicate.
type Model struct {
	defaults Defaults
	entities []*EntityDescriptor
	byType   map[string]*EntityDescriptor
	enums    map[string]*EnumDescriptor
	services map[string]*ServiceDescriptor // keyed by qualified entity type
}

var (
	_ Provider        = (*Model)(nil)
	_ ServiceRegistry = (*Model)(nil)
	_ EntityPredicate = (*Model)(nil)
)

// NewModel validates doc and indexes it.
//
// Attribute and parameter types written without a package are qualified
// with the declaring entity's package when an entity or enumeration of
// that name exists there. Types naming a declared enumeration receive its
// constants.
func NewModel(doc *Document) (*Model, error) {
	if doc == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "corpus document is nil")
	}
	m := &Model{
		defaults: doc.Defaults,
		entities: doc.Entities,
		byType:   make(map[string]*EntityDescriptor, len(doc.Entities)),
		enums:    make(map[string]*EnumDescriptor, len(doc.Enumerations)),
		services: make(map[string]*ServiceDescriptor),
	}

	for _, en := range doc.Enumerations {
		if en == nil || en.Name == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "enumeration without a name")
		}
		key := en.Type().QualifiedName()
		if _, dup := m.enums[key]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateName, "enumeration %s declared twice", key)
		}
		m.enums[key] = en
	}

	for _, e := range doc.Entities {
		if e == nil || e.Name == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "entity without a name")
		}
		if e.Package == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "entity has no package").At(e.Name, "")
		}
		key := e.Type().QualifiedName()
		if _, dup := m.byType[key]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateName, "entity %s declared twice", key).At(e.Name, "")
		}
		m.byType[key] = e
	}

	for _, e := range doc.Entities {
		if err := m.normalizeEntity(e); err != nil {
			return nil, err
		}
	}

	for _, s := range doc.Services {
		if err := m.registerService(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) normalizeEntity(e *EntityDescriptor) error {
	seen := make(map[string]struct{}, len(e.Attributes))
	for _, a := range e.Attributes {
		if a == nil || a.Name == "" {
			return errs.New(errs.ErrKindInvalidInput, "attribute without a name").At(e.Name, "")
		}
		if _, dup := seen[a.Name]; dup {
			return errs.New(errs.ErrKindDuplicateName, "attribute declared twice").At(e.Name, a.Name)
		}
		seen[a.Name] = struct{}{}
		if a.Type.Name == "" {
			return errs.New(errs.ErrKindInvalidInput, "attribute has no type").At(e.Name, a.Name)
		}
		a.Type = m.qualify(e.Package, a.Type)
	}
	for _, op := range e.Members {
		if op == nil || op.Name == "" {
			return errs.New(errs.ErrKindInvalidInput, "member without a name").At(e.Name, "")
		}
		m.normalizeMember(e.Package, op)
	}
	return nil
}

func (m *Model) normalizeMember(pkg string, op *MemberDescriptor) {
	for i := range op.Parameters {
		op.Parameters[i].Type = m.qualify(pkg, op.Parameters[i].Type)
	}
}

func (m *Model) qualify(pkg string, t TypeDescriptor) TypeDescriptor {
	if t.IsSimple() {
		local := TypeDescriptor{Package: pkg, Name: t.Name}
		if _, ok := m.byType[local.QualifiedName()]; ok {
			t = local
		} else if _, ok := m.enums[local.QualifiedName()]; ok {
			t = local
		}
	}
	if en, ok := m.enums[t.QualifiedName()]; ok && !t.IsEnum() {
		t.Enum = en.Literals
	}
	return t
}

func (m *Model) registerService(s *ServiceDescriptor) error {
	if s == nil || s.Name == "" {
		return errs.New(errs.ErrKindInvalidInput, "service without a name")
	}
	var target *EntityDescriptor
	if s.Entity != "" {
		t := ParseType(s.Entity)
		if t.IsSimple() {
			t.Package = s.Package
		}
		target = m.byType[t.QualifiedName()]
		if target == nil {
			return errs.Newf(errs.ErrKindNotFound, "service %s is bound to unknown entity %s", s.Name, s.Entity)
		}
	} else {
		for _, e := range m.entities {
			if e.Package == s.Package && ServiceName(e) == s.Name {
				target = e
				break
			}
		}
		if target == nil {
			// A service that matches no entity contributes nothing.
			return nil
		}
	}
	key := target.Type().QualifiedName()
	if prev, dup := m.services[key]; dup {
		return errs.Newf(errs.ErrKindDuplicateName, "entity has two services %s and %s", prev.Name, s.Name).At(target.Name, "")
	}
	for _, op := range s.Members {
		if op == nil || op.Name == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "service %s has a member without a name", s.Name).At(target.Name, "")
		}
		m.normalizeMember(s.Package, op)
	}
	m.services[key] = s
	return nil
}

// ServiceName is the conventional service name for e.
func ServiceName(e *EntityDescriptor) string {
	return fmt.Sprintf("%sService", e.Name)
}

// Entities returns the entities in declaration order.
func (m *Model) Entities() []*EntityDescriptor {
	return m.entities
}

// Defaults returns the corpus defaults.
func (m *Model) Defaults() Defaults {
	return m.defaults
}

// IsEntity reports whether t names an entity of this corpus.
func (m *Model) IsEntity(t TypeDescriptor) bool {
	_, ok := m.byType[t.QualifiedName()]
	return ok
}

// Entity returns the entity named by t, or nil.
func (m *Model) Entity(t TypeDescriptor) *EntityDescriptor {
	return m.byType[t.QualifiedName()]
}

// ServiceFor returns the service bound to e, or nil.
func (m *Model) ServiceFor(e *EntityDescriptor) *ServiceDescriptor {
	return m.services[e.Type().QualifiedName()]
}
