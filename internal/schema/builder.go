package schema

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/logger"
)

// Builder extracts a Schema from a corpus.
type Builder struct {
	provider corpus.Provider
	services corpus.ServiceRegistry
	isEntity corpus.EntityPredicate
	workers  int
	log      *logger.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithServices sets the service registry. By default the provider is used
// when it implements corpus.ServiceRegistry; otherwise no entity has a service.
func WithServices(r corpus.ServiceRegistry) Option {
	return func(b *Builder) { b.services = r }
}

// WithEntityPredicate overrides how entity types are recognised. By default
// the provider is used when it implements corpus.EntityPredicate; otherwise
// the types of the provider's entities are the entity types.
func WithEntityPredicate(p corpus.EntityPredicate) Option {
	return func(b *Builder) { b.isEntity = p }
}

// WithWorkers bounds the number of entities built concurrently.
// Values below one mean runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// NewBuilder returns a Builder reading from p.
func NewBuilder(p corpus.Provider, opts ...Option) *Builder {
	b := &Builder{provider: p, log: logger.Nop()}
	if r, ok := p.(corpus.ServiceRegistry); ok {
		b.services = r
	}
	if pred, ok := p.(corpus.EntityPredicate); ok {
		b.isEntity = pred
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type noServices struct{}

func (noServices) ServiceFor(*corpus.EntityDescriptor) *corpus.ServiceDescriptor { return nil }

type typeSet map[string]*corpus.EntityDescriptor

func (s typeSet) IsEntity(t corpus.TypeDescriptor) bool {
	_, ok := s[t.QualifiedName()]
	return ok
}

// run holds the state shared by the work units of one Build call.
type run struct {
	defaults corpus.Defaults
	services corpus.ServiceRegistry
	isEntity corpus.EntityPredicate
	resolver *TypeResolver
	opposite *oppositeFinder
}

type unit struct {
	entity   *Entity
	warnings []Warning
	err      error
}

// Build extracts the Schema. Either the full Schema is returned or an error
// locating the first offending entity in declaration order; never both.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := b.log.With().Str("run_id", uuid.NewString()).Logger()

	descs := b.provider.Entities()
	index := make(typeSet, len(descs))
	for _, e := range descs {
		key := e.Type().QualifiedName()
		if _, dup := index[key]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateName, "entity type %s declared twice", key).At(e.Name, "")
		}
		index[key] = e
	}
	namespaces, err := groupNamespaces(descs)
	if err != nil {
		return nil, err
	}

	r := &run{
		defaults: b.provider.Defaults(),
		services: b.services,
		isEntity: b.isEntity,
	}
	if r.services == nil {
		r.services = noServices{}
	}
	if r.isEntity == nil {
		r.isEntity = index
	}
	r.resolver = NewTypeResolver(r.isEntity, descs)
	r.opposite = &oppositeFinder{entities: index, isEntity: r.isEntity}

	units, err := b.runUnits(ctx, r, descs)
	if err != nil {
		log.ErrorWith("schema build failed", err, nil)
		return nil, err
	}

	res := &Result{Schema: &Schema{Namespaces: []*Namespace{}}}
	for _, ns := range namespaces {
		n := &Namespace{Name: ns.name, Entities: make([]*Entity, 0, len(ns.members))}
		for _, i := range ns.members {
			n.Entities = append(n.Entities, units[i].entity)
		}
		res.Schema.Namespaces = append(res.Schema.Namespaces, n)
	}
	for _, u := range units {
		res.Warnings = append(res.Warnings, u.warnings...)
	}

	logWarnings(log, res.Warnings)
	st := res.Schema.Stats()
	log.InfoWith("schema built", map[string]any{
		"namespaces":    st.Namespaces,
		"entities":      st.Entities,
		"relationships": st.Relationships,
		"operations":    st.Operations,
		"warnings":      len(res.Warnings),
		"duration":      time.Since(start).String(),
	})
	return res, nil
}

// runUnits builds every entity on a bounded pool. Results land in the slot
// of their declaration index. Once entity i fails, units after i are
// skipped; units before i still run so the lowest failing index wins.
func (b *Builder) runUnits(ctx context.Context, r *run, descs []*corpus.EntityDescriptor) ([]unit, error) {
	units := make([]unit, len(descs))
	workers := b.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(descs) {
		workers = len(descs)
	}

	var firstFailed atomic.Int64
	firstFailed.Store(int64(len(descs)))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, e := range descs {
		g.Go(func() error {
			if int64(i) > firstFailed.Load() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				units[i].err = errs.Wrap(errs.ErrKindTimeout, "schema build cancelled", err)
			} else {
				units[i].entity, units[i].warnings, units[i].err = r.buildEntity(e)
			}
			if units[i].err != nil {
				for {
					cur := firstFailed.Load()
					if int64(i) >= cur || firstFailed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range units {
		if units[i].err != nil {
			return nil, units[i].err
		}
	}
	return units, nil
}

type namespaceGroup struct {
	name    string
	members []int
}

// groupNamespaces groups entity indexes by namespace in order of first
// appearance and rejects duplicate entity names within a namespace.
func groupNamespaces(descs []*corpus.EntityDescriptor) ([]*namespaceGroup, error) {
	var groups []*namespaceGroup
	byName := map[string]*namespaceGroup{}
	seen := map[string]string{} // namespace/entity -> package
	for i, e := range descs {
		ns := NamespaceOf(e.Package)
		if ns == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "entity has no package").At(e.Name, "")
		}
		name := e.Naming.NameOr(e.Name)
		key := ns + "/" + name
		if pkg, dup := seen[key]; dup {
			return nil, errs.Newf(errs.ErrKindDuplicateName,
				"entity name %s already used in namespace %s by package %s", name, ns, pkg).At(e.Name, "")
		}
		seen[key] = e.Package

		g, ok := byName[ns]
		if !ok {
			g = &namespaceGroup{name: ns}
			byName[ns] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, i)
	}
	return groups, nil
}

// buildEntity runs classification, type resolution, opposite and style
// inference, and operation discovery for one entity.
func (r *run) buildEntity(e *corpus.EntityDescriptor) (*Entity, []Warning, error) {
	ent := &Entity{
		Name:          e.Naming.NameOr(e.Name),
		Namespace:     NamespaceOf(e.Package),
		Role:          e.Role,
		Label:         e.Naming.Label,
		Description:   e.Naming.Description,
		Symbol:        e.Naming.Symbol,
		Properties:    []*Property{},
		Relationships: []*Relationship{},
		Operations:    []*Operation{},
	}
	var warnings []Warning
	names := map[string]string{}
	claim := func(name, attr string) error {
		if other, dup := names[name]; dup {
			return errs.Newf(errs.ErrKindDuplicateName, "name %q also used by %s", name, other).At(e.Name, attr)
		}
		names[name] = attr
		return nil
	}

	part := Classify(e, r.isEntity)
	for _, a := range part.Properties {
		p, err := r.buildProperty(a)
		if err != nil {
			return nil, nil, locate(err, e.Name, a.Name)
		}
		if err := claim(p.Name, a.Name); err != nil {
			return nil, nil, err
		}
		ent.Properties = append(ent.Properties, p)
	}

	for _, a := range part.Relationships {
		rel, w, err := r.buildRelationship(e, a)
		if err != nil {
			return nil, nil, locate(err, e.Name, a.Name)
		}
		if err := claim(rel.Name, a.Name); err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		ent.Relationships = append(ent.Relationships, rel)
	}

	svc := r.services.ServiceFor(e)
	if svc == nil {
		warnings = append(warnings, Warning{
			Kind:    WarnMissingService,
			Entity:  e.Name,
			Message: fmt.Sprintf("no service found for entity %s", e.Name),
		})
	}
	ops, err := discoverOperations(r.resolver, e, svc)
	if err != nil {
		return nil, nil, err
	}
	if ops != nil {
		ent.Operations = ops
	}
	return ent, warnings, nil
}

func (r *run) buildProperty(a *corpus.AttributeDescriptor) (*Property, error) {
	t, lits, err := r.resolver.Resolve(a.Type, a.Lob)
	if err != nil {
		return nil, err
	}
	p := &Property{
		Name:                a.Naming.NameOr(a.Name),
		Label:               a.Naming.Label,
		Description:         a.Naming.Description,
		Symbol:              a.Naming.Symbol,
		Type:                t,
		IsMultiple:          a.Collection,
		HasDefault:          a.HasDefault,
		IsInitializable:     a.Initializable(r.defaults),
		IsEditable:          a.Editable(r.defaults),
		IsRequired:          a.Required(r.defaults),
		IsUnique:            a.IsUnique(r.defaults),
		IsUserVisible:       a.UserVisible(r.defaults),
		EnumerationLiterals: lits,
	}
	p.IsDerived = !p.IsInitializable && !p.IsEditable
	p.IsAutoGenerated = p.IsDerived
	return p, nil
}

func (r *run) buildRelationship(owner *corpus.EntityDescriptor, a *corpus.AttributeDescriptor) (*Relationship, []Warning, error) {
	t, _, err := r.resolver.Resolve(a.Type, false)
	if err != nil {
		return nil, nil, err
	}
	if t.Kind != KindEntity {
		return nil, nil, errs.Newf(errs.ErrKindUnresolvedType, "association target %s is not an entity", a.Type)
	}

	var warnings []Warning
	opp, ambiguous, err := r.opposite.find(owner, a)
	if err != nil {
		return nil, nil, err
	}
	if ambiguous {
		warnings = append(warnings, Warning{
			Kind:      WarnAmbiguousOpposite,
			Entity:    owner.Name,
			Attribute: a.Name,
			Message:   fmt.Sprintf("several attributes of %s point back to %s; no opposite recorded", a.Type.Name, owner.Name),
		})
	}

	rel := &Relationship{
		Name:        a.Naming.NameOr(a.Name),
		Label:       a.Naming.Label,
		Description: a.Naming.Description,
		Symbol:      a.Naming.Symbol,
		Type:        t,
		Style:       ClassifyStyle(a, opp),
		IsMultiple:  a.Collection,
	}
	if opp != nil {
		rel.Opposite = opp.Naming.NameOr(opp.Name)
	}
	relationshipFlags(rel, a, opp, r.defaults)
	return rel, warnings, nil
}
