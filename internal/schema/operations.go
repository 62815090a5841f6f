package schema

import (
	"regexp"
	"strings"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

// boilerplate names are structural members that are never operations,
// compared case-insensitively.
var boilerplate = map[string]struct{}{
	"equals":   {},
	"equal":    {},
	"hashcode": {},
	"hash":     {},
	"tostring": {},
	"string":   {},
	"gostring": {},
	"copy":     {},
	"clone":    {},
}

var componentAccessor = regexp.MustCompile(`(?i)^component[0-9]+$`)

func isBoilerplate(name string) bool {
	if _, ok := boilerplate[strings.ToLower(name)]; ok {
		return true
	}
	return componentAccessor.MatchString(name)
}

// isInstanceOperation reports whether m, declared on an entity, is exposed.
func isInstanceOperation(m *corpus.MemberDescriptor) bool {
	return m.Public &&
		!m.Implementation &&
		m.Marker != corpus.MarkerNone &&
		!isBoilerplate(m.Name)
}

// isServiceOperation reports whether m, declared on a service, is exposed.
func isServiceOperation(m *corpus.MemberDescriptor) bool {
	return m.Public && !m.Inherited && !m.Implementation
}

func serviceOperationKind(m *corpus.MemberDescriptor) OperationKind {
	if m.ReadOnly || m.Marker == corpus.MarkerQuery {
		return OperationFinder
	}
	return OperationAction
}

// discoverOperations lists e's instance operations followed by the
// operations of svc, each group in declaration order. svc may be nil.
func discoverOperations(r *TypeResolver, e *corpus.EntityDescriptor, svc *corpus.ServiceDescriptor) ([]*Operation, error) {
	var ops []*Operation
	for _, m := range e.Members {
		if !isInstanceOperation(m) {
			continue
		}
		op, err := buildOperation(r, e, m, true, OperationAction)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if svc == nil {
		return ops, nil
	}
	for _, m := range svc.Members {
		if !isServiceOperation(m) {
			continue
		}
		op, err := buildOperation(r, e, m, false, serviceOperationKind(m))
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func buildOperation(r *TypeResolver, e *corpus.EntityDescriptor, m *corpus.MemberDescriptor, instance bool, kind OperationKind) (*Operation, error) {
	op := &Operation{
		Name:                m.Name,
		IsInstanceOperation: instance,
		Kind:                kind,
	}
	for _, p := range m.Parameters {
		t, _, err := r.Resolve(p.Type, false)
		if err != nil {
			return nil, locate(err, e.Name, m.Name+"."+p.Name)
		}
		op.Parameters = append(op.Parameters, Parameter{Name: p.Name, Type: t, Direction: DirectionIn})
	}
	return op, nil
}

// locate records the corpus position on err when it is an *errs.Error.
func locate(err error, entity, attribute string) error {
	if e, ok := err.(*errs.Error); ok {
		return e.At(entity, attribute)
	}
	return err
}
