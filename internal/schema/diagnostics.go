package schema

import (
	"github.com/koustreak/metaschema/internal/logger"
)

// WarningKind identifies a non-fatal extraction condition.
type WarningKind string

const (
	// WarnAmbiguousOpposite: more than one structural opposite candidate; the
	// relationship was treated as having none.
	WarnAmbiguousOpposite WarningKind = "AmbiguousOpposite"
	// WarnMissingService: the entity has no service, so no service operations.
	WarnMissingService WarningKind = "MissingService"
)

// Warning is a non-fatal condition found during a build.
type Warning struct {
	Kind      WarningKind `json:"kind" yaml:"kind"`
	Entity    string      `json:"entity" yaml:"entity"`
	Attribute string      `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Message   string      `json:"message" yaml:"message"`
}

// Result is the outcome of a successful build.
type Result struct {
	Schema   *Schema
	Warnings []Warning
}

// Count returns the number of warnings of the given kind.
func (r *Result) Count(kind WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func logWarnings(log *logger.Logger, warnings []Warning) {
	for _, w := range warnings {
		fields := map[string]any{
			"kind":   string(w.Kind),
			"entity": w.Entity,
		}
		if w.Attribute != "" {
			fields["attribute"] = w.Attribute
		}
		log.WarnWith(w.Message, fields)
	}
}
