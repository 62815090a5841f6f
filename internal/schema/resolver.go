package schema

import (
	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

// Primitive type names in BuiltinNamespace.
const (
	Integer  = "Integer"
	Double   = "Double"
	String   = "String"
	Boolean  = "Boolean"
	Date     = "Date"
	DateTime = "DateTime"
	Time     = "Time"
	Blob     = "Blob"
)

// primitives maps qualified raw type names to primitive names. It covers Go
// builtins, the JVM names found in annotated class corpora, and the
// primitive names themselves.
var primitives = map[string]string{}

func init() {
	families := map[string][]string{
		Integer: {
			"int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64",
			"byte", "rune", "long", "short",
			"Int", "Long", "Short", "Byte",
			"kotlin.Int", "kotlin.Long", "kotlin.Short", "kotlin.Byte",
			"java.lang.Integer", "java.lang.Long", "java.lang.Short", "java.lang.Byte",
			"java.math.BigInteger", "math/big.Int",
		},
		Double: {
			"float32", "float64", "float", "double",
			"Float", "kotlin.Float", "kotlin.Double",
			"java.lang.Float", "java.lang.Double", "java.math.BigDecimal",
		},
		String:  {"string", "kotlin.String", "java.lang.String"},
		Boolean: {"bool", "boolean", "kotlin.Boolean", "java.lang.Boolean"},
		Date:    {"java.time.LocalDate", "java.sql.Date"},
		DateTime: {
			"time.Time", "java.time.LocalDateTime", "java.time.OffsetDateTime",
			"java.time.ZonedDateTime", "java.time.Instant", "java.util.Date", "java.sql.Timestamp",
		},
		Time: {"java.time.LocalTime", "java.sql.Time"},
	}
	for primitive, names := range families {
		primitives[primitive] = primitive
		for _, n := range names {
			primitives[n] = primitive
		}
	}
}

// PrimitiveName returns the primitive a raw type maps to, if any.
func PrimitiveName(t corpus.TypeDescriptor) (string, bool) {
	p, ok := primitives[t.QualifiedName()]
	return p, ok
}

// TypeResolver maps raw types to TypeRefs.
type TypeResolver struct {
	isEntity corpus.EntityPredicate
	names    map[string]string // qualified entity type -> schema name
}

// NewTypeResolver returns a resolver that uses isEntity to recognise entity
// types. Entities with a name override are referred to by that name.
func NewTypeResolver(isEntity corpus.EntityPredicate, entities []*corpus.EntityDescriptor) *TypeResolver {
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		names[e.Type().QualifiedName()] = e.Naming.NameOr(e.Name)
	}
	return &TypeResolver{isEntity: isEntity, names: names}
}

// Resolve maps t to a TypeRef. For enumerated types it also returns the
// literals in declaration order. lob forces Blob.
//
// A simple scalar name that is neither primitive, enumeration nor entity
// yields an ErrKindUnresolvedType error.
func (r *TypeResolver) Resolve(t corpus.TypeDescriptor, lob bool) (TypeRef, []EnumerationLiteral, error) {
	if lob {
		return TypeRef{Namespace: BuiltinNamespace, Name: Blob, Kind: KindBlob}, nil, nil
	}
	if p, ok := PrimitiveName(t); ok {
		return TypeRef{Namespace: BuiltinNamespace, Name: p, Kind: KindPrimitive}, nil, nil
	}
	if t.IsEnum() {
		lits := make([]EnumerationLiteral, len(t.Enum))
		for i, name := range t.Enum {
			lits[i] = EnumerationLiteral{Name: name}
		}
		return r.ref(t, KindEnumeration), lits, nil
	}
	if r.isEntity.IsEntity(t) {
		return r.ref(t, KindEntity), nil, nil
	}
	if t.IsSimple() {
		return TypeRef{}, nil, errs.Newf(errs.ErrKindUnresolvedType, "type %q is not a known primitive, enumeration or entity", t.Name)
	}
	return r.ref(t, KindTuple), nil, nil
}

func (r *TypeResolver) ref(t corpus.TypeDescriptor, kind TypeKind) TypeRef {
	name := t.Name
	if kind == KindEntity {
		if n, ok := r.names[t.QualifiedName()]; ok {
			name = n
		}
	}
	return TypeRef{Namespace: NamespaceOf(t.Package), Name: name, Kind: kind}
}
