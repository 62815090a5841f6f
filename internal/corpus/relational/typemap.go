package relational

import (
	"sort"
	"strings"

	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/schema"
)

// TypeMap maps catalog data types to primitive names. Keys are lower case.
type TypeMap struct {
	mappings  map[string]string
	overrides map[string]string
}

var validPrimitives = map[string]bool{
	schema.Integer:  true,
	schema.Double:   true,
	schema.String:   true,
	schema.Boolean:  true,
	schema.Date:     true,
	schema.DateTime: true,
	schema.Time:     true,
	schema.Blob:     true,
}

// DefaultTypeMap returns the mappings shared by PostgreSQL and MySQL.
func DefaultTypeMap() *TypeMap {
	m := map[string]string{
		"smallint":  schema.Integer,
		"integer":   schema.Integer,
		"int":       schema.Integer,
		"bigint":    schema.Integer,
		"mediumint": schema.Integer,
		"tinyint":   schema.Integer,
		"serial":    schema.Integer,
		"bigserial": schema.Integer,
		"year":      schema.Integer,

		"numeric":          schema.Double,
		"decimal":          schema.Double,
		"real":             schema.Double,
		"float":            schema.Double,
		"double":           schema.Double,
		"double precision": schema.Double,

		"character varying": schema.String,
		"varchar":           schema.String,
		"character":         schema.String,
		"char":              schema.String,
		"text":              schema.String,
		"tinytext":          schema.String,
		"mediumtext":        schema.String,
		"longtext":          schema.String,
		"uuid":              schema.String,
		"json":              schema.String,
		"jsonb":             schema.String,
		"enum":              schema.String,
		"set":               schema.String,

		"boolean": schema.Boolean,
		"bool":    schema.Boolean,
		"bit":     schema.Boolean,

		"date":                        schema.Date,
		"timestamp":                   schema.DateTime,
		"timestamp with time zone":    schema.DateTime,
		"timestamp without time zone": schema.DateTime,
		"datetime":                    schema.DateTime,
		"time":                        schema.Time,
		"time with time zone":         schema.Time,
		"time without time zone":      schema.Time,

		"bytea":      schema.Blob,
		"blob":       schema.Blob,
		"tinyblob":   schema.Blob,
		"mediumblob": schema.Blob,
		"longblob":   schema.Blob,
		"binary":     schema.Blob,
		"varbinary":  schema.Blob,
	}
	return &TypeMap{mappings: m, overrides: make(map[string]string)}
}

// Resolve returns the primitive for a catalog data type. Unknown types map
// to String.
func (tm *TypeMap) Resolve(dataType string) string {
	key := strings.ToLower(strings.TrimSpace(dataType))
	if p, ok := tm.overrides[key]; ok {
		return p
	}
	if p, ok := tm.mappings[key]; ok {
		return p
	}
	return schema.String
}

// Override maps dataType to primitive, taking precedence over the defaults.
func (tm *TypeMap) Override(dataType, primitive string) error {
	if !validPrimitives[primitive] {
		return errs.Newf(errs.ErrKindInvalidInput, "type override %q: unknown primitive %q", dataType, primitive)
	}
	tm.overrides[strings.ToLower(strings.TrimSpace(dataType))] = primitive
	return nil
}

// Overrides returns the overridden data types, sorted.
func (tm *TypeMap) Overrides() []string {
	keys := make([]string, 0, len(tm.overrides))
	for k := range tm.overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
