// Package relational turns an introspected database catalog into a corpus.
//
// Every table becomes an entity named after the singular CamelCase form of
// the table. Primary key columns become identifiers. A foreign key column
// becomes a many-to-one association, optional when the column is nullable,
// and the referenced entity receives the inverse one-to-many collection.
// The inverse names the association through mapped-by and removes orphans
// when the key deletes on cascade. Pure join tables, made of two foreign
// keys that also form the primary key, become a pair of many-to-many ends.
package relational

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/schema"
)

const defaultPackage = "db"

// Options controls the conversion.
type Options struct {
	// Package is the package every entity is placed in. Defaults to the
	// catalog schema name, or "db".
	Package string `mapstructure:"package" yaml:"package"`

	// TypeOverrides maps catalog data types to primitive names.
	TypeOverrides map[string]string `mapstructure:"type_overrides" yaml:"type_overrides"`
}

// Load introspects cat and converts the result into a Model.
func Load(ctx context.Context, cat database.Catalog, opts Options) (*corpus.Model, error) {
	s, err := cat.InspectSchema(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := Convert(s, opts)
	if err != nil {
		return nil, err
	}
	return corpus.NewModel(doc)
}

// Convert builds a corpus document from s.
func Convert(s *database.Schema, opts Options) (*corpus.Document, error) {
	if s == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "catalog schema is nil")
	}
	tm := DefaultTypeMap()
	for dataType, primitive := range opts.TypeOverrides {
		if err := tm.Override(dataType, primitive); err != nil {
			return nil, err
		}
	}

	pkg := opts.Package
	if pkg == "" {
		pkg = s.Name
	}
	if pkg == "" {
		pkg = defaultPackage
	}

	c := &converter{
		pkg:      pkg,
		types:    tm,
		entities: make(map[string]*corpus.EntityDescriptor, len(s.Tables)),
		refs:     make(map[string]map[string]string),
	}
	return c.convert(s), nil
}

type converter struct {
	pkg      string
	types    *TypeMap
	entities map[string]*corpus.EntityDescriptor // keyed by table name
	refs     map[string]map[string]string        // table -> fk column -> attribute
}

func (c *converter) convert(s *database.Schema) *corpus.Document {
	doc := corpus.NewDocument()

	var joins []*database.TableInfo
	for _, t := range s.Tables {
		if isJoinTable(t, s) {
			joins = append(joins, t)
			continue
		}
		e := &corpus.EntityDescriptor{
			Name:    entityName(t.Name),
			Package: c.pkg,
			Naming:  corpus.Naming{Label: label(t.Name)},
		}
		c.entities[t.Name] = e
		doc.Entities = append(doc.Entities, e)
	}

	for _, t := range s.Tables {
		if e, ok := c.entities[t.Name]; ok {
			c.addColumns(e, t)
		}
	}
	for _, t := range s.Tables {
		if e, ok := c.entities[t.Name]; ok {
			c.addInverses(e, t)
		}
	}
	for _, t := range joins {
		c.addManyToMany(t)
	}
	return doc
}

func (c *converter) addColumns(e *corpus.EntityDescriptor, t *database.TableInfo) {
	refs := make(map[string]string)
	c.refs[t.Name] = refs
	for _, col := range t.Columns {
		if target := c.referenced(t, col); target != nil {
			name := claim(e, referenceName(col.Name))
			refs[col.Name] = name
			e.Attributes = append(e.Attributes, &corpus.AttributeDescriptor{
				Name:        name,
				Type:        target.Type(),
				Association: &corpus.Association{Kind: corpus.ManyToOne},
				Optional:    corpus.FlagOf(col.Nullable),
				Unique:      uniqueFlag(col),
				HasDefault:  col.Default != nil,
			})
			continue
		}

		primitive := c.types.Resolve(col.DataType)
		e.Attributes = append(e.Attributes, &corpus.AttributeDescriptor{
			Name:       claim(e, lowerCamel(col.Name)),
			Type:       corpus.TypeDescriptor{Name: primitive},
			Identifier: col.IsPrimary,
			Lob:        primitive == schema.Blob,
			Optional:   corpus.FlagOf(col.Nullable),
			Unique:     uniqueFlag(col),
			HasDefault: col.Default != nil,
		})
	}
}

// referenced returns the entity a non-key foreign key column points at.
func (c *converter) referenced(t *database.TableInfo, col *database.ColumnInfo) *corpus.EntityDescriptor {
	if col.IsPrimary {
		return nil
	}
	fk := t.ForeignKeyOn(col.Name)
	if fk == nil {
		return nil
	}
	return c.entities[fk.RefTable]
}

func (c *converter) addInverses(owner *corpus.EntityDescriptor, t *database.TableInfo) {
	perTarget := make(map[string]int)
	for _, fk := range t.ForeignKeys {
		perTarget[fk.RefTable]++
	}

	for _, fk := range t.ForeignKeys {
		ref, ok := c.refs[t.Name][fk.Column]
		target := c.entities[fk.RefTable]
		if !ok || target == nil {
			continue
		}
		base := lowerCamel(plural(owner.Name))
		if perTarget[fk.RefTable] > 1 {
			base += "By" + upperFirst(ref)
		}
		target.Attributes = append(target.Attributes, &corpus.AttributeDescriptor{
			Name:       claim(target, base),
			Type:       owner.Type(),
			Collection: true,
			Association: &corpus.Association{
				Kind:          corpus.OneToMany,
				MappedBy:      ref,
				OrphanRemoval: fk.Cascades(),
			},
		})
	}
}

func (c *converter) addManyToMany(t *database.TableInfo) {
	left := c.entities[t.ForeignKeys[0].RefTable]
	right := c.entities[t.ForeignKeys[1].RefTable]
	if left == nil || right == nil {
		return
	}
	owning := claim(left, lowerCamel(plural(right.Name)))
	left.Attributes = append(left.Attributes, &corpus.AttributeDescriptor{
		Name:        owning,
		Type:        right.Type(),
		Collection:  true,
		Association: &corpus.Association{Kind: corpus.ManyToMany},
	})
	right.Attributes = append(right.Attributes, &corpus.AttributeDescriptor{
		Name:        claim(right, lowerCamel(plural(left.Name))),
		Type:        left.Type(),
		Collection:  true,
		Association: &corpus.Association{Kind: corpus.ManyToMany, MappedBy: owning},
	})
}

// isJoinTable reports whether t only links two other tables: exactly two
// foreign keys to distinct tables, both part of the primary key, and no
// other columns.
func isJoinTable(t *database.TableInfo, s *database.Schema) bool {
	if len(t.ForeignKeys) != 2 || len(t.Columns) != 2 || len(t.PrimaryKey) != 2 {
		return false
	}
	a, b := t.ForeignKeys[0], t.ForeignKeys[1]
	if a.RefTable == b.RefTable || a.RefTable == t.Name || b.RefTable == t.Name {
		return false
	}
	if s.Table(a.RefTable) == nil || s.Table(b.RefTable) == nil {
		return false
	}
	pk := map[string]bool{t.PrimaryKey[0]: true, t.PrimaryKey[1]: true}
	return pk[a.Column] && pk[b.Column]
}

func uniqueFlag(col *database.ColumnInfo) corpus.Flag {
	if col.IsUnique {
		return corpus.FlagTrue
	}
	return corpus.FlagUnset
}

// claim returns base, or base with a numeric suffix when e already has an
// attribute of that name.
func claim(e *corpus.EntityDescriptor, base string) string {
	name := base
	for i := 2; e.Attribute(name) != nil; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// referenceName drops an id suffix: "customer_id" and "customerId" both
// become "customer".
func referenceName(column string) string {
	switch {
	case len(column) > 3 && strings.EqualFold(column[len(column)-3:], "_id"):
		return lowerCamel(column[:len(column)-3])
	case len(column) > 2 && strings.HasSuffix(column, "Id"):
		return lowerCamel(column[:len(column)-2])
	}
	return lowerCamel(column)
}

func entityName(table string) string {
	return upperCamel(singular(table))
}

func label(table string) string {
	words := strings.FieldsFunc(singular(table), isSeparator)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return upperFirst(strings.Join(words, " "))
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// upperCamel joins separated words. Words already in mixed case keep their
// inner capitals; all-caps words are lowered first.
func upperCamel(s string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(s, isSeparator) {
		if w == strings.ToUpper(w) {
			w = strings.ToLower(w)
		}
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

func lowerCamel(s string) string {
	u := upperCamel(s)
	if u == "" {
		return u
	}
	r := []rune(u)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// singular strips the last word's plural ending.
func singular(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "xes"), strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return s[:len(s)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"):
		return s
	case strings.HasSuffix(lower, "s") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s
}

func plural(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "y") && len(s) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return s + "es"
	}
	return s + "s"
}
