package database

import "strings"

// Schema is the introspected structure of one catalog schema.
// Tables are sorted by name.
type Schema struct {
	Name   string
	Tables []*TableInfo
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *TableInfo {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TableInfo describes one table.
type TableInfo struct {
	Name        string
	Columns     []*ColumnInfo // ordinal order
	PrimaryKey  []string
	ForeignKeys []*ForeignKey
}

// Column returns the column with the given name, or nil.
func (t *TableInfo) Column(name string) *ColumnInfo {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ForeignKeyOn returns the foreign key whose source column is col, or nil.
func (t *TableInfo) ForeignKeyOn(col string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if fk.Column == col {
			return fk
		}
	}
	return nil
}

// ColumnInfo describes one column.
type ColumnInfo struct {
	Name      string
	DataType  string
	Nullable  bool
	Default   *string
	IsPrimary bool
	IsUnique  bool
}

// ForeignKey is a single-column reference from one table to another.
type ForeignKey struct {
	Name      string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string // referential action, e.g. CASCADE, NO ACTION
}

// Cascades reports whether deleting the referenced row deletes this one.
func (fk *ForeignKey) Cascades() bool {
	return strings.EqualFold(strings.TrimSpace(fk.OnDelete), "CASCADE")
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// MarkKeys flags primary-key and unique columns of t.
func MarkKeys(t *TableInfo, unique []string) {
	pk := toSet(t.PrimaryKey)
	uq := toSet(unique)
	for _, c := range t.Columns {
		c.IsPrimary = pk[c.Name]
		c.IsUnique = c.IsUnique || uq[c.Name]
	}
}
