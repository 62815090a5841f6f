// Package gosource reads a corpus from Go source. It walks the syntax tree
// of one or more package directories with go/ast; no code is compiled or
// loaded.
//
// An exported struct with a field tagged meta:"id" is an entity. Field tags
// carry association and flag annotations, and //meta: comment directives on
// types and methods carry naming, roles and operation markers. A type named
// <Entity>Service is that entity's service. A named basic type with typed
// constants is an enumeration.
package gosource

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

// Options controls how Go packages map to corpus packages.
type Options struct {
	// Prefix is prepended to every Go package name, so that package "cart"
	// with prefix "com.acme" becomes "com.acme.cart".
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// Load parses dirs and indexes the result.
func Load(opts Options, dirs ...string) (*corpus.Model, error) {
	doc, err := Parse(opts, dirs...)
	if err != nil {
		return nil, err
	}
	return corpus.NewModel(doc)
}

// Parse reads each directory as one Go package and returns the combined
// document. Directories are read in the order given and files in name
// order, so entity order follows declaration order.
func Parse(opts Options, dirs ...string) (*corpus.Document, error) {
	if len(dirs) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "no source directories")
	}

	fset := token.NewFileSet()
	pkgs := make([]*sourcePackage, 0, len(dirs))
	known := make(map[string]string) // go package name -> corpus package
	for _, dir := range dirs {
		p, err := parsePackage(fset, dir)
		if err != nil {
			return nil, err
		}
		p.qualifier = qualify(opts.Prefix, p.name)
		known[p.name] = p.qualifier
		pkgs = append(pkgs, p)
	}

	doc := corpus.NewDocument()
	for _, p := range pkgs {
		p.known = known
		if err := p.collect(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, ".") + "." + name
}

// sourcePackage is one parsed directory.
type sourcePackage struct {
	name      string
	qualifier string
	known     map[string]string
	files     []*ast.File

	types map[string]*ast.TypeSpec
	docs  map[string]*ast.CommentGroup
	order []string // type names in declaration order
}

func parsePackage(fset *token.FileSet, dir string) (*sourcePackage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("source directory %s", dir), err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("reading %s", dir), err)
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	p := &sourcePackage{
		types: make(map[string]*ast.TypeSpec),
		docs:  make(map[string]*ast.CommentGroup),
	}
	for _, n := range names {
		f, err := parser.ParseFile(fset, filepath.Join(dir, n), nil, parser.ParseComments)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("parsing %s", n), err)
		}
		if p.name == "" {
			p.name = f.Name.Name
		} else if p.name != f.Name.Name {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "%s: package %s, expected %s", n, f.Name.Name, p.name)
		}
		p.files = append(p.files, f)
	}
	if p.name == "" {
		return nil, errs.Newf(errs.ErrKindNotFound, "no Go files in %s", dir)
	}

	for _, f := range p.files {
		for _, decl := range f.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				p.types[ts.Name.Name] = ts
				p.order = append(p.order, ts.Name.Name)
				// A lone spec documents through its declaration.
				if ts.Doc != nil {
					p.docs[ts.Name.Name] = ts.Doc
				} else if len(gen.Specs) == 1 {
					p.docs[ts.Name.Name] = gen.Doc
				}
			}
		}
	}
	return p, nil
}

func (p *sourcePackage) collect(doc *corpus.Document) error {
	enums := p.enumerations()
	doc.Enumerations = append(doc.Enumerations, enums...)

	entities := make(map[string]*corpus.EntityDescriptor)
	for _, name := range p.order {
		ts := p.types[name]
		st, ok := ts.Type.(*ast.StructType)
		if !ok || !ts.Name.IsExported() || !hasIdentifier(st) {
			continue
		}
		e, err := p.entity(ts, st)
		if err != nil {
			return err
		}
		entities[name] = e
		doc.Entities = append(doc.Entities, e)
	}

	services := make(map[string]*corpus.ServiceDescriptor)
	for _, name := range p.order {
		entity, ok := strings.CutSuffix(name, "Service")
		d := directives(p.docs[name])
		bound, explicit := d["service"]
		if explicit {
			entity = bound
		}
		if (!ok && !explicit) || entity == "" {
			continue
		}
		svc := &corpus.ServiceDescriptor{Name: name, Package: p.qualifier}
		if explicit {
			svc.Entity = bound
		} else if entities[entity] == nil {
			continue
		}
		if it, ok := p.types[name].Type.(*ast.InterfaceType); ok {
			if err := p.interfaceMembers(it, svc); err != nil {
				return err
			}
		}
		services[name] = svc
		doc.Services = append(doc.Services, svc)
	}

	for _, f := range p.files {
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
				continue
			}
			recv := receiverName(fn.Recv.List[0].Type)
			var members *[]*corpus.MemberDescriptor
			if e := entities[recv]; e != nil {
				members = &e.Members
			} else if s := services[recv]; s != nil {
				members = &s.Members
			} else {
				continue
			}
			m, err := p.member(fn.Name, fn.Type, fn.Doc)
			if err != nil {
				return locate(err, recv, fn.Name.Name)
			}
			*members = append(*members, m)
		}
	}
	return nil
}

func hasIdentifier(st *ast.StructType) bool {
	for _, f := range st.Fields.List {
		meta, _ := fieldTags(f)
		for _, tok := range strings.Split(meta, ",") {
			if strings.TrimSpace(tok) == "id" {
				return true
			}
		}
	}
	return false
}

func (p *sourcePackage) entity(ts *ast.TypeSpec, st *ast.StructType) (*corpus.EntityDescriptor, error) {
	e := &corpus.EntityDescriptor{Name: ts.Name.Name, Package: p.qualifier}
	applyNaming(directives(p.docs[ts.Name.Name]), e)

	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			continue // embedded
		}
		meta, json := fieldTags(f)
		for _, ident := range f.Names {
			if !ident.IsExported() {
				continue
			}
			a := &corpus.AttributeDescriptor{Name: attributeName(ident.Name, json)}
			skip, err := applyTag(meta, a)
			if err != nil {
				return nil, locate(err, e.Name, a.Name)
			}
			if skip {
				continue
			}
			p.fieldType(f.Type, a)
			e.Attributes = append(e.Attributes, a)
		}
	}
	return e, nil
}

func (p *sourcePackage) interfaceMembers(it *ast.InterfaceType, svc *corpus.ServiceDescriptor) error {
	for _, f := range it.Methods.List {
		ft, ok := f.Type.(*ast.FuncType)
		if !ok || len(f.Names) == 0 {
			continue // embedded interface
		}
		m, err := p.member(f.Names[0], ft, f.Doc)
		if err != nil {
			return locate(err, svc.Name, f.Names[0].Name)
		}
		svc.Members = append(svc.Members, m)
	}
	return nil
}

func (p *sourcePackage) member(name *ast.Ident, ft *ast.FuncType, doc *ast.CommentGroup) (*corpus.MemberDescriptor, error) {
	m := &corpus.MemberDescriptor{Name: lowerFirst(name.Name), Public: name.IsExported()}
	applyMemberDirectives(directives(doc), m)

	if ft.Params == nil {
		return m, nil
	}
	i := 0
	for _, field := range ft.Params.List {
		names := field.Names
		if len(names) == 0 {
			names = []*ast.Ident{nil}
		}
		for _, n := range names {
			i++
			if isContext(field.Type) {
				continue
			}
			pd := corpus.ParameterDescriptor{Name: fmt.Sprintf("arg%d", i)}
			if n != nil && n.Name != "_" {
				pd.Name = n.Name
			}
			var a corpus.AttributeDescriptor
			p.fieldType(field.Type, &a)
			pd.Type = a.Type
			m.Parameters = append(m.Parameters, pd)
		}
	}
	return m, nil
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	}
	return ""
}

func isContext(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	return ok && x.Name == "context" && sel.Sel.Name == "Context"
}

// attributeName prefers the json tag name, else lowers the field name's
// leading capitals: "PlacedAt" is "placedAt", "ID" is "id".
func attributeName(field, json string) string {
	if n, _, _ := strings.Cut(json, ","); n != "" && n != "-" {
		return n
	}
	return lowerFirst(field)
}

func lowerFirst(s string) string {
	r := []rune(s)
	i := 0
	for i < len(r) && r[i] >= 'A' && r[i] <= 'Z' {
		i++
	}
	switch {
	case i == 0:
		return s
	case i == 1 || i == len(r):
		return strings.ToLower(string(r[:i])) + string(r[i:])
	default:
		// "URLPath" keeps the P of the next word.
		return strings.ToLower(string(r[:i-1])) + string(r[i-1:])
	}
}

func locate(err error, entity, attribute string) error {
	if e, ok := err.(*errs.Error); ok {
		return e.At(entity, attribute)
	}
	return err
}
