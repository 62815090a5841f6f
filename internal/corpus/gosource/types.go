package gosource

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/koustreak/metaschema/internal/corpus"
)

var predeclared = map[string]bool{
	"bool": true, "string": true, "error": true, "any": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
	"byte": true, "rune": true,
}

// fieldType sets the type of a from a type expression. Pointers are
// dereferenced, slices become collections of their element type and
// []byte is a large object.
func (p *sourcePackage) fieldType(expr ast.Expr, a *corpus.AttributeDescriptor) {
	for {
		star, ok := expr.(*ast.StarExpr)
		if !ok {
			break
		}
		expr = star.X
	}

	if arr, ok := expr.(*ast.ArrayType); ok && arr.Len == nil {
		if id, ok := arr.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
			a.Type = corpus.TypeDescriptor{Name: id.Name}
			a.Lob = true
			return
		}
		a.Collection = true
		p.fieldType(arr.Elt, a)
		return
	}

	a.Type = p.typeOf(expr)
}

func (p *sourcePackage) typeOf(expr ast.Expr) corpus.TypeDescriptor {
	switch t := expr.(type) {
	case *ast.Ident:
		if predeclared[t.Name] {
			return corpus.TypeDescriptor{Name: t.Name}
		}
		return corpus.TypeDescriptor{Package: p.qualifier, Name: t.Name}
	case *ast.SelectorExpr:
		x, ok := t.X.(*ast.Ident)
		if !ok {
			break
		}
		if q, ok := p.known[x.Name]; ok {
			return corpus.TypeDescriptor{Package: q, Name: t.Sel.Name}
		}
		return corpus.TypeDescriptor{Package: x.Name, Name: t.Sel.Name}
	case *ast.StarExpr:
		return p.typeOf(t.X)
	case *ast.IndexExpr:
		return p.typeOf(t.X)
	}
	// Maps, funcs, channels and literal structs have no corpus name; they
	// are qualified so they resolve as tuples.
	return corpus.TypeDescriptor{Package: p.qualifier, Name: exprString(expr)}
}

func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.MapType:
		return "map[" + exprString(t.Key) + "]" + exprString(t.Value)
	case *ast.ChanType:
		return "chan " + exprString(t.Value)
	case *ast.FuncType:
		return "func"
	case *ast.StructType:
		return "struct"
	case *ast.InterfaceType:
		return "interface"
	}
	return "unknown"
}

// enumerations finds named basic types that have typed constants declared
// in this package. Constants continue the type of the previous spec in an
// iota block.
func (p *sourcePackage) enumerations() []*corpus.EnumDescriptor {
	literals := make(map[string][]string)
	for _, f := range p.files {
		for _, decl := range f.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.CONST {
				continue
			}
			current := ""
			for _, spec := range gen.Specs {
				vs := spec.(*ast.ValueSpec)
				switch {
				case vs.Type != nil:
					current = ""
					if id, ok := vs.Type.(*ast.Ident); ok && p.isBasicNamed(id.Name) {
						current = id.Name
					}
				case len(vs.Values) > 0:
					current = ""
				}
				if current == "" {
					continue
				}
				for _, n := range vs.Names {
					if n.Name != "_" {
						literals[current] = append(literals[current], n.Name)
					}
				}
			}
		}
	}

	var out []*corpus.EnumDescriptor
	for _, name := range p.order {
		if lits := literals[name]; len(lits) > 0 {
			out = append(out, &corpus.EnumDescriptor{
				Package:  p.qualifier,
				Name:     name,
				Literals: lits,
			})
		}
	}
	return out
}

// isBasicNamed reports whether name is a local type defined over a
// predeclared type, such as "type Status string".
func (p *sourcePackage) isBasicNamed(name string) bool {
	ts, ok := p.types[name]
	if !ok || ts.Assign.IsValid() {
		return false
	}
	id, ok := ts.Type.(*ast.Ident)
	return ok && predeclared[id.Name] && !strings.HasPrefix(id.Name, "complex")
}
