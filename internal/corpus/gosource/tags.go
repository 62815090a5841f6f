package gosource

import (
	"go/ast"
	"reflect"
	"strings"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
)

// tagKey is the struct tag key read from entity fields.
const tagKey = "meta"

// directivePrefix starts a comment directive on a type or method.
const directivePrefix = "//meta:"

// applyTag parses a meta struct tag into a.
//
// The tag is a comma separated list of tokens, each a bare flag or a
// key=value pair:
//
//	meta:"id"
//	meta:"one_to_many,mapped_by=order,orphan_removal"
//	meta:"optional=false,updatable=false,unique"
//	meta:"lob,hidden,label=Picture"
//
// A tag of "-" excludes the field. skip reports that case.
func applyTag(tag string, a *corpus.AttributeDescriptor) (skip bool, err error) {
	tag = strings.TrimSpace(tag)
	if tag == "-" {
		return true, nil
	}
	if tag == "" {
		return false, nil
	}

	for _, tok := range strings.Split(tag, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, value, hasValue := strings.Cut(tok, "=")

		if kind, ok := corpus.ParseAssociationKind(key); ok && !hasValue {
			if a.Association == nil {
				a.Association = &corpus.Association{}
			}
			a.Association.Kind = kind
			continue
		}

		switch key {
		case "id":
			a.Identifier = true
		case "mapped_by":
			if a.Association == nil {
				a.Association = &corpus.Association{}
			}
			a.Association.MappedBy = value
		case "orphan_removal":
			if a.Association == nil {
				a.Association = &corpus.Association{}
			}
			a.Association.OrphanRemoval = true
		case "optional":
			a.Optional, err = flagValue(value, hasValue, tok)
		case "required":
			var f corpus.Flag
			f, err = flagValue(value, hasValue, tok)
			a.Optional = corpus.FlagOf(!f.Resolve(true))
		case "insertable":
			a.Insertable, err = flagValue(value, hasValue, tok)
		case "updatable":
			a.Updatable, err = flagValue(value, hasValue, tok)
		case "readonly":
			a.Insertable, a.Updatable = corpus.FlagFalse, corpus.FlagFalse
		case "unique":
			a.Unique, err = flagValue(value, hasValue, tok)
		case "hidden":
			a.Visible = corpus.FlagFalse
		case "lob":
			a.Lob = true
		case "default":
			a.HasDefault = true
		case "name":
			a.Naming.Name = value
		case "label":
			a.Naming.Label = value
		case "description":
			a.Naming.Description = value
		case "symbol":
			a.Naming.Symbol = value
		default:
			return false, errs.Newf(errs.ErrKindInvalidInput, "unknown meta tag %q", tok)
		}
		if err != nil {
			return false, err
		}
	}

	if a.Association != nil && a.Association.Kind == 0 {
		return false, errs.New(errs.ErrKindInvalidInput, "association options without an association kind")
	}
	return false, nil
}

func flagValue(value string, hasValue bool, tok string) (corpus.Flag, error) {
	if !hasValue {
		return corpus.FlagTrue, nil
	}
	switch strings.ToLower(value) {
	case "true", "yes":
		return corpus.FlagTrue, nil
	case "false", "no":
		return corpus.FlagFalse, nil
	}
	return corpus.FlagUnset, errs.Newf(errs.ErrKindInvalidInput, "meta tag %q: expected true or false", tok)
}

// fieldTags returns the meta and json tag values of a struct field.
func fieldTags(f *ast.Field) (meta, json string) {
	if f.Tag == nil {
		return "", ""
	}
	tag := reflect.StructTag(strings.Trim(f.Tag.Value, "`"))
	return tag.Get(tagKey), tag.Get("json")
}

// directives collects the //meta: lines of a doc comment. Keys without an
// argument map to "".
func directives(doc *ast.CommentGroup) map[string]string {
	out := make(map[string]string)
	if doc == nil {
		return out
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		key, arg, _ := strings.Cut(strings.TrimPrefix(c.Text, directivePrefix), " ")
		out[strings.TrimSpace(key)] = strings.TrimSpace(arg)
	}
	return out
}

// applyMemberDirectives reads the operation markers of a method. query
// wins over action when both are present.
func applyMemberDirectives(d map[string]string, m *corpus.MemberDescriptor) {
	if _, ok := d["action"]; ok {
		m.Marker = corpus.MarkerAction
	}
	if _, ok := d["query"]; ok {
		m.Marker = corpus.MarkerQuery
	}
	_, m.Implementation = d["impl"]
	_, m.ReadOnly = d["readonly"]
	_, m.Inherited = d["inherited"]
}

// applyNaming reads naming and role directives of an entity.
func applyNaming(d map[string]string, e *corpus.EntityDescriptor) {
	e.Naming.Name = d["name"]
	e.Naming.Label = d["label"]
	e.Naming.Description = d["description"]
	e.Naming.Symbol = d["symbol"]
	e.Role = d["role"]
}
