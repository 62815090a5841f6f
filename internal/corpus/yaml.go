package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/filestore"
)

// ParseYAML decodes a corpus document and indexes it.
// Unknown keys are rejected.
func ParseYAML(data []byte) (*Model, error) {
	doc, err := DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewModel(doc)
}

// DecodeDocument decodes one YAML corpus document from r without indexing it.
func DecodeDocument(r io.Reader) (*Document, error) {
	doc := NewDocument()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		if err == io.EOF {
			return doc, nil
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decoding corpus yaml", err)
	}
	return doc, nil
}

// LoadYAML reads and parses the corpus file at path.
func LoadYAML(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("corpus file %s", filename), err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("reading corpus file %s", filename), err)
	}
	return ParseYAML(data)
}

// ObjectSource is the part of filestore.Store that corpus loading needs.
type ObjectSource interface {
	ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (filestore.Object, error)
}

// LoadFromStore reads a corpus from an object store. A key ending in
// .yaml or .yml names a single document; any other key is a prefix whose
// YAML objects are merged in key order.
func LoadFromStore(ctx context.Context, store ObjectSource, bucket, key string) (*Model, error) {
	keys := []string{key}
	if !isYAMLKey(key) {
		infos, err := store.ListObjects(ctx, bucket, filestore.ListOptions{Prefix: key, Recursive: true})
		if err != nil {
			return nil, err
		}
		keys = keys[:0]
		for _, info := range infos {
			if !info.IsDir && isYAMLKey(info.Key) {
				keys = append(keys, info.Key)
			}
		}
		if len(keys) == 0 {
			return nil, errs.Newf(errs.ErrKindNotFound, "no corpus documents under %s/%s", bucket, key)
		}
		sort.Strings(keys)
	}

	docs := make([]*Document, 0, len(keys))
	for _, k := range keys {
		doc, err := readObject(ctx, store, bucket, k)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return NewModel(MergeDocuments(docs...))
}

func readObject(ctx context.Context, store ObjectSource, bucket, key string) (*Document, error) {
	obj, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	doc, err := DecodeDocument(obj)
	if err != nil {
		if e, ok := err.(*errs.Error); ok {
			e.Message = fmt.Sprintf("%s (%s/%s)", e.Message, bucket, key)
		}
		return nil, err
	}
	return doc, nil
}

func isYAMLKey(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	return ext == ".yaml" || ext == ".yml"
}

// MergeDocuments concatenates docs in order. Defaults come from the first.
func MergeDocuments(docs ...*Document) *Document {
	out := NewDocument()
	for i, d := range docs {
		if d == nil {
			continue
		}
		if i == 0 {
			out.Defaults = d.Defaults
		}
		out.Enumerations = append(out.Enumerations, d.Enumerations...)
		out.Entities = append(out.Entities, d.Entities...)
		out.Services = append(out.Services, d.Services...)
	}
	return out
}

// ToYAML encodes doc as YAML.
func (d *Document) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "encoding corpus yaml", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "encoding corpus yaml", err)
	}
	return buf.Bytes(), nil
}

// --- YAML codecs ---

// UnmarshalYAML accepts a boolean.
func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	var b bool
	if err := n.Decode(&b); err != nil {
		return err
	}
	*f = FlagOf(b)
	return nil
}

// MarshalYAML writes set flags as booleans.
func (f Flag) MarshalYAML() (any, error) {
	if !f.IsSet() {
		return nil, nil
	}
	return f == FlagTrue, nil
}

// IsZero lets omitempty drop unset flags.
func (f Flag) IsZero() bool {
	return f == FlagUnset
}

// UnmarshalYAML accepts either a qualified type name or a mapping.
func (t *TypeDescriptor) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*t = ParseType(n.Value)
		return nil
	}
	type plain TypeDescriptor
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*t = TypeDescriptor(p)
	return nil
}

// MarshalYAML writes the qualified name unless the type carries constants.
func (t TypeDescriptor) MarshalYAML() (any, error) {
	if t.IsEnum() {
		type plain TypeDescriptor
		return plain(t), nil
	}
	return t.QualifiedName(), nil
}

func (k *AssociationKind) UnmarshalYAML(n *yaml.Node) error {
	kind, ok := ParseAssociationKind(n.Value)
	if !ok {
		return fmt.Errorf("line %d: unknown association kind %q", n.Line, n.Value)
	}
	*k = kind
	return nil
}

func (k AssociationKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

func (m *Marker) UnmarshalYAML(n *yaml.Node) error {
	marker := ParseMarker(n.Value)
	if marker == MarkerNone && n.Value != "" && !strings.EqualFold(n.Value, "none") {
		return fmt.Errorf("line %d: unknown marker %q", n.Line, n.Value)
	}
	*m = marker
	return nil
}

func (m Marker) MarshalYAML() (any, error) {
	return m.String(), nil
}

// UnmarshalYAML defaults Public to true when the key is absent.
func (d *MemberDescriptor) UnmarshalYAML(n *yaml.Node) error {
	type plain MemberDescriptor
	p := plain{Public: true}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = MemberDescriptor(p)
	return nil
}
