package source

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/config"
	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/filestore"
	"github.com/koustreak/metaschema/internal/schema"
)

func baseConfig(kind config.Kind) *config.Config {
	return &config.Config{
		Corpus:   config.CorpusConfig{Kind: kind},
		Defaults: corpus.StandardDefaults(),
	}
}

func TestLoad_YAML(t *testing.T) {
	cfg := baseConfig(config.KindYAML)
	cfg.Corpus.Path = "../corpus/testdata/cart.yaml"

	m, err := New(cfg, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Entities(), 5)

	cfg.Corpus.Path = "../corpus/testdata/missing.yaml"
	_, err = New(cfg, nil).Load(context.Background())
	assert.True(t, errs.IsNotFound(err))
}

func TestLoad_GoAppliesDefaults(t *testing.T) {
	cfg := baseConfig(config.KindGo)
	cfg.Corpus.Dirs = []string{"../corpus/gosource/testdata/cart", "../corpus/gosource/testdata/crm"}
	cfg.Corpus.Prefix = "com.acme"
	cfg.Defaults.Optional = false

	m, err := New(cfg, nil).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, m.Defaults().Optional)
	assert.True(t, m.IsEntity(corpus.TypeDescriptor{Package: "com.acme.cart", Name: "Order"}))
}

type stubCatalog struct {
	database.Catalog
	schema *database.Schema
	closed bool
}

func (c *stubCatalog) InspectSchema(context.Context) (*database.Schema, error) {
	return c.schema, nil
}

func (c *stubCatalog) Close() { c.closed = true }

func blogSchema() *database.Schema {
	posts := &database.TableInfo{
		Name:       "posts",
		PrimaryKey: []string{"id"},
		Columns: []*database.ColumnInfo{
			{Name: "id", DataType: "bigint"},
			{Name: "title", DataType: "citext"},
		},
	}
	comments := &database.TableInfo{
		Name:       "comments",
		PrimaryKey: []string{"id"},
		Columns: []*database.ColumnInfo{
			{Name: "id", DataType: "bigint"},
			{Name: "post_id", DataType: "bigint"},
		},
		ForeignKeys: []*database.ForeignKey{
			{Name: "fk_post", Column: "post_id", RefTable: "posts", RefColumn: "id", OnDelete: "CASCADE"},
		},
	}
	database.MarkKeys(posts, nil)
	database.MarkKeys(comments, nil)
	return &database.Schema{Name: "public", Tables: []*database.TableInfo{comments, posts}}
}

func TestExtract_Relational(t *testing.T) {
	cfg := baseConfig(config.KindPostgres)
	cfg.Corpus.Package = "com.acme.blog"
	cfg.Corpus.TypeOverrides = map[string]string{"citext": "String"}
	cfg.Database.Driver = database.DriverPostgres

	cat := &stubCatalog{schema: blogSchema()}
	var opened *database.Config
	src := New(cfg, nil, WithCatalogOpener(func(_ context.Context, c *database.Config) (database.Catalog, error) {
		opened = c
		return cat, nil
	}))

	res, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.True(t, cat.closed)
	assert.Equal(t, database.DriverPostgres, opened.Driver)

	post := res.Schema.Entity("blog", "Post")
	require.NotNil(t, post)
	assert.Equal(t, schema.StyleChild, post.Relationship("comments").Style)
	assert.Equal(t, schema.StyleParent, res.Schema.Entity("blog", "Comment").Relationship("post").Style)
}

type memObject struct {
	io.Reader
}

func (memObject) Close() error                { return nil }
func (memObject) Info() *filestore.ObjectInfo { return &filestore.ObjectInfo{} }

type memStore struct {
	filestore.Store
	objects map[string]string
	closed  bool
}

func (s *memStore) ListObjects(_ context.Context, _ string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	var out []filestore.ObjectInfo
	for k := range s.objects {
		if strings.HasPrefix(k, opts.Prefix) {
			out = append(out, filestore.ObjectInfo{Key: k})
		}
	}
	return out, nil
}

func (s *memStore) GetObject(_ context.Context, _, key string) (filestore.Object, error) {
	body, ok := s.objects[key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "no object %s", key)
	}
	return memObject{Reader: bytes.NewReader([]byte(body))}, nil
}

func (s *memStore) Close() error {
	s.closed = true
	return nil
}

func TestLoad_Object(t *testing.T) {
	cfg := baseConfig(config.KindObject)
	cfg.Corpus.Key = "corpus/"
	cfg.Store.Bucket = "metaschema"

	store := &memStore{objects: map[string]string{
		"corpus/notes.yaml": `
entities:
  - name: Note
    package: com.acme.notes
    attributes:
      - {name: id, type: Long, identifier: true}
`,
	}}
	src := New(cfg, nil, WithStoreOpener(func(context.Context, *filestore.Config) (filestore.Store, error) {
		return store, nil
	}))

	m, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Entities(), 1)
	assert.Equal(t, "Note", m.Entities()[0].Name)
	assert.True(t, store.closed)
}

func TestLoad_UnknownKind(t *testing.T) {
	_, err := New(baseConfig("ldap"), nil).Load(context.Background())
	assert.True(t, errs.IsInvalidInput(err))
}

func TestOpeners_RejectUnknownBackends(t *testing.T) {
	_, err := OpenCatalog(context.Background(), &database.Config{Driver: "oracle"})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = OpenStore(context.Background(), &filestore.Config{Provider: "gcs"})
	assert.True(t, errs.IsInvalidInput(err))
}
