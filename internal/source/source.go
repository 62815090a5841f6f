// Package source opens the corpus named by the configuration and runs the
// schema builder over it.
package source

import (
	"context"
	"time"

	"github.com/koustreak/metaschema/internal/config"
	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/corpus/gosource"
	"github.com/koustreak/metaschema/internal/corpus/relational"
	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/database/mysql"
	"github.com/koustreak/metaschema/internal/database/postgres"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/filestore"
	"github.com/koustreak/metaschema/internal/filestore/minio"
	"github.com/koustreak/metaschema/internal/logger"
	"github.com/koustreak/metaschema/internal/schema"
)

// CatalogOpener connects to a database catalog.
type CatalogOpener func(ctx context.Context, cfg *database.Config) (database.Catalog, error)

// StoreOpener connects to an object store.
type StoreOpener func(ctx context.Context, cfg *filestore.Config) (filestore.Store, error)

// Source loads corpora and builds schemas according to a Config.
type Source struct {
	cfg         *config.Config
	log         *logger.Logger
	openCatalog CatalogOpener
	openStore   StoreOpener
}

// Option configures a Source.
type Option func(*Source)

// WithCatalogOpener replaces the database driver factory.
func WithCatalogOpener(fn CatalogOpener) Option {
	return func(s *Source) { s.openCatalog = fn }
}

// WithStoreOpener replaces the object store driver factory.
func WithStoreOpener(fn StoreOpener) Option {
	return func(s *Source) { s.openStore = fn }
}

// New returns a Source for cfg. A nil log discards output.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Source {
	if log == nil {
		log = logger.Nop()
	}
	s := &Source{
		cfg:         cfg,
		log:         log.With().Str("corpus", string(cfg.Corpus.Kind)).Logger(),
		openCatalog: OpenCatalog,
		openStore:   OpenStore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the configured corpus.
func (s *Source) Load(ctx context.Context) (*corpus.Model, error) {
	start := time.Now()
	m, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.log.InfoWith("corpus loaded", map[string]any{
		"entities": len(m.Entities()),
		"duration": time.Since(start).String(),
	})
	return m, nil
}

func (s *Source) load(ctx context.Context) (*corpus.Model, error) {
	c := s.cfg.Corpus
	switch c.Kind {
	case config.KindYAML:
		return corpus.LoadYAML(c.Path)

	case config.KindGo:
		doc, err := gosource.Parse(gosource.Options{Prefix: c.Prefix}, c.Dirs...)
		if err != nil {
			return nil, err
		}
		doc.Defaults = s.cfg.Defaults
		return corpus.NewModel(doc)

	case config.KindPostgres, config.KindMySQL:
		cat, err := s.openCatalog(ctx, &s.cfg.Database)
		if err != nil {
			return nil, err
		}
		defer cat.Close()

		dbs, err := cat.InspectSchema(ctx)
		if err != nil {
			return nil, err
		}
		doc, err := relational.Convert(dbs, relational.Options{
			Package:       c.Package,
			TypeOverrides: c.TypeOverrides,
		})
		if err != nil {
			return nil, err
		}
		doc.Defaults = s.cfg.Defaults
		return corpus.NewModel(doc)

	case config.KindObject:
		store, err := s.openStore(ctx, &s.cfg.Store)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return corpus.LoadFromStore(ctx, store, s.cfg.Store.Bucket, c.Key)
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown corpus kind %q", c.Kind)
}

// Extract loads the corpus and builds its schema.
func (s *Source) Extract(ctx context.Context) (*schema.Result, error) {
	m, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	b := schema.NewBuilder(m,
		schema.WithWorkers(s.cfg.Extract.Workers),
		schema.WithLogger(s.log),
	)
	return b.Build(ctx)
}

// Store opens the configured object store.
func (s *Source) Store(ctx context.Context) (filestore.Store, error) {
	return s.openStore(ctx, &s.cfg.Store)
}

// OpenCatalog connects to the catalog cfg.Driver names.
func OpenCatalog(ctx context.Context, cfg *database.Config) (database.Catalog, error) {
	switch cfg.Driver {
	case database.DriverPostgres:
		d, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case database.DriverMySQL:
		d, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", cfg.Driver)
}

// OpenStore connects to the object store cfg.Provider names.
func OpenStore(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	switch cfg.Provider {
	case filestore.ProviderMinIO, "":
		d, err := minio.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported store provider %q", cfg.Provider)
}
