// Package config loads metaschema settings from a YAML file, METASCHEMA_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/database"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/filestore"
	"github.com/koustreak/metaschema/internal/logger"
	"github.com/koustreak/metaschema/internal/schema"
	"github.com/koustreak/metaschema/internal/server"
)

// EnvPrefix prefixes every environment override, e.g. METASCHEMA_CORPUS_KIND.
const EnvPrefix = "METASCHEMA"

// Kind names a corpus source.
type Kind string

const (
	KindYAML     Kind = "yaml"
	KindGo       Kind = "go"
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindObject   Kind = "object"
)

// Config is the full metaschema configuration.
type Config struct {
	Corpus  CorpusConfig  `mapstructure:"corpus" yaml:"corpus"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`

	// Defaults are the attribute flag defaults of go and relational
	// corpora. YAML documents declare their own.
	Defaults corpus.Defaults `mapstructure:"defaults" yaml:"defaults"`

	Database database.Config  `mapstructure:"database" yaml:"database"`
	Store    filestore.Config `mapstructure:"store" yaml:"store"`
	Server   server.Config    `mapstructure:"server" yaml:"server"`
	Logging  logger.Config    `mapstructure:"logging" yaml:"logging"`
}

// CorpusConfig selects where entity descriptions are read from.
type CorpusConfig struct {
	Kind Kind `mapstructure:"kind" yaml:"kind"`

	// Path is the corpus file for the yaml kind.
	Path string `mapstructure:"path" yaml:"path"`

	// Dirs are the Go package directories for the go kind.
	Dirs []string `mapstructure:"dirs" yaml:"dirs"`

	// Prefix is prepended to Go package names.
	Prefix string `mapstructure:"prefix" yaml:"prefix"`

	// Package places every table entity of a relational corpus.
	Package string `mapstructure:"package" yaml:"package"`

	// TypeOverrides maps catalog data types to primitive names.
	TypeOverrides map[string]string `mapstructure:"type_overrides" yaml:"type_overrides"`

	// Key is the object key or key prefix for the object kind. The bucket
	// comes from the store section.
	Key string `mapstructure:"key" yaml:"key"`
}

// ExtractConfig controls schema building and output.
type ExtractConfig struct {
	Workers int    `mapstructure:"workers" yaml:"workers"`
	Output  string `mapstructure:"output" yaml:"output"`
	Format  string `mapstructure:"format" yaml:"format"`
}

// Binding attaches a command-line flag to a config key.
type Binding struct {
	Key  string
	Flag *pflag.Flag
}

// Load reads file, when non-empty, and layers environment variables and the
// bound flags over it. Without a file, metaschema.yaml in the working
// directory is used if present.
func Load(file string, bindings ...Binding) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("metaschema")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, b := range bindings {
		if b.Flag == nil {
			continue
		}
		if err := v.BindPFlag(b.Key, b.Flag); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "binding flag "+b.Key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case file == "" && errors.As(err, &notFound):
			// no metaschema.yaml; defaults, env and flags only
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file "+file, err)
		default:
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "reading config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decoding config", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	db := database.DefaultConfig("")
	store := filestore.DefaultConfig("", "", "")
	srv := server.DefaultConfig()
	logs := logger.DefaultConfig()

	v.SetDefault("corpus.kind", string(KindYAML))
	v.SetDefault("corpus.path", "corpus.yaml")
	v.SetDefault("corpus.dirs", []string{})
	v.SetDefault("corpus.prefix", "")
	v.SetDefault("corpus.package", "")
	v.SetDefault("corpus.key", "")

	v.SetDefault("extract.workers", 0)
	v.SetDefault("extract.output", "")
	v.SetDefault("extract.format", "")

	std := corpus.StandardDefaults()
	v.SetDefault("defaults.insertable", std.Insertable)
	v.SetDefault("defaults.updatable", std.Updatable)
	v.SetDefault("defaults.optional", std.Optional)
	v.SetDefault("defaults.unique", std.Unique)
	v.SetDefault("defaults.user_visible", std.UserVisible)

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.schema", "")
	v.SetDefault("database.max_conns", db.MaxConns)
	v.SetDefault("database.min_conns", db.MinConns)
	v.SetDefault("database.max_conn_lifetime", db.MaxConnLifetime)
	v.SetDefault("database.max_conn_idle_time", db.MaxConnIdleTime)
	v.SetDefault("database.connect_timeout", db.ConnectTimeout)
	v.SetDefault("database.query_timeout", db.QueryTimeout)

	v.SetDefault("store.provider", string(store.Provider))
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.use_ssl", false)
	v.SetDefault("store.region", "")
	v.SetDefault("store.bucket", store.Bucket)

	v.SetDefault("server.addr", srv.Addr)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)

	v.SetDefault("logging.level", logs.Level)
	v.SetDefault("logging.format", logs.Format)
	v.SetDefault("logging.time_format", logs.TimeFormat)
}

// applyDefaults fills values that depend on other settings.
func applyDefaults(cfg *Config) {
	cfg.Corpus.Kind = Kind(strings.ToLower(string(cfg.Corpus.Kind)))
	switch cfg.Corpus.Kind {
	case KindPostgres:
		cfg.Database.Driver = database.DriverPostgres
	case KindMySQL:
		cfg.Database.Driver = database.DriverMySQL
	}
	if cfg.Logging.Output == nil {
		cfg.Logging.Output = os.Stderr
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Corpus.Kind {
	case KindYAML:
		if c.Corpus.Path == "" {
			return invalid("corpus.path is required for the yaml corpus")
		}
	case KindGo:
		if len(c.Corpus.Dirs) == 0 {
			return invalid("corpus.dirs is required for the go corpus")
		}
	case KindPostgres, KindMySQL:
		if c.Database.DSN == "" {
			return invalid("database.dsn is required for the %s corpus", c.Corpus.Kind)
		}
	case KindObject:
		if c.Store.Endpoint == "" {
			return invalid("store.endpoint is required for the object corpus")
		}
		if c.Store.Bucket == "" {
			return invalid("store.bucket is required for the object corpus")
		}
	default:
		return invalid("unknown corpus kind %q", c.Corpus.Kind)
	}

	if c.Extract.Workers < 0 {
		return invalid("extract.workers must not be negative, got %d", c.Extract.Workers)
	}
	if _, err := schema.ParseFormat(c.Extract.Format); err != nil {
		return err
	}
	return nil
}

// OutputFormat is the configured format, or the one implied by the output
// file extension when no format is set.
func (c *Config) OutputFormat() schema.Format {
	if c.Extract.Format == "" && c.Extract.Output != "" {
		return schema.FormatFor(c.Extract.Output)
	}
	f, err := schema.ParseFormat(c.Extract.Format)
	if err != nil {
		return schema.FormatYAML
	}
	return f
}

func invalid(format string, args ...any) error {
	return errs.Newf(errs.ErrKindInvalidInput, format, args...)
}
