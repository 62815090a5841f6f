package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/metaschema/internal/config"
	"github.com/koustreak/metaschema/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "metaschema",
	Short: "Extract a domain metamodel from entity descriptions",
	Long: `metaschema reads entity descriptions from a YAML corpus, Go source,
a PostgreSQL or MySQL catalog, or an object store, and derives a schema of
namespaces, entities, properties, relationships and operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = version
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./metaschema.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)
}

// corpusFlags are shared by every command that builds a schema.
var corpusFlags = map[string]string{
	"log-level": "logging.level",
	"kind":      "corpus.kind",
	"path":      "corpus.path",
	"dir":       "corpus.dirs",
	"prefix":    "corpus.prefix",
	"dsn":       "database.dsn",
	"key":       "corpus.key",
	"workers":   "extract.workers",
}

func addCorpusFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("kind", "", "corpus kind (yaml, go, postgres, mysql, object)")
	f.String("path", "", "corpus file for the yaml kind")
	f.StringSlice("dir", nil, "Go package directory for the go kind (repeatable)")
	f.String("prefix", "", "package prefix for the go kind")
	f.String("dsn", "", "database connection string for the postgres and mysql kinds")
	f.String("key", "", "object key or prefix for the object kind")
	f.Int("workers", 0, "entities built concurrently (0 = GOMAXPROCS)")
}

// loadConfig reads the configuration with the command's flags layered on
// top, then installs the configured logger as the global one.
func loadConfig(c *cobra.Command, extra map[string]string) (*config.Config, *logger.Logger, error) {
	var bindings []config.Binding
	for _, keys := range []map[string]string{corpusFlags, extra} {
		for name, key := range keys {
			if f := c.Flags().Lookup(name); f != nil {
				bindings = append(bindings, config.Binding{Key: key, Flag: f})
			}
		}
	}

	cfg, err := config.Load(cfgFile, bindings...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(&cfg.Logging)
	logger.SetGlobal(log)
	return cfg, log, nil
}
