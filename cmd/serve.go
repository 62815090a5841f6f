package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/metaschema/internal/config"
	"github.com/koustreak/metaschema/internal/logger"
	"github.com/koustreak/metaschema/internal/server"
	"github.com/koustreak/metaschema/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the schema and serve it over HTTP",
	Long: `Load the configured corpus, build its schema and serve it read-only.
Sending SIGHUP rebuilds the schema from the corpus and swaps it in; a failed
rebuild keeps the previous schema.`,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(c, map[string]string{"addr": "server.addr"})
		if err != nil {
			return err
		}

		ctx := c.Context()
		src := source.New(cfg, log)
		res, err := extract(ctx, cfg, src)
		if err != nil {
			return err
		}
		printSummary(c.ErrOrStderr(), res)

		srv := server.New(&cfg.Server, log)
		srv.Publish(res)

		go reloadOnHangup(ctx, cfg, src, srv, log)
		return srv.Run(ctx)
	},
}

func init() {
	addCorpusFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
}

func reloadOnHangup(ctx context.Context, cfg *config.Config, src *source.Source, srv *server.Server, log *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			res, err := extract(ctx, cfg, src)
			if err != nil {
				log.ErrorWith("rebuild failed, keeping the current schema", err, nil)
				continue
			}
			srv.Publish(res)
		}
	}
}
