package cmd

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/schema"
	"github.com/koustreak/metaschema/internal/source"
)

var (
	publishKey string
	publishTTL time.Duration
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build the schema and upload it to the object store",
	Long: `Load the configured corpus, build its schema and upload the schema
document to the configured bucket. A presigned download URL is printed.`,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(c, map[string]string{"format": "extract.format"})
		if err != nil {
			return err
		}
		if cfg.Store.Endpoint == "" {
			return errs.New(errs.ErrKindInvalidInput, "store.endpoint is required to publish")
		}

		ctx := c.Context()
		src := source.New(cfg, log)
		res, err := extract(ctx, cfg, src)
		if err != nil {
			return err
		}

		format := cfg.OutputFormat()
		if cfg.Extract.Format == "" {
			format = schema.FormatFor(publishKey)
		}
		data, err := res.Schema.Encode(format)
		if err != nil {
			return err
		}

		store, err := src.Store(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		bucket := cfg.Store.Bucket
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			return err
		}
		contentType := "application/yaml"
		if format == schema.FormatJSON {
			contentType = "application/json"
		}
		info, err := store.PutObject(ctx, bucket, publishKey, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			return err
		}
		url, err := store.PresignGetURL(ctx, bucket, publishKey, publishTTL)
		if err != nil {
			return err
		}

		printSummary(c.ErrOrStderr(), res)
		out := c.OutOrStdout()
		color.New(color.FgGreen, color.Bold).Fprintf(out, "published %s (%d bytes)\n", path.Join(bucket, info.Key), info.Size)
		fmt.Fprintln(out, url)
		return nil
	},
}

func init() {
	addCorpusFlags(publishCmd)
	publishCmd.Flags().StringVar(&publishKey, "object", "schema.yaml", "object key the schema is written to")
	publishCmd.Flags().DurationVar(&publishTTL, "ttl", 24*time.Hour, "lifetime of the presigned download URL")
	publishCmd.Flags().String("format", "", "document format, yaml or json (default: from the object key)")
}
