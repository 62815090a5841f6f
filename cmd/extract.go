package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/metaschema/internal/config"
	"github.com/koustreak/metaschema/internal/schema"
	"github.com/koustreak/metaschema/internal/source"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build the schema and write it as YAML or JSON",
	Long: `Load the configured corpus, build its schema and write the schema
document to --output, or to stdout when no output file is given. A summary
of the schema and its warnings is printed to stderr.`,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(c, map[string]string{
			"output": "extract.output",
			"format": "extract.format",
		})
		if err != nil {
			return err
		}

		res, err := extract(c.Context(), cfg, source.New(cfg, log))
		if err != nil {
			return err
		}
		if err := writeSchema(cfg, res.Schema, c.OutOrStdout()); err != nil {
			return err
		}
		printSummary(c.ErrOrStderr(), res)
		return nil
	},
}

func init() {
	addCorpusFlags(extractCmd)
	extractCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	extractCmd.Flags().String("format", "", "output format, yaml or json (default: from the output extension)")
}

func writeSchema(cfg *config.Config, s *schema.Schema, stdout io.Writer) error {
	if cfg.Extract.Output != "" && cfg.Extract.Format == "" {
		return s.WriteFile(cfg.Extract.Output)
	}
	data, err := s.Encode(cfg.OutputFormat())
	if err != nil {
		return err
	}
	if cfg.Extract.Output != "" {
		return os.WriteFile(cfg.Extract.Output, data, 0o644)
	}
	if _, err := stdout.Write(data); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	return nil
}

// extract builds the schema, naming the corpus kind on failure.
func extract(ctx context.Context, cfg *config.Config, src *source.Source) (*schema.Result, error) {
	res, err := src.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extracting %s corpus: %w", cfg.Corpus.Kind, err)
	}
	return res, nil
}
