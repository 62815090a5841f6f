package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/metaschema/internal/corpus"
	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/schema"
)

const cartCorpus = "../internal/corpus/testdata/cart.yaml"

func noColor(t *testing.T) {
	t.Helper()
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })
}

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		_ = extractCmd.Flags().Set("output", "")
		_ = extractCmd.Flags().Set("format", "")
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestPrintSummary(t *testing.T) {
	noColor(t)

	m, err := corpus.LoadYAML(cartCorpus)
	require.NoError(t, err)
	res, err := schema.NewBuilder(m).Build(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "cart")
	assert.Contains(t, out, "Category, Product, OrderItem, Order")
	assert.Contains(t, out, "1 namespaces, 5 entities")
}

func TestPrintError(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	printError(&buf, errs.New(errs.ErrKindNotFound, "corpus file missing"))
	assert.Equal(t, "error: [not_found] corpus file missing\n", buf.String())

	buf.Reset()
	printError(&buf, errors.New("boom"))
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestExtractCommand_Stdout(t *testing.T) {
	noColor(t)
	path, err := filepath.Abs(cartCorpus)
	require.NoError(t, err)

	stdout, stderr, err := runRoot(t, "extract", "--kind", "yaml", "--path", path, "--log-level", "error")
	require.NoError(t, err)

	s, err := schema.Decode([]byte(stdout), schema.FormatYAML)
	require.NoError(t, err)
	assert.NotNil(t, s.Entity("cart", "Order"))
	assert.Contains(t, stderr, "5 entities")
}

func TestExtractCommand_File(t *testing.T) {
	noColor(t)
	path, err := filepath.Abs(cartCorpus)
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "schema.json")

	_, _, err = runRoot(t, "extract", "--kind", "yaml", "--path", path, "-o", out, "--log-level", "error")
	require.NoError(t, err)

	s, err := schema.ReadFile(out)
	require.NoError(t, err)
	assert.NotNil(t, s.Entity("cart", "Product"))
}

func TestExtractCommand_MissingCorpus(t *testing.T) {
	_, _, err := runRoot(t, "extract", "--kind", "yaml", "--path", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}
