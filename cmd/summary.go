package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/koustreak/metaschema/internal/schema"
)

// printSummary writes one line per namespace followed by the totals and,
// when there are any, the warnings grouped by kind.
func printSummary(w io.Writer, res *schema.Result) {
	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(w, "Schema")
	for _, ns := range res.Schema.Namespaces {
		names := make([]string, len(ns.Entities))
		for i, e := range ns.Entities {
			names[i] = e.Name
		}
		fmt.Fprintf(w, "  %-16s ", ns.Name)
		gray.Fprintln(w, strings.Join(names, ", "))
	}

	st := res.Schema.Stats()
	green.Fprintf(w, "✓ %d namespaces, %d entities", st.Namespaces, st.Entities)
	fmt.Fprintf(w, " (%d properties, %d relationships, %d operations)\n",
		st.Properties, st.Relationships, st.Operations)

	if len(res.Warnings) == 0 {
		return
	}
	for _, kind := range []schema.WarningKind{schema.WarnAmbiguousOpposite, schema.WarnMissingService} {
		if n := res.Count(kind); n > 0 {
			yellow.Fprintf(w, "! %d %s\n", n, kind)
		}
	}
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, err)
}
