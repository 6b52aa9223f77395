package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/siblingmerge/internal/coalesce"
	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/strategy"
)

// NewStrategiesCommand creates the strategies command.
func NewStrategiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "Show the effective merge strategy table",
		Long: `List every field with a non-default merge strategy, after applying the
overrides named by --strategies.

Example:
  siblingmerge strategies
  siblingmerge strategies --strategies ./strategies.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			table, err := loadTable(rootOpts)
			if err != nil {
				return fail(formatter, ExitCommandError, "failed to load strategies", err)
			}
			entries := table.Entries()

			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tSTRATEGY\tKEY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Field, e.Kind, e.Key)
			}
			return tw.Flush()
		},
	}
}

// strategiesHash identifies the coalescer's strategy table by content.
func strategiesHash(c *coalesce.Coalescer) (string, error) {
	return tableHash(c.Table())
}

func tableHash(t *strategy.Table) (string, error) {
	entries := t.Entries()
	arr := make(ir.Array, len(entries))
	for i, e := range entries {
		row := ir.Object{"field": ir.String(e.Field), "kind": ir.String(e.Kind)}
		if e.Key != "" {
			row["key"] = ir.String(e.Key)
		}
		arr[i] = row
	}
	return ir.Hash(arr)
}
