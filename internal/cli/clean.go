package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/siblingmerge/internal/clean"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <file>",
		Short: "Strip empty values from a record",
		Long: `Remove empty objects, empty arrays, nulls, and empty strings from a record,
bottom-up, so that a container emptied by cleaning is removed too.

Example:
  siblingmerge clean ./dataset.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)
			v, err := readValue(args[0])
			if err != nil {
				return fail(formatter, ExitCommandError, "failed to read input", err)
			}
			return formatter.Value(clean.New(rootOpts.IdentityField).Clean(v), "")
		},
	}
}
