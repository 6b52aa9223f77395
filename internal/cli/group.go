package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/siblingmerge/internal/coalesce"
	"github.com/roach88/siblingmerge/internal/ir"
)

// GroupOptions holds flags for the group command.
type GroupOptions struct {
	*RootOptions
	Database string
	NoRecord bool
}

// NewGroupCommand creates the group command.
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GroupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "group <id>",
		Short: "Coalesce a stored record with its whole sibling group",
		Long: `Load the stored record and every record reachable from it through sibling
edges, then coalesce them into one record. The result is recorded as a run
unless --no-record is given.

Example:
  siblingmerge group --db ./catalog.db urn:li:dataset:(urn:li:dataPlatform:snowflake,db.orders,PROD)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroup(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "do not record the result as a run")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runGroup(cmd *cobra.Command, opts *GroupOptions, id string) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	ctx := commandContext(cmd)

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return fail(formatter, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	arena, err := st.LoadArena(ctx, id)
	if err != nil {
		return fail(formatter, ExitFailure, "failed to load sibling group", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	record, ok := arena.Assemble(id)
	if !ok {
		return fail(formatter, ExitCommandError, "failed to load sibling group", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("record not found: %s", id)})
	}
	formatter.VerboseLog("group of %s has %d members", id, len(arena.Group(id)))

	c, err := newCoalescer(opts.RootOptions, coalesce.WithResolver(arena))
	if err != nil {
		return fail(formatter, ExitCommandError, "failed to load strategies", err)
	}

	rows := coalesce.CoalesceMany(c, []coalesce.Result[struct{}]{{Entity: record}})

	var runID string
	if !opts.NoRecord {
		run, err := recordRun(ctx, opts.RootOptions, st, c, rows)
		if err != nil {
			return fail(formatter, ExitFailure, "failed to record run", err)
		}
		runID = run.ID
	}

	out := ir.Object{keyEntity: rows[0].Entity}
	if rows[0].MatchedEntities != nil {
		matched := make(ir.Array, len(rows[0].MatchedEntities))
		for i, m := range rows[0].MatchedEntities {
			matched[i] = m
		}
		out[keyMatchedEntities] = matched
	}
	return formatter.Value(out, runID)
}
