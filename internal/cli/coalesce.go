package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/siblingmerge/internal/coalesce"
	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/store"
)

// CoalesceOptions holds flags for the coalesce command.
type CoalesceOptions struct {
	*RootOptions
	Database string
}

// NewCoalesceCommand creates the coalesce command.
func NewCoalesceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoalesceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "coalesce <file>",
		Short: "Fold a record with its siblings",
		Long: `Coalesce one record with the siblings listed in its "siblings" field.
The result keeps the identity of the input record.

With --db, sibling entries that carry only an identity are loaded from
the store before merging.

Example:
  siblingmerge coalesce ./dataset.json
  siblingmerge coalesce --db ./catalog.db ./dataset.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCoalesce(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for resolving sibling references")
	return cmd
}

func runCoalesce(cmd *cobra.Command, opts *CoalesceOptions, path string) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	ctx := commandContext(cmd)

	record, err := readRecord(path)
	if err != nil {
		return fail(formatter, ExitCommandError, "failed to read record", err)
	}

	var extra []coalesce.Option
	if opts.Database != "" {
		st, err := openStore(opts.RootOptions, opts.Database)
		if err != nil {
			return fail(formatter, ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		arena, err := arenaFor(ctx, opts.RootOptions, st, []ir.Object{record})
		if err != nil {
			return fail(formatter, ExitCommandError, "failed to load siblings", err)
		}
		extra = append(extra, coalesce.WithResolver(arena))
	}

	c, err := newCoalescer(opts.RootOptions, extra...)
	if err != nil {
		return fail(formatter, ExitCommandError, "failed to load strategies", err)
	}
	return formatter.Value(c.Coalesce(record), "")
}

// openStore opens the database at path with the configured identity field.
func openStore(opts *RootOptions, path string) (*store.Store, error) {
	st, err := store.Open(path, store.WithIdentityField(opts.IdentityField))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	return st, nil
}

// arenaFor loads from the store the sibling groups of every record and of
// every sibling they list.
func arenaFor(ctx context.Context, opts *RootOptions, st *store.Store, records []ir.Object) (*coalesce.Arena, error) {
	var ids []string
	for _, rec := range records {
		if id := ir.Identity(rec, opts.IdentityField); id != "" {
			ids = append(ids, id)
		}
		if sg, ok := ir.SiblingGroupOf(rec); ok {
			for _, sib := range sg.Siblings {
				if id := ir.Identity(sib, opts.IdentityField); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}

	arena, err := st.LoadArena(ctx, ids...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	opts.Logger().Debug("loaded sibling arena", "records", arena.Len(), "roots", len(ids))
	return arena, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
