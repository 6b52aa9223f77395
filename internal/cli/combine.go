package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/siblingmerge/internal/coalesce"
	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/store"
)

// Search result keys.
const (
	keyEntity          = "entity"
	keyMatchedEntities = "matchedEntities"
)

// CombineOptions holds flags for the combine command.
type CombineOptions struct {
	*RootOptions
	Database string
}

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CombineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "combine <file>",
		Short: "Coalesce a page of search results, one row per sibling group",
		Long: `Read a JSON or YAML array of search results, each an object with an
"entity" record plus any other keys (such as "matchedFields"). Results whose
entity was already folded into an earlier row are dropped; every other row
gets its coalesced entity and a "matchedEntities" list. Extra keys are
carried through unchanged.

With --db, identity-only sibling references are resolved from the store
and the run is recorded.

Example:
  siblingmerge combine ./search-page.json
  siblingmerge combine --db ./catalog.db --format json ./search-page.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (resolve references and record the run)")
	return cmd
}

func runCombine(cmd *cobra.Command, opts *CombineOptions, path string) error {
	formatter := newFormatter(cmd, opts.RootOptions)
	ctx := commandContext(cmd)

	rows, err := readRecords(path)
	if err != nil {
		return fail(formatter, ExitCommandError, "failed to read search results", err)
	}
	results, err := splitResults(rows)
	if err != nil {
		return fail(formatter, ExitCommandError, "invalid search results", err)
	}

	var (
		extra []coalesce.Option
		st    *store.Store
	)
	if opts.Database != "" {
		st, err = openStore(opts.RootOptions, opts.Database)
		if err != nil {
			return fail(formatter, ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		entities := make([]ir.Object, len(results))
		for i, r := range results {
			entities[i] = r.Entity
		}
		arena, err := arenaFor(ctx, opts.RootOptions, st, entities)
		if err != nil {
			return fail(formatter, ExitCommandError, "failed to load siblings", err)
		}
		extra = append(extra, coalesce.WithResolver(arena))
	}

	c, err := newCoalescer(opts.RootOptions, extra...)
	if err != nil {
		return fail(formatter, ExitCommandError, "failed to load strategies", err)
	}

	combined := coalesce.CoalesceMany(c, results)
	formatter.VerboseLog("combined %d results into %d rows", len(results), len(combined))

	var runID string
	if st != nil {
		run, err := recordRun(ctx, opts.RootOptions, st, c, combined)
		if err != nil {
			return fail(formatter, ExitFailure, "failed to record run", err)
		}
		runID = run.ID
	}

	out := make(ir.Array, len(combined))
	for i, row := range combined {
		out[i] = joinResult(row)
	}
	return formatter.Value(out, runID)
}

// splitResults separates each row's entity from its sidecar keys.
func splitResults(rows []ir.Object) ([]coalesce.Result[ir.Object], error) {
	results := make([]coalesce.Result[ir.Object], 0, len(rows))
	for i, row := range rows {
		entity, ok := row[keyEntity].(ir.Object)
		if !ok {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("result [%d] has no %q record", i, keyEntity)}
		}
		sidecar := make(ir.Object, len(row))
		for k, v := range row {
			if k != keyEntity && k != keyMatchedEntities {
				sidecar[k] = v
			}
		}
		results = append(results, coalesce.Result[ir.Object]{Entity: entity, Sidecar: sidecar})
	}
	return results, nil
}

// joinResult renders a combined row back into the search result shape.
func joinResult(row coalesce.CombinedResult[ir.Object]) ir.Object {
	out := make(ir.Object, len(row.Sidecar)+2)
	for k, v := range row.Sidecar {
		out[k] = v
	}
	out[keyEntity] = row.Entity
	if row.MatchedEntities != nil {
		matched := make(ir.Array, len(row.MatchedEntities))
		for i, m := range row.MatchedEntities {
			matched[i] = m
		}
		out[keyMatchedEntities] = matched
	}
	return out
}

// recordRun persists a batch result.
func recordRun[S any](ctx context.Context, opts *RootOptions, st *store.Store, c *coalesce.Coalescer, rows []coalesce.CombinedResult[S]) (store.Run, error) {
	hash, err := strategiesHash(c)
	if err != nil {
		return store.Run{}, err
	}

	run := store.Run{StrategiesHash: hash, Results: make([]store.RunResult, len(rows))}
	for i, row := range rows {
		run.Results[i] = store.RunResult{
			EntityID: ir.Identity(row.Entity, c.IdentityField()),
			Entity:   row.Entity,
			Matched:  row.MatchedEntities,
		}
	}

	written, err := st.WriteRun(ctx, run)
	if err != nil {
		return store.Run{}, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	opts.Logger().Info("recorded run", "run_id", written.ID, "rows", len(rows))
	return written, nil
}
