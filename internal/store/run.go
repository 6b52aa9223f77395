package store

import (
	"context"
	"fmt"

	"github.com/roach88/siblingmerge/internal/ir"
)

// Run is one persisted batch coalesce.
type Run struct {
	ID string
	// StrategiesHash identifies the strategy table the run merged with.
	StrategiesHash string
	Seq            int64
	Results        []RunResult
}

// RunResult is one emitted row of a run, in emission order.
type RunResult struct {
	EntityID string
	Entity   ir.Object
	Matched  []ir.Object
}

// WriteRun persists a run and its results in one transaction. A run with an
// empty ID gets one from the store's RunIDGenerator. Returns the run as
// stored, with ID and Seq filled in.
func (s *Store) WriteRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = s.runIDs.Generate()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	run.Seq = seq

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, strategies_hash, seq)
		VALUES (?, ?, ?)
	`, run.ID, run.StrategiesHash, run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run %s: %w", run.ID, err)
	}

	for i, res := range run.Results {
		body, err := marshalRecord(res.Entity)
		if err != nil {
			return Run{}, fmt.Errorf("write run %s: result %d: %w", run.ID, i, err)
		}
		matched := "null"
		if res.Matched != nil {
			if matched, err = marshalRecords(res.Matched); err != nil {
				return Run{}, fmt.Errorf("write run %s: result %d: %w", run.ID, i, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_results (run_id, position, entity_id, body, matched)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, res.EntityID, body, matched); err != nil {
			return Run{}, fmt.Errorf("write run %s: result %d: %w", run.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

// ReadRun retrieves a run and its results in emission order.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, strategies_hash, seq
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.StrategiesHash, &run.Seq)
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, body, matched
		FROM run_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	run.Results = []RunResult{}
	for rows.Next() {
		var res RunResult
		var body, matched string
		if err := rows.Scan(&res.EntityID, &body, &matched); err != nil {
			return Run{}, fmt.Errorf("scan run result: %w", err)
		}
		if res.Entity, err = unmarshalRecord(body); err != nil {
			return Run{}, fmt.Errorf("run %s: %w", id, err)
		}
		if res.Matched, err = unmarshalRecords(matched); err != nil {
			return Run{}, fmt.Errorf("run %s: %w", id, err)
		}
		run.Results = append(run.Results, res)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate run results: %w", err)
	}
	return run, nil
}
