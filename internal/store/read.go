package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/siblingmerge/internal/coalesce"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var body string
	if err := row.Scan(&rec.ID, &rec.Type, &body, &rec.Hash, &rec.Seq); err != nil {
		return Record{}, err
	}
	obj, err := unmarshalRecord(body)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Body = obj
	return rec, nil
}

// GetRecord retrieves a single record by identity.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entity_type, body, content_hash, seq
		FROM records
		WHERE id = ?
	`, id)
	return scanRecord(row)
}

// ListRecords returns all records ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if the store holds no records.
func (s *Store) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, body, content_hash, seq
		FROM records
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// SiblingIDs returns the direct sibling identities of id, sorted.
func (s *Store) SiblingIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_id
		FROM sibling_edges
		WHERE from_id = ?
		ORDER BY to_id COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query siblings of %s: %w", id, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var sib string
		if err := rows.Scan(&sib); err != nil {
			return nil, fmt.Errorf("scan sibling: %w", err)
		}
		ids = append(ids, sib)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate siblings: %w", err)
	}
	return ids, nil
}

// LoadArena loads the sibling groups of ids into an arena: every record
// reachable through sibling edges, plus the edges themselves. Identities
// with no stored record are linked but not added.
func (s *Store) LoadArena(ctx context.Context, ids ...string) (*coalesce.Arena, error) {
	arena := coalesce.NewArena(s.identityField)

	visited := make(map[string]bool, len(ids))
	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}

	for i := 0; i < len(queue); i++ {
		id := queue[i]

		rec, err := s.GetRecord(ctx, id)
		switch {
		case err == nil:
			if err := arena.Add(rec.Body); err != nil {
				return nil, fmt.Errorf("load arena: %w", err)
			}
		case err != sql.ErrNoRows:
			return nil, fmt.Errorf("load arena: %s: %w", id, err)
		}

		siblings, err := s.SiblingIDs(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load arena: %w", err)
		}
		for _, sib := range siblings {
			arena.Link(id, sib)
			if !visited[sib] {
				visited[sib] = true
				queue = append(queue, sib)
			}
		}
	}
	return arena, nil
}
