package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/siblingmerge/internal/ir"
)

// Record is one stored record row.
type Record struct {
	ID   string
	Type string
	Body ir.Object
	Hash string
	Seq  int64
}

// PutRecord stores obj under its identity, replacing an existing row only
// when the content hash changed. written reports whether a row was written.
//
// Every sibling the record lists is linked in both directions. Siblings
// listed as full records are stored too when the store does not yet hold a
// row for them; identity-only references are only linked.
func (s *Store) PutRecord(ctx context.Context, obj ir.Object) (written bool, err error) {
	id := ir.Identity(obj, s.identityField)
	if id == "" {
		return false, fmt.Errorf("put record: missing %q identity", s.identityField)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("put record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("put record: %w", err)
	}

	written, err = s.upsertRecord(ctx, tx, id, obj, seq)
	if err != nil {
		return false, fmt.Errorf("put record %s: %w", id, err)
	}

	if sg, ok := ir.SiblingGroupOf(obj); ok {
		for _, sib := range sg.Siblings {
			sibID := ir.Identity(sib, s.identityField)
			if sibID == "" || sibID == id {
				continue
			}
			if !ir.IsReference(sib, s.identityField) {
				if err := s.insertRecordIfAbsent(ctx, tx, sibID, sib, seq); err != nil {
					return false, fmt.Errorf("put record %s: sibling %s: %w", id, sibID, err)
				}
			}
			if err := linkSiblings(ctx, tx, id, sibID, seq); err != nil {
				return false, fmt.Errorf("put record %s: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("put record: commit: %w", err)
	}
	return written, nil
}

// nextSeq returns the next logical clock value across all seq columns.
func nextSeq(ctx context.Context, tx *sql.Tx) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM records),
			(SELECT COALESCE(MAX(seq), 0) FROM sibling_edges),
			(SELECT COALESCE(MAX(seq), 0) FROM runs)
		) + 1
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

func (s *Store) upsertRecord(ctx context.Context, tx *sql.Tx, id string, obj ir.Object, seq int64) (bool, error) {
	hash, err := ir.RecordHash(obj)
	if err != nil {
		return false, err
	}

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT content_hash FROM records WHERE id = ?`, id).Scan(&existing)
	switch {
	case err == nil && existing == hash:
		return false, nil
	case err != nil && err != sql.ErrNoRows:
		return false, fmt.Errorf("read hash: %w", err)
	}

	body, err := marshalRecord(obj)
	if err != nil {
		return false, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, entity_type, body, content_hash, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity_type = excluded.entity_type,
			body = excluded.body,
			content_hash = excluded.content_hash,
			seq = excluded.seq
	`, id, entityType(obj), body, hash, seq)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return true, nil
}

func (s *Store) insertRecordIfAbsent(ctx context.Context, tx *sql.Tx, id string, obj ir.Object, seq int64) error {
	hash, err := ir.RecordHash(obj)
	if err != nil {
		return err
	}
	body, err := marshalRecord(obj)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, entity_type, body, content_hash, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, entityType(obj), body, hash, seq)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func linkSiblings(ctx context.Context, tx *sql.Tx, a, b string, seq int64) error {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sibling_edges (from_id, to_id, seq)
			VALUES (?, ?, ?)
			ON CONFLICT(from_id, to_id) DO NOTHING
		`, pair[0], pair[1], seq)
		if err != nil {
			return fmt.Errorf("link %s -> %s: %w", pair[0], pair[1], err)
		}
	}
	return nil
}

func entityType(obj ir.Object) string {
	s, _ := obj[ir.FieldType].(ir.String)
	return string(s)
}
