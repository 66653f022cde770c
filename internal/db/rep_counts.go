package db

import (
	"context"
	"fmt"
)

// LoadRepCounts returns the persisted exercise → count map.
func (db *DB) LoadRepCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT exercise, count FROM rep_counts`)
	if err != nil {
		return nil, fmt.Errorf("query rep counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var exercise string
		var n int
		if err := rows.Scan(&exercise, &n); err != nil {
			return nil, fmt.Errorf("scan rep count: %w", err)
		}
		counts[exercise] = n
	}
	return counts, rows.Err()
}

// SaveRepCounts rewrites the whole count map in one transaction. Exercises
// missing from counts are removed.
func (db *DB) SaveRepCounts(ctx context.Context, counts map[string]int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rep_counts`); err != nil {
		return fmt.Errorf("clear rep counts: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rep_counts (exercise, count, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for exercise, n := range counts {
		if _, err := stmt.ExecContext(ctx, exercise, n); err != nil {
			return fmt.Errorf("insert %s: %w", exercise, err)
		}
	}
	return tx.Commit()
}
