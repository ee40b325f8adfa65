package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/actioncore/internal/journal"
)

// ErrInvalidLimit is returned when a listing is asked for fewer than one row.
var ErrInvalidLimit = errors.New("limit must be >= 1")

// JournalRepository persists encounter events in the encounter_events table.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// RecordEvent inserts rec. Re-inserting an existing ID is a no-op.
//
// Precondition: rec.ID must be non-nil and rec.Event non-empty.
// Postcondition: Returns nil once the row exists.
func (r *JournalRepository) RecordEvent(ctx context.Context, rec journal.Record) error {
	data := rec.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO encounter_events (id, scene_id, event, subject_id, subject_kind, occurred_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.SceneID, rec.Event, rec.SubjectID, rec.SubjectKind, rec.At, data,
	)
	if err != nil {
		return fmt.Errorf("inserting encounter event %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit events for sceneID, newest first.
//
// Precondition: limit >= 1.
// Postcondition: Returns an empty slice, not an error, when nothing matches.
func (r *JournalRepository) Recent(ctx context.Context, sceneID string, limit int) ([]journal.Record, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, scene_id, event, subject_id, subject_kind, occurred_at, data
		 FROM encounter_events
		 WHERE scene_id = $1
		 ORDER BY occurred_at DESC, id
		 LIMIT $2`,
		sceneID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying encounter events: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (journal.Record, error) {
		var rec journal.Record
		err := row.Scan(&rec.ID, &rec.SceneID, &rec.Event, &rec.SubjectID, &rec.SubjectKind, &rec.At, &rec.Data)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning encounter events: %w", err)
	}
	return recs, nil
}

// CountByEvent returns how many events named name were recorded in sceneID.
func (r *JournalRepository) CountByEvent(ctx context.Context, sceneID, name string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter_events WHERE scene_id = $1 AND event = $2`,
		sceneID, name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting encounter events: %w", err)
	}
	return n, nil
}
