package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arcticalls/arcticalls/internal/models"
)

var ErrCallRecordNotFound = errors.New("call record not found")

// CallRecordRepository handles database operations for the call history.
// Records are insert-only; a terminated call is never rewritten.
type CallRecordRepository struct {
	db *sql.DB
}

// NewCallRecordRepository creates a new CallRecordRepository
func NewCallRecordRepository(db *sql.DB) *CallRecordRepository {
	return &CallRecordRepository{db: db}
}

// Create inserts a new call record
func (r *CallRecordRepository) Create(ctx context.Context, rec *models.CallRecord) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO recents (phone, display_name, contact_id, direction, duration_seconds, started_at, ended_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Phone, rec.DisplayName, rec.ContactID, rec.Direction, rec.DurationSeconds, rec.StartedAt, rec.EndedAt, rec.Status)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// GetByID retrieves a call record by ID
func (r *CallRecordRepository) GetByID(ctx context.Context, id int64) (*models.CallRecord, error) {
	rec := &models.CallRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, phone, display_name, contact_id, direction, duration_seconds, started_at, ended_at, status
		FROM recents WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Phone, &rec.DisplayName, &rec.ContactID, &rec.Direction, &rec.DurationSeconds, &rec.StartedAt, &rec.EndedAt, &rec.Status)
	if err == sql.ErrNoRows {
		return nil, ErrCallRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the most recent call records by start time descending,
// bounded to limit entries.
func (r *CallRecordRepository) List(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, phone, display_name, contact_id, direction, duration_seconds, started_at, ended_at, status
		FROM recents ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.CallRecord
	for rows.Next() {
		rec := &models.CallRecord{}
		if err := rows.Scan(&rec.ID, &rec.Phone, &rec.DisplayName, &rec.ContactID, &rec.Direction, &rec.DurationSeconds, &rec.StartedAt, &rec.EndedAt, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the total number of call records
func (r *CallRecordRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recents`).Scan(&count)
	return count, err
}
