package postgres

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/schedule"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ScheduleRepository implements schedule.Repository for PostgreSQL.
type ScheduleRepository struct {
	conn *Connection
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(conn *Connection) *ScheduleRepository {
	return &ScheduleRepository{conn: conn}
}

// Create persists a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, e *schedule.Entry) error {
	query := `
		INSERT INTO schedule_entries (id, user_id, day, subject, time_range, venue, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		e.ID, e.UserID, string(e.Day), e.Subject, e.TimeRange, e.Venue, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule entry: %w", err)
	}
	return nil
}

// Delete removes a schedule entry by ID.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrClassNotFound
	}
	return nil
}

// GetByID returns a schedule entry by ID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.Entry, error) {
	query := `
		SELECT id, user_id, day, subject, time_range, venue, created_at
		FROM schedule_entries
		WHERE id = $1
	`

	var e schedule.Entry
	var day string
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.UserID, &day, &e.Subject, &e.TimeRange, &e.Venue, &e.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to get schedule entry: %w", err)
	}
	e.Day = schedule.Day(day)
	return &e, nil
}

// ListByUser returns all schedule entries owned by the user.
func (r *ScheduleRepository) ListByUser(ctx context.Context, userID string) ([]*schedule.Entry, error) {
	query := `
		SELECT id, user_id, day, subject, time_range, venue, created_at
		FROM schedule_entries
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []*schedule.Entry
	for rows.Next() {
		var e schedule.Entry
		var day string
		if err := rows.Scan(&e.ID, &e.UserID, &day, &e.Subject, &e.TimeRange, &e.Venue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.Day = schedule.Day(day)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
