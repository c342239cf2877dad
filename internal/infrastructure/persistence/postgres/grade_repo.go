package postgres

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/grade"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// GradeRepository implements grade.Repository for PostgreSQL.
type GradeRepository struct {
	conn *Connection
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(conn *Connection) *GradeRepository {
	return &GradeRepository{conn: conn}
}

// Create persists a new grade record.
func (r *GradeRepository) Create(ctx context.Context, rec *grade.Record) error {
	query := `
		INSERT INTO grades (id, user_id, semester, subject, credits, grade, point, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID, rec.UserID, rec.Semester, rec.Subject, rec.Credits,
		string(rec.Grade), rec.Point, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create grade record: %w", err)
	}
	return nil
}

// Delete removes a grade record by ID.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grade record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrGradeNotFound
	}
	return nil
}

// GetByID returns a grade record by ID.
func (r *GradeRepository) GetByID(ctx context.Context, id string) (*grade.Record, error) {
	query := `
		SELECT id, user_id, semester, subject, credits, grade, point, created_at
		FROM grades
		WHERE id = $1
	`

	var rec grade.Record
	var letter string
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.UserID, &rec.Semester, &rec.Subject, &rec.Credits,
		&letter, &rec.Point, &rec.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrGradeNotFound
		}
		return nil, fmt.Errorf("failed to get grade record: %w", err)
	}
	rec.Grade = grade.Letter(letter)
	return &rec, nil
}

// ListByUser returns all grade records owned by the user.
func (r *GradeRepository) ListByUser(ctx context.Context, userID string) ([]*grade.Record, error) {
	query := `
		SELECT id, user_id, semester, subject, credits, grade, point, created_at
		FROM grades
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grade records: %w", err)
	}
	defer rows.Close()

	var records []*grade.Record
	for rows.Next() {
		var rec grade.Record
		var letter string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Semester, &rec.Subject, &rec.Credits,
			&letter, &rec.Point, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grade record: %w", err)
		}
		rec.Grade = grade.Letter(letter)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
