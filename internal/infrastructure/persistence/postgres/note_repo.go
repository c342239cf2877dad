package postgres

import (
	"context"
	"fmt"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// NoteRepository implements note.Repository for PostgreSQL.
type NoteRepository struct {
	conn *Connection
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(conn *Connection) *NoteRepository {
	return &NoteRepository{conn: conn}
}

// Create persists a new note.
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	query := `
		INSERT INTO notes (id, user_id, title, content, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		n.ID, n.UserID, n.Title, n.Content, n.Color, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Update persists changes to an existing note.
func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	query := `
		UPDATE notes SET title = $1, content = $2, color = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.conn.Exec(ctx, query, n.Title, n.Content, n.Color, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrNoteNotFound
	}
	return nil
}

// Delete removes a note by ID.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrNoteNotFound
	}
	return nil
}

// GetByID returns a note by ID.
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*note.Note, error) {
	query := `
		SELECT id, user_id, title, content, color, created_at, updated_at
		FROM notes
		WHERE id = $1
	`

	var n note.Note
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &n, nil
}

// ListByUser returns all notes owned by the user.
func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]*note.Note, error) {
	query := `
		SELECT id, user_id, title, content, color, created_at, updated_at
		FROM notes
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*note.Note
	for rows.Next() {
		var n note.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}
