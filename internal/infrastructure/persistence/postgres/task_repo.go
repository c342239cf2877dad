package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
)

// TaskRepository implements task.Repository for PostgreSQL.
type TaskRepository struct {
	conn *Connection
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(conn *Connection) *TaskRepository {
	return &TaskRepository{conn: conn}
}

// Create persists a new task.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, due_date, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		t.ID, t.UserID, t.Title, t.DueDate, t.Completed, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update persists changes to an existing task.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks SET title = $1, due_date = $2, completed = $3
		WHERE id = $4
	`

	result, err := r.conn.Exec(ctx, query, t.Title, t.DueDate, t.Completed, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by ID.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

// GetByID returns a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	query := `
		SELECT id, user_id, title, due_date, completed, created_at
		FROM tasks
		WHERE id = $1
	`

	var t task.Task
	var due *time.Time
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.Title, &due, &t.Completed, &t.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	t.DueDate = due
	return &t, nil
}

// ListDueOn returns every user's pending tasks due on the given day.
// Used by the daily reminder job.
func (r *TaskRepository) ListDueOn(ctx context.Context, day time.Time) ([]*task.Task, error) {
	query := `
		SELECT id, user_id, title, due_date, completed, created_at
		FROM tasks
		WHERE completed = FALSE AND due_date = $1::date
	`

	rows, err := r.conn.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		var t task.Task
		var due *time.Time
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &due, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.DueDate = due
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// ListByUser returns all tasks owned by the user.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]*task.Task, error) {
	query := `
		SELECT id, user_id, title, due_date, completed, created_at
		FROM tasks
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		var t task.Task
		var due *time.Time
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &due, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.DueDate = due
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}
