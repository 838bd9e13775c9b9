package sqlite

import (
	"context"
	"time"

	"github.com/tutu-network/focusera/internal/domain"
)

// ─── Planner Tasks ──────────────────────────────────────────────────────────

// PutTask inserts or replaces a task.
func (d *DB) PutTask(ctx context.Context, userID string, t domain.Task) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, text, due_date, priority, done, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			text=excluded.text,
			due_date=excluded.due_date,
			priority=excluded.priority,
			done=excluded.done`,
		t.ID, userID, t.Text, t.DueDate, string(t.Priority), t.Done, createdAt.Unix(),
	)
	return err
}

// ListTasks returns a user's tasks in creation order.
func (d *DB) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, text, due_date, priority, done, created_at
		 FROM tasks WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Text, &t.DueDate, &t.Priority, &t.Done, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = time.Unix(createdAt, 0)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// DeleteTask removes one of a user's tasks.
func (d *DB) DeleteTask(ctx context.Context, userID, taskID string) error {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
