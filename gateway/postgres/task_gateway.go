package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/gateway"
)

type taskGateway struct {
	pool *pgxpool.Pool
}

// NewTaskGateway returns a Postgres-backed implementation of TaskGateway.
func NewTaskGateway(pool *pgxpool.Pool) gateway.TaskGateway {
	return &taskGateway{pool: pool}
}

func (g *taskGateway) FetchAll(ctx context.Context) ([]domain.Task, error) {
	const taskQuery = `
	SELECT id, title, description, priority, status, due_date, reminder_time, created_at
	FROM tasks
	ORDER BY position ASC
	`
	rows, err := g.pool.Query(ctx, taskQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	index := make(map[string]int)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status,
			&t.DueDate, &t.ReminderTime, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Subtasks = []domain.Subtask{}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const subtaskQuery = `
	SELECT id, task_id, title, completed
	FROM subtasks
	ORDER BY created_at ASC
	`
	subRows, err := g.pool.Query(ctx, subtaskQuery)
	if err != nil {
		return nil, err
	}
	defer subRows.Close()

	for subRows.Next() {
		var (
			sub    domain.Subtask
			taskID string
		)
		if err := subRows.Scan(&sub.ID, &taskID, &sub.Title, &sub.Completed); err != nil {
			return nil, err
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Subtasks = append(tasks[i].Subtasks, sub)
		}
	}
	return tasks, subRows.Err()
}

func (g *taskGateway) Create(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO tasks (id, title, description, priority, status, due_date, reminder_time, created_at, position)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
		(SELECT COALESCE(MAX(position) + 1, 0) FROM tasks))
	`
	_, err := g.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
		task.ReminderTime,
		task.CreatedAt,
	)
	return err
}

func (g *taskGateway) Update(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		priority = $4,
		status = $5,
		due_date = $6,
		reminder_time = $7,
		updated_at = NOW()
	WHERE id = $1
	RETURNING id
	`
	var id string
	if err := g.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
		task.ReminderTime,
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (g *taskGateway) Delete(ctx context.Context, id string) error {
	// Subtasks cascade via the FK constraint.
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := g.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (g *taskGateway) AddSubtask(ctx context.Context, taskID string, sub domain.Subtask) error {
	if taskID == "" || sub.ID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO subtasks (id, task_id, title, completed)
	VALUES ($1, $2, $3, $4)
	`
	_, err := g.pool.Exec(ctx, query, sub.ID, taskID, sub.Title, sub.Completed)
	return err
}

func (g *taskGateway) UpdateSubtask(ctx context.Context, sub domain.Subtask) error {
	const query = `
	UPDATE subtasks
	SET title = $2, completed = $3
	WHERE id = $1
	`
	tag, err := g.pool.Exec(ctx, query, sub.ID, sub.Title, sub.Completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubtaskNotFound
	}
	return nil
}

func (g *taskGateway) DeleteSubtask(ctx context.Context, subID string) error {
	const query = `DELETE FROM subtasks WHERE id = $1`
	tag, err := g.pool.Exec(ctx, query, subID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubtaskNotFound
	}
	return nil
}

// SaveOrder rewrites every task's position in one transaction so a torn batch
// can never be observed by FetchAll.
func (g *taskGateway) SaveOrder(ctx context.Context, ids []string) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `UPDATE tasks SET position = $2 WHERE id = $1`
	batch := &pgx.Batch{}
	for position, id := range ids {
		batch.Queue(query, id, position)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
