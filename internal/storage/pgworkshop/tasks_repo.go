package pgworkshop

import (
	"context"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const taskCols = `
  id, title, description, priority, status, assigned_to, due_date,
  related_entity_type, related_entity_id, created_at, completed_at`

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.AssignedTo, &t.DueDate,
		&t.RelatedEntityType, &t.RelatedEntityID, &t.CreatedAt, &t.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func insertTask(ctx context.Context, q querier, t *models.Task) (*models.Task, error) {
	out, err := scanTask(q.QueryRow(ctx, `
INSERT INTO tasks (
  title, description, priority, status, assigned_to, due_date,
  related_entity_type, related_entity_id, created_at, completed_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING`+taskCols,
		t.Title, t.Description, t.Priority, t.Status, t.AssignedTo, t.DueDate,
		t.RelatedEntityType, t.RelatedEntityID, t.CreatedAt.UTC(), t.CompletedAt))
	if err != nil {
		return nil, errors.Wrap(err, "insert task")
	}
	return out, nil
}

func (s *Storage) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	return insertTask(ctx, s.db, t)
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx, `SELECT`+taskCols+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, models.EntityTask, id, "select task")
	}
	return t, nil
}

func (s *Storage) ListTasks(ctx context.Context, f models.TaskFilter) ([]*models.Task, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+taskCols+`
FROM tasks
WHERE ($1::BIGINT IS NULL OR assigned_to = $1)
  AND ($2::TEXT IS NULL OR status = $2)
  AND ($3::TEXT IS NULL OR related_entity_type = $3)
  AND ($4::BIGINT IS NULL OR related_entity_id = $4)
ORDER BY id DESC
`, f.AssignedTo, f.Status, f.RelatedEntityType, f.RelatedEntityID)
	if err != nil {
		return nil, errors.Wrap(err, "select tasks")
	}
	defer rows.Close()

	out := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan task")
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdateTask overwrites the mutable task fields if the row is still in status expect.
func (s *Storage) UpdateTask(ctx context.Context, t *models.Task, expect models.TaskStatus) (*models.Task, error) {
	out, err := scanTask(s.db.QueryRow(ctx, `
UPDATE tasks
SET
  title = $3,
  description = $4,
  priority = $5,
  status = $6,
  assigned_to = $7,
  due_date = $8,
  completed_at = $9
WHERE id = $1 AND status = $2
RETURNING`+taskCols,
		t.ID, expect, t.Title, t.Description, t.Priority, t.Status, t.AssignedTo, t.DueDate, t.CompletedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, staleWrite(ctx, s.db, "tasks", models.EntityTask, t.ID, string(expect))
	}
	if err != nil {
		return nil, errors.Wrap(err, "update task")
	}
	return out, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete task")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(models.EntityTask, id)
	}
	return nil
}
