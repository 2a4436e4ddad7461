package pgworkshop

import (
	"context"
	"time"

	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const callbackCols = `
  id, customer_id, customer_name, phone_number, subject, details, priority,
  assigned_to, status, related_task_id, requested_at, completed_at, notes,
  deleted_at, delete_expires_at`

func scanCallback(row scanner) (*models.CallbackRequest, error) {
	var cb models.CallbackRequest
	if err := row.Scan(
		&cb.ID, &cb.CustomerID, &cb.CustomerName, &cb.PhoneNumber, &cb.Subject, &cb.Details, &cb.Priority,
		&cb.AssignedTo, &cb.Status, &cb.RelatedTaskID, &cb.RequestedAt, &cb.CompletedAt, &cb.Notes,
		&cb.DeletedAt, &cb.DeleteExpiresAt,
	); err != nil {
		return nil, err
	}
	return &cb, nil
}

// CreateCallbackWithTask inserts the callback, its companion task pointing
// back at it, and links the task id on the callback, all in one transaction.
func (s *Storage) CreateCallbackWithTask(ctx context.Context, cb *models.CallbackRequest, task *models.Task) (*models.CallbackRequest, *models.Task, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO callback_requests (
  customer_id, customer_name, phone_number, subject, details, priority,
  assigned_to, status, requested_at, notes
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id
`, cb.CustomerID, cb.CustomerName, cb.PhoneNumber, cb.Subject, cb.Details, cb.Priority,
		cb.AssignedTo, cb.Status, cb.RequestedAt.UTC(), cb.Notes).Scan(&id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "insert callback")
	}

	t := *task
	relType := models.EntityCallback
	t.RelatedEntityType = &relType
	t.RelatedEntityID = &id
	createdTask, err := insertTask(ctx, tx, &t)
	if err != nil {
		return nil, nil, err
	}

	created, err := scanCallback(tx.QueryRow(ctx, `
UPDATE callback_requests SET related_task_id = $2 WHERE id = $1
RETURNING`+callbackCols, id, createdTask.ID))
	if err != nil {
		return nil, nil, errors.Wrap(err, "link callback task")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "commit tx")
	}
	return created, createdTask, nil
}

func (s *Storage) GetCallback(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	cb, err := scanCallback(s.db.QueryRow(ctx, `SELECT`+callbackCols+` FROM callback_requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, models.EntityCallback, id, "select callback")
	}
	return cb, nil
}

func (s *Storage) ListCallbacks(ctx context.Context, f models.CallbackFilter) ([]*models.CallbackRequest, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+callbackCols+`
FROM callback_requests
WHERE ($1::TEXT IS NULL OR status = $1)
  AND ($2::BIGINT IS NULL OR assigned_to = $2)
ORDER BY requested_at DESC, id DESC
`, f.Status, f.AssignedTo)
	if err != nil {
		return nil, errors.Wrap(err, "select callbacks")
	}
	defer rows.Close()

	out := []*models.CallbackRequest{}
	for rows.Next() {
		cb, err := scanCallback(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan callback")
		}
		out = append(out, cb)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// CompleteCallback completes a pending callback and, in the same transaction,
// its related task (unless already completed) and the optional follow-up task.
func (s *Storage) CompleteCallback(ctx context.Context, c models.CallbackCompletion) (*models.CallbackCompletionResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	at := c.CompletedAt.UTC()
	cb, err := scanCallback(tx.QueryRow(ctx, `
UPDATE callback_requests
SET status = 'completed', completed_at = $2, notes = COALESCE($3, notes)
WHERE id = $1 AND status = 'pending'
RETURNING`+callbackCols, c.ID, at, c.Notes))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, staleWrite(ctx, tx, "callback_requests", models.EntityCallback, c.ID, string(models.CallbackStatusPending))
	}
	if err != nil {
		return nil, errors.Wrap(err, "complete callback")
	}
	res := &models.CallbackCompletionResult{Callback: cb}

	if cb.RelatedTaskID != nil {
		// нет строки: задача уже была завершена или удалена
		t, err := scanTask(tx.QueryRow(ctx, `
UPDATE tasks SET status = 'completed', completed_at = $2
WHERE id = $1 AND status <> 'completed'
RETURNING`+taskCols, *cb.RelatedTaskID, at))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return nil, errors.Wrap(err, "complete related task")
		default:
			res.CompletedTask = t
		}
	}

	if c.FollowUp != nil {
		res.FollowUp, err = insertTask(ctx, tx, c.FollowUp)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return res, nil
}

func (s *Storage) SoftDeleteCallback(ctx context.Context, id int64, deletedAt, expiresAt time.Time) (*models.CallbackRequest, error) {
	cb, err := scanCallback(s.db.QueryRow(ctx, `
UPDATE callback_requests
SET status = 'deleted', deleted_at = $2, delete_expires_at = $3
WHERE id = $1 AND status = 'pending'
RETURNING`+callbackCols, id, deletedAt.UTC(), expiresAt.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, staleWrite(ctx, s.db, "callback_requests", models.EntityCallback, id, string(models.CallbackStatusPending))
	}
	if err != nil {
		return nil, errors.Wrap(err, "soft delete callback")
	}
	return cb, nil
}

func (s *Storage) RestoreCallback(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	cb, err := scanCallback(s.db.QueryRow(ctx, `
UPDATE callback_requests
SET status = 'pending', deleted_at = NULL, delete_expires_at = NULL
WHERE id = $1 AND status = 'deleted'
RETURNING`+callbackCols, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, staleWrite(ctx, s.db, "callback_requests", models.EntityCallback, id, string(models.CallbackStatusDeleted))
	}
	if err != nil {
		return nil, errors.Wrap(err, "restore callback")
	}
	return cb, nil
}

// PurgeExpiredCallbacks is a single conditional delete, so a concurrent
// restore either lands first (row survives) or finds nothing to restore.
func (s *Storage) PurgeExpiredCallbacks(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
DELETE FROM callback_requests
WHERE status = 'deleted' AND delete_expires_at < $1
`, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purge callbacks")
	}
	return tag.RowsAffected(), nil
}
