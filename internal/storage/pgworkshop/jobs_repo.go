package pgworkshop

import (
	"context"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const jobCols = `
  id, job_ref, customer_id, equipment_id, assigned_to,
  description, status, estimated_hours, actual_hours, customer_notified,
  created_at, updated_at, completed_at`

func scanJob(row scanner) (*models.Job, error) {
	var j models.Job
	if err := row.Scan(
		&j.ID, &j.JobID, &j.CustomerID, &j.EquipmentID, &j.AssignedTo,
		&j.Description, &j.Status, &j.EstimatedHours, &j.ActualHours, &j.CustomerNotified,
		&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

// staleWrite explains why a conditional update touched no rows.
func staleWrite(ctx context.Context, q querier, table, entity string, id int64, expected string) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM `+table+` WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return notFound(err, entity, id, "select "+entity+" status")
	}
	return apperr.InvalidState(entity, id, "%s %d is %s, expected %s", entity, id, status, expected)
}

func (s *Storage) CreateJob(ctx context.Context, j *models.Job) (*models.Job, error) {
	out, err := scanJob(s.db.QueryRow(ctx, `
INSERT INTO jobs (
  job_ref, customer_id, equipment_id, assigned_to, description, status,
  estimated_hours, actual_hours, customer_notified, created_at, updated_at, completed_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING`+jobCols,
		j.JobID, j.CustomerID, j.EquipmentID, j.AssignedTo, j.Description, j.Status,
		j.EstimatedHours, j.ActualHours, j.CustomerNotified, j.CreatedAt.UTC(), j.UpdatedAt.UTC(), j.CompletedAt))
	if err != nil {
		return nil, errors.Wrap(err, "insert job")
	}
	return out, nil
}

func (s *Storage) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	j, err := scanJob(s.db.QueryRow(ctx, `SELECT`+jobCols+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, models.EntityJob, id, "select job")
	}
	return j, nil
}

func (s *Storage) GetJobByRef(ctx context.Context, ref string) (*models.Job, error) {
	j, err := scanJob(s.db.QueryRow(ctx, `SELECT`+jobCols+` FROM jobs WHERE job_ref = $1`, ref))
	if err != nil {
		return nil, notFound(err, models.EntityJob, ref, "select job by ref")
	}
	return j, nil
}

func (s *Storage) ListJobs(ctx context.Context, f models.JobFilter) ([]*models.Job, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+jobCols+`
FROM jobs
WHERE ($1::BIGINT IS NULL OR customer_id = $1)
  AND ($2::TEXT IS NULL OR status = $2)
  AND ($3::BIGINT IS NULL OR assigned_to = $3)
ORDER BY id DESC
`, f.CustomerID, f.Status, f.AssignedTo)
	if err != nil {
		return nil, errors.Wrap(err, "select jobs")
	}
	defer rows.Close()

	out := []*models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan job")
		}
		out = append(out, j)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) SetJobStatus(ctx context.Context, id int64, from, to models.JobStatus, completedAt *time.Time, now time.Time) (*models.Job, error) {
	j, err := scanJob(s.db.QueryRow(ctx, `
UPDATE jobs
SET status = $3, completed_at = $4, updated_at = $5
WHERE id = $1 AND status = $2
RETURNING`+jobCols, id, from, to, completedAt, now.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, staleWrite(ctx, s.db, "jobs", models.EntityJob, id, string(from))
	}
	if err != nil {
		return nil, errors.Wrap(err, "update job status")
	}
	return j, nil
}

func (s *Storage) UpdateJob(ctx context.Context, id int64, p models.JobPatch, now time.Time) (*models.Job, error) {
	j, err := scanJob(s.db.QueryRow(ctx, `
UPDATE jobs
SET
  assigned_to = CASE WHEN $8 THEN NULL ELSE COALESCE($2, assigned_to) END,
  description = COALESCE($3, description),
  estimated_hours = COALESCE($4, estimated_hours),
  actual_hours = COALESCE($5, actual_hours),
  customer_notified = COALESCE($6, customer_notified),
  updated_at = $7
WHERE id = $1
RETURNING`+jobCols, id, p.AssignedTo, p.Description, p.EstimatedHours, p.ActualHours, p.CustomerNotified, now.UTC(), p.ClearAssignee))
	if err != nil {
		return nil, notFound(err, models.EntityJob, id, "update job")
	}
	return j, nil
}

func (s *Storage) AddJobUpdate(ctx context.Context, u *models.JobUpdate) (*models.JobUpdate, error) {
	var out models.JobUpdate
	err := s.db.QueryRow(ctx, `
INSERT INTO job_updates (job_id, note, is_public, created_by, created_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, job_id, note, is_public, created_by, created_at
`, u.JobID, u.Note, u.IsPublic, u.CreatedBy, u.CreatedAt.UTC()).Scan(
		&out.ID, &out.JobID, &out.Note, &out.IsPublic, &out.CreatedBy, &out.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert job update")
	}
	return &out, nil
}

func (s *Storage) ListJobUpdates(ctx context.Context, jobID int64, publicOnly bool) ([]*models.JobUpdate, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, job_id, note, is_public, created_by, created_at
FROM job_updates
WHERE job_id = $1 AND (NOT $2 OR is_public)
ORDER BY created_at ASC, id ASC
`, jobID, publicOnly)
	if err != nil {
		return nil, errors.Wrap(err, "select job updates")
	}
	defer rows.Close()

	out := []*models.JobUpdate{}
	for rows.Next() {
		var u models.JobUpdate
		if err := rows.Scan(&u.ID, &u.JobID, &u.Note, &u.IsPublic, &u.CreatedBy, &u.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan job update")
		}
		out = append(out, &u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func scanService(row scanner) (*models.Service, error) {
	var sv models.Service
	var price string
	if err := row.Scan(&sv.ID, &sv.JobID, &sv.Name, &sv.Description, &sv.Hours, &price, &sv.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, errors.Wrap(err, "parse service price")
	}
	sv.Price = d
	return &sv, nil
}

func (s *Storage) AddService(ctx context.Context, sv *models.Service) (*models.Service, error) {
	out, err := scanService(s.db.QueryRow(ctx, `
INSERT INTO services (job_id, name, description, hours, price, created_at)
VALUES ($1,$2,$3,$4,$5::NUMERIC,$6)
RETURNING id, job_id, name, description, hours, price::TEXT, created_at
`, sv.JobID, sv.Name, sv.Description, sv.Hours, sv.Price.String(), sv.CreatedAt.UTC()))
	if err != nil {
		return nil, errors.Wrap(err, "insert service")
	}
	return out, nil
}

func (s *Storage) ListServices(ctx context.Context, jobID int64) ([]*models.Service, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, job_id, name, description, hours, price::TEXT, created_at
FROM services
WHERE job_id = $1
ORDER BY id
`, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "select services")
	}
	defer rows.Close()

	out := []*models.Service{}
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan service")
		}
		out = append(out, sv)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
