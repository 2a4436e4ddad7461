package pgworkshop

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'staff',
  notify_on_assignment BOOLEAN NULL
)`,
		`
CREATE TABLE IF NOT EXISTS customers (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name)`,
		`
CREATE TABLE IF NOT EXISTS equipment_types (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
)`,
		`
CREATE TABLE IF NOT EXISTS equipment (
  id BIGSERIAL PRIMARY KEY,
  customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  type_id BIGINT NULL REFERENCES equipment_types(id) ON DELETE SET NULL,
  make TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  serial_number TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_equipment_customer_id ON equipment(customer_id)`,
		`
CREATE TABLE IF NOT EXISTS jobs (
  id BIGSERIAL PRIMARY KEY,
  job_ref TEXT NOT NULL UNIQUE,
  customer_id BIGINT NOT NULL REFERENCES customers(id),
  equipment_id BIGINT NULL REFERENCES equipment(id) ON DELETE SET NULL,
  assigned_to BIGINT NULL REFERENCES users(id) ON DELETE SET NULL,
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  estimated_hours DOUBLE PRECISION NULL,
  actual_hours DOUBLE PRECISION NULL,
  customer_notified BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  completed_at TIMESTAMPTZ NULL,
  CONSTRAINT jobs_completed_at_iff_completed CHECK ((status = 'completed') = (completed_at IS NOT NULL))
)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_customer_id ON jobs(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`
CREATE TABLE IF NOT EXISTS job_updates (
  id BIGSERIAL PRIMARY KEY,
  job_id BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  note TEXT NOT NULL,
  is_public BOOLEAN NOT NULL DEFAULT FALSE,
  created_by BIGINT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_job_updates_job_id ON job_updates(job_id, created_at)`,
		`
CREATE TABLE IF NOT EXISTS services (
  id BIGSERIAL PRIMARY KEY,
  job_id BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  hours DOUBLE PRECISION NULL,
  price NUMERIC(12,2) NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS tasks (
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  priority TEXT NOT NULL DEFAULT 'medium',
  status TEXT NOT NULL DEFAULT 'pending',
  assigned_to BIGINT NULL REFERENCES users(id) ON DELETE SET NULL,
  due_date TIMESTAMPTZ NULL,
  related_entity_type TEXT NULL,
  related_entity_id BIGINT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  completed_at TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_related ON tasks(related_entity_type, related_entity_id)`,
		// Migrations for rows written before task statuses were canonical.
		`UPDATE tasks SET status = 'pending' WHERE status IN ('todo', 'to do')`,
		`UPDATE tasks SET status = 'in_progress' WHERE status IN ('inprogress', 'in progress', 'in-progress')`,
		`UPDATE tasks SET status = 'review' WHERE status IN ('in review', 'in_review')`,
		`UPDATE tasks SET completed_at = NULL WHERE status <> 'completed' AND completed_at IS NOT NULL`,
		`UPDATE tasks SET completed_at = created_at WHERE status = 'completed' AND completed_at IS NULL`,
		`
CREATE TABLE IF NOT EXISTS callback_requests (
  id BIGSERIAL PRIMARY KEY,
  customer_id BIGINT NULL REFERENCES customers(id) ON DELETE SET NULL,
  customer_name TEXT NOT NULL,
  phone_number TEXT NOT NULL,
  subject TEXT NOT NULL,
  details TEXT NOT NULL DEFAULT '',
  priority TEXT NOT NULL DEFAULT 'medium',
  assigned_to BIGINT NULL REFERENCES users(id) ON DELETE SET NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  related_task_id BIGINT NULL REFERENCES tasks(id) ON DELETE SET NULL,
  requested_at TIMESTAMPTZ NOT NULL,
  completed_at TIMESTAMPTZ NULL,
  notes TEXT NULL,
  deleted_at TIMESTAMPTZ NULL,
  delete_expires_at TIMESTAMPTZ NULL,
  CONSTRAINT callbacks_deleted_iff_status CHECK ((status = 'deleted') = (deleted_at IS NOT NULL AND delete_expires_at IS NOT NULL))
)`,
		`CREATE INDEX IF NOT EXISTS idx_callback_requests_purge ON callback_requests(delete_expires_at) WHERE status = 'deleted'`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id BIGSERIAL PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id BIGINT NULL REFERENCES customers(id) ON DELETE SET NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL DEFAULT '',
  customer_phone TEXT NOT NULL DEFAULT '',
  supplier TEXT NOT NULL,
  supplier_reference TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  estimated_cost NUMERIC(12,2) NULL,
  actual_cost NUMERIC(12,2) NULL,
  deposit NUMERIC(12,2) NULL,
  notify_customer BOOLEAN NOT NULL DEFAULT FALSE,
  notify_on_arrival BOOLEAN NOT NULL DEFAULT FALSE,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS order_items (
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  part_number TEXT NOT NULL DEFAULT '',
  quantity INT NOT NULL DEFAULT 1,
  unit_price NUMERIC(12,2) NULL,
  price_ex_vat NUMERIC(12,2) NULL,
  price_inc_vat NUMERIC(12,2) NULL,
  total_price NUMERIC(12,2) NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
		`
CREATE TABLE IF NOT EXISTS activities (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  activity_type TEXT NOT NULL,
  description TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id BIGINT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
