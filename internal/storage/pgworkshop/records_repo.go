package pgworkshop

import (
	"context"

	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/pkg/errors"
)

const userCols = `id, username, full_name, email, role, notify_on_assignment`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.Role, &u.NotifyOnAssignment); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO users (username, full_name, email, role, notify_on_assignment)
VALUES ($1,$2,$3,$4,$5)
RETURNING `+userCols, u.Username, u.FullName, u.Email, u.Role, u.NotifyOnAssignment)
	out, err := scanUser(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	return out, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", id, "select user")
	}
	return u, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	out := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) SetNotifyOnAssignment(ctx context.Context, id int64, enabled *bool) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
UPDATE users SET notify_on_assignment = $2 WHERE id = $1
RETURNING `+userCols, id, enabled))
	if err != nil {
		return nil, notFound(err, "user", id, "update user preference")
	}
	return u, nil
}

const customerCols = `id, name, email, phone, address, notes, created_at`

func scanCustomer(row scanner) (*models.Customer, error) {
	var c models.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Storage) CreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	out, err := scanCustomer(s.db.QueryRow(ctx, `
INSERT INTO customers (name, email, phone, address, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING `+customerCols, c.Name, c.Email, c.Phone, c.Address, c.Notes, c.CreatedAt.UTC()))
	if err != nil {
		return nil, errors.Wrap(err, "insert customer")
	}
	return out, nil
}

func (s *Storage) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	c, err := scanCustomer(s.db.QueryRow(ctx, `SELECT `+customerCols+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "customer", id, "select customer")
	}
	return c, nil
}

// FindCustomerByName matches the name exactly; with duplicates the oldest customer wins.
func (s *Storage) FindCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	c, err := scanCustomer(s.db.QueryRow(ctx, `SELECT `+customerCols+` FROM customers WHERE name = $1 ORDER BY id LIMIT 1`, name))
	if err != nil {
		return nil, notFound(err, "customer", name, "select customer by name")
	}
	return c, nil
}

func (s *Storage) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.db.Query(ctx, `SELECT `+customerCols+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select customers")
	}
	defer rows.Close()

	out := []*models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) UpdateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	out, err := scanCustomer(s.db.QueryRow(ctx, `
UPDATE customers SET name = $2, email = $3, phone = $4, address = $5, notes = $6
WHERE id = $1
RETURNING `+customerCols, c.ID, c.Name, c.Email, c.Phone, c.Address, c.Notes))
	if err != nil {
		return nil, notFound(err, "customer", c.ID, "update customer")
	}
	return out, nil
}

func (s *Storage) CreateEquipmentType(ctx context.Context, name string) (*models.EquipmentType, error) {
	var t models.EquipmentType
	err := s.db.QueryRow(ctx, `INSERT INTO equipment_types (name) VALUES ($1) RETURNING id, name`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, errors.Wrap(err, "insert equipment type")
	}
	return &t, nil
}

func (s *Storage) ListEquipmentTypes(ctx context.Context) ([]*models.EquipmentType, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM equipment_types ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "select equipment types")
	}
	defer rows.Close()

	out := []*models.EquipmentType{}
	for rows.Next() {
		var t models.EquipmentType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, errors.Wrap(err, "scan equipment type")
		}
		out = append(out, &t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

const equipmentSelect = `
SELECT
  e.id, e.customer_id, e.type_id, COALESCE(t.name, ''),
  e.make, e.model, e.serial_number, e.notes, e.created_at
FROM equipment e
LEFT JOIN equipment_types t ON t.id = e.type_id
`

func scanEquipment(row scanner) (*models.Equipment, error) {
	var e models.Equipment
	if err := row.Scan(
		&e.ID, &e.CustomerID, &e.TypeID, &e.TypeName,
		&e.Make, &e.Model, &e.SerialNumber, &e.Notes, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Storage) CreateEquipment(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
INSERT INTO equipment (customer_id, type_id, make, model, serial_number, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`, e.CustomerID, e.TypeID, e.Make, e.Model, e.SerialNumber, e.Notes, e.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "insert equipment")
	}
	return s.GetEquipment(ctx, id)
}

func (s *Storage) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	e, err := scanEquipment(s.db.QueryRow(ctx, equipmentSelect+`WHERE e.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "equipment", id, "select equipment")
	}
	return e, nil
}

func (s *Storage) ListEquipment(ctx context.Context, customerID *int64) ([]*models.Equipment, error) {
	rows, err := s.db.Query(ctx, equipmentSelect+`WHERE ($1::BIGINT IS NULL OR e.customer_id = $1) ORDER BY e.id`, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "select equipment")
	}
	defer rows.Close()

	out := []*models.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan equipment")
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) AddActivity(ctx context.Context, a *models.Activity) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO activities (user_id, activity_type, description, entity_type, entity_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, a.UserID, string(a.ActivityType), a.Description, a.EntityType, a.EntityID, a.Timestamp.UTC())
	return errors.Wrap(err, "insert activity")
}

func (s *Storage) ListActivities(ctx context.Context, limit int) ([]*models.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, activity_type, description, entity_type, entity_id, created_at
FROM activities
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select activities")
	}
	defer rows.Close()

	out := []*models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Description, &a.EntityType, &a.EntityID, &a.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		out = append(out, &a)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
