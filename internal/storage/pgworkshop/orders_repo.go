package pgworkshop

import (
	"context"
	"time"

	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const orderCols = `
  id, order_number, customer_id, customer_name, customer_email, customer_phone,
  supplier, supplier_reference, status,
  estimated_cost::TEXT, actual_cost::TEXT, deposit::TEXT,
  notify_customer, notify_on_arrival, notes, created_at, updated_at`

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o                          models.Order
		estimated, actual, deposit *string
	)
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Supplier, &o.SupplierReference, &o.Status,
		&estimated, &actual, &deposit,
		&o.NotifyCustomer, &o.NotifyOnArrival, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if o.EstimatedCost, err = parseDec(estimated); err != nil {
		return nil, err
	}
	if o.ActualCost, err = parseDec(actual); err != nil {
		return nil, err
	}
	if o.Deposit, err = parseDec(deposit); err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanOrder(tx.QueryRow(ctx, `
INSERT INTO orders (
  order_number, customer_id, customer_name, customer_email, customer_phone,
  supplier, supplier_reference, status, estimated_cost, actual_cost, deposit,
  notify_customer, notify_on_arrival, notes, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::NUMERIC,$10::NUMERIC,$11::NUMERIC,$12,$13,$14,$15,$16)
RETURNING`+orderCols,
		o.OrderNumber, o.CustomerID, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.Supplier, o.SupplierReference, o.Status,
		decText(o.EstimatedCost), decText(o.ActualCost), decText(o.Deposit),
		o.NotifyCustomer, o.NotifyOnArrival, o.Notes, o.CreatedAt.UTC(), o.UpdatedAt.UTC()))
	if err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	for _, it := range o.Items {
		var id int64
		err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, name, part_number, quantity, unit_price, price_ex_vat, price_inc_vat, total_price)
VALUES ($1,$2,$3,$4,$5::NUMERIC,$6::NUMERIC,$7::NUMERIC,$8::NUMERIC)
RETURNING id
`, created.ID, it.Name, it.PartNumber, it.Quantity,
			decText(it.UnitPrice), decText(it.PriceExVAT), decText(it.PriceIncVAT), decText(it.TotalPrice)).Scan(&id)
		if err != nil {
			return nil, errors.Wrap(err, "insert order item")
		}
		it.ID = id
		it.OrderID = created.ID
		created.Items = append(created.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return created, nil
}

func (s *Storage) loadItems(ctx context.Context, o *models.Order) error {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, name, part_number, quantity,
  unit_price::TEXT, price_ex_vat::TEXT, price_inc_vat::TEXT, total_price::TEXT
FROM order_items
WHERE order_id = $1
ORDER BY id
`, o.ID)
	if err != nil {
		return errors.Wrap(err, "select order items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                   models.OrderItem
			unit, ex, inc, total *string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.PartNumber, &it.Quantity, &unit, &ex, &inc, &total); err != nil {
			return errors.Wrap(err, "scan order item")
		}
		if it.UnitPrice, err = parseDec(unit); err != nil {
			return err
		}
		if it.PriceExVAT, err = parseDec(ex); err != nil {
			return err
		}
		if it.PriceIncVAT, err = parseDec(inc); err != nil {
			return err
		}
		if it.TotalPrice, err = parseDec(total); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return errors.Wrap(rows.Err(), "rows")
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT`+orderCols+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, models.EntityOrder, id, "select order")
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Storage) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT`+orderCols+` FROM orders WHERE order_number = $1`, number))
	if err != nil {
		return nil, notFound(err, models.EntityOrder, number, "select order by number")
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns orders without their items.
func (s *Storage) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT`+orderCols+`
FROM orders
WHERE ($1::BIGINT IS NULL OR customer_id = $1)
  AND ($2::TEXT IS NULL OR status = $2)
ORDER BY id DESC
`, f.CustomerID, f.Status)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	out := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus, actualCost *decimal.Decimal, now time.Time) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `
UPDATE orders
SET status = $2, actual_cost = COALESCE($3::NUMERIC, actual_cost), updated_at = $4
WHERE id = $1
RETURNING`+orderCols, id, status, decText(actualCost), now.UTC()))
	if err != nil {
		return nil, notFound(err, models.EntityOrder, id, "update order status")
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
