package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kirana-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uint, status OrderStatus) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Create persists the order and its item snapshot in one transaction.
// The caller's Order gets the store-assigned ID on success.
func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_code", o.Code),
		zap.Int("item_count", len(o.Items)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin order transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			code, user_id, customer_name, email, phone, address,
			delivery_slot, subtotal, service_fee, delivery_fee, total,
			status, bill_html, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`,
		o.Code, o.UserID, o.CustomerName, o.Email, o.Phone, o.Address,
		o.DeliverySlot, o.Subtotal, o.ServiceFee, o.DeliveryFee, o.Total,
		o.Status, o.BillHTML, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, name, price, quantity)
			VALUES ($1,$2,$3,$4)
		`, o.ID, item.Name, item.Price, item.Quantity)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.Error(err),
			)
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return fmt.Errorf("commit order transaction: %w", err)
	}

	committed = true
	log.Info("order persisted", zap.Uint("order_id", o.ID))
	return nil
}

const orderColumns = `
	id, code, user_id, customer_name, email, phone, address,
	delivery_slot, subtotal, service_fee, delivery_fee, total,
	status, created_at, accepted_at, dispatched_at, delivered_at, cancelled_at`

func scanOrder(s interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := s.Scan(
		&o.ID, &o.Code, &o.UserID, &o.CustomerName, &o.Email, &o.Phone,
		&o.Address, &o.DeliverySlot, &o.Subtotal, &o.ServiceFee,
		&o.DeliveryFee, &o.Total, &o.Status, &o.CreatedAt,
		&o.AcceptedAt, &o.DispatchedAt, &o.DeliveredAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+orderColumns+`, bill_html
		FROM orders WHERE id = $1
	`, id)

	var o Order
	err := row.Scan(
		&o.ID, &o.Code, &o.UserID, &o.CustomerName, &o.Email, &o.Phone,
		&o.Address, &o.DeliverySlot, &o.Subtotal, &o.ServiceFee,
		&o.DeliveryFee, &o.Total, &o.Status, &o.CreatedAt,
		&o.AcceptedAt, &o.DispatchedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.BillHTML,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}

	if err := r.attachItems(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListAll is the operator view: actionable (pending) orders sort before
// everything else regardless of age, newest first within each bucket.
func (r *repository) ListAll(ctx context.Context) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		ORDER BY (status <> 'pending'), created_at DESC
	`)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query user orders",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

func (r *repository) collect(ctx context.Context, rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) attachItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[uint]*Order, len(orders))
	for _, o := range orders {
		ids = append(ids, int64(o.ID))
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		var orderID uint
		if err := rows.Scan(&item.ID, &orderID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

// Audit-timestamp column per status; pending has none (creation time
// already records it).
var statusStampColumn = map[OrderStatus]string{
	StatusAccepted:   "accepted_at",
	StatusDispatched: "dispatched_at",
	StatusDelivered:  "delivered_at",
	StatusCancelled:  "cancelled_at",
}

// UpdateStatus sets the status and stamps the audit timestamp on first
// entry only (COALESCE keeps an already-set stamp).
func (r *repository) UpdateStatus(ctx context.Context, id uint, status OrderStatus) error {
	query := `UPDATE orders SET status = $1 WHERE id = $2`
	if col, ok := statusStampColumn[status]; ok {
		query = fmt.Sprintf(
			`UPDATE orders SET status = $1, %s = COALESCE(%s, NOW()) WHERE id = $2`,
			col, col,
		)
	}

	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.Uint("order_id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return fmt.Errorf("update order status: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
