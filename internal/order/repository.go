package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coursecart-be/internal/cart"
	"coursecart-be/internal/db"
	"coursecart-be/internal/enrollment"
	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByProviderOrderID(ctx context.Context, razorpayOrderID string) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*OrderSummary, error)
	CompletePaymentTx(ctx context.Context, orderID uint, paymentID string) (*Completion, error)
	UpdateStatus(ctx context.Context, orderID uint, from, to OrderStatus) (bool, error)
	ExpireStale(ctx context.Context, createdBefore time.Time) ([]*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CreateOrderTx persists the order and all of its items in one transaction
// and fills the generated ids and timestamps.
func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.Uint("user_id", o.UserID),
		zap.String("razorpay_order_id", o.RazorpayOrderID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return db.Wrap("failed to begin tx", err)
	}
	defer tx.Rollback()

	// 1. Insert order
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, amount, currency, status,
			razorpay_order_id, receipt, idempotency_key
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`,
		o.UserID,
		o.Amount,
		o.Currency,
		o.Status,
		o.RazorpayOrderID,
		o.Receipt,
		o.IdempotencyKey,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn("duplicate order")
			return ErrDuplicateOrder
		}
		log.Error("insert order failed", zap.Error(err))
		return db.Wrap("failed to insert order", err)
	}

	// 2. Insert order items
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, course_id, price, attempt_id, mode_id
			) VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`,
			o.ID,
			item.CourseID,
			item.Price,
			item.AttemptID,
			item.ModeID,
		).Scan(&item.ID)
		if err != nil {
			log.Error("insert order item failed",
				zap.Uint("course_id", item.CourseID),
				zap.Error(err),
			)
			return db.Wrap("failed to insert order item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("commit failed", zap.Error(err))
		return db.Wrap("failed to commit order", err)
	}

	log.Info("order created",
		zap.Uint("order_id", o.ID),
		zap.Int("items", len(o.Items)),
	)
	return nil
}

const orderColumns = `
	id, user_id, amount, currency, status,
	razorpay_order_id, payment_id, receipt, idempotency_key,
	created_at, updated_at
`

func (r *repository) getOrder(ctx context.Context, where string, args ...any) (*Order, error) {
	var (
		o         Order
		paymentID sql.NullString
		idemKey   sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, args...).Scan(
		&o.ID,
		&o.UserID,
		&o.Amount,
		&o.Currency,
		&o.Status,
		&o.RazorpayOrderID,
		&paymentID,
		&o.Receipt,
		&idemKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, db.Wrap("failed to get order", err)
	}

	if paymentID.Valid {
		o.PaymentID = &paymentID.String
	}
	if idemKey.Valid {
		o.IdempotencyKey = &idemKey.String
	}

	o.Items, err = loadItems(ctx, r.db, o.ID)
	if err != nil {
		return nil, db.Wrap("failed to get order items", err)
	}
	return &o, nil
}

func loadItems(ctx context.Context, q queryer, orderID uint) ([]OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			oi.id,
			oi.order_id,
			oi.course_id,
			COALESCE(c.title, ''),
			oi.price,
			oi.attempt_id,
			oi.mode_id
		FROM order_items oi
		LEFT JOIN courses c ON c.id = oi.course_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var (
			it        OrderItem
			attemptID sql.NullInt64
			modeID    sql.NullInt64
		)
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.CourseID,
			&it.CourseTitle,
			&it.Price,
			&attemptID,
			&modeID,
		); err != nil {
			return nil, err
		}
		it.AttemptID = nullUint(attemptID)
		it.ModeID = nullUint(modeID)
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullUint(n sql.NullInt64) *uint {
	if !n.Valid {
		return nil
	}
	v := uint(n.Int64)
	return &v
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	return r.getOrder(ctx, "id = $1", id)
}

func (r *repository) GetByProviderOrderID(ctx context.Context, razorpayOrderID string) (*Order, error) {
	return r.getOrder(ctx, "razorpay_order_id = $1", razorpayOrderID)
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error) {
	return r.getOrder(ctx, "user_id = $1 AND idempotency_key = $2", userID, key)
}

func (r *repository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*OrderSummary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
		zap.Uint("user_id", userID),
	)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			o.id,
			o.amount,
			o.currency,
			o.status,
			o.razorpay_order_id,
			COUNT(oi.id),
			o.created_at
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, db.Wrap("failed to list orders", err)
	}
	defer rows.Close()

	list := []*OrderSummary{}
	for rows.Next() {
		var s OrderSummary
		if err := rows.Scan(
			&s.ID,
			&s.Amount,
			&s.Currency,
			&s.Status,
			&s.RazorpayOrderID,
			&s.ItemCount,
			&s.CreatedAt,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, db.Wrap("failed to scan order", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("failed to iterate orders", err)
	}

	log.Debug("query success",
		zap.Int("rows", len(list)),
		zap.Duration("duration", time.Since(start)),
	)
	return list, nil
}

// CompletePaymentTx marks the order paid, enrolls the buyer in every
// purchased course and removes those courses from the buyer's cart, all in
// one transaction. Confirming an already completed order changes nothing.
func (r *repository) CompletePaymentTx(ctx context.Context, orderID uint, paymentID string) (*Completion, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CompletePaymentTx"),
		zap.Uint("order_id", orderID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, db.Wrap("failed to begin tx", err)
	}
	defer tx.Rollback()

	// 1. Lock the order row
	var (
		status OrderStatus
		userID uint
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, user_id FROM orders WHERE id = $1 FOR UPDATE`, orderID,
	).Scan(&status, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, db.Wrap("failed to lock order", err)
	}

	done := &Completion{}
	if status == StatusCompleted {
		log.Info("order already completed")
		done.AlreadyCompleted = true
		// Release the row lock before reloading on another connection.
		if err := tx.Rollback(); err != nil {
			return nil, db.Wrap("failed to release order lock", err)
		}
	} else {
		// 2. Status and payment reference
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $2, payment_id = $3, updated_at = NOW()
			WHERE id = $1
		`, orderID, StatusCompleted, paymentID); err != nil {
			log.Error("update order failed", zap.Error(err))
			return nil, db.Wrap("failed to complete order", err)
		}

		// 3. Enrollments for every purchased course
		items, err := loadItems(ctx, tx, orderID)
		if err != nil {
			return nil, db.Wrap("failed to load order items", err)
		}
		courseIDs := (&Order{Items: items}).CourseIDs()

		done.Enrolled, err = enrollment.EnrollTx(ctx, tx, userID, orderID, courseIDs)
		if err != nil {
			log.Error("enroll failed", zap.Error(err))
			return nil, db.Wrap("failed to enroll", err)
		}

		// 4. Purchased courses leave the cart
		removed, err := cart.DeleteCoursesTx(ctx, tx, userID, courseIDs)
		if err != nil {
			log.Error("cart cleanup failed", zap.Error(err))
			return nil, db.Wrap("failed to clear cart", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, db.Wrap("failed to commit payment", err)
		}

		log.Info("order completed",
			zap.String("previous_status", string(status)),
			zap.Int64("enrolled", done.Enrolled),
			zap.Int64("cart_removed", removed),
		)
	}

	done.Order, err = r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return done, nil
}

// UpdateStatus moves the order from one status to another and reports
// whether the row was in the expected status.
func (r *repository) UpdateStatus(ctx context.Context, orderID uint, from, to OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, orderID, from, to)
	if err != nil {
		return false, db.Wrap("failed to update order status", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repository) ExpireStale(ctx context.Context, createdBefore time.Time) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3
		RETURNING id, user_id, amount, currency, razorpay_order_id
	`, StatusExpired, StatusPending, createdBefore)
	if err != nil {
		return nil, db.Wrap("failed to expire orders", err)
	}
	defer rows.Close()

	expired := []*Order{}
	for rows.Next() {
		o := &Order{Status: StatusExpired}
		if err := rows.Scan(&o.ID, &o.UserID, &o.Amount, &o.Currency, &o.RazorpayOrderID); err != nil {
			return nil, db.Wrap("failed to scan expired order", err)
		}
		expired = append(expired, o)
	}
	return expired, rows.Err()
}
