package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderCols = []string{
		"id", "user_id", "amount", "currency", "status",
		"razorpay_order_id", "payment_id", "receipt", "idempotency_key",
		"created_at", "updated_at",
	}
	itemCols = []string{"id", "order_id", "course_id", "title", "price", "attempt_id", "mode_id"}
)

func newPendingOrder() *Order {
	mode := uint(3)
	return &Order{
		UserID:          1,
		Amount:          decimal.NewFromInt(1250),
		Currency:        "INR",
		Status:          StatusPending,
		RazorpayOrderID: "order_abc",
		Receipt:         "rcpt_1",
		Items: []OrderItem{
			{CourseID: 10, Price: decimal.NewFromInt(750), ModeID: &mode},
			{CourseID: 20, Price: decimal.NewFromInt(500)},
		},
	}
}

func TestRepository_CreateOrderTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		o := newPendingOrder()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO orders").
			WithArgs(uint(1), sqlmock.AnyArg(), "INR", string(StatusPending), "order_abc", "rcpt_1", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(100, now, now))
		mock.ExpectQuery("INSERT INTO order_items").
			WithArgs(uint(100), uint(10), sqlmock.AnyArg(), nil, uint(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO order_items").
			WithArgs(uint(100), uint(20), sqlmock.AnyArg(), nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		mock.ExpectCommit()

		require.NoError(t, repo.CreateOrderTx(context.Background(), o))
		assert.Equal(t, uint(100), o.ID)
		assert.Equal(t, uint(100), o.Items[1].OrderID)
		assert.Equal(t, uint(2), o.Items[1].ID)
	})

	t.Run("ItemFailureRollsBack", func(t *testing.T) {
		o := newPendingOrder()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO orders").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(101, now, now))
		mock.ExpectQuery("INSERT INTO order_items").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectQuery("INSERT INTO order_items").
			WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		assert.Error(t, repo.CreateOrderTx(context.Background(), o))
	})

	t.Run("DuplicateProviderOrder", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO orders").WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.CreateOrderTx(context.Background(), newPendingOrder())
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	})

	t.Run("BeginFails", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("conn reset"))
		assert.Error(t, repo.CreateOrderTx(context.Background(), newPendingOrder()))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByProviderOrderID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	t.Run("WithItems", func(t *testing.T) {
		mock.ExpectQuery("FROM orders WHERE razorpay_order_id = \\$1").
			WithArgs("order_abc").
			WillReturnRows(sqlmock.NewRows(orderCols).
				AddRow(5, 1, "750.00", "INR", "PENDING", "order_abc", nil, "rcpt_1", "key-1", now, now))
		mock.ExpectQuery("FROM order_items oi").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow(1, 5, 10, "Audit", "750.00", 4, nil))

		o, err := repo.GetByProviderOrderID(context.Background(), "order_abc")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.Nil(t, o.PaymentID)
		require.NotNil(t, o.IdempotencyKey)
		assert.Equal(t, "key-1", *o.IdempotencyKey)
		require.Len(t, o.Items, 1)
		assert.Equal(t, "Audit", o.Items[0].CourseTitle)
		require.NotNil(t, o.Items[0].AttemptID)
		assert.Equal(t, uint(4), *o.Items[0].AttemptID)
		assert.Nil(t, o.Items[0].ModeID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("FROM orders WHERE razorpay_order_id = \\$1").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(orderCols))

		_, err := repo.GetByProviderOrderID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CompletePaymentTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	expectReload := func(status string) {
		mock.ExpectQuery("FROM orders WHERE id = \\$1").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows(orderCols).
				AddRow(5, 1, "1250.00", "INR", status, "order_abc", "pay_1", "rcpt_1", nil, now, now))
		mock.ExpectQuery("FROM order_items oi").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow(1, 5, 10, "Audit", "750.00", nil, nil).
				AddRow(2, 5, 20, "Tax", "500.00", nil, nil))
	}

	t.Run("Pending", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status, user_id FROM orders WHERE id = \\$1 FOR UPDATE").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows([]string{"status", "user_id"}).AddRow("PENDING", 1))
		mock.ExpectExec("UPDATE orders SET status = \\$2, payment_id = \\$3").
			WithArgs(uint(5), string(StatusCompleted), "pay_1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM order_items oi").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow(1, 5, 10, "Audit", "750.00", nil, nil).
				AddRow(2, 5, 20, "Tax", "500.00", nil, nil))
		mock.ExpectExec("INSERT INTO enrollments").
			WithArgs(uint(1), uint(10), uint(5)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO enrollments").
			WithArgs(uint(1), uint(20), uint(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM cart_items").
			WithArgs(uint(1), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()
		expectReload("COMPLETED")

		done, err := repo.CompletePaymentTx(context.Background(), 5, "pay_1")
		require.NoError(t, err)
		assert.False(t, done.AlreadyCompleted)
		assert.Equal(t, int64(1), done.Enrolled)
		assert.Equal(t, StatusCompleted, done.Order.Status)
		assert.Equal(t, []uint{10, 20}, done.Order.CourseIDs())
	})

	t.Run("AlreadyCompleted", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status, user_id FROM orders WHERE id = \\$1 FOR UPDATE").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows([]string{"status", "user_id"}).AddRow("COMPLETED", 1))
		mock.ExpectRollback()
		expectReload("COMPLETED")

		done, err := repo.CompletePaymentTx(context.Background(), 5, "pay_1")
		require.NoError(t, err)
		assert.True(t, done.AlreadyCompleted)
		assert.Equal(t, int64(0), done.Enrolled)
		assert.Equal(t, StatusCompleted, done.Order.Status)
	})

	t.Run("EnrollFailureRollsBack", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status, user_id FROM orders WHERE id = \\$1 FOR UPDATE").
			WithArgs(uint(5)).
			WillReturnRows(sqlmock.NewRows([]string{"status", "user_id"}).AddRow("PENDING", 1))
		mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM order_items oi").
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 5, 10, "Audit", "750.00", nil, nil))
		mock.ExpectExec("INSERT INTO enrollments").WillReturnError(errors.New("db error"))
		mock.ExpectRollback()

		_, err := repo.CompletePaymentTx(context.Background(), 5, "pay_1")
		assert.Error(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status, user_id FROM orders").
			WithArgs(uint(9)).
			WillReturnRows(sqlmock.NewRows([]string{"status", "user_id"}))
		mock.ExpectRollback()

		_, err := repo.CompletePaymentTx(context.Background(), 9, "pay_1")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec("UPDATE orders SET status = \\$3").
		WithArgs(uint(5), string(StatusPending), string(StatusFailed)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.UpdateStatus(context.Background(), 5, StatusPending, StatusFailed)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("UPDATE orders SET status = \\$3").
		WithArgs(uint(6), string(StatusPending), string(StatusFailed)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.UpdateStatus(context.Background(), 6, StatusPending, StatusFailed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery("FROM orders o LEFT JOIN order_items oi").
		WithArgs(uint(1), 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "currency", "status", "razorpay_order_id", "count", "created_at"}).
			AddRow(2, "500.00", "INR", "COMPLETED", "order_b", 1, now).
			AddRow(1, "1250.00", "INR", "EXPIRED", "order_a", 2, now.Add(-time.Hour)))

	list, err := repo.ListByUser(context.Background(), 1, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[1].ItemCount)
	assert.True(t, list[1].Amount.Equal(decimal.NewFromInt(1250)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ExpireStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	cutoff := time.Now().Add(-30 * time.Minute)

	mock.ExpectQuery("UPDATE orders SET status = \\$1, updated_at = NOW\\(\\) WHERE status = \\$2 AND created_at < \\$3 RETURNING id, user_id, amount, currency, razorpay_order_id").
		WithArgs(string(StatusExpired), string(StatusPending), cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "currency", "razorpay_order_id"}).
			AddRow(7, 1, "500.00", "INR", "order_x"))

	expired, err := repo.ExpireStale(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, StatusExpired, expired[0].Status)
	assert.Equal(t, "order_x", expired[0].RazorpayOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
