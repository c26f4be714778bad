package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coursecart-be/internal/db"
	"coursecart-be/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	CreateCartItem(ctx context.Context, userID, courseID uint) (*CartItem, error)
	GetCartItemByID(ctx context.Context, id uint) (*CartItem, error)
	GetCartItemByUserAndCourse(ctx context.Context, userID, courseID uint) (*CartItem, error)
	DeleteCartItem(ctx context.Context, id uint) error
	GetCartRows(ctx context.Context, userID uint) ([]*cartRow, error)
	ClearCart(ctx context.Context, userID uint) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCartItem(ctx context.Context, userID, courseID uint) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateCartItem"),
		zap.Uint("user_id", userID),
		zap.Uint("course_id", courseID),
	)

	log.Debug("start create cart item")

	item := &CartItem{}
	err := r.db.QueryRowContext(ctx, `
	INSERT INTO cart_items (user_id, course_id)
	VALUES ($1, $2)
	RETURNING id, user_id, course_id, created_at
	`, userID, courseID).Scan(
		&item.ID,
		&item.UserID,
		&item.CourseID,
		&item.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn("cart item already exists")
			return nil, ErrCartItemAlreadyExist
		}
		log.Error("failed to create cart item", zap.Error(err))
		return nil, db.Wrap("failed to create cart item", err)
	}

	log.Info("success create cart item", zap.Uint("cart_item_id", item.ID))
	return item, nil
}

func (r *repository) scanOne(ctx context.Context, query string, args ...any) (*CartItem, error) {
	item := &CartItem{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID,
		&item.UserID,
		&item.CourseID,
		&item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, db.Wrap("failed to get cart item", err)
	}
	return item, nil
}

func (r *repository) GetCartItemByID(ctx context.Context, id uint) (*CartItem, error) {
	return r.scanOne(ctx, `
	SELECT id, user_id, course_id, created_at
	FROM cart_items
	WHERE id = $1
	`, id)
}

func (r *repository) GetCartItemByUserAndCourse(ctx context.Context, userID, courseID uint) (*CartItem, error) {
	return r.scanOne(ctx, `
	SELECT id, user_id, course_id, created_at
	FROM cart_items
	WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)
}

func (r *repository) DeleteCartItem(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return db.Wrap("failed to remove cart item", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, db.Wrap("failed to clear cart", err)
	}
	return res.RowsAffected()
}

func (r *repository) GetCartRows(ctx context.Context, userID uint) ([]*cartRow, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCartRows"),
		zap.Uint("user_id", userID),
	)

	start := time.Now()
	log.Debug("query started")

	query := `
	SELECT
		ci.id,
		ci.created_at,

		c.id,
		c.title,
		c.slug,
		c.thumbnail,
		c.price,
		c.discount_price,
		c.on_sale,
		COALESCE(
			array_agg(f.name ORDER BY f.name) FILTER (WHERE f.id IS NOT NULL),
			'{}'
		)
	FROM cart_items ci
	JOIN courses c ON c.id = ci.course_id
	LEFT JOIN course_faculties cf ON cf.course_id = c.id
	LEFT JOIN faculties f ON f.id = cf.faculty_id
	WHERE ci.user_id = $1
	GROUP BY ci.id, c.id
	ORDER BY ci.created_at DESC, ci.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("query failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, db.Wrap("failed to get cart rows", err)
	}
	defer rows.Close()

	result := []*cartRow{}
	for rows.Next() {
		var (
			row       cartRow
			thumbnail sql.NullString
			discount  decimal.NullDecimal
			faculty   pq.StringArray
		)
		if err := rows.Scan(
			&row.CartID,
			&row.CreatedAt,

			&row.CourseID,
			&row.Title,
			&row.Slug,
			&thumbnail,
			&row.Price,
			&discount,
			&row.OnSale,
			&faculty,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, db.Wrap("failed to scan cart row", err)
		}

		if thumbnail.Valid {
			row.Thumbnail = &thumbnail.String
		}
		if discount.Valid {
			d := discount.Decimal
			row.DiscountPrice = &d
		}
		row.FacultyNames = []string(faculty)

		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, db.Wrap("failed to iterate cart rows", err)
	}

	log.Debug("query success",
		zap.Int("rows", len(result)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// DeleteCoursesTx removes the user's cart entries for the given courses
// inside the caller's transaction.
func DeleteCoursesTx(ctx context.Context, tx *sql.Tx, userID uint, courseIDs []uint) (int64, error) {
	ids := make(pq.Int64Array, 0, len(courseIDs))
	for _, id := range courseIDs {
		ids = append(ids, int64(id))
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND course_id = ANY($2)`,
		userID, ids,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
