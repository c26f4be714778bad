package enrollment

import (
	"context"
	"database/sql"
	"time"

	"coursecart-be/internal/db"
	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Exists(ctx context.Context, userID, courseID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]*EnrolledCourse, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2
		)
	`, userID, courseID).Scan(&exists)
	if err != nil {
		logger.FromCtx(ctx).Error("enrollment lookup failed",
			zap.String("layer", "repository"),
			zap.Uint("user_id", userID),
			zap.Uint("course_id", courseID),
			zap.Error(err),
		)
		return false, db.Wrap("failed to check enrollment", err)
	}
	return exists, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]*EnrolledCourse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
		zap.Uint("user_id", userID),
	)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, c.id, c.title, c.slug, c.thumbnail, e.order_id, e.created_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC
	`, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, db.Wrap("failed to list enrollments", err)
	}
	defer rows.Close()

	list := []*EnrolledCourse{}
	for rows.Next() {
		var (
			e         EnrolledCourse
			thumbnail sql.NullString
			orderID   sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.CourseID, &e.Title, &e.Slug, &thumbnail, &orderID, &e.EnrolledAt); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, db.Wrap("failed to scan enrollment", err)
		}
		if thumbnail.Valid {
			e.Thumbnail = &thumbnail.String
		}
		if orderID.Valid {
			id := uint(orderID.Int64)
			e.OrderID = &id
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("failed to iterate enrollments", err)
	}

	log.Debug("query success", zap.Int("rows", len(list)), zap.Duration("duration", time.Since(start)))
	return list, nil
}

// EnrollTx grants each course to the user inside the caller's transaction.
// Existing enrollments are left untouched. It returns the number of new rows.
func EnrollTx(ctx context.Context, tx *sql.Tx, userID, orderID uint, courseIDs []uint) (int64, error) {
	var created int64
	for _, courseID := range courseIDs {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO enrollments (user_id, course_id, order_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, course_id) DO NOTHING
		`, userID, courseID, orderID)
		if err != nil {
			return created, err
		}
		n, _ := res.RowsAffected()
		created += n
	}
	return created, nil
}
