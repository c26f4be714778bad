package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursecart-be/internal/db"
	"coursecart-be/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	GetCourseByID(ctx context.Context, id uint) (*Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (*Course, error)
	ListCourses(ctx context.Context, status CourseStatus, limit, offset int) ([]*Course, error)
	CreateCourse(ctx context.Context, in CourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, id uint, in CourseInput) (*Course, error)
	DeleteCourse(ctx context.Context, id uint) error
	CourseOffers(ctx context.Context, kind LookupKind, courseID, optionID uint) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const courseSelect = `
	SELECT
		c.id,
		c.title,
		c.slug,
		c.description,
		c.thumbnail,
		c.price,
		c.discount_price,
		c.on_sale,
		c.status,
		c.category_id,
		c.created_at,
		c.updated_at,
		COALESCE(
			array_agg(f.name ORDER BY f.name) FILTER (WHERE f.id IS NOT NULL),
			'{}'
		) AS faculty_names
	FROM courses c
	LEFT JOIN course_faculties cf ON cf.course_id = c.id
	LEFT JOIN faculties f ON f.id = cf.faculty_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*Course, error) {
	var (
		c          Course
		thumbnail  sql.NullString
		discount   decimal.NullDecimal
		categoryID sql.NullInt64
		faculty    pq.StringArray
	)

	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Slug,
		&c.Description,
		&thumbnail,
		&c.Price,
		&discount,
		&c.OnSale,
		&c.Status,
		&categoryID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&faculty,
	)
	if err != nil {
		return nil, err
	}

	if thumbnail.Valid {
		c.Thumbnail = &thumbnail.String
	}
	if discount.Valid {
		d := discount.Decimal
		c.DiscountPrice = &d
	}
	if categoryID.Valid {
		id := uint(categoryID.Int64)
		c.CategoryID = &id
	}
	c.FacultyNames = []string(faculty)

	return &c, nil
}

func (r *repository) getCourse(ctx context.Context, where string, arg any) (*Course, error) {
	query := courseSelect + " WHERE " + where + " GROUP BY c.id"

	c, err := scanCourse(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, db.Wrap("failed to get course", err)
	}
	return c, nil
}

func (r *repository) GetCourseByID(ctx context.Context, id uint) (*Course, error) {
	return r.getCourse(ctx, "c.id = $1", id)
}

func (r *repository) GetCourseBySlug(ctx context.Context, slug string) (*Course, error) {
	return r.getCourse(ctx, "c.slug = $1", slug)
}

func (r *repository) ListCourses(ctx context.Context, status CourseStatus, limit, offset int) ([]*Course, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListCourses"),
		zap.String("status", string(status)),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	args := []any{}
	query := courseSelect
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" WHERE c.status = $%d", len(args))
	}
	query += " GROUP BY c.id ORDER BY c.created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, db.Wrap("failed to list courses", err)
	}
	defer rows.Close()

	courses := []*Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, db.Wrap("failed to scan course", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("failed to iterate courses", err)
	}

	log.Debug("query success",
		zap.Int("rows", len(courses)),
		zap.Duration("duration", time.Since(start)),
	)
	return courses, nil
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (r *repository) CreateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateCourse"),
		zap.String("slug", in.Slug),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, db.Wrap("failed to begin tx", err)
	}
	defer tx.Rollback()

	var id uint
	err = tx.QueryRowContext(ctx, `
		INSERT INTO courses (
			title, slug, description, thumbnail,
			price, discount_price, on_sale, status, category_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`,
		in.Title,
		in.Slug,
		in.Description,
		in.Thumbnail,
		in.Price,
		nullableDecimal(in.DiscountPrice),
		in.OnSale,
		in.Status,
		in.CategoryID,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			log.Warn("duplicate course slug")
			return nil, ErrDuplicateSlug
		}
		log.Error("insert course failed", zap.Error(err))
		return nil, db.Wrap("failed to insert course", err)
	}

	if err := insertCourseLinks(ctx, tx, id, in); err != nil {
		log.Error("insert course links failed", zap.Error(err))
		return nil, db.Wrap("failed to link course", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, db.Wrap("failed to commit course", err)
	}

	log.Info("course created", zap.Uint("course_id", id))
	return r.GetCourseByID(ctx, id)
}

func (r *repository) UpdateCourse(ctx context.Context, id uint, in CourseInput) (*Course, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateCourse"),
		zap.Uint("course_id", id),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, db.Wrap("failed to begin tx", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE courses SET
			title = $1,
			slug = $2,
			description = $3,
			thumbnail = $4,
			price = $5,
			discount_price = $6,
			on_sale = $7,
			status = $8,
			category_id = $9,
			updated_at = NOW()
		WHERE id = $10
	`,
		in.Title,
		in.Slug,
		in.Description,
		in.Thumbnail,
		in.Price,
		nullableDecimal(in.DiscountPrice),
		in.OnSale,
		in.Status,
		in.CategoryID,
		id,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		log.Error("update course failed", zap.Error(err))
		return nil, db.Wrap("failed to update course", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrCourseNotFound
	}

	for _, table := range []string{"course_faculties", "course_modes", "course_attempts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE course_id = $1`, id); err != nil {
			return nil, db.Wrap("failed to reset course links", err)
		}
	}
	if err := insertCourseLinks(ctx, tx, id, in); err != nil {
		return nil, db.Wrap("failed to link course", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, db.Wrap("failed to commit course", err)
	}

	return r.GetCourseByID(ctx, id)
}

func insertCourseLinks(ctx context.Context, tx *sql.Tx, courseID uint, in CourseInput) error {
	links := []struct {
		stmt string
		ids  []uint
	}{
		{`INSERT INTO course_faculties (course_id, faculty_id) VALUES ($1, $2)`, in.FacultyIDs},
		{`INSERT INTO course_modes (course_id, mode_id) VALUES ($1, $2)`, in.ModeIDs},
		{`INSERT INTO course_attempts (course_id, attempt_id) VALUES ($1, $2)`, in.AttemptIDs},
	}

	for _, l := range links {
		for _, id := range l.ids {
			if _, err := tx.ExecContext(ctx, l.stmt, courseID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *repository) DeleteCourse(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrCourseInUse
		}
		return db.Wrap("failed to delete course", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCourseNotFound
	}
	return nil
}

var offerTables = map[LookupKind]struct{ table, column string }{
	KindMode:    {"course_modes", "mode_id"},
	KindAttempt: {"course_attempts", "attempt_id"},
}

// CourseOffers reports whether a mode or attempt is linked to the course.
func (r *repository) CourseOffers(ctx context.Context, kind LookupKind, courseID, optionID uint) (bool, error) {
	t, ok := offerTables[kind]
	if !ok {
		return false, ErrUnknownLookupKind
	}

	var exists bool
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE course_id = $1 AND %s = $2)`, t.table, t.column),
		courseID, optionID,
	).Scan(&exists)
	if err != nil {
		return false, db.Wrap("failed to check course option", err)
	}
	return exists, nil
}
