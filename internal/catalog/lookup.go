package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coursecart-be/internal/db"
	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

// LookupRepository serves the categories, faculties, modes and attempts
// tables, which share the (id, name, slug, created_at) shape.
type LookupRepository interface {
	List(ctx context.Context, kind LookupKind, limit, offset int) ([]*Lookup, error)
	Create(ctx context.Context, kind LookupKind, name, slug string) (*Lookup, error)
	Update(ctx context.Context, kind LookupKind, id uint, name, slug string) (*Lookup, error)
	Delete(ctx context.Context, kind LookupKind, id uint) error
}

type lookupRepository struct {
	db *sql.DB
}

func NewLookupRepository(db *sql.DB) LookupRepository {
	return &lookupRepository{db: db}
}

// table returns the table for kind; kinds are a closed set so the name is
// safe to interpolate.
func table(kind LookupKind) (string, error) {
	if _, ok := ParseLookupKind(string(kind)); !ok {
		return "", ErrUnknownLookupKind
	}
	return string(kind), nil
}

func (r *lookupRepository) List(ctx context.Context, kind LookupKind, limit, offset int) ([]*Lookup, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListLookups"),
		zap.String("kind", t),
	)

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name, slug, created_at FROM %s ORDER BY name ASC LIMIT $1 OFFSET $2`, t),
		limit, offset,
	)
	if err != nil {
		log.Error("DB query failed", zap.Error(err))
		return nil, db.Wrap("failed to list "+t, err)
	}
	defer rows.Close()

	items := []*Lookup{}
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &l.CreatedAt); err != nil {
			log.Error("Row scan failed", zap.Error(err))
			return nil, db.Wrap("failed to scan "+t, err)
		}
		items = append(items, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("failed to iterate "+t, err)
	}

	return items, nil
}

func (r *lookupRepository) Create(ctx context.Context, kind LookupKind, name, slug string) (*Lookup, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	var l Lookup
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, slug) VALUES ($1, $2) RETURNING id, name, slug, created_at`, t),
		name, slug,
	).Scan(&l.ID, &l.Name, &l.Slug, &l.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		logger.FromCtx(ctx).Error("insert lookup failed", zap.String("kind", t), zap.Error(err))
		return nil, db.Wrap("failed to create "+t, err)
	}

	return &l, nil
}

func (r *lookupRepository) Update(ctx context.Context, kind LookupKind, id uint, name, slug string) (*Lookup, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}

	var l Lookup
	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE %s SET name = $1, slug = $2 WHERE id = $3 RETURNING id, name, slug, created_at`, t),
		name, slug, id,
	).Scan(&l.ID, &l.Name, &l.Slug, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLookupNotFound
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, db.Wrap("failed to update "+t, err)
	}

	return &l, nil
}

func (r *lookupRepository) Delete(ctx context.Context, kind LookupKind, id uint) error {
	t, err := table(kind)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t), id)
	if err != nil {
		return db.Wrap("failed to delete from "+t, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLookupNotFound
	}
	return nil
}
