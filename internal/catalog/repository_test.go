package catalog

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var courseColumns = []string{
	"id", "title", "slug", "description", "thumbnail",
	"price", "discount_price", "on_sale", "status", "category_id",
	"created_at", "updated_at", "faculty_names",
}

func courseRow(id uint, status CourseStatus, discount driver.Value) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "Go Basics", "go-basics", "intro", nil,
		"1000.00", discount, true, string(status), nil,
		now, now, "{Alice,Bob}",
	}
}

func TestRepository_GetCourseByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM courses c").
			WithArgs(uint(7)).
			WillReturnRows(sqlmock.NewRows(courseColumns).AddRow(courseRow(7, StatusPublished, "800.00")...))

		c, err := repo.GetCourseByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, uint(7), c.ID)
		assert.True(t, c.Price.Equal(decimal.NewFromInt(1000)))
		require.NotNil(t, c.DiscountPrice)
		assert.True(t, c.DiscountPrice.Equal(decimal.NewFromInt(800)))
		assert.Nil(t, c.Thumbnail)
		assert.Nil(t, c.CategoryID)
		assert.Equal(t, []string{"Alice", "Bob"}, c.FacultyNames)
		assert.True(t, c.EffectivePrice().Equal(decimal.NewFromInt(800)))
	})

	t.Run("NullDiscount", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM courses c").
			WithArgs(uint(8)).
			WillReturnRows(sqlmock.NewRows(courseColumns).AddRow(courseRow(8, StatusDraft, nil)...))

		c, err := repo.GetCourseByID(context.Background(), 8)
		require.NoError(t, err)
		assert.Nil(t, c.DiscountPrice)
		assert.True(t, c.EffectivePrice().Equal(decimal.NewFromInt(1000)))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM courses c").
			WithArgs(uint(9)).
			WillReturnRows(sqlmock.NewRows(courseColumns))

		_, err := repo.GetCourseByID(context.Background(), 9)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListCourses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("WHERE c.status = \\$1 GROUP BY c.id ORDER BY c.created_at DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs(string(StatusPublished), 20, 0).
		WillReturnRows(sqlmock.NewRows(courseColumns).
			AddRow(courseRow(1, StatusPublished, nil)...).
			AddRow(courseRow(2, StatusPublished, nil)...))

	courses, err := repo.ListCourses(context.Background(), StatusPublished, 20, 0)
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateCourse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	in := CourseInput{
		Title:      "Go Basics",
		Slug:       "go-basics",
		Price:      decimal.NewFromInt(1000),
		Status:     StatusPublished,
		FacultyIDs: []uint{3},
		ModeIDs:    []uint{4},
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO courses").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
		mock.ExpectExec("INSERT INTO course_faculties").
			WithArgs(uint(11), uint(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO course_modes").
			WithArgs(uint(11), uint(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("SELECT (.+) FROM courses c").
			WithArgs(uint(11)).
			WillReturnRows(sqlmock.NewRows(courseColumns).AddRow(courseRow(11, StatusPublished, nil)...))

		c, err := repo.CreateCourse(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, uint(11), c.ID)
	})

	t.Run("DuplicateSlug", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO courses").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.CreateCourse(context.Background(), in)
		assert.ErrorIs(t, err, ErrDuplicateSlug)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteCourse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec("DELETE FROM courses").WithArgs(uint(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteCourse(context.Background(), 5), ErrCourseNotFound)

	mock.ExpectExec("DELETE FROM courses").WithArgs(uint(6)).WillReturnError(errors.New("db error"))
	assert.Error(t, repo.DeleteCourse(context.Background(), 6))

	mock.ExpectExec("DELETE FROM courses").WithArgs(uint(7)).WillReturnError(&pq.Error{Code: "23503"})
	assert.ErrorIs(t, repo.DeleteCourse(context.Background(), 7), ErrCourseInUse)
}

func TestRepository_CourseOffers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM course_modes WHERE course_id = \\$1 AND mode_id = \\$2\\)").
		WithArgs(uint(1), uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.CourseOffers(context.Background(), KindMode, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.CourseOffers(context.Background(), KindFaculty, 1, 2)
	assert.ErrorIs(t, err, ErrUnknownLookupKind)
}

func TestLookupRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLookupRepository(db)
	now := time.Now()

	t.Run("Create", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO modes").
			WithArgs("Online", "online").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "created_at"}).AddRow(1, "Online", "online", now))

		l, err := repo.Create(context.Background(), KindMode, "Online", "online")
		require.NoError(t, err)
		assert.Equal(t, uint(1), l.ID)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, err := repo.List(context.Background(), LookupKind("users"), 10, 0)
		assert.ErrorIs(t, err, ErrUnknownLookupKind)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		mock.ExpectQuery("UPDATE faculties").
			WithArgs("Ann", "ann", uint(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "created_at"}))

		_, err := repo.Update(context.Background(), KindFaculty, 99, "Ann", "ann")
		assert.ErrorIs(t, err, ErrLookupNotFound)
	})

	t.Run("List", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, slug, created_at FROM categories").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "created_at"}).
				AddRow(1, "Finance", "finance", now).
				AddRow(2, "Law", "law", now))

		items, err := repo.List(context.Background(), KindCategory, 10, 0)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
