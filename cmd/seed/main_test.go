package main

import (
	"context"
	"testing"

	"coursecart-be/internal/catalog"
	"coursecart-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Only the methods seed calls are implemented; the embedded interfaces
// panic on anything else.
type MockUsers struct {
	user.Service
	mock.Mock
}

func (m *MockUsers) EnsureUser(ctx context.Context, nu user.NewUser) (*user.User, error) {
	args := m.Called(ctx, nu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockCatalog struct {
	catalog.Service
	mock.Mock
}

func (m *MockCatalog) ListLookups(ctx context.Context, kind catalog.LookupKind, limit, page int) ([]*catalog.Lookup, error) {
	args := m.Called(ctx, kind, limit, page)
	return args.Get(0).([]*catalog.Lookup), args.Error(1)
}

func (m *MockCatalog) CreateLookup(ctx context.Context, kind catalog.LookupKind, name, slug string) (*catalog.Lookup, error) {
	args := m.Called(ctx, kind, name, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Lookup), args.Error(1)
}

func (m *MockCatalog) CreateCourse(ctx context.Context, in catalog.CourseInput) (*catalog.Course, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Course), args.Error(1)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	users := new(MockUsers)
	courses := new(MockCatalog)

	admin := user.NewUser{Name: "Admin", Email: "admin@example.com", Password: "secret", Role: user.RoleAdmin}
	users.On("EnsureUser", ctx, admin).Return(&user.User{ID: 1, Role: user.RoleAdmin}, nil)

	// faculties already exist, modes and attempts are created
	courses.On("ListLookups", ctx, catalog.KindFaculty, 100, 1).Return([]*catalog.Lookup{
		{ID: 1, Name: "Asha Rao"}, {ID: 2, Name: "Vikram Mehta"},
	}, nil)
	courses.On("ListLookups", ctx, catalog.KindMode, 100, 1).Return([]*catalog.Lookup{}, nil)
	courses.On("ListLookups", ctx, catalog.KindAttempt, 100, 1).Return([]*catalog.Lookup{}, nil)
	courses.On("CreateLookup", ctx, catalog.KindMode, "Online", "").Return(&catalog.Lookup{ID: 10, Name: "Online"}, nil)
	courses.On("CreateLookup", ctx, catalog.KindMode, "Pendrive", "").Return(&catalog.Lookup{ID: 11, Name: "Pendrive"}, nil)
	courses.On("CreateLookup", ctx, catalog.KindAttempt, "May 2026", "").Return(&catalog.Lookup{ID: 20, Name: "May 2026"}, nil)
	courses.On("CreateLookup", ctx, catalog.KindAttempt, "Nov 2026", "").Return(&catalog.Lookup{ID: 21, Name: "Nov 2026"}, nil)

	courses.On("CreateCourse", ctx, mock.MatchedBy(func(in catalog.CourseInput) bool {
		return in.Title == "CA Final Audit" &&
			in.DiscountPrice != nil && in.DiscountPrice.IntPart() == 750 &&
			assert.ObjectsAreEqual([]uint{1}, in.FacultyIDs) &&
			assert.ObjectsAreEqual([]uint{10, 11}, in.ModeIDs)
	})).Return(&catalog.Course{ID: 100, Slug: "ca-final-audit"}, nil)
	courses.On("CreateCourse", ctx, mock.MatchedBy(func(in catalog.CourseInput) bool {
		return in.Title == "CA Inter Costing" && in.DiscountPrice == nil
	})).Return(nil, catalog.ErrDuplicateSlug)

	require.NoError(t, seed(ctx, users, courses, admin))
	users.AssertExpectations(t)
	courses.AssertExpectations(t)
}

func TestSeed_SkipsAdminWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	users := new(MockUsers)
	courses := new(MockCatalog)

	courses.On("ListLookups", ctx, catalog.KindFaculty, 100, 1).Return([]*catalog.Lookup{}, assert.AnError)

	err := seed(ctx, users, courses, user.NewUser{})
	assert.ErrorIs(t, err, assert.AnError)
	users.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything)
}

func TestPick(t *testing.T) {
	ids := map[string]uint{"a": 1, "b": 2}
	assert.Equal(t, []uint{2, 1}, pick(ids, []string{"b", "missing", "a"}))
}
