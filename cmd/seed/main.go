package main

import (
	"context"
	"errors"
	"log"
	"os"

	"coursecart-be/internal/catalog"
	"coursecart-be/internal/config"
	"coursecart-be/internal/db"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type demoCourse struct {
	title    string
	price    int64
	discount int64
	faculty  []string
	modes    []string
	attempts []string
}

var (
	demoFaculties = []string{"Asha Rao", "Vikram Mehta"}
	demoModes     = []string{"Online", "Pendrive"}
	demoAttempts  = []string{"May 2026", "Nov 2026"}

	demoCourses = []demoCourse{
		{title: "CA Final Audit", price: 1000, discount: 750, faculty: []string{"Asha Rao"}, modes: demoModes, attempts: demoAttempts},
		{title: "CA Inter Costing", price: 800, faculty: []string{"Vikram Mehta"}, modes: []string{"Online"}, attempts: []string{"May 2026"}},
	}
)

func main() {
	cfg := config.MustLoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	users := user.NewService(user.NewRepository(database))
	courses := catalog.NewService(
		catalog.NewRepository(database),
		catalog.NewLookupRepository(database),
	)

	ctx := context.Background()
	admin := user.NewUser{
		Name:     "Admin",
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
		Role:     user.RoleAdmin,
	}
	if err := seed(ctx, users, courses, admin); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func seed(ctx context.Context, users user.Service, courses catalog.Service, admin user.NewUser) error {
	if admin.Email != "" && admin.Password != "" {
		u, err := users.EnsureUser(ctx, admin)
		if err != nil {
			return err
		}
		logger.L().Info("admin ready", zap.Uint("user_id", u.ID))
	}

	faculties, err := ensureLookups(ctx, courses, catalog.KindFaculty, demoFaculties)
	if err != nil {
		return err
	}
	modes, err := ensureLookups(ctx, courses, catalog.KindMode, demoModes)
	if err != nil {
		return err
	}
	attempts, err := ensureLookups(ctx, courses, catalog.KindAttempt, demoAttempts)
	if err != nil {
		return err
	}

	for _, dc := range demoCourses {
		in := catalog.CourseInput{
			Title:      dc.title,
			Price:      decimal.NewFromInt(dc.price),
			Status:     catalog.StatusPublished,
			FacultyIDs: pick(faculties, dc.faculty),
			ModeIDs:    pick(modes, dc.modes),
			AttemptIDs: pick(attempts, dc.attempts),
		}
		if dc.discount > 0 {
			d := decimal.NewFromInt(dc.discount)
			in.DiscountPrice = &d
			in.OnSale = true
		}

		c, err := courses.CreateCourse(ctx, in)
		if errors.Is(err, catalog.ErrDuplicateSlug) {
			logger.L().Info("course already seeded", zap.String("title", dc.title))
			continue
		}
		if err != nil {
			return err
		}
		logger.L().Info("course seeded", zap.Uint("course_id", c.ID), zap.String("slug", c.Slug))
	}
	return nil
}

// ensureLookups creates the named rows that are missing and returns the ids
// of all of them by name.
func ensureLookups(ctx context.Context, courses catalog.Service, kind catalog.LookupKind, names []string) (map[string]uint, error) {
	existing, err := courses.ListLookups(ctx, kind, 100, 1)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]uint, len(names))
	for _, l := range existing {
		ids[l.Name] = l.ID
	}

	for _, name := range names {
		if _, ok := ids[name]; ok {
			continue
		}
		l, err := courses.CreateLookup(ctx, kind, name, "")
		if err != nil {
			return nil, err
		}
		ids[name] = l.ID
	}
	return ids, nil
}

func pick(ids map[string]uint, names []string) []uint {
	out := make([]uint, 0, len(names))
	for _, n := range names {
		if id, ok := ids[n]; ok {
			out = append(out, id)
		}
	}
	return out
}
