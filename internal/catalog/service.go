package catalog

import (
	"context"
	"strings"

	"coursecart-be/internal/logger"
	"coursecart-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	// GetPurchasableCourse returns the course only when it can be sold.
	// Missing and unpublished courses are both reported as not found.
	GetPurchasableCourse(ctx context.Context, courseID uint) (*Course, error)
	// ValidateOptions checks that the optional mode and attempt are offered
	// for the course.
	ValidateOptions(ctx context.Context, courseID uint, modeID, attemptID *uint) error

	GetCourse(ctx context.Context, id uint) (*Course, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*Course, error)
	ListPublished(ctx context.Context, limit, page int) ([]*Course, error)
	ListCourses(ctx context.Context, status CourseStatus, limit, page int) ([]*Course, error)
	CreateCourse(ctx context.Context, in CourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, id uint, in CourseInput) (*Course, error)
	DeleteCourse(ctx context.Context, id uint) error

	ListLookups(ctx context.Context, kind LookupKind, limit, page int) ([]*Lookup, error)
	CreateLookup(ctx context.Context, kind LookupKind, name, slug string) (*Lookup, error)
	UpdateLookup(ctx context.Context, kind LookupKind, id uint, name, slug string) (*Lookup, error)
	DeleteLookup(ctx context.Context, kind LookupKind, id uint) error
}

type service struct {
	repo    Repository
	lookups LookupRepository
}

func NewService(repo Repository, lookups LookupRepository) Service {
	return &service{repo: repo, lookups: lookups}
}

func (s *service) GetPurchasableCourse(ctx context.Context, courseID uint) (*Course, error) {
	c, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.Purchasable() {
		logger.FromCtx(ctx).Debug("course not purchasable",
			zap.Uint("course_id", courseID),
			zap.String("status", string(c.Status)),
		)
		return nil, ErrCourseNotFound
	}
	return c, nil
}

func (s *service) ValidateOptions(ctx context.Context, courseID uint, modeID, attemptID *uint) error {
	if modeID != nil {
		ok, err := s.repo.CourseOffers(ctx, KindMode, courseID, *modeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrModeNotOffered
		}
	}

	if attemptID != nil {
		ok, err := s.repo.CourseOffers(ctx, KindAttempt, courseID, *attemptID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAttemptNotOffered
		}
	}

	return nil
}

func (s *service) GetCourse(ctx context.Context, id uint) (*Course, error) {
	return s.repo.GetCourseByID(ctx, id)
}

func (s *service) GetPublishedBySlug(ctx context.Context, slug string) (*Course, error) {
	c, err := s.repo.GetCourseBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.Purchasable() {
		return nil, ErrCourseNotFound
	}
	return c, nil
}

func (s *service) ListPublished(ctx context.Context, limit, page int) ([]*Course, error) {
	return s.ListCourses(ctx, StatusPublished, limit, page)
}

func (s *service) ListCourses(ctx context.Context, status CourseStatus, limit, page int) ([]*Course, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidCourseStatus
	}
	limit, offset := utils.Paginate(limit, page)
	return s.repo.ListCourses(ctx, status, limit, offset)
}

// normalizeCourse fills defaults and rejects inconsistent price terms.
func normalizeCourse(in *CourseInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Slug == "" {
		in.Slug = utils.Slugify(in.Title)
	}
	if !utils.IsSlug(in.Slug) {
		return ErrInvalidSlug
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !in.Status.Valid() {
		return ErrInvalidCourseStatus
	}
	if in.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if in.DiscountPrice != nil &&
		(!in.DiscountPrice.IsPositive() || !in.DiscountPrice.LessThan(in.Price)) {
		return ErrInvalidDiscountPrice
	}
	return nil
}

func (s *service) CreateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCourse"),
	)

	if err := normalizeCourse(&in); err != nil {
		log.Warn("invalid course input", zap.Error(err))
		return nil, err
	}

	c, err := s.repo.CreateCourse(ctx, in)
	if err != nil {
		log.Error("failed to create course", zap.Error(err))
		return nil, err
	}

	log.Info("CreateCourse success", zap.Uint("course_id", c.ID))
	return c, nil
}

func (s *service) UpdateCourse(ctx context.Context, id uint, in CourseInput) (*Course, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateCourse"),
		zap.Uint("course_id", id),
	)

	if err := normalizeCourse(&in); err != nil {
		log.Warn("invalid course input", zap.Error(err))
		return nil, err
	}

	c, err := s.repo.UpdateCourse(ctx, id, in)
	if err != nil {
		log.Error("failed to update course", zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *service) DeleteCourse(ctx context.Context, id uint) error {
	return s.repo.DeleteCourse(ctx, id)
}

func (s *service) ListLookups(ctx context.Context, kind LookupKind, limit, page int) ([]*Lookup, error) {
	limit, offset := utils.Paginate(limit, page)
	return s.lookups.List(ctx, kind, limit, offset)
}

func lookupSlug(name, slug string) (string, error) {
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if !utils.IsSlug(slug) {
		return "", ErrInvalidSlug
	}
	return slug, nil
}

func (s *service) CreateLookup(ctx context.Context, kind LookupKind, name, slug string) (*Lookup, error) {
	name = strings.TrimSpace(name)
	slug, err := lookupSlug(name, slug)
	if err != nil {
		return nil, err
	}

	l, err := s.lookups.Create(ctx, kind, name, slug)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to create lookup",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}
	return l, nil
}

func (s *service) UpdateLookup(ctx context.Context, kind LookupKind, id uint, name, slug string) (*Lookup, error) {
	name = strings.TrimSpace(name)
	slug, err := lookupSlug(name, slug)
	if err != nil {
		return nil, err
	}
	return s.lookups.Update(ctx, kind, id, name, slug)
}

func (s *service) DeleteLookup(ctx context.Context, kind LookupKind, id uint) error {
	return s.lookups.Delete(ctx, kind, id)
}
