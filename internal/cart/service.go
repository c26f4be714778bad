package cart

import (
	"context"
	"errors"

	"coursecart-be/internal/catalog"
	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

// CourseFinder resolves a course that may be sold.
type CourseFinder interface {
	GetPurchasableCourse(ctx context.Context, courseID uint) (*catalog.Course, error)
}

type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
}

// Service defines the business logic for carts.
type Service interface {
	AddItem(ctx context.Context, userID, courseID uint) (*CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uint) error
	ListItems(ctx context.Context, userID uint) ([]CartItemSummary, error)
	Clear(ctx context.Context, userID uint) error
	CheckItem(ctx context.Context, userID, courseID uint) (*CartItem, error)
}

type service struct {
	repo        Repository
	courses     CourseFinder
	enrollments EnrollmentChecker
}

func NewService(repo Repository, courses CourseFinder, enrollments EnrollmentChecker) Service {
	return &service{repo: repo, courses: courses, enrollments: enrollments}
}

// AddItem puts a published course in the user's cart. The unique
// (user_id, course_id) constraint settles concurrent adds.
func (s *service) AddItem(ctx context.Context, userID, courseID uint) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddItem"),
		zap.Uint("user_id", userID),
		zap.Uint("course_id", courseID),
	)

	// 1. Course must exist and be published
	if _, err := s.courses.GetPurchasableCourse(ctx, courseID); err != nil {
		log.Info("course not purchasable", zap.Error(err))
		return nil, err
	}

	// 2. Already enrolled courses never enter the cart
	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		log.Error("failed to check enrollment", zap.Error(err))
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	// 3. Existing entry
	existing, err := s.repo.GetCartItemByUserAndCourse(ctx, userID, courseID)
	if err != nil && !errors.Is(err, ErrCartItemNotFound) {
		log.Error("failed to get cart item", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrCartItemAlreadyExist
	}

	// 4. Insert
	item, err := s.repo.CreateCartItem(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	log.Info("AddItem success", zap.Uint("cart_item_id", item.ID))
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uint) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RemoveItem"),
		zap.Uint("user_id", userID),
		zap.Uint("cart_item_id", itemID),
	)

	item, err := s.repo.GetCartItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		log.Warn("remove of foreign cart item rejected", zap.Uint("owner_id", item.UserID))
		return ErrNotOwner
	}

	if err := s.repo.DeleteCartItem(ctx, itemID); err != nil {
		log.Error("failed to remove cart item", zap.Error(err))
		return err
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, userID uint) ([]CartItemSummary, error) {
	rows, err := s.repo.GetCartRows(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]CartItemSummary, 0, len(rows))
	for _, r := range rows {
		items = append(items, toSummary(r))
	}
	return items, nil
}

// Clear removes all items for a given user.
func (s *service) Clear(ctx context.Context, userID uint) error {
	n, err := s.repo.ClearCart(ctx, userID)
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Debug("cart cleared",
		zap.Uint("user_id", userID),
		zap.Int64("removed", n),
	)
	return nil
}

func (s *service) CheckItem(ctx context.Context, userID, courseID uint) (*CartItem, error) {
	return s.repo.GetCartItemByUserAndCourse(ctx, userID, courseID)
}
