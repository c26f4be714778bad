package enrollment

import (
	"context"

	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
	ListCourses(ctx context.Context, userID uint) ([]*EnrolledCourse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	return s.repo.Exists(ctx, userID, courseID)
}

func (s *service) ListCourses(ctx context.Context, userID uint) ([]*EnrolledCourse, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list enrollments",
			zap.String("layer", "service"),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	return list, nil
}
