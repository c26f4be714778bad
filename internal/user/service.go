package user

import (
	"context"
	"errors"
	"strings"

	"coursecart-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	// EnsureUser creates the user, or returns the existing one with that email.
	EnsureUser(ctx context.Context, nu NewUser) (*User, error)
	// Register creates a standard user; a taken email is a Conflict.
	Register(ctx context.Context, nu NewUser) (*User, error)
	// Login checks the credentials and returns the user with a session token.
	Login(ctx context.Context, email, password string) (*User, string, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	IssueToken(u *User) (string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) EnsureUser(ctx context.Context, nu NewUser) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "EnsureUser"),
		zap.String("email", nu.Email),
	)

	nu.Email = strings.ToLower(strings.TrimSpace(nu.Email))
	if nu.Role == "" {
		nu.Role = RoleUser
	}

	hashed, err := HashPassword(nu.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}
	nu.Password = hashed

	u, err := s.repo.Create(ctx, nu)
	if errors.Is(err, ErrEmailExists) {
		log.Info("user already exists")
		return s.repo.FindByEmail(ctx, nu.Email)
	}
	if err != nil {
		return nil, err
	}

	log.Info("user created", zap.Uint("user_id", u.ID))
	return u, nil
}

func (s *service) Register(ctx context.Context, nu NewUser) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	nu.Email = strings.ToLower(strings.TrimSpace(nu.Email))
	nu.Name = strings.TrimSpace(nu.Name)
	nu.Role = RoleUser

	hashed, err := HashPassword(nu.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}
	nu.Password = hashed

	u, err := s.repo.Create(ctx, nu)
	if err != nil {
		if !errors.Is(err, ErrEmailExists) {
			log.Error("failed to register user", zap.Error(err))
		}
		return nil, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if !CheckPasswordHash(password, u.Password) {
		logger.FromCtx(ctx).Info("login rejected", zap.Uint("user_id", u.ID))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) IssueToken(u *User) (string, error) {
	return GenerateJWT(*u)
}
