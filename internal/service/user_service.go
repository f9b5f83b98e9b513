package service

import (
	"context"
	"errors"

	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
)

type UserService interface {
	Me(ctx context.Context, claims Claims) (*models.User, error)
	List(ctx context.Context, claims Claims) ([]models.User, error)
	Delete(ctx context.Context, claims Claims, id string) error
}

type userService struct {
	userRepo repo.UserRepository
	l        pkgLog.Logger
}

func NewUserService(userRepo repo.UserRepository, l pkgLog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		l:        l,
	}
}

func (s *userService) Me(ctx context.Context, claims Claims) (*models.User, error) {
	u, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.l.Errorf(ctx, "service.userService.Me: %v", err)
		return nil, err
	}

	return u, nil
}

func (s *userService) List(ctx context.Context, claims Claims) ([]models.User, error) {
	if claims.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.l.Errorf(ctx, "service.userService.List: %v", err)
		return nil, err
	}

	return users, nil
}

func (s *userService) Delete(ctx context.Context, claims Claims, id string) error {
	if claims.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if claims.UserID == id {
		return ErrForbidden
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		s.l.Errorf(ctx, "service.userService.Delete: %v", err)
		return err
	}

	s.l.Infof(ctx, "User deleted - id: %s", id)

	return nil
}
