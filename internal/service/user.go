package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/urban-shop/internal/domain/models"
	"github.com/linemk/urban-shop/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserService — профиль пользователя и админские операции над пользователями.
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*models.User, error)
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UpdateProfileInput — частичное обновление профиля: пустые поля сохраняют старые значения.
type UpdateProfileInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Address  *models.Address
}

type UserPage struct {
	Users []*models.User `json:"users"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
	Total int64          `json:"total"`
}

type userService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage) UserService {
	return &userService{log: log, userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	const op = "service.UserService.GetProfile"

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*models.User, error) {
	const op = "service.UserService.UpdateProfile"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	if input.Password != "" {
		passHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("failed to hash password", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		user.PassHash = passHash
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		logger.Error("failed to update user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("profile updated")
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	const op = "service.UserService.ListUsers"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	users, total, err := s.userRepo.ListUsers(ctx, limit, (page-1)*limit)
	if err != nil {
		s.log.Error("failed to list users", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &UserPage{Users: users, Page: page, Pages: pages(total, limit), Total: total}, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	const op = "service.UserService.DeleteUser"

	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		s.log.Error("failed to delete user", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.String("op", op), slog.Int64("userID", id))
	return nil
}
