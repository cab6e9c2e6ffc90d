package service

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

// Dashboard — данные главной страницы веб-интерфейса.
type Dashboard struct {
	Stats *models.UserStats
	Users []models.User
}

// Dashboard собирает агрегаты и отфильтрованный список пользователей.
func (s *Service) Dashboard(ctx context.Context, filter models.UserFilter) (*Dashboard, error) {
	const op = "service.dashboard.Dashboard"

	stats, err := s.storage.UserStats(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	users, err := s.storage.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Dashboard{Stats: stats, Users: users}, nil
}
