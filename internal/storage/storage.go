package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
// Каждый вызов атомарен сам по себе.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email (без учёта регистра).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdatePassword заменяет хэш пароля.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	// SetActivated меняет флаг активации.
	SetActivated(ctx context.Context, id uuid.UUID, activated bool) error
	// UpdateProfile меняет отображаемое имя и email.
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, email string) error
	// TouchLogin увеличивает счётчик входов и выставляет время последней сессии.
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// DashboardStorage — выборки для административного дашборда.
type DashboardStorage interface {
	// ListUsers возвращает пользователей по фильтру, новые первыми.
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	// UserStats считает агрегаты относительно момента now.
	UserStats(ctx context.Context, now time.Time) (*models.UserStats, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	DashboardStorage
	Close()
}
