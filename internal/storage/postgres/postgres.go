package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pribylovaa/go-login-boilerplate/internal/storage"
)

// applicationName виден в pg_stat_activity.
const applicationName = "login-dashboard"

// Storage — пользователи и агрегаты дашборда поверх пула pgx.
type Storage struct {
	db *pgxpool.Pool
}

// New подключается к PostgreSQL и проверяет, что схема users накатана.
// Отсутствие таблицы users — ошибка старта.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var hasUsers bool
	if err := db.QueryRow(ctx, `SELECT to_regclass('public.users') IS NOT NULL`).Scan(&hasUsers); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !hasUsers {
		db.Close()
		return nil, fmt.Errorf("%s: users table is missing, apply migrations/1_init_users.up.sql", op)
	}

	return &Storage{db: db}, nil
}

// Ping — проверка готовности для /healthz.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("storage.postgres.Ping: %w", err)
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.db.Close()
}

var _ storage.Storage = (*Storage)(nil)
