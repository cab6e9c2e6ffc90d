package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage"
)

const userColumns = `id, email, password_hash, full_name, activated, signup_by,
	total_login, session_at, created_at, updated_at`

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Activated,
		string(user.SignupBy),
		user.TotalLogin,
		user.SessionAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	return nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdatePassword заменяет хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	return s.execOne(ctx, op, query, id, hash)
}

// SetActivated меняет флаг активации.
func (s *Storage) SetActivated(ctx context.Context, id uuid.UUID, activated bool) error {
	const op = "storage.postgres.SetActivated"

	query := `UPDATE users SET activated = $2, updated_at = now() WHERE id = $1`

	return s.execOne(ctx, op, query, id, activated)
}

// UpdateProfile меняет отображаемое имя и email.
func (s *Storage) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, email string) error {
	const op = "storage.postgres.UpdateProfile"

	query := `UPDATE users SET full_name = $2, email = $3, updated_at = now() WHERE id = $1`

	return s.execOne(ctx, op, query, id, fullName, email)
}

// TouchLogin увеличивает счётчик входов и выставляет время последней сессии.
func (s *Storage) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "storage.postgres.TouchLogin"

	query := `UPDATE users SET total_login = total_login + 1, session_at = $2 WHERE id = $1`

	return s.execOne(ctx, op, query, id, at)
}

// execOne выполняет UPDATE, который должен затронуть ровно одну строку.
func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// mapWriteErr переводит нарушение уникальности в storage.ErrAlreadyExists
// с сохранением читаемой детали ограничения.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if pgErr.Detail != "" {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, pgErr.Detail)
		}

		return storage.ErrAlreadyExists
	}

	return err
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user     models.User
		signupBy string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Activated,
		&signupBy,
		&user.TotalLogin,
		&user.SessionAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.SignupBy = models.SignupBy(signupBy)
	return &user, nil
}
