package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

// ListUsers возвращает пользователей по фильтру, новые первыми.
func (s *Storage) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	const op = "storage.postgres.ListUsers"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1::boolean IS NULL OR activated = $1)
		  AND ($2::text IS NULL OR signup_by = $2)
		ORDER BY created_at DESC, id
	`

	var signupBy *string
	if filter.SignupBy != nil {
		v := string(*filter.SignupBy)
		signupBy = &v
	}

	rows, err := s.db.Query(ctx, query, filter.Activated, signupBy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UserStats считает агрегаты для дашборда.
// Границы суток и месяца берутся в UTC относительно now.
func (s *Storage) UserStats(ctx context.Context, now time.Time) (*models.UserStats, error) {
	const op = "storage.postgres.UserStats"

	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE session_at >= $1),
			count(*) FILTER (WHERE session_at >= $2),
			count(*) FILTER (WHERE NOT activated AND created_at >= $3)
		FROM users
	`

	var total, today, week, unverified int
	if err := s.db.QueryRow(ctx, query, dayStart, weekStart, monthStart).
		Scan(&total, &today, &week, &unverified); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.UserStats{
		Total:               total,
		SessionsToday:       today,
		AvgActive7Days:      int(math.Ceil(float64(week) / 7)),
		UnverifiedThisMonth: unverified,
	}, nil
}
