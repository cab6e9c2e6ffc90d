package models

import (
	"time"

	"github.com/google/uuid"
)

// SignupBy — способ, которым пользователь зарегистрировался в системе.
// Значение неизменяемо после создания записи.
type SignupBy string

const (
	SignupByEmail    SignupBy = "EMAIL"
	SignupByFacebook SignupBy = "FACEBOOK"
	SignupByGoogle   SignupBy = "GOOGLE"
)

// Valid сообщает, относится ли значение к известным способам регистрации.
func (s SignupBy) Valid() bool {
	switch s {
	case SignupByEmail, SignupByFacebook, SignupByGoogle:
		return true
	default:
		return false
	}
}

// User — модель пользователя в системе.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	// Activated — false до подтверждения e-mail; без активации вход запрещён.
	Activated bool
	SignupBy  SignupBy
	// TotalLogin и SessionAt обновляются при каждом успешном входе.
	TotalLogin int
	SessionAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PasswordLogin сообщает, разрешены ли для пользователя парольные сценарии.
func (u *User) PasswordLogin() bool {
	return u.SignupBy == SignupByEmail
}

// UserFilter — необязательные фильтры списка пользователей.
// nil-поле означает "без фильтра".
type UserFilter struct {
	Activated *bool
	SignupBy  *SignupBy
}

// UserStats — агрегаты для дашборда.
type UserStats struct {
	Total int
	// SessionsToday — пользователи, активные с начала текущих суток (UTC).
	SessionsToday int
	// AvgActive7Days — среднее число активных пользователей в сутки за последние 7 дней.
	AvgActive7Days int
	// UnverifiedThisMonth — неактивированные пользователи, созданные в текущем месяце.
	UnverifiedThisMonth int
}

// SocialProfile — профиль пользователя, полученный от социального провайдера.
type SocialProfile struct {
	// ID — идентификатор пользователя у провайдера.
	ID       string
	Email    string
	FullName string
	Provider SignupBy
}
