// token выпускает и разбирает подписанные JWT (HS256) с субъектом и ролью.
//
// Роль кодируется флагами в claims:
//   - refresh=true — refresh-токен;
//   - verify=true — токен подтверждения e-mail (sub = e-mail);
//   - иначе — access-токен.
//
// Codec не хранит состояния, кроме неизменяемых секрета и issuer,
// и безопасен для конкурентного использования.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-login-boilerplate/internal/config"
)

// Role — назначение токена.
type Role string

const (
	RoleAccess       Role = "access"
	RoleRefresh      Role = "refresh"
	RoleVerification Role = "verification"
)

var (
	// ErrInvalidToken — подпись не совпала, структура битая или алгоритм не HS256.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired — срок действия токена истёк.
	ErrExpired = errors.New("token expired")
)

// Payload — разобранное содержимое токена.
type Payload struct {
	ID        string
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

type claims struct {
	Refresh bool `json:"refresh"`
	Verify  bool `json:"verify,omitempty"`
	jwt.RegisteredClaims
}

func (c *claims) role() Role {
	switch {
	case c.Verify:
		return RoleVerification
	case c.Refresh:
		return RoleRefresh
	default:
		return RoleAccess
	}
}

// Codec выпускает и проверяет токены одним секретом на процесс.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// New создаёт Codec из конфигурации аутентификации.
func New(cfg config.AuthConfig) *Codec {
	return &Codec{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue подписывает токен с субъектом, ролью и временем жизни ttl.
// Каждый токен получает уникальный jti, поэтому две выдачи в одну секунду
// не дают одинаковых строк.
func (c *Codec) Issue(subject string, role Role, ttl time.Duration) (string, time.Time, error) {
	const op = "token.Issue"

	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%s: empty subject", op)
	}

	now := c.now()
	exp := now.Add(ttl)

	cl := claims{
		Refresh: role == RoleRefresh,
		Verify:  role == RoleVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	// В JWT exp хранится с точностью до секунды.
	return signed, cl.ExpiresAt.Time, nil
}

type parseOptions struct {
	skipExpiry bool
}

// ParseOption настраивает Parse.
type ParseOption func(*parseOptions)

// SkipExpiry разрешает разбор истёкшего токена.
// Нужен только для повторной отправки ссылки подтверждения e-mail,
// чтобы восстановить адрес из просроченной ссылки.
func SkipExpiry() ParseOption {
	return func(o *parseOptions) { o.skipExpiry = true }
}

// Parse проверяет подпись и срок действия токена и возвращает его содержимое.
// Срок строгий: токен с exp в прошлом отклоняется с ErrExpired без допуска.
// Проверка роли остаётся на вызывающей стороне.
func (c *Codec) Parse(tok string, opts ...ParseOption) (*Payload, error) {
	const op = "token.Parse"

	var po parseOptions
	for _, o := range opts {
		o(&po)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	if po.skipExpiry {
		parserOpts = append(parserOpts, jwt.WithoutClaimsValidation())
	}

	var cl claims
	t, err := jwt.ParseWithClaims(tok, &cl, c.keyFunc, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !t.Valid || cl.Subject == "" || cl.ExpiresAt == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	// WithoutClaimsValidation отключает и проверку issuer — проверяем вручную.
	if po.skipExpiry && c.issuer != "" && cl.Issuer != c.issuer {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return &Payload{
		ID:        cl.ID,
		Subject:   cl.Subject,
		Role:      cl.role(),
		ExpiresAt: cl.ExpiresAt.Time,
	}, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method != jwt.SigningMethodHS256 {
		return nil, ErrInvalidToken
	}

	return c.secret, nil
}
