// security — хэширование и проверка паролей, политика сложности пароля.
// Пакет не хранит состояния и безопасен для конкурентного использования.
package security

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen — минимальная длина пароля в рунах.
const MinPasswordLen = 8

var (
	// ErrEmptyPassword — пароль пустой.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrWeakPassword — пароль не удовлетворяет политике сложности.
	// Конкретная причина добавляется к ошибке через %w.
	ErrWeakPassword = errors.New("password is too weak")
)

// Hash хэширует пароль с помощью bcrypt (соль и стоимость внутри хэша).
func Hash(password string) (string, error) {
	const op = "security.password.Hash"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// Verify сравнивает пароль с хэшем за постоянное время.
// Повреждённый хэш даёт false.
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePassword проверяет минимальные требования к паролю:
// хотя бы одна строчная, заглавная, цифра и спецсимвол, длина >= MinPasswordLen.
func ValidatePassword(pw string) error {
	if len(pw) == 0 {
		return ErrEmptyPassword
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasLower:
		return fmt.Errorf("%w: password should contain at least one lower character", ErrWeakPassword)
	case !hasUpper:
		return fmt.Errorf("%w: password should contain at least one upper character", ErrWeakPassword)
	case !hasDigit:
		return fmt.Errorf("%w: password should contain at least one digit character", ErrWeakPassword)
	case !hasSpecial:
		return fmt.Errorf("%w: password should contain at least one special character", ErrWeakPassword)
	case len([]rune(pw)) < MinPasswordLen:
		return fmt.Errorf("%w: password should contain at least %d characters", ErrWeakPassword, MinPasswordLen)
	}

	return nil
}
