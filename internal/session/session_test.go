package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

type recorderFunc func(ctx context.Context, user *models.User) error

func (f recorderFunc) RecordLogin(ctx context.Context, user *models.User) error { return f(ctx, user) }

func testCfg() config.SessionConfig {
	return config.SessionConfig{
		CookieName: "session",
		HashKey:    "0123456789abcdef0123456789abcdef",
		BlockKey:   "abcdef0123456789",
		MaxAge:     time.Hour,
	}
}

func newManager(t *testing.T, calls *int) *Manager {
	t.Helper()
	return New(testCfg(), recorderFunc(func(_ context.Context, _ *models.User) error {
		*calls++
		return nil
	}), nil)
}

// roundTrip переносит cookie из ответа в новый запрос.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestEstablish_Current(t *testing.T) {
	t.Parallel()

	var calls int
	m := newManager(t, &calls)
	user := &models.User{ID: uuid.New(), Email: "alice@example.com", FullName: "Alice"}

	rec := httptest.NewRecorder()
	require.NoError(t, m.Establish(context.Background(), rec, user, "password"))
	require.Equal(t, 1, calls)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, 3600, cookies[0].MaxAge)
	require.NotContains(t, cookies[0].Value, "alice")

	s, ok := m.Current(roundTrip(rec))
	require.True(t, ok)
	require.Equal(t, "alice@example.com", s.Email)
	require.Equal(t, "Alice", s.FullName)
}

func TestEstablish_RecorderError(t *testing.T) {
	t.Parallel()

	m := New(testCfg(), recorderFunc(func(context.Context, *models.User) error {
		return errors.New("db down")
	}), nil)

	rec := httptest.NewRecorder()
	err := m.Establish(context.Background(), rec, &models.User{Email: "a@example.com"}, "password")
	require.Error(t, err)
	require.Empty(t, rec.Result().Cookies())
}

func TestCurrent_Absent(t *testing.T) {
	t.Parallel()

	var calls int
	m := newManager(t, &calls)

	_, ok := m.Current(httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, ok)
}

func TestCurrent_Tampered(t *testing.T) {
	t.Parallel()

	var calls int
	m := newManager(t, &calls)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "forged-value"})

	_, ok := m.Current(req)
	require.False(t, ok)
}

func TestCurrent_OtherKeyRejected(t *testing.T) {
	t.Parallel()

	var calls int
	m := newManager(t, &calls)

	otherCfg := testCfg()
	otherCfg.HashKey = "ffffffffffffffffffffffffffffffff"
	other := New(otherCfg, recorderFunc(func(context.Context, *models.User) error { return nil }), nil)

	rec := httptest.NewRecorder()
	require.NoError(t, other.Establish(context.Background(), rec, &models.User{Email: "a@example.com"}, "password"))

	_, ok := m.Current(roundTrip(rec))
	require.False(t, ok)
}

func TestClear_Idempotent(t *testing.T) {
	t.Parallel()

	var calls int
	m := newManager(t, &calls)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		m.Clear(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "session", cookies[0].Name)
		require.Equal(t, -1, cookies[0].MaxAge)
		require.Empty(t, cookies[0].Value)
	}
}

func TestState(t *testing.T) {
	t.Parallel()

	var calls int
	m := newManager(t, &calls)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetState(rec, "state-123"))

	req := roundTrip(rec)
	require.NoError(t, m.CheckState(httptest.NewRecorder(), req, "state-123"))
	require.ErrorIs(t, m.CheckState(httptest.NewRecorder(), req, "other"), ErrStateMismatch)

	// Без cookie state не проходит.
	err := m.CheckState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "state-123")
	require.ErrorIs(t, err, ErrStateMismatch)
}
