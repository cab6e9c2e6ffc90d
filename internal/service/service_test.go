package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-login-boilerplate/internal/cache"
	"github.com/pribylovaa/go-login-boilerplate/internal/config"
	"github.com/pribylovaa/go-login-boilerplate/internal/mail"
	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/security"
	"github.com/pribylovaa/go-login-boilerplate/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "unit-secret",
		AccessTokenTTL:       30 * time.Second,
		RefreshTokenTTL:      24 * time.Hour,
		EmailVerificationTTL: time.Hour,
		Issuer:               "login-boilerplate",
	}
}

// fakeMailer запоминает отправленные письма.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	svc    *Service
	st     *mocks.MockStorage
	kv     *cache.Memory
	mailer *fakeMailer
}

func newSvc(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	kv := cache.NewMemory()
	m := &fakeMailer{}

	svc := New(st, kv, testCfg(), WithMailer(m), WithPublicURL("http://dash.test/"))
	return &fixture{svc: svc, st: st, kv: kv, mailer: m}
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := security.Hash(pw)
	require.NoError(t, err)
	return h
}

func activeUser(t *testing.T, email, pw string) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: mustHashPW(t, pw),
		FullName:     "Alice Liddell",
		Activated:    true,
		SignupBy:     models.SignupByEmail,
	}
}
