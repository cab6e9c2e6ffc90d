package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
	"github.com/pribylovaa/go-login-boilerplate/internal/storage"
)

// Интеграционные тесты пакета postgres:
// - поднимают PostgreSQL через testcontainers-go (postgres:16-alpine);
// - применяют миграции из ./migrations;
// - проверяют CRUD пользователей, уникальность email (CITEXT), фильтры списка и агрегаты дашборда.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — корень репозитория относительно текущего файла тестов.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startContainer поднимает пустой PostgreSQL и возвращает DSN.
func startContainer(t *testing.T) (string, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	require.Eventually(t, func() bool { return pool.Ping(ctx) == nil }, 30*time.Second, 200*time.Millisecond)

	return dsn, func() { _ = c.Terminate(context.Background()) }
}

func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()

	dsn, terminate := startContainer(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_users.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, st.Ping(ctx))

	cleanup := func() {
		st.Close()
		terminate()
	}
	return st, cleanup
}

func TestIntegration_New_RequiresUsersTable(t *testing.T) {
	dsn, terminate := startContainer(t)
	defer terminate()

	_, err := New(context.Background(), dsn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "users table is missing")
}

func newUser(email string, by models.SignupBy, activated bool) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Test User",
		Activated:    activated,
		SignupBy:     by,
		SessionAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_SaveUser_And_Lookup_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser("User@Example.Com", models.SignupByGoogle, true)
	require.NoError(t, st.SaveUser(ctx, u))

	byEmail, err := st.UserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, models.SignupByGoogle, byEmail.SignupBy)
	require.True(t, byEmail.Activated)
	require.Equal(t, "Test User", byEmail.FullName)
	require.WithinDuration(t, u.CreatedAt, byEmail.CreatedAt, time.Second)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, byEmail.Email, byID.Email)
}

func TestIntegration_SaveUser_UniqueEmail_CaseInsensitive(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, st.SaveUser(ctx, newUser("user@example.com", models.SignupByEmail, false)))

	err := st.SaveUser(ctx, newUser("USER@EXAMPLE.COM", models.SignupByEmail, false))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
	require.Contains(t, err.Error(), "already exists")
}

func TestIntegration_Lookup_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByEmail(context.Background(), "absent@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_Updates(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser("upd@example.com", models.SignupByEmail, false)
	require.NoError(t, st.SaveUser(ctx, u))

	require.NoError(t, st.SetActivated(ctx, u.ID, true))
	require.NoError(t, st.UpdatePassword(ctx, u.ID, "new-hash"))
	require.NoError(t, st.UpdateProfile(ctx, u.ID, "New Name", "renamed@example.com"))

	at := time.Now().UTC().Add(time.Minute)
	require.NoError(t, st.TouchLogin(ctx, u.ID, at))
	require.NoError(t, st.TouchLogin(ctx, u.ID, at))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Activated)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Equal(t, "New Name", got.FullName)
	require.Equal(t, "renamed@example.com", got.Email)
	require.Equal(t, 2, got.TotalLogin)
	require.WithinDuration(t, at, got.SessionAt, time.Second)

	require.ErrorIs(t, st.SetActivated(ctx, uuid.New(), true), storage.ErrNotFound)
	require.ErrorIs(t, st.TouchLogin(ctx, uuid.New(), at), storage.ErrNotFound)
}

func TestIntegration_UpdateProfile_EmailConflict(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	a := newUser("a@example.com", models.SignupByEmail, true)
	b := newUser("b@example.com", models.SignupByEmail, true)
	require.NoError(t, st.SaveUser(ctx, a))
	require.NoError(t, st.SaveUser(ctx, b))

	err := st.UpdateProfile(ctx, b.ID, "B", "A@example.com")
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_ListUsers_Filters(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, st.SaveUser(ctx, newUser("e1@example.com", models.SignupByEmail, true)))
	require.NoError(t, st.SaveUser(ctx, newUser("e2@example.com", models.SignupByEmail, false)))
	require.NoError(t, st.SaveUser(ctx, newUser("g1@example.com", models.SignupByGoogle, true)))

	all, err := st.ListUsers(ctx, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	active := true
	got, err := st.ListUsers(ctx, models.UserFilter{Activated: &active})
	require.NoError(t, err)
	require.Len(t, got, 2)

	google := models.SignupByGoogle
	got, err = st.ListUsers(ctx, models.UserFilter{Activated: &active, SignupBy: &google})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "g1@example.com", got[0].Email)
}

func TestIntegration_UserStats(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	fresh := newUser("fresh@example.com", models.SignupByEmail, false)
	old := newUser("old@example.com", models.SignupByEmail, true)
	old.SessionAt = now.AddDate(0, 0, -30)
	old.CreatedAt = now.AddDate(-1, 0, 0)

	require.NoError(t, st.SaveUser(ctx, fresh))
	require.NoError(t, st.SaveUser(ctx, old))

	stats, err := st.UserStats(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.SessionsToday)
	require.Equal(t, 1, stats.AvgActive7Days)
	require.Equal(t, 1, stats.UnverifiedThisMonth)
}

func TestIntegration_UserQueries_ContextCanceled(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByEmail(ctx, "user@example.com")
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
}
