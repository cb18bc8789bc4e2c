package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/storage"
)

// Файл интеграционных тестов для пакета postgres:
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет встроенные миграции goose через Migrate;
// - проверяет пользователей (уникальность email CITEXT, каскадное удаление) и реестр refresh-токенов.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// startPostgres — поднимает временный экземпляр PostgreSQL, применяет миграции
// и возвращает инициализированное хранилище и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	require.NoError(t, Migrate(ctx, dsn))

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     "user",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		Age:          30,
		Height:       170.5,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestIntegration_SaveUser_And_Get_OK — сохранение и поиск по email (без учёта регистра) и ID.
func TestIntegration_SaveUser_And_Get_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newUser("User@Example.Com")
	u.Role = models.RoleAdmin
	require.NoError(t, st.SaveUser(ctx, u))

	got, err := st.UserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "user", got.Username)
	require.Equal(t, models.RoleAdmin, got.Role)
	require.Equal(t, 30, got.Age)
	require.InDelta(t, 170.5, got.Height, 0.0001)
	require.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)

	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
}

// TestIntegration_SaveUser_UniqueEmail_CaseInsensitive_Violation — конфликт email,
// различающегося только регистром, даёт storage.ErrAlreadyExists.
func TestIntegration_SaveUser_UniqueEmail_CaseInsensitive_Violation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	require.NoError(t, st.SaveUser(context.Background(), newUser("user@example.com")))

	err := st.SaveUser(context.Background(), newUser("USER@EXAMPLE.COM"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_SaveUser_ConcurrentDuplicates — из параллельных регистраций одного email
// успешна ровно одна, остальные получают storage.ErrAlreadyExists.
func TestIntegration_SaveUser_ConcurrentDuplicates(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			errs <- st.SaveUser(context.Background(), newUser("race@example.com"))
		}()
	}

	var ok, dup int
	for i := 0; i < n; i++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, storage.ErrAlreadyExists):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, dup)
}

// TestIntegration_UserLookups_NotFound — отсутствующие записи дают storage.ErrNotFound.
func TestIntegration_UserLookups_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByEmail(context.Background(), "absent@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, st.DeleteUser(context.Background(), uuid.New()), storage.ErrNotFound)
}

// TestIntegration_UserQueries_ContextCanceled — отменённый контекст «просачивается» в ошибки.
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
