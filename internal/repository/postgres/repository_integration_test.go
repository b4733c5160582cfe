//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	_ "github.com/jackc/pgx/v5/stdlib" //для goose миграций

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

func TestRepositories_Integration(t *testing.T) {
	ctx := context.Background()

	// Поднимаем PostgreSQL контейнер через testcontainers
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("verification"),
		postgres.WithUsername("verification_user"),
		postgres.WithPassword("verification_password"),
	)
	require.NoError(t, err)
	defer func() {
		err := postgresContainer.Terminate(ctx)
		require.NoError(t, err)
	}()

	dsn, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Открываем *sql.DB через pgx stdlib для goose миграций
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	// Ждём готовности БД через ping с retry
	var pingErr error
	for i := 0; i < 10; i++ {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, pingErr, "Failed to ping database after retries")

	// Вычисляем путь к migrations относительно текущего файла
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	// Текущий файл: internal/repository/postgres/repository_integration_test.go
	// migrations лежат в корне модуля
	testDir := filepath.Dir(filename)
	repoDir := filepath.Dir(testDir)      // internal/repository
	internalDir := filepath.Dir(repoDir)  // internal
	moduleDir := filepath.Dir(internalDir)
	migrationsDir := filepath.Join(moduleDir, "migrations")

	err = goose.UpContext(ctx, db, migrationsDir)
	require.NoError(t, err, "Failed to run migrations")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	transactions := NewTransactionRepository(pool)
	claims := NewClaimRepository(pool)

	t.Run("Upsert is idempotent by (provider, reference)", func(t *testing.T) {
		pending := repository.Transaction{
			Provider:  provider.CBE,
			Reference: "FT25347NSD0432348645",
			QRURL:     "https://apps.cbe.com.et:100/?id=FT25347NSD0432348645",
			Status:    repository.StatusPending,
		}

		first, err := transactions.Upsert(ctx, pending)
		require.NoError(t, err)
		require.False(t, first.CreatedAt.IsZero())

		now := time.Now().UTC()
		verified := pending
		verified.Status = repository.StatusVerified
		verified.VerifiedAt = &now
		verified.Payload = &provider.Payload{
			Amount:          decimal.RequireFromString("500.00"),
			ReceiverAccount: "1****5444",
			Reference:       "FT25347NSD0432348645",
		}

		second, err := transactions.Upsert(ctx, verified)
		require.NoError(t, err)
		require.Equal(t, first.CreatedAt, second.CreatedAt, "CreatedAt must survive the update")
		require.Equal(t, repository.StatusVerified, second.Status)
		require.NotNil(t, second.Payload)
		require.True(t, second.Payload.Amount.Equal(decimal.RequireFromString("500.00")))

		// Ровно одна строка на ключ
		_, total, err := transactions.List(ctx, repository.TransactionFilter{Provider: provider.CBE}, 1, 10)
		require.NoError(t, err)
		require.Equal(t, 1, total)
	})

	t.Run("GetByKey", func(t *testing.T) {
		got, err := transactions.GetByKey(ctx, provider.CBE, "FT25347NSD0432348645")
		require.NoError(t, err)
		require.Equal(t, repository.StatusVerified, got.Status)

		_, err = transactions.GetByKey(ctx, provider.CBE, "missing")
		require.True(t, errors.Is(err, repository.ErrNotFound), "Expected ErrNotFound, got: %v", err)
	})

	t.Run("List filters by status", func(t *testing.T) {
		_, err := transactions.Upsert(ctx, repository.Transaction{
			Provider:     provider.Telebirr,
			Reference:    "TB1",
			Status:       repository.StatusFailed,
			ErrorMessage: "provider endpoint unavailable",
		})
		require.NoError(t, err)

		items, total, err := transactions.List(ctx, repository.TransactionFilter{Status: repository.StatusFailed}, 1, 10)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "TB1", items[0].Reference)
		require.Equal(t, "provider endpoint unavailable", items[0].ErrorMessage)
	})

	t.Run("Claims save and list", func(t *testing.T) {
		tip := decimal.RequireFromString("20.00")
		reason := repository.MismatchAmount
		now := time.Now().UTC()

		err := claims.Save(ctx, repository.Claim{
			ID:            "11111111-1111-1111-1111-111111111111",
			Provider:      provider.CBE,
			Reference:     "FT25347NSD0432348645",
			ClaimedAmount: decimal.RequireFromString("500.00"),
			TipAmount:     &tip,
			Status:        repository.ClaimVerified,
			VerifiedAt:    &now,
			CreatedAt:     now,
		})
		require.NoError(t, err)

		err = claims.Save(ctx, repository.Claim{
			ID:             "22222222-2222-2222-2222-222222222222",
			Provider:       provider.CBE,
			Reference:      "FT25347NSD0432348645",
			ClaimedAmount:  decimal.RequireFromString("999.00"),
			Status:         repository.ClaimUnverified,
			MismatchReason: &reason,
			CreatedAt:      now.Add(time.Second),
		})
		require.NoError(t, err)

		items, total, err := claims.List(ctx, repository.ClaimFilter{Reference: "FT25347NSD0432348645"}, 1, 10)
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Equal(t, "22222222-2222-2222-2222-222222222222", items[0].ID, "newest first")
		require.NotNil(t, items[0].MismatchReason)
		require.Equal(t, repository.MismatchAmount, *items[0].MismatchReason)
		require.True(t, items[1].ClaimedAmount.Equal(decimal.RequireFromString("500.00")))
		require.NotNil(t, items[1].TipAmount)

		items, total, err = claims.List(ctx, repository.ClaimFilter{Status: repository.ClaimVerified}, 1, 10)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "11111111-1111-1111-1111-111111111111", items[0].ID)
	})
}
