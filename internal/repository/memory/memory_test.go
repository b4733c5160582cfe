package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

func TestTransactionRepository_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()

	first, err := repo.Upsert(ctx, repository.Transaction{
		Provider:  provider.CBE,
		Reference: "FT1",
		Status:    repository.StatusPending,
	})
	require.NoError(t, err)
	require.False(t, first.CreatedAt.IsZero())

	// Повторный upsert того же ключа обновляет запись, а не плодит вторую
	second, err := repo.Upsert(ctx, repository.Transaction{
		Provider:  provider.CBE,
		Reference: "FT1",
		Status:    repository.StatusVerified,
	})
	require.NoError(t, err)
	require.Equal(t, first.CreatedAt, second.CreatedAt, "CreatedAt сохраняется при обновлении")

	got, err := repo.GetByKey(ctx, provider.CBE, "FT1")
	require.NoError(t, err)
	require.Equal(t, repository.StatusVerified, got.Status, "последняя запись выигрывает")

	_, total, err := repo.List(ctx, repository.TransactionFilter{}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestTransactionRepository_GetByKeyNotFound(t *testing.T) {
	repo := NewTransactionRepository()

	_, err := repo.GetByKey(context.Background(), provider.Telebirr, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionRepository_ListFilterAndPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()

	for _, tx := range []repository.Transaction{
		{Provider: provider.CBE, Reference: "FT1", Status: repository.StatusVerified},
		{Provider: provider.CBE, Reference: "FT2", Status: repository.StatusFailed},
		{Provider: provider.Telebirr, Reference: "TB1", Status: repository.StatusVerified},
	} {
		_, err := repo.Upsert(ctx, tx)
		require.NoError(t, err)
	}

	items, total, err := repo.List(ctx, repository.TransactionFilter{Provider: provider.CBE}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)

	items, total, err = repo.List(ctx, repository.TransactionFilter{Status: repository.StatusVerified}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 2, total, "total считается до вырезания страницы")
	require.Len(t, items, 1)

	// Страница за пределами данных - пустой слайс, не ошибка
	items, total, err = repo.List(ctx, repository.TransactionFilter{}, 5, 10)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Empty(t, items)
}

func TestClaimRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository()

	base := time.Now().UTC()
	reason := repository.MismatchAmount
	for i, claim := range []repository.Claim{
		{ID: "c1", Provider: provider.CBE, Reference: "FT1", ClaimedAmount: decimal.RequireFromString("10"), Status: repository.ClaimVerified},
		{ID: "c2", Provider: provider.CBE, Reference: "FT1", ClaimedAmount: decimal.RequireFromString("11"), Status: repository.ClaimUnverified, MismatchReason: &reason},
		{ID: "c3", Provider: provider.Awash, Reference: "AW1", ClaimedAmount: decimal.RequireFromString("12"), Status: repository.ClaimVerified},
	} {
		claim.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, claim))
	}

	items, total, err := repo.List(ctx, repository.ClaimFilter{Reference: "FT1"}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "c2", items[0].ID, "новые первыми")

	items, total, err = repo.List(ctx, repository.ClaimFilter{Status: repository.ClaimVerified}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	// Фильтр по окну времени
	from := base.Add(30 * time.Second)
	to := base.Add(90 * time.Second)
	items, total, err = repo.List(ctx, repository.ClaimFilter{From: &from, To: &to}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "c2", items[0].ID)
}
