package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

// TransactionRepository реализует repository.TransactionRepository в памяти
// Используется для разработки и тестирования, в production заменяется на postgres
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[key]repository.Transaction
}

// key - составной ключ (provider, reference)
type key struct {
	provider  provider.Provider
	reference string
}

// NewTransactionRepository создаёт новый in-memory репозиторий транзакций
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[key]repository.Transaction),
	}
}

// Upsert создаёт или обновляет запись по (provider, reference)
// Мьютекс сериализует конкурентные upsert-ы одного ключа
func (r *TransactionRepository) Upsert(ctx context.Context, tx repository.Transaction) (repository.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{provider: tx.Provider, reference: tx.Reference}
	now := time.Now().UTC()

	if existing, exists := r.transactions[k]; exists {
		// Повторная верификация обновляет запись на месте
		tx.CreatedAt = existing.CreatedAt
	} else {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now

	r.transactions[k] = tx
	return tx, nil
}

// GetByKey получает запись по (provider, reference)
func (r *TransactionRepository) GetByKey(ctx context.Context, p provider.Provider, reference string) (repository.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[key{provider: p, reference: reference}]
	if !exists {
		return repository.Transaction{}, repository.ErrNotFound
	}
	return tx, nil
}

// List возвращает страницу записей, новые первыми
func (r *TransactionRepository) List(ctx context.Context, filter repository.TransactionFilter, page, pageSize int) ([]repository.Transaction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]repository.Transaction, 0)
	for _, tx := range r.transactions {
		if filter.Provider != "" && tx.Provider != filter.Provider {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		matched = append(matched, tx)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, page, pageSize), len(matched), nil
}

// ClaimRepository реализует repository.ClaimRepository в памяти
type ClaimRepository struct {
	mu     sync.RWMutex
	claims []repository.Claim
}

// NewClaimRepository создаёт новый in-memory репозиторий заявок
func NewClaimRepository() *ClaimRepository {
	return &ClaimRepository{
		claims: make([]repository.Claim, 0),
	}
}

// Save сохраняет заявку
func (r *ClaimRepository) Save(ctx context.Context, claim repository.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.claims = append(r.claims, claim)
	return nil
}

// List возвращает страницу заявок, новые первыми
func (r *ClaimRepository) List(ctx context.Context, filter repository.ClaimFilter, page, pageSize int) ([]repository.Claim, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]repository.Claim, 0)
	for _, claim := range r.claims {
		if filter.Provider != "" && claim.Provider != filter.Provider {
			continue
		}
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		if filter.Reference != "" && claim.Reference != filter.Reference {
			continue
		}
		if filter.From != nil && claim.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && claim.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, claim)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, page, pageSize), len(matched), nil
}

// paginate вырезает страницу из отсортированного слайса
func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
