package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

// TransactionRepository реализует repository.TransactionRepository используя PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository создаёт новый PostgreSQL репозиторий транзакций
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{
		pool: pool,
	}
}

// Upsert атомарно создаёт или обновляет запись по (provider, reference)
// ON CONFLICT гарантирует сериализацию конкурентных upsert-ов на уровне БД:
// дубликат невозможен, последняя запись выигрывает
func (r *TransactionRepository) Upsert(ctx context.Context, tx repository.Transaction) (repository.Transaction, error) {
	payloadJSON, err := repository.MarshalPayload(tx.Payload)
	if err != nil {
		return repository.Transaction{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var errMsg *string
	if tx.ErrorMessage != "" {
		errMsg = &tx.ErrorMessage
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (provider, reference, qr_url, status, verification_payload, error_message, verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (provider, reference) DO UPDATE SET
		   qr_url = EXCLUDED.qr_url,
		   status = EXCLUDED.status,
		   verification_payload = EXCLUDED.verification_payload,
		   error_message = EXCLUDED.error_message,
		   verified_at = EXCLUDED.verified_at,
		   updated_at = now()
		 RETURNING provider, reference, qr_url, status, verification_payload, error_message, verified_at, created_at, updated_at`,
		string(tx.Provider), tx.Reference, tx.QRURL, string(tx.Status), payloadJSON, errMsg, tx.VerifiedAt)

	return scanTransaction(row)
}

// GetByKey получает запись по (provider, reference)
// Возвращает repository.ErrNotFound, если записи нет
func (r *TransactionRepository) GetByKey(ctx context.Context, p provider.Provider, reference string) (repository.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT provider, reference, qr_url, status, verification_payload, error_message, verified_at, created_at, updated_at
		 FROM transactions
		 WHERE provider = $1 AND reference = $2`,
		string(p), reference)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Transaction{}, repository.ErrNotFound
		}
		return repository.Transaction{}, err
	}
	return tx, nil
}

// List возвращает страницу транзакций и общее количество, новые первыми
func (r *TransactionRepository) List(ctx context.Context, filter repository.TransactionFilter, page, pageSize int) ([]repository.Transaction, int, error) {
	// Собираем WHERE из непустых фильтров
	where := "WHERE 1=1"
	args := []any{}
	if filter.Provider != "" {
		args = append(args, string(filter.Provider))
		where += fmt.Sprintf(" AND provider = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	// Общее количество для пагинации
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT provider, reference, qr_url, status, verification_payload, error_message, verified_at, created_at, updated_at
		 FROM transactions %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]repository.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// scanTransaction собирает доменную модель из строки результата
func scanTransaction(row pgx.Row) (repository.Transaction, error) {
	var (
		tx          repository.Transaction
		providerStr string
		statusStr   string
		payloadJSON []byte
		errMsg      *string
	)
	err := row.Scan(&providerStr, &tx.Reference, &tx.QRURL, &statusStr, &payloadJSON, &errMsg, &tx.VerifiedAt, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return repository.Transaction{}, err
	}

	tx.Provider = provider.Provider(providerStr)
	tx.Status = repository.TransactionStatus(statusStr)
	if errMsg != nil {
		tx.ErrorMessage = *errMsg
	}
	tx.Payload, err = repository.UnmarshalPayload(payloadJSON)
	if err != nil {
		return repository.Transaction{}, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return tx, nil
}
