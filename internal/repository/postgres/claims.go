package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

// ClaimRepository реализует repository.ClaimRepository используя PostgreSQL
type ClaimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository создаёт новый PostgreSQL репозиторий заявок
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{
		pool: pool,
	}
}

// Save сохраняет заявку мерчанта с результатом сверки
func (r *ClaimRepository) Save(ctx context.Context, claim repository.Claim) error {
	var tip *string
	if claim.TipAmount != nil {
		s := claim.TipAmount.String()
		tip = &s
	}
	var reason *string
	if claim.MismatchReason != nil {
		s := string(*claim.MismatchReason)
		reason = &s
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO claims (id, provider, reference, claimed_amount, tip_amount, status, mismatch_reason, verified_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		claim.ID, string(claim.Provider), claim.Reference, claim.ClaimedAmount.String(), tip,
		string(claim.Status), reason, claim.VerifiedAt, claim.CreatedAt)
	return err
}

// List возвращает страницу заявок и общее количество, новые первыми
func (r *ClaimRepository) List(ctx context.Context, filter repository.ClaimFilter, page, pageSize int) ([]repository.Claim, int, error) {
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
	if filter.Reference != "" {
		args = append(args, filter.Reference)
		where += fmt.Sprintf(" AND reference = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM claims "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, provider, reference, claimed_amount, tip_amount, status, mismatch_reason, verified_at, created_at
		 FROM claims %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]repository.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// scanClaim собирает доменную модель заявки из строки результата
func scanClaim(row pgx.Row) (repository.Claim, error) {
	var (
		claim       repository.Claim
		providerStr string
		amountStr   string
		tipStr      *string
		statusStr   string
		reasonStr   *string
		verifiedAt  *time.Time
	)
	err := row.Scan(&claim.ID, &providerStr, &claim.Reference, &amountStr, &tipStr, &statusStr, &reasonStr, &verifiedAt, &claim.CreatedAt)
	if err != nil {
		return repository.Claim{}, err
	}

	claim.Provider = provider.Provider(providerStr)
	claim.Status = repository.ClaimStatus(statusStr)
	claim.VerifiedAt = verifiedAt

	claim.ClaimedAmount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return repository.Claim{}, fmt.Errorf("bad claimed_amount in storage: %w", err)
	}
	if tipStr != nil {
		tip, err := decimal.NewFromString(*tipStr)
		if err != nil {
			return repository.Claim{}, fmt.Errorf("bad tip_amount in storage: %w", err)
		}
		claim.TipAmount = &tip
	}
	if reasonStr != nil {
		reason := repository.MismatchReason(*reasonStr)
		claim.MismatchReason = &reason
	}

	return claim, nil
}
