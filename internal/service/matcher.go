package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

// ClaimInput - заявка мерчанта на сверку
type ClaimInput struct {
	Provider  provider.Provider
	Reference string
	// ClaimedAmount - сумма, которую мерчант утверждает полученной
	ClaimedAmount decimal.Decimal
	// TipAmount - чаевые; учитываются, в сверке не участвуют
	TipAmount *decimal.Decimal
	// QRData - опциональный QR: если транзакция ещё не верифицирована,
	// сервис сначала прогонит верификацию по нему
	QRData string
	// AccountSuffix - суффикс счёта для верификации по QRData (CBE)
	AccountSuffix string
}

// MatchChecks - результат отдельных проверок сверки
type MatchChecks struct {
	ReferenceFound  bool
	ReceiverMatches bool
	AmountMatches   bool
}

// MatchResult - итог сверки заявки
// Несовпадение - это НЕ ошибка, а нормальный результат со структурированной причиной
type MatchResult struct {
	Status         repository.ClaimStatus
	MismatchReason *repository.MismatchReason
	Checks         MatchChecks
	// Transaction - верификационная запись, против которой шла сверка (nil если не найдена)
	Transaction *repository.Transaction
}

// VerifyClaim сверяет заявку мерчанта с верифицированной транзакцией
// Если записи по (provider, reference) нет и передан QRData, сначала выполняется
// верификация; ошибки валидации этой верификации трактуются как "запись не найдена".
// Результат сверки всегда сохраняется в историю заявок
func (s *Service) VerifyClaim(ctx context.Context, input ClaimInput) (MatchResult, error) {
	tx, found, err := s.lookupTransaction(ctx, input)
	if err != nil {
		return MatchResult{}, err
	}

	result := s.matchClaim(input.ClaimedAmount, tx, found)

	claim := repository.Claim{
		ID:             uuid.New().String(),
		Provider:       input.Provider,
		Reference:      input.Reference,
		ClaimedAmount:  input.ClaimedAmount,
		TipAmount:      input.TipAmount,
		Status:         result.Status,
		MismatchReason: result.MismatchReason,
		CreatedAt:      time.Now().UTC(),
	}
	if result.Status == repository.ClaimVerified {
		now := time.Now().UTC()
		claim.VerifiedAt = &now
	}

	if err := s.claims.Save(ctx, claim); err != nil {
		return MatchResult{}, err
	}

	s.logger.Info("claim matched",
		zap.String("provider", string(input.Provider)),
		zap.String("reference", input.Reference),
		zap.String("status", string(result.Status)),
	)

	return result, nil
}

// lookupTransaction ищет запись по ключу заявки, при необходимости верифицируя QRData
func (s *Service) lookupTransaction(ctx context.Context, input ClaimInput) (repository.Transaction, bool, error) {
	tx, err := s.transactions.GetByKey(ctx, input.Provider, input.Reference)
	if err == nil {
		return tx, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Transaction{}, false, err
	}

	// Записи нет; без QRData сверять не с чем
	if input.QRData == "" {
		return repository.Transaction{}, false, nil
	}

	result, verr := s.VerifyFromInput(ctx, VerifyInput{
		QRURL:             input.QRData,
		ProviderHint:      input.Provider,
		ReferenceOverride: input.Reference,
		AccountSuffix:     input.AccountSuffix,
	})
	if verr != nil {
		if provider.IsValidationError(verr) {
			// QR не удалось разобрать - для сверки это просто "не найдено"
			return repository.Transaction{}, false, nil
		}
		return repository.Transaction{}, false, verr
	}

	return result.Transaction, true, nil
}

// matchClaim - детерминированная сверка заявки с транзакцией
// Порядок проверок фиксирован: существование reference -> статус транзакции ->
// получатель -> сумма. Причиной несовпадения становится ПЕРВАЯ провалившаяся
// проверка, даже если провалились несколько
func (s *Service) matchClaim(claimedAmount decimal.Decimal, tx repository.Transaction, found bool) MatchResult {
	if !found {
		reason := repository.MismatchReferenceNotFound
		return MatchResult{
			Status:         repository.ClaimUnverified,
			MismatchReason: &reason,
		}
	}

	result := MatchResult{
		Transaction: &tx,
		Checks:      MatchChecks{ReferenceFound: true},
	}

	if tx.Status != repository.StatusVerified || tx.Payload == nil {
		reason := repository.MismatchUnverified
		result.Status = repository.ClaimUnverified
		result.MismatchReason = &reason
		return result
	}

	result.Checks.ReceiverMatches = s.receiverMatches(tx.Payload.ReceiverAccount)
	// Точное десятичное сравнение, без float-приближений
	result.Checks.AmountMatches = claimedAmount.Equal(tx.Payload.Amount)

	switch {
	case !result.Checks.ReceiverMatches:
		reason := repository.MismatchReceiver
		result.Status = repository.ClaimUnverified
		result.MismatchReason = &reason
	case !result.Checks.AmountMatches:
		reason := repository.MismatchAmount
		result.Status = repository.ClaimUnverified
		result.MismatchReason = &reason
	default:
		result.Status = repository.ClaimVerified
	}

	return result
}

// receiverMatches сверяет счёт получателя из payload-а с зарегистрированным
// счётом мерчанта. Банки возвращают счёт замаскированным (1****5444), поэтому
// сравнивается видимый хвост. Пустой настроенный счёт отключает проверку
func (s *Service) receiverMatches(payloadAccount string) bool {
	if s.merchantAccount == "" {
		return true
	}
	if payloadAccount == "" {
		return false
	}

	// Берём видимый хвост после последней маскирующей звёздочки
	visible := payloadAccount
	if idx := strings.LastIndexByte(payloadAccount, '*'); idx >= 0 {
		visible = payloadAccount[idx+1:]
	}
	if visible == "" {
		return false
	}

	return strings.HasSuffix(s.merchantAccount, visible) || s.merchantAccount == payloadAccount
}
