package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
)

// persistTimeout - таймаут best-effort сохранения исхода верификации
// Сохранение идёт через context.WithoutCancel: даже если вызывающий отменил
// запрос посреди верификации, известный исход должен попасть в хранилище,
// а не остаться осиротевшим PENDING
const persistTimeout = 5 * time.Second

// Service содержит бизнес-логику верификации квитанций и сверки заявок
// Оркестратор - единственное место, где ошибки адаптеров превращаются
// в статус FAILED; выше него сырые ошибки провайдеров не уходят
type Service struct {
	logger       *zap.Logger
	registry     *provider.Registry
	transactions repository.TransactionRepository
	claims       repository.ClaimRepository
	events       EventPublisher
	// merchantAccount - зарегистрированный счёт получателя мерчанта,
	// против него сверяется receiver из payload-а; пустой = сверка отключена
	merchantAccount string
}

// NewService создаёт новый Service
// Все зависимости передаются снаружи - это позволяет подменять их в тестах
func NewService(
	logger *zap.Logger,
	registry *provider.Registry,
	transactions repository.TransactionRepository,
	claims repository.ClaimRepository,
	events EventPublisher,
	merchantAccount string,
) *Service {
	return &Service{
		logger:          logger,
		registry:        registry,
		transactions:    transactions,
		claims:          claims,
		events:          events,
		merchantAccount: merchantAccount,
	}
}

// VerifyInput - входные данные верификации из QR
type VerifyInput struct {
	QRURL string
	// ProviderHint - явно указанный провайдер, отключает эвристику по URL
	ProviderHint provider.Provider
	// ReferenceOverride - явно указанный reference, отключает поиск в query
	ReferenceOverride string
	// AccountSuffix - суффикс счёта (обязателен для CBE)
	AccountSuffix string
}

// VerifyResult - результат верификации
type VerifyResult struct {
	Transaction repository.Transaction
}

// VerifyFromInput выполняет полный цикл: извлечение -> адаптер -> персист
// Ошибки валидации (кривой URL, неопределённый провайдер/reference, отсутствие
// суффикса для CBE) возвращаются вызывающему и НЕ персистятся: записи без
// полного ключа (provider, reference) в хранилище не бывает.
// Любой исход обращения к провайдеру (успех и сбой) персистится - это делает
// повторные попытки идемпотентными и даёт аудит всех обращений
func (s *Service) VerifyFromInput(ctx context.Context, input VerifyInput) (VerifyResult, error) {
	extracted, err := provider.Extract(input.QRURL, input.ProviderHint, input.ReferenceOverride)
	if err != nil {
		s.logger.Debug("extraction failed",
			zap.String("qr_url", input.QRURL),
			zap.Error(err),
		)
		return VerifyResult{}, err
	}

	adapter, err := s.registry.Get(extracted.Provider)
	if err != nil {
		return VerifyResult{}, err
	}

	s.logger.Info("verifying receipt",
		zap.String("provider", string(extracted.Provider)),
		zap.String("reference", extracted.Reference),
	)

	tx := repository.Transaction{
		Provider:  extracted.Provider,
		Reference: extracted.Reference,
		QRURL:     input.QRURL,
		Status:    repository.StatusPending,
	}

	payload, verifyErr := adapter.Verify(ctx, extracted.Reference, provider.Extra{
		AccountSuffix: input.AccountSuffix,
	})

	switch {
	case verifyErr == nil:
		tx.Payload = &payload
		if payload.Success != nil && !*payload.Success {
			// Провайдер явно сказал "неуспех"
			tx.Status = repository.StatusFailed
			tx.ErrorMessage = "provider reported unsuccessful transaction"
		} else {
			// Отсутствие флага success означает успех: сам факт, что адаптер
			// вернул квитанцию без ошибки, и есть подтверждение
			now := time.Now().UTC()
			tx.Status = repository.StatusVerified
			tx.VerifiedAt = &now
		}

	case provider.IsValidationError(verifyErr):
		// Ошибка валидации из адаптера (например суффикс для CBE):
		// до сети дело не дошло, персистить нечего
		return VerifyResult{}, verifyErr

	default:
		// Сбой провайдерской стороны: фиксируем FAILED с текстом ошибки
		tx.Status = repository.StatusFailed
		tx.ErrorMessage = verifyErr.Error()
		if tx.ErrorMessage == "" {
			tx.ErrorMessage = "verification failed"
		}
		s.logger.Warn("provider verification failed",
			zap.String("provider", string(extracted.Provider)),
			zap.String("reference", extracted.Reference),
			zap.Error(verifyErr),
		)
	}

	saved, err := s.persistOutcome(ctx, tx)
	if err != nil {
		// Потеря исхода верификации недопустима - отдаём ошибку вызывающему
		return VerifyResult{}, fmt.Errorf("failed to persist verification outcome: %w", err)
	}

	s.publishOutcome(ctx, saved)

	return VerifyResult{Transaction: saved}, nil
}

// persistOutcome сохраняет исход через идемпотентный upsert
// WithoutCancel: отмена вызывающего контекста не должна терять известный исход
func (s *Service) persistOutcome(ctx context.Context, tx repository.Transaction) (repository.Transaction, error) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	return s.transactions.Upsert(persistCtx, tx)
}

// publishOutcome публикует событие завершённой верификации
// Публикация best-effort: сбой брокера не ломает уже сохранённый результат
func (s *Service) publishOutcome(ctx context.Context, tx repository.Transaction) {
	err := s.events.PublishVerificationCompleted(ctx, VerificationEvent{
		Provider:  string(tx.Provider),
		Reference: tx.Reference,
		Status:    string(tx.Status),
	})
	if err != nil {
		s.logger.Warn("failed to publish verification event",
			zap.String("provider", string(tx.Provider)),
			zap.String("reference", tx.Reference),
			zap.Error(err),
		)
	}
}

// ListTransactions возвращает страницу верификационных записей
// page и pageSize валидируются до обращения к хранилищу
func (s *Service) ListTransactions(ctx context.Context, filter repository.TransactionFilter, page, pageSize int) ([]repository.Transaction, int, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, ErrInvalidPagination
	}
	return s.transactions.List(ctx, filter, page, pageSize)
}

// ListClaims возвращает страницу заявок (история сверок)
func (s *Service) ListClaims(ctx context.Context, filter repository.ClaimFilter, page, pageSize int) ([]repository.Claim, int, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, ErrInvalidPagination
	}
	return s.claims.List(ctx, filter, page, pageSize)
}

// ErrInvalidPagination - page/pageSize должны быть положительными
var ErrInvalidPagination = errors.New("page and pageSize must be positive")
