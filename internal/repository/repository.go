package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
)

// TransactionStatus - статус верификационной записи
type TransactionStatus string

const (
	// StatusPending - верификация начата, исход ещё не известен
	StatusPending TransactionStatus = "PENDING"
	// StatusVerified - провайдер подтвердил транзакцию
	StatusVerified TransactionStatus = "VERIFIED"
	// StatusFailed - провайдер отказал или был недоступен
	StatusFailed TransactionStatus = "FAILED"
	// StatusExpired - PENDING запись протухла; выставляется внешним sweep-ом,
	// этот сервис в EXPIRED никогда не переводит
	StatusExpired TransactionStatus = "EXPIRED"
)

// ClaimStatus - статус merchant-заявки, отдельный от статуса транзакции
type ClaimStatus string

const (
	ClaimPending    ClaimStatus = "PENDING"
	ClaimVerified   ClaimStatus = "VERIFIED"
	ClaimUnverified ClaimStatus = "UNVERIFIED"
)

// MismatchReason - единственная причина, по которой заявка не VERIFIED
// Выставляется ровно тогда, когда статус заявки не VERIFIED
type MismatchReason string

const (
	MismatchReferenceNotFound MismatchReason = "REFERENCE_NOT_FOUND"
	MismatchReceiver          MismatchReason = "RECEIVER_MISMATCH"
	MismatchAmount            MismatchReason = "AMOUNT_MISMATCH"
	MismatchUnverified        MismatchReason = "UNVERIFIED"
)

// Transaction - каноническая верификационная запись
// Уникальна по паре (provider, reference); повторная верификация обновляет
// существующую запись, записи никогда не удаляются этим сервисом
type Transaction struct {
	Provider  provider.Provider
	Reference string
	// QRURL - исходная входная строка, хранится для аудита
	QRURL  string
	Status TransactionStatus
	// Payload - нормализованный ответ провайдера (nil пока верификация не удалась)
	Payload *provider.Payload
	// ErrorMessage - текст ошибки при неуспешной верификации
	ErrorMessage string
	// VerifiedAt выставляется только при переходе в VERIFIED
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Claim - заявка мерчанта о полученном платеже
// Заявка никогда не авторитетна о банковской стороне - авторитетна Transaction
type Claim struct {
	ID        string
	Provider  provider.Provider
	Reference string
	// ClaimedAmount - сумма, которую мерчант утверждает полученной
	ClaimedAmount decimal.Decimal
	// TipAmount - чаевые, учитываются отдельно и в сверке не участвуют
	TipAmount      *decimal.Decimal
	Status         ClaimStatus
	MismatchReason *MismatchReason
	VerifiedAt     *time.Time
	CreatedAt      time.Time
}

// TransactionFilter - фильтры листинга транзакций
type TransactionFilter struct {
	Provider provider.Provider
	Status   TransactionStatus
}

// ClaimFilter - фильтры истории заявок
type ClaimFilter struct {
	Provider  provider.Provider
	Status    ClaimStatus
	Reference string
	From      *time.Time
	To        *time.Time
}

// TransactionRepository определяет интерфейс хранилища транзакций
// Service слой зависит от интерфейса, а не от конкретной реализации
type TransactionRepository interface {
	// Upsert атомарно создаёт или обновляет запись по ключу (provider, reference)
	// Конкурентные upsert-ы одного ключа сериализуются, дубликаты невозможны
	Upsert(ctx context.Context, tx Transaction) (Transaction, error)

	// GetByKey получает запись по (provider, reference)
	// Возвращает ErrNotFound, если записи нет
	GetByKey(ctx context.Context, p provider.Provider, reference string) (Transaction, error)

	// List возвращает страницу записей и общее количество
	// Сортировка: новые первыми по created_at
	List(ctx context.Context, filter TransactionFilter, page, pageSize int) ([]Transaction, int, error)
}

// ClaimRepository определяет интерфейс хранилища заявок
type ClaimRepository interface {
	// Save сохраняет заявку с результатом сверки
	Save(ctx context.Context, claim Claim) error

	// List возвращает страницу заявок и общее количество
	List(ctx context.Context, filter ClaimFilter, page, pageSize int) ([]Claim, int, error)
}

// ErrNotFound возвращается, когда запись не найдена в хранилище
var ErrNotFound = errors.New("record not found")

// MarshalPayload сериализует payload для хранения в JSONB колонке
func MarshalPayload(p *provider.Payload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// UnmarshalPayload десериализует payload из JSONB колонки
func UnmarshalPayload(data []byte) (*provider.Payload, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p provider.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
