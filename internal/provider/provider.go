package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider представляет банк или телеком-оператора, чьи квитанции мы умеем проверять
type Provider string

const (
	// CBE - Commercial Bank of Ethiopia
	CBE Provider = "CBE"
	// Telebirr - мобильный кошелёк Ethio Telecom
	Telebirr Provider = "TELEBIRR"
	// Awash - Awash Bank
	Awash Provider = "AWASH"
	// BOA - Bank of Abyssinia
	BOA Provider = "BOA"
	// Dashen - Dashen Bank
	Dashen Provider = "DASHEN"
	// Custom - произвольный провайдер с настраиваемым endpoint
	Custom Provider = "CUSTOM"
)

// ParseProvider парсит строку в Provider
// Возвращает ошибку для неизвестного провайдера
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case CBE, Telebirr, Awash, BOA, Dashen, Custom:
		return Provider(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Валидационные ошибки extractor-а и адаптеров
// HTTP слой маппит их в 400, оркестратор НЕ сохраняет транзакцию при таких ошибках
var (
	// ErrInvalidInput - входная строка не является корректным URL
	ErrInvalidInput = errors.New("input is not a well-formed URL")
	// ErrUnresolvedProvider - провайдер не определён и не передан явно
	ErrUnresolvedProvider = errors.New("provider could not be resolved from input")
	// ErrUnresolvedReference - reference не найден ни в одном известном query-параметре
	ErrUnresolvedReference = errors.New("transaction reference could not be resolved from input")
	// ErrUnknownProvider - провайдер не зарегистрирован в registry
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrAccountSuffixRequired - CBE требует суффикс счёта получателя
	ErrAccountSuffixRequired = errors.New("account suffix is required for this provider")
	// ErrInvalidAccountSuffix - суффикс счёта должен быть ровно 5 символов
	ErrInvalidAccountSuffix = errors.New("account suffix must be exactly 5 characters")
)

// Ошибки провайдерской стороны
// Оркестратор перехватывает их и превращает в транзакцию со статусом FAILED
var (
	// ErrProviderUnavailable - провайдер недоступен (сеть, таймаут, 5xx)
	ErrProviderUnavailable = errors.New("provider endpoint unavailable")
	// ErrReceiptNotFound - провайдер не нашёл квитанцию по reference
	ErrReceiptNotFound = errors.New("receipt not found at provider")
	// ErrMalformedReceipt - провайдер вернул ответ, который мы не смогли разобрать
	ErrMalformedReceipt = errors.New("malformed receipt response from provider")
)

// IsValidationError сообщает, относится ли ошибка к валидации входа
// Такие ошибки отдаются вызывающему как 400 и никогда не персистятся
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnresolvedProvider) ||
		errors.Is(err, ErrUnresolvedReference) ||
		errors.Is(err, ErrUnknownProvider) ||
		errors.Is(err, ErrAccountSuffixRequired) ||
		errors.Is(err, ErrInvalidAccountSuffix)
}

// Payload - нормализованный ответ верификации
// Каждый адаптер парсит свой провайдер-специфичный формат и приводит к этой форме.
// Raw хранит исходный ответ провайдера как есть - только для аудита, matcher его не читает
type Payload struct {
	// Success - явный флаг успеха от провайдера
	// nil означает, что провайдер флаг не прислал (CBE и Telebirr не присылают);
	// в этом случае сам факт успешного ответа адаптера считается успехом
	Success *bool `json:"success,omitempty"`
	// Amount - фактическая сумма платежа по данным провайдера
	Amount decimal.Decimal `json:"amount"`
	// ReceiverAccount - счёт получателя (банки обычно возвращают его замаскированным)
	ReceiverAccount string `json:"receiver_account"`
	// ReceiverName - имя получателя
	ReceiverName string `json:"receiver_name,omitempty"`
	// PayerName - имя плательщика
	PayerName string `json:"payer_name,omitempty"`
	// Reference - reference из квитанции провайдера
	Reference string `json:"reference,omitempty"`
	// Date - дата платежа как строка (формат у каждого провайдера свой)
	Date string `json:"date,omitempty"`
	// Raw - исходный ответ провайдера для аудита
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Extra - дополнительные параметры верификации, нужные не всем провайдерам
type Extra struct {
	// AccountSuffix - суффикс счёта получателя (CBE требует ровно 5 символов)
	AccountSuffix string
}
