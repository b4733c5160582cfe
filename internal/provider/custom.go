package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomAdapter проверяет квитанции произвольного провайдера
// Endpoint задаётся шаблоном URL с {reference}; позволяет подключить нового
// провайдера конфигом, без изменения кода
type CustomAdapter struct {
	logger      *zap.Logger
	urlTemplate string
	client      *http.Client
}

// NewCustomAdapter создаёт адаптер с шаблоном URL
// Пример шаблона: https://verify.example.com/receipts/{reference}
func NewCustomAdapter(logger *zap.Logger, urlTemplate string) *CustomAdapter {
	return &CustomAdapter{
		logger:      logger,
		urlTemplate: urlTemplate,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Provider возвращает CUSTOM
func (a *CustomAdapter) Provider() Provider {
	return Custom
}

// customResponse - ожидаемая схема ответа кастомного endpoint-а
// Это и есть нормализованная форма: кастомный провайдер обязан её отдавать
type customResponse struct {
	Success         *bool       `json:"success,omitempty"`
	Amount          json.Number `json:"amount"`
	ReceiverAccount string      `json:"receiver_account"`
	ReceiverName    string      `json:"receiver_name"`
	PayerName       string      `json:"payer_name"`
	Reference       string      `json:"reference"`
	Date            string      `json:"date"`
}

// Verify запрашивает квитанцию по шаблону URL
func (a *CustomAdapter) Verify(ctx context.Context, reference string, _ Extra) (Payload, error) {
	if a.urlTemplate == "" {
		return Payload{}, fmt.Errorf("%w: custom adapter has no endpoint configured", ErrUnknownProvider)
	}

	endpoint := strings.ReplaceAll(a.urlTemplate, "{reference}", url.PathEscape(reference))

	body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, nil)
	if err != nil {
		return Payload{}, err
	}

	var resp customResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	payload := Payload{
		Success:         resp.Success,
		ReceiverAccount: resp.ReceiverAccount,
		ReceiverName:    resp.ReceiverName,
		PayerName:       resp.PayerName,
		Reference:       resp.Reference,
		Date:            resp.Date,
		Raw:             json.RawMessage(body),
	}

	if resp.Amount.String() != "" {
		amount, err := decimal.NewFromString(resp.Amount.String())
		if err != nil {
			return Payload{}, fmt.Errorf("%w: bad amount %q", ErrMalformedReceipt, resp.Amount.String())
		}
		payload.Amount = amount
	}

	a.logger.Debug("custom provider response",
		zap.String("reference", reference),
	)

	return payload, nil
}
