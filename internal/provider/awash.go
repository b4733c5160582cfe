package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AwashAdapter проверяет квитанции Awash Bank через их verification API
type AwashAdapter struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewAwashAdapter создаёт адаптер Awash
func NewAwashAdapter(logger *zap.Logger, baseURL string) *AwashAdapter {
	if baseURL == "" {
		baseURL = "https://awashpay.awashbank.com"
	}
	return &AwashAdapter{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Provider возвращает AWASH
func (a *AwashAdapter) Provider() Provider {
	return Awash
}

// awashResponse - схема ответа Awash
// Awash присылает явный флаг success
type awashResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		TransactionRef  string `json:"transactionRef"`
		Amount          string `json:"amount"`
		ReceiverAccount string `json:"creditAccount"`
		ReceiverName    string `json:"creditAccountName"`
		PayerName       string `json:"debitAccountName"`
		TransactionDate string `json:"transactionDate"`
	} `json:"data"`
}

// Verify запрашивает проверку транзакции у Awash
func (a *AwashAdapter) Verify(ctx context.Context, reference string, _ Extra) (Payload, error) {
	reqBody, err := json.Marshal(map[string]string{"transactionRef": reference})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	endpoint := a.baseURL + "/api/v1/transactions/verify"
	body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, reqBody)
	if err != nil {
		return Payload{}, err
	}

	var resp awashResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	payload := Payload{
		Success:         &resp.Success,
		ReceiverAccount: resp.Data.ReceiverAccount,
		ReceiverName:    resp.Data.ReceiverName,
		PayerName:       resp.Data.PayerName,
		Reference:       resp.Data.TransactionRef,
		Date:            resp.Data.TransactionDate,
		Raw:             json.RawMessage(body),
	}

	// При success=false сумма может отсутствовать - это не ошибка парсинга,
	// оркестратор сам переведёт такую транзакцию в FAILED
	if resp.Data.Amount != "" {
		amount, err := decimal.NewFromString(strings.ReplaceAll(resp.Data.Amount, ",", ""))
		if err != nil {
			return Payload{}, fmt.Errorf("%w: bad amount %q", ErrMalformedReceipt, resp.Data.Amount)
		}
		payload.Amount = amount
	}

	a.logger.Debug("awash verification response",
		zap.String("reference", reference),
		zap.Bool("success", resp.Success),
	)

	return payload, nil
}
