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

// BOAAdapter проверяет квитанции Bank of Abyssinia
type BOAAdapter struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewBOAAdapter создаёт адаптер Bank of Abyssinia
func NewBOAAdapter(logger *zap.Logger, baseURL string) *BOAAdapter {
	if baseURL == "" {
		baseURL = "https://cs.bankofabyssinia.com"
	}
	return &BOAAdapter{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Provider возвращает BOA
func (a *BOAAdapter) Provider() Provider {
	return BOA
}

// boaResponse - схема ответа BOA
type boaResponse struct {
	Status string `json:"status"` // "SUCCESS" | "FAILED"
	Detail struct {
		Reference          string      `json:"reference"`
		Amount             json.Number `json:"amount"`
		BeneficiaryAccount string      `json:"beneficiaryAccount"`
		BeneficiaryName    string      `json:"beneficiaryName"`
		SenderName         string      `json:"senderName"`
		Date               string      `json:"transactionDate"`
	} `json:"detail"`
}

// Verify запрашивает проверку транзакции у BOA
func (a *BOAAdapter) Verify(ctx context.Context, reference string, _ Extra) (Payload, error) {
	reqBody, err := json.Marshal(map[string]string{"reference": reference})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	endpoint := a.baseURL + "/api/verify"
	body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, reqBody)
	if err != nil {
		return Payload{}, err
	}

	var resp boaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}
	if resp.Status == "" {
		return Payload{}, fmt.Errorf("%w: response has no status", ErrMalformedReceipt)
	}

	success := strings.EqualFold(resp.Status, "SUCCESS")
	payload := Payload{
		Success:         &success,
		ReceiverAccount: resp.Detail.BeneficiaryAccount,
		ReceiverName:    resp.Detail.BeneficiaryName,
		PayerName:       resp.Detail.SenderName,
		Reference:       resp.Detail.Reference,
		Date:            resp.Detail.Date,
		Raw:             json.RawMessage(body),
	}

	if resp.Detail.Amount.String() != "" {
		amount, err := decimal.NewFromString(resp.Detail.Amount.String())
		if err != nil {
			return Payload{}, fmt.Errorf("%w: bad amount %q", ErrMalformedReceipt, resp.Detail.Amount.String())
		}
		payload.Amount = amount
	}

	a.logger.Debug("boa verification response",
		zap.String("reference", reference),
		zap.String("status", resp.Status),
	)

	return payload, nil
}
