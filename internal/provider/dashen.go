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

// DashenAdapter проверяет квитанции Dashen Bank
type DashenAdapter struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewDashenAdapter создаёт адаптер Dashen
func NewDashenAdapter(logger *zap.Logger, baseURL string) *DashenAdapter {
	if baseURL == "" {
		baseURL = "https://receipt.dashensuperapp.com"
	}
	return &DashenAdapter{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Provider возвращает DASHEN
func (a *DashenAdapter) Provider() Provider {
	return Dashen
}

// dashenResponse - схема ответа Dashen
type dashenResponse struct {
	Transaction struct {
		ID              string      `json:"id"`
		Amount          json.Number `json:"amount"`
		ReceiverAccount string      `json:"receiverAccountNumber"`
		ReceiverName    string      `json:"receiverName"`
		SenderName      string      `json:"senderName"`
		Date            string      `json:"date"`
		Status          string      `json:"status"`
	} `json:"transaction"`
}

// Verify запрашивает квитанцию у Dashen
func (a *DashenAdapter) Verify(ctx context.Context, reference string, _ Extra) (Payload, error) {
	reqBody, err := json.Marshal(map[string]string{"transactionId": reference})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}

	endpoint := a.baseURL + "/api/v1/receipt/verify"
	body, err := doJSON(ctx, a.client, http.MethodPost, endpoint, reqBody)
	if err != nil {
		return Payload{}, err
	}

	var resp dashenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}
	if resp.Transaction.ID == "" {
		return Payload{}, fmt.Errorf("%w: response has no transaction", ErrMalformedReceipt)
	}

	payload := Payload{
		ReceiverAccount: resp.Transaction.ReceiverAccount,
		ReceiverName:    resp.Transaction.ReceiverName,
		PayerName:       resp.Transaction.SenderName,
		Reference:       resp.Transaction.ID,
		Date:            resp.Transaction.Date,
		Raw:             json.RawMessage(body),
	}

	if resp.Transaction.Status != "" {
		success := strings.EqualFold(resp.Transaction.Status, "completed") ||
			strings.EqualFold(resp.Transaction.Status, "success")
		payload.Success = &success
	}

	if resp.Transaction.Amount.String() != "" {
		amount, err := decimal.NewFromString(resp.Transaction.Amount.String())
		if err != nil {
			return Payload{}, fmt.Errorf("%w: bad amount %q", ErrMalformedReceipt, resp.Transaction.Amount.String())
		}
		payload.Amount = amount
	}

	a.logger.Debug("dashen receipt fetched",
		zap.String("reference", reference),
		zap.String("status", resp.Transaction.Status),
	)

	return payload, nil
}
