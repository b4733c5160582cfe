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

// TelebirrAdapter проверяет квитанции мобильного кошелька Telebirr
type TelebirrAdapter struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewTelebirrAdapter создаёт адаптер Telebirr
func NewTelebirrAdapter(logger *zap.Logger, baseURL string) *TelebirrAdapter {
	if baseURL == "" {
		baseURL = "https://transactioninfo.ethiotelecom.et"
	}
	return &TelebirrAdapter{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Provider возвращает TELEBIRR
func (a *TelebirrAdapter) Provider() Provider {
	return Telebirr
}

// telebirrReceipt - схема ответа Telebirr
type telebirrReceipt struct {
	ReceiptNo       string `json:"receiptNo"`
	PayerName       string `json:"payerName"`
	CreditedParty   string `json:"creditedPartyName"`
	CreditedAccount string `json:"creditedPartyAccountNo"`
	TotalAmount     string `json:"totalPaidAmount"`
	PaymentDate     string `json:"paymentDate"`
	Status          string `json:"transactionStatus"`
}

// Verify запрашивает квитанцию Telebirr по номеру receipt
func (a *TelebirrAdapter) Verify(ctx context.Context, reference string, _ Extra) (Payload, error) {
	endpoint := fmt.Sprintf("%s/receipt/%s", a.baseURL, url.PathEscape(reference))

	body, err := doJSON(ctx, a.client, http.MethodGet, endpoint, nil)
	if err != nil {
		return Payload{}, err
	}

	var receipt telebirrReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedReceipt, err)
	}
	if receipt.ReceiptNo == "" {
		return Payload{}, fmt.Errorf("%w: receipt has no receiptNo", ErrMalformedReceipt)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(receipt.TotalAmount, ",", ""))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: bad amount %q", ErrMalformedReceipt, receipt.TotalAmount)
	}

	// Telebirr присылает текстовый статус; Completed считаем успехом,
	// всё остальное - явный неуспех
	payload := Payload{
		Amount:          amount,
		ReceiverAccount: receipt.CreditedAccount,
		ReceiverName:    receipt.CreditedParty,
		PayerName:       receipt.PayerName,
		Reference:       receipt.ReceiptNo,
		Date:            receipt.PaymentDate,
		Raw:             json.RawMessage(body),
	}
	if receipt.Status != "" {
		success := strings.EqualFold(receipt.Status, "Completed")
		payload.Success = &success
	}

	a.logger.Debug("telebirr receipt fetched",
		zap.String("reference", reference),
		zap.String("status", receipt.Status),
	)

	return payload, nil
}
