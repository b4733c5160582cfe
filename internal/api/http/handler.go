package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Beki78/fetan-pay-sub004/internal/provider"
	"github.com/Beki78/fetan-pay-sub004/internal/repository"
	"github.com/Beki78/fetan-pay-sub004/internal/service"
)

// Handler содержит HTTP-обработчики Verification Service
// Зависит от service слоя, но не знает о деталях реализации (адаптеры, БД)
type Handler struct {
	verificationService *service.Service
	logger              *zap.Logger
}

// NewHandler создаёт новый HTTP handler
func NewHandler(verificationService *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		verificationService: verificationService,
		logger:              logger,
	}
}

// VerifyRequest представляет HTTP запрос на верификацию по QR
type VerifyRequest struct {
	QRURL         *string `json:"qrUrl"`
	Provider      *string `json:"provider"`
	Reference     *string `json:"reference"`
	AccountSuffix *string `json:"accountSuffix"`
}

// TransactionResponse представляет верификационную запись в HTTP ответе
type TransactionResponse struct {
	Provider     string           `json:"provider"`
	Reference    string           `json:"reference"`
	QRURL        string           `json:"qrUrl"`
	Status       string           `json:"status"`
	Verification *PayloadResponse `json:"verification,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	VerifiedAt   *time.Time       `json:"verifiedAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// PayloadResponse представляет нормализованный payload провайдера в HTTP ответе
type PayloadResponse struct {
	Success         *bool  `json:"success,omitempty"`
	Amount          string `json:"amount"`
	ReceiverAccount string `json:"receiverAccount,omitempty"`
	ReceiverName    string `json:"receiverName,omitempty"`
	PayerName       string `json:"payerName,omitempty"`
	Reference       string `json:"reference,omitempty"`
	Date            string `json:"date,omitempty"`
}

// VerifyResponse представляет HTTP ответ верификации
type VerifyResponse struct {
	Provider    string              `json:"provider"`
	Reference   string              `json:"reference"`
	Status      string              `json:"status"`
	Transaction TransactionResponse `json:"transaction"`
	Error       string              `json:"error,omitempty"`
}

// PostVerifications обрабатывает POST /api/v1/verifications - верификация по QR
func (h *Handler) PostVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if reqBody.QRURL == nil || *reqBody.QRURL == "" {
		http.Error(w, "Invalid payload: qrUrl is required", http.StatusBadRequest)
		return
	}

	input := service.VerifyInput{QRURL: *reqBody.QRURL}
	if reqBody.Provider != nil && *reqBody.Provider != "" {
		p, err := provider.ParseProvider(*reqBody.Provider)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		input.ProviderHint = p
	}
	if reqBody.Reference != nil {
		input.ReferenceOverride = *reqBody.Reference
	}
	if reqBody.AccountSuffix != nil {
		input.AccountSuffix = *reqBody.AccountSuffix
	}

	result, err := h.verificationService.VerifyFromInput(ctx, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	tx := result.Transaction
	resp := VerifyResponse{
		Provider:    string(tx.Provider),
		Reference:   tx.Reference,
		Status:      string(tx.Status),
		Transaction: toTransactionResponse(tx),
		Error:       tx.ErrorMessage,
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListResponse представляет страницу результатов
type ListResponse struct {
	Data     interface{} `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// GetTransactions обрабатывает GET /api/v1/transactions - листинг верификаций
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, pageSize, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.TransactionFilter{}
	if p := r.URL.Query().Get("provider"); p != "" {
		parsed, err := provider.ParseProvider(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Provider = parsed
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = repository.TransactionStatus(s)
	}

	transactions, total, err := h.verificationService.ListTransactions(ctx, filter, page, pageSize)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	data := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		data = append(data, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, ListResponse{Data: data, Total: total, Page: page, PageSize: pageSize})
}

// ClaimRequest представляет HTTP запрос на сверку заявки мерчанта
type ClaimRequest struct {
	Provider      *string `json:"provider"`
	Reference     *string `json:"reference"`
	ClaimedAmount *string `json:"claimedAmount"`
	TipAmount     *string `json:"tipAmount"`
	QRData        *string `json:"qrData"`
	AccountSuffix *string `json:"accountSuffix"`
}

// ChecksResponse представляет отдельные проверки сверки
type ChecksResponse struct {
	ReferenceFound  bool `json:"referenceFound"`
	ReceiverMatches bool `json:"receiverMatches"`
	AmountMatches   bool `json:"amountMatches"`
}

// ClaimResponse представляет HTTP ответ сверки
type ClaimResponse struct {
	Status         string               `json:"status"`
	Checks         ChecksResponse       `json:"checks"`
	MismatchReason string               `json:"mismatchReason,omitempty"`
	Transaction    *TransactionResponse `json:"transaction,omitempty"`
}

// PostVerifyClaim обрабатывает POST /api/v1/claims/verify - сверка заявки
// Несовпадение - нормальный результат, всегда 200 со структурированной причиной
func (h *Handler) PostVerifyClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if reqBody.Provider == nil || reqBody.Reference == nil || *reqBody.Reference == "" || reqBody.ClaimedAmount == nil {
		http.Error(w, "Invalid payload: provider, reference and claimedAmount are required", http.StatusBadRequest)
		return
	}

	p, err := provider.ParseProvider(*reqBody.Provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	claimedAmount, err := decimal.NewFromString(*reqBody.ClaimedAmount)
	if err != nil {
		http.Error(w, "Invalid payload: claimedAmount must be a decimal number", http.StatusBadRequest)
		return
	}

	input := service.ClaimInput{
		Provider:      p,
		Reference:     *reqBody.Reference,
		ClaimedAmount: claimedAmount,
	}
	if reqBody.TipAmount != nil && *reqBody.TipAmount != "" {
		tip, err := decimal.NewFromString(*reqBody.TipAmount)
		if err != nil {
			http.Error(w, "Invalid payload: tipAmount must be a decimal number", http.StatusBadRequest)
			return
		}
		input.TipAmount = &tip
	}
	if reqBody.QRData != nil {
		input.QRData = *reqBody.QRData
	}
	if reqBody.AccountSuffix != nil {
		input.AccountSuffix = *reqBody.AccountSuffix
	}

	result, err := h.verificationService.VerifyClaim(ctx, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := ClaimResponse{
		Status: string(result.Status),
		Checks: ChecksResponse{
			ReferenceFound:  result.Checks.ReferenceFound,
			ReceiverMatches: result.Checks.ReceiverMatches,
			AmountMatches:   result.Checks.AmountMatches,
		},
	}
	if result.MismatchReason != nil {
		resp.MismatchReason = string(*result.MismatchReason)
	}
	if result.Transaction != nil {
		tx := toTransactionResponse(*result.Transaction)
		resp.Transaction = &tx
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClaimRecordResponse представляет заявку в истории сверок
type ClaimRecordResponse struct {
	ID             string     `json:"id"`
	Provider       string     `json:"provider"`
	Reference      string     `json:"reference"`
	ClaimedAmount  string     `json:"claimedAmount"`
	TipAmount      string     `json:"tipAmount,omitempty"`
	Status         string     `json:"status"`
	MismatchReason string     `json:"mismatchReason,omitempty"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// GetClaims обрабатывает GET /api/v1/claims - история сверок
func (h *Handler) GetClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, pageSize, ok := h.parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.ClaimFilter{}
	query := r.URL.Query()
	if p := query.Get("provider"); p != "" {
		parsed, err := provider.ParseProvider(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Provider = parsed
	}
	if s := query.Get("status"); s != "" {
		filter.Status = repository.ClaimStatus(s)
	}
	filter.Reference = query.Get("reference")
	if from := query.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			http.Error(w, "Invalid 'from': must be RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if to := query.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			http.Error(w, "Invalid 'to': must be RFC3339 timestamp", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}

	claims, total, err := h.verificationService.ListClaims(ctx, filter, page, pageSize)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	data := make([]ClaimRecordResponse, 0, len(claims))
	for _, claim := range claims {
		record := ClaimRecordResponse{
			ID:            claim.ID,
			Provider:      string(claim.Provider),
			Reference:     claim.Reference,
			ClaimedAmount: claim.ClaimedAmount.String(),
			Status:        string(claim.Status),
			VerifiedAt:    claim.VerifiedAt,
			CreatedAt:     claim.CreatedAt,
		}
		if claim.TipAmount != nil {
			record.TipAmount = claim.TipAmount.String()
		}
		if claim.MismatchReason != nil {
			record.MismatchReason = string(*claim.MismatchReason)
		}
		data = append(data, record)
	}

	writeJSON(w, http.StatusOK, ListResponse{Data: data, Total: total, Page: page, PageSize: pageSize})
}

// parsePagination читает и валидирует page/pageSize
// Невалидные значения - 400, дефолты: page=1, pageSize=20
func (h *Handler) parsePagination(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	page, pageSize = 1, 20
	var err error

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			http.Error(w, "Invalid 'page': must be a positive integer", http.StatusBadRequest)
			return 0, 0, false
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			http.Error(w, "Invalid 'pageSize': must be a positive integer", http.StatusBadRequest)
			return 0, 0, false
		}
	}

	return page, pageSize, true
}

// writeServiceError маппит ошибки service слоя в HTTP статусы
// Валидационные ошибки - 400, всё остальное (хранилище) - 500
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if provider.IsValidationError(err) || errors.Is(err, service.ErrInvalidPagination) {
		h.logger.Debug("request rejected", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Error("request failed", zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// toTransactionResponse преобразует доменную модель в HTTP DTO
func toTransactionResponse(tx repository.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Provider:     string(tx.Provider),
		Reference:    tx.Reference,
		QRURL:        tx.QRURL,
		Status:       string(tx.Status),
		ErrorMessage: tx.ErrorMessage,
		VerifiedAt:   tx.VerifiedAt,
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
	if tx.Payload != nil {
		resp.Verification = &PayloadResponse{
			Success:         tx.Payload.Success,
			Amount:          tx.Payload.Amount.String(),
			ReceiverAccount: tx.Payload.ReceiverAccount,
			ReceiverName:    tx.Payload.ReceiverName,
			PayerName:       tx.Payload.PayerName,
			Reference:       tx.Payload.Reference,
			Date:            tx.Payload.Date,
		}
	}
	return resp
}

// writeJSON пишет JSON ответ с указанным статусом
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
