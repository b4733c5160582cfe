package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Adapter определяет контракт провайдерского адаптера
// Верификация блокирующая, ограничена таймаутом клиента и контекстом.
// Единственный контракт для оркестратора: Payload при успехе, ошибка при любом сбое
type Adapter interface {
	// Provider возвращает провайдера, которого обслуживает адаптер
	Provider() Provider
	// Verify проверяет квитанцию по reference у провайдера
	Verify(ctx context.Context, reference string, extra Extra) (Payload, error)
}

// Registry хранит адаптеры по провайдеру
// Service слой запрашивает адаптер через Get и не знает о конкретных реализациях
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry создаёт пустой registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[Provider]Adapter),
	}
}

// Register регистрирует адаптер для его провайдера
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
}

// Get возвращает адаптер для провайдера
// Возвращает ErrUnknownProvider, если адаптер не зарегистрирован
func (r *Registry) Get(p Provider) (Adapter, error) {
	if a, exists := r.adapters[p]; exists {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
}

// retryDelay - пауза перед единственным повтором транспортной ошибки
// Повторяем только сбой транспорта (соединение/таймаут), не бизнес-ответы:
// not-found и кривой JSON при повторе не изменятся
const retryDelay = 500 * time.Millisecond

// doJSON выполняет HTTP-запрос с одним повтором на транспортную ошибку
// Запрос пересобирается на каждую попытку, чтобы не переиспользовать вычитанное тело.
// Возвращает тело ответа; не-2xx превращается в ошибку с куском тела для диагностики
func doJSON(ctx context.Context, client *http.Client, method, url string, reqBody []byte) ([]byte, error) {
	resp, err := attempt(ctx, client, method, url, reqBody)
	if err != nil {
		// Один повтор на транспортную ошибку
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
		case <-time.After(retryDelay):
		}
		resp, err = attempt(ctx, client, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, readErr)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w (status %d)", ErrReceiptNotFound, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// При не-2xx отдаём кусок тела для диагностики
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable,
			resp.StatusCode, truncate(strings.TrimSpace(string(body)), 200))
	}

	return body, nil
}

// attempt собирает и выполняет одну попытку запроса
func attempt(ctx context.Context, client *http.Client, method, url string, reqBody []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if len(reqBody) > 0 {
		bodyReader = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(reqBody) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return client.Do(req)
}

// truncate обрезает строку до указанной длины
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
