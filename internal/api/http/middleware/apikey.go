package middleware

import (
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "x-api-key"

// WithAPIKey возвращает middleware, требующий заголовок x-api-key
// Единая точка capability-проверки для админских endpoint-ов: 401 при отсутствии
// или несовпадении ключа. Пустой настроенный ключ отключает проверку
// (локальная разработка)
func WithAPIKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(apiKeyHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
