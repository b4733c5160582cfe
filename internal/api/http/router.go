package httpapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/Beki78/fetan-pay-sub004/internal/api/http/middleware"
	"github.com/Beki78/fetan-pay-sub004/internal/platform/health"
)

// NewRouter создаёт и настраивает HTTP роутер Verification Service
// readiness - функция проверки готовности (ping БД); при false health вернёт 503.
// adminAPIKey защищает listing endpoint-ы; пустой ключ отключает проверку
func NewRouter(handler *Handler, readiness func() bool, adminAPIKey string) chi.Router {
	router := chi.NewRouter()

	router.Route("/api/v1", func(r chi.Router) {
		// Верификация и сверка доступны merchant-стороне без админского ключа
		r.Post("/verifications", handler.PostVerifications)
		r.Post("/claims/verify", handler.PostVerifyClaim)

		// Листинги - админская поверхность, единая capability-проверка
		r.Group(func(admin chi.Router) {
			admin.Use(middleware.WithAPIKey(adminAPIKey))
			admin.Get("/transactions", handler.GetTransactions)
			admin.Get("/claims", handler.GetClaims)
		})
	})

	// Health без middleware
	router.Get("/health", health.Handler(readiness))

	return router
}
