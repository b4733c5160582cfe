package main

import (
	"log"

	"github.com/Beki78/fetan-pay-sub004/internal/app"
	"github.com/Beki78/fetan-pay-sub004/internal/config"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Log()

	// Собираем все зависимости
	application, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	// Запускаем и ждём сигнала shutdown
	if err := application.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
