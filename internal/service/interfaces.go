package service

import (
	"context"
)

// VerificationEvent - событие завершённой верификации
// Публикуется после КАЖДОГО сохранённого исхода (и VERIFIED, и FAILED),
// чтобы внешние потребители (webhook-и, уведомления) видели все попытки
type VerificationEvent struct {
	Provider  string
	Reference string
	Status    string
}

// EventPublisher определяет интерфейс публикации событий верификации
// Service зависит от интерфейса; реализация - Kafka или no-op
type EventPublisher interface {
	PublishVerificationCompleted(ctx context.Context, event VerificationEvent) error
}
