package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Beki78/fetan-pay-sub004/internal/service"
)

// VerificationEventPublisher реализует service.EventPublisher используя Kafka
type VerificationEventPublisher struct {
	logger *zap.Logger
	writer *kafka.Writer
	topic  string
}

// NewVerificationEventPublisher создаёт новый Kafka publisher событий верификации
func NewVerificationEventPublisher(logger *zap.Logger, brokers []string, topic string) *VerificationEventPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &VerificationEventPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Close закрывает Kafka writer
func (p *VerificationEventPublisher) Close() error {
	return p.writer.Close()
}

// PublishVerificationCompleted публикует событие завершённой верификации в Kafka
// Ключ сообщения provider:reference - все события одной квитанции попадают
// в одну партицию и сохраняют порядок
func (p *VerificationEventPublisher) PublishVerificationCompleted(ctx context.Context, event service.VerificationEvent) error {
	payload := map[string]interface{}{
		"event_id":      uuid.New().String(),
		"event_type":    "verification.completed",
		"event_version": 1,
		"occurred_at":   time.Now().UTC().Format(time.RFC3339),
		"provider":      event.Provider,
		"reference":     event.Reference,
		"status":        event.Status,
	}

	valueBytes, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal verification event",
			zap.Error(err),
			zap.String("reference", event.Reference),
		)
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.Provider + ":" + event.Reference),
		Value: valueBytes,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.logger.Error("failed to publish verification event",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("provider", event.Provider),
			zap.String("reference", event.Reference),
		)
		return err
	}

	p.logger.Debug("verification event published",
		zap.String("provider", event.Provider),
		zap.String("reference", event.Reference),
		zap.String("status", event.Status),
	)

	return nil
}

// NoOpPublisher - no-op реализация EventPublisher (когда Kafka не настроена)
type NoOpPublisher struct {
	logger *zap.Logger
}

// NewNoOpPublisher создаёт no-op publisher
func NewNoOpPublisher(logger *zap.Logger) *NoOpPublisher {
	return &NoOpPublisher{
		logger: logger,
	}
}

// PublishVerificationCompleted ничего не делает, только логирует
func (p *NoOpPublisher) PublishVerificationCompleted(ctx context.Context, event service.VerificationEvent) error {
	p.logger.Debug("no-op publisher: event not sent",
		zap.String("provider", event.Provider),
		zap.String("reference", event.Reference),
		zap.String("status", event.Status),
	)
	return nil
}
