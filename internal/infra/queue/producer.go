package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// FileReadyPayload announces that a file is registered and may be loadable.
// The consumer re-derives all state from the database, so duplicate or
// stale events are harmless.
type FileReadyPayload struct {
	FileUUID string          `json:"file_uuid"`
	DriveID  string          `json:"drive_id"`
	Name     string          `json:"name"`
	FileType entity.FileType `json:"file_type,omitempty"`
}

type FileEventPublisher interface {
	PublishFileReady(ctx context.Context, payload FileReadyPayload) error
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishFileReady(ctx context.Context, payload FileReadyPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal file-ready payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish file-ready for %s: %w", payload.DriveID, err)
	}
	return nil
}
