package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DraftPayload is the deal.email_drafted event.
type DraftPayload struct {
	EventID       string    `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	DealID        int       `json:"deal_id"`
	DealName      string    `json:"deal_name"`
	Stage         string    `json:"stage"`
	ContactName   string    `json:"contact_name"`
	Email         string    `json:"email"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishDraft(ctx context.Context, payload DraftPayload) error {
	if payload.EventID == "" {
		payload.EventID = uuid.New().String()
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode draft payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			MessageId:     payload.EventID,
			CorrelationId: payload.CorrelationID,
			Type:          "deal.email_drafted",
			Timestamp:     payload.OccurredAt,
			Body:          body,
			DeliveryMode:  amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish draft for deal %d: %w", payload.DealID, err)
	}
	return nil
}
