package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/ligue-crm/internal/infra/mail"
	"go.uber.org/zap"
)

type DraftMailer interface {
	SendDraft(to string, data mail.DraftEmailData) error
}

// Worker mails each drafted email to the sales inbox.
type Worker struct {
	Channel *amqp.Channel
	Mailer  DraftMailer
	Inbox   string
	logger  *zap.Logger
}

func NewWorker(ch *amqp.Channel, mailer DraftMailer, inbox string, logger *zap.Logger) *Worker {
	return &Worker{
		Channel: ch,
		Mailer:  mailer,
		Inbox:   inbox,
		logger:  logger.With(zap.String("component", "drafts_worker")),
	}
}

// Start consumes queueName until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx,
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", queueName, err)
	}

	w.logger.Info("worker waiting for drafts", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle acks a delivered draft, or rejects it without requeue so it
// is dead-lettered.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var payload DraftPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.logger.Error("malformed draft message", zap.String("message_id", d.MessageId), zap.Error(err))
		d.Nack(false, false)
		return
	}

	log := w.logger.With(
		zap.String("event_id", payload.EventID),
		zap.String("correlation_id", payload.CorrelationID),
		zap.Int("deal_id", payload.DealID),
	)

	if err := w.process(ctx, payload); err != nil {
		log.Error("draft delivery failed", zap.Error(err))
		d.Nack(false, false)
		return
	}

	log.Info("draft delivered", zap.String("to", w.Inbox))
	d.Ack(false)
}

func (w *Worker) process(ctx context.Context, payload DraftPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if payload.Email == "" {
		return fmt.Errorf("draft for deal %d has no email text", payload.DealID)
	}
	return w.Mailer.SendDraft(w.Inbox, mail.DraftEmailData{
		DealID:      payload.DealID,
		DealName:    payload.DealName,
		Stage:       payload.Stage,
		ContactName: payload.ContactName,
		Email:       payload.Email,
	})
}
