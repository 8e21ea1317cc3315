package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// Publisher sends booking events to RabbitMQ.  Each publish dials the
// broker, declares the queue and sends one persistent message, so a broker
// outage never leaves a broken connection behind.  Errors are logged and
// returned so the caller can choose to ignore them.
type Publisher struct {
	url string
	log *logger.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logger.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// BookingConfirmed publishes a BookingConfirmedEvent to booking.confirmed.
func (p *Publisher) BookingConfirmed(ctx context.Context, b *model.Booking) error {
	return p.publish(ctx, QueueBookingConfirmed, NewBookingConfirmedEvent(b))
}

// BookingCancelled publishes a BookingCancelledEvent to booking.cancelled.
func (p *Publisher) BookingCancelled(ctx context.Context, b *model.Booking) error {
	return p.publish(ctx, QueueBookingCancelled, NewBookingCancelledEvent(b))
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", "queue", queue, "error", err)
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", "queue", queue, "error", err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.log.Warn("rabbitmq: publish failed", "queue", queue, "error", err)
		return err
	}
	return nil
}
