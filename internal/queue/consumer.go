package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// Consumer listens to the booking queues and appends one line per event
// to <dir>/booking.log.
type Consumer struct {
	url string
	dir string
	log *logger.Logger
}

// NewConsumer returns a Consumer writing into dir.
func NewConsumer(url, dir string, log *logger.Logger) *Consumer {
	return &Consumer{url: url, dir: dir, log: log}
}

// Run connects to RabbitMQ, declares both booking queues (durable) and
// consumes them until ctx is cancelled.  Broker failures trigger a
// reconnect with exponential backoff capped at 30s.  Messages that cannot
// be handled are rejected without requeue so the loop keeps moving.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("booking-consumer: failed to dial broker", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking-consumer: consume loop ended; reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("booking-consumer: set QoS failed", "error", err)
	}

	confirmed, err := c.subscribe(ch, QueueBookingConfirmed)
	if err != nil {
		return err
	}
	cancelled, err := c.subscribe(ch, QueueBookingCancelled)
	if err != nil {
		return err
	}

	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-confirmed:
		case d, ok = <-cancelled:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.handle(d.RoutingKey, d.Body); err != nil {
			c.log.Error("booking-consumer: handle message failed", "queue", d.RoutingKey, "error", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Consumer) handle(queue string, body []byte) error {
	line, err := FormatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders a message body from queue as a single log line
// ending in a newline.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueBookingConfirmed:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | user_id=%s | movie=%q | hall=%q | showtime=%s %s | total=%s | seats=%s\n",
			ev.ConfirmedAt, ev.BookingID, ev.UserID, ev.MovieTitle, ev.Hall, ev.ShowDate, ev.ShowTime,
			utils.FormatCents(ev.TotalAmountCents), seatList(ev.SeatLabels)), nil
	case QueueBookingCancelled:
		var ev BookingCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking cancelled | booking_id=%s | user_id=%s | movie=%q | showtime=%s %s | reason=%s | seats=%s\n",
			ev.CancelledAt, ev.BookingID, ev.UserID, ev.MovieTitle, ev.ShowDate, ev.ShowTime, ev.Reason,
			seatList(ev.SeatLabels)), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

func seatList(seats []string) string {
	return "[" + strings.Join(seats, ",") + "]"
}
