package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// bookingConfirmedQueue is the durable queue booking events land on
const bookingConfirmedQueue = "booking.confirmed"

// Publisher publishes booking events to RabbitMQ. An empty URL disables
// publishing entirely. Errors are logged and returned so callers can
// ignore failures without interrupting the main request flow.
type Publisher struct {
	url    string
	logger *logrus.Logger
}

// NewPublisher creates a new publisher. Pass an empty URL to disable.
func NewPublisher(url string, logger *logrus.Logger) *Publisher {
	return &Publisher{
		url:    url,
		logger: logger,
	}
}

// PublishBookingConfirmed publishes a BookingConfirmedEvent to the
// booking.confirmed queue. Messages are marked persistent so they
// survive broker restarts.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	if p.url == "" {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.WithError(err).Warn("rabbitmq: dial failed")
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.WithError(err).Warn("rabbitmq: channel open failed")
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publishing never races consumer startup
	if _, err := ch.QueueDeclare(
		bookingConfirmedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		p.logger.WithError(err).Warn("rabbitmq: queue declare failed")
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                    // default exchange
		bookingConfirmedQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		pub,
	); err != nil {
		p.logger.WithError(err).WithField("booking_id", event.BookingID).
			Warn("rabbitmq: publish failed")
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"booking_id":   event.BookingID,
		"booking_code": event.BookingCode,
	}).Info("Booking confirmed event published")

	return nil
}
