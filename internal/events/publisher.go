// Package events publishes moderation domain events to RabbitMQ. Errors
// are logged and returned so callers can ignore failures without
// interrupting the request flow; a nil Publisher drops events entirely,
// keeping the broker optional in dev setups.
package events

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReviewHiddenEvent is emitted whenever moderation hides a review, feeding
// downstream consumers (notification mails, audit trails).
type ReviewHiddenEvent struct {
	ReviewID string    `json:"review_id"`
	AuthorID string    `json:"author_id"`
	Reason   string    `json:"reason"`
	HiddenAt time.Time `json:"hidden_at"`
}

const reviewHiddenQueue = "review.hidden"

type Publisher struct {
	url string
}

// NewPublisherFromEnv returns a publisher when RABBITMQ_URL (or AMQP_URL)
// is set, nil otherwise.
func NewPublisherFromEnv() *Publisher {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	if url == "" {
		return nil
	}
	return &Publisher{url: url}
}

// PublishReviewHidden sends the event to the review.hidden queue. The
// connection is opened per publish so a broker restart never wedges the
// moderation path; any error is logged and returned for the caller to
// ignore.
func (p *Publisher) PublishReviewHidden(ctx context.Context, event ReviewHiddenEvent) error {
	if p == nil {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(reviewHiddenQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", reviewHiddenQueue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
