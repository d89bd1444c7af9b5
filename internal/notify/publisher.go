// Package notify publishes check run outcomes to an AMQP queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sevigo/dollar-ci/internal/config"
	"github.com/sevigo/dollar-ci/internal/core"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends every recorded outcome as a persistent JSON message to a
// durable queue on the default exchange.
type Publisher struct {
	conn   *amqp.Connection
	mu     sync.Mutex // amqp channels are not safe for concurrent use
	ch     channel
	queue  string
	logger *slog.Logger
}

// NewPublisher dials the broker, opens a publish channel and declares the
// queue.
func NewPublisher(cfg config.NotifyConfig, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("amqp: failed to connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: failed to open publish channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue, // queue name
		true,      // durable
		false,     // auto-delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // additional arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: failed to declare queue %q: %w", cfg.Queue, err)
	}
	logger.Info("outcome queue declared", "queue", cfg.Queue)

	p := newPublisher(ch, cfg.Queue, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string, logger *slog.Logger) *Publisher {
	return &Publisher{ch: ch, queue: queue, logger: logger}
}

// RecordOutcome publishes outcome to the queue.
func (p *Publisher) RecordOutcome(ctx context.Context, outcome *core.Outcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("amqp: failed to marshal outcome: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    outcome.DeliveryID,
			Timestamp:    outcome.CreatedAt,
			Type:         string(outcome.Transition),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("amqp: failed to publish outcome: %w", err)
	}

	p.logger.Debug("outcome published", "queue", p.queue, "delivery_id", outcome.DeliveryID)
	return nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ core.OutcomeRecorder = (*Publisher)(nil)
