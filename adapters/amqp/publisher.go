// Package amqp publishes record change events to RabbitMQ. Publishing
// failures are returned so callers can log them without failing the request.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/domain/entities"
)

// DefaultQueue is the durable queue change events are routed to
const DefaultQueue = "records.changed"

const (
	dialTimeout   = 3 * time.Second
	redialBackoff = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the broker is being redialed or
// a recent dial has failed
var ErrBrokerUnavailable = errors.New("rabbitmq broker unavailable")

// Publisher implements repositories.EventPublisher on a single broker connection.
// A channel is opened per publish because amqp channels are not safe for
// concurrent use.
type Publisher struct {
	url     string
	queue   string
	logger  *zap.Logger
	dial    func(url string) (*amqp.Connection, error)
	backoff time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	dialing  bool
	nextDial time.Time
}

func newPublisher(url, queue string, logger *zap.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{
		url:     url,
		queue:   queue,
		logger:  logger,
		dial:    dialBroker,
		backoff: redialBackoff,
	}
}

// dialBroker dials with a connect timeout well below the library's 30s default
func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// NewPublisher dials the broker and declares the events queue
func NewPublisher(url, queue string, logger *zap.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq URL is required")
	}
	p := newPublisher(url, queue, logger)
	conn, err := p.connection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("queue", p.queue))
	return p, nil
}

// Publish implements repositories.EventPublisher
func (p *Publisher) Publish(ctx context.Context, event entities.RecordEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	conn, err := p.connection()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.RoutingKey(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.RoutingKey(), err)
	}

	p.logger.Debug("Event published",
		zap.String("event_id", event.ID),
		zap.String("type", event.RoutingKey()),
		zap.String("record_id", event.RecordID))
	return nil
}

// Close closes the broker connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

// connection returns the live connection, redialing if the broker dropped it.
// Only one caller dials at a time and the lock is not held while dialing;
// everyone else fails fast with ErrBrokerUnavailable until the dial settles
// or the backoff after a failed dial has passed.
func (p *Publisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	if p.conn != nil && !p.conn.IsClosed() {
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	}
	if p.dialing || time.Now().Before(p.nextDial) {
		p.mu.Unlock()
		return nil, ErrBrokerUnavailable
	}
	p.dialing = true
	p.mu.Unlock()

	conn, err := p.dial(p.url)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.nextDial = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	p.conn = conn
	return conn, nil
}
