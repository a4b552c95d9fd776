package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
)

// DefaultExchange is the topic exchange every lifecycle event is sent to.
const DefaultExchange = "notebook.events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// Event is the JSON envelope published for every domain event.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// NewClient connects to RabbitMQ and declares the durable topic exchange.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	logger = logger.With().Str("component", "rabbitmq").Str("exchange", cfg.Exchange).Logger()
	logger.Info().Msg("RabbitMQ client connected")

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends data as a persistent JSON event routed by eventType,
// e.g. "note.created".
func (c *Client) Publish(ctx context.Context, eventType string, data interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newPublishing(eventType, data, time.Now().UTC())
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = c.channel.Publish(
		c.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	c.logger.Debug().Str("event", eventType).Str("message_id", msg.MessageId).Msg("event published")
	return nil
}

func newPublishing(eventType string, data interface{}, now time.Time) (amqp.Publishing, error) {
	event := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: now,
		Data:       data,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         eventType,
		Timestamp:    now,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}

// ConsumeEvents binds queue to the exchange with bindingKey (e.g. "note.*")
// and hands every delivery to handler until ctx is done. A handler error
// nacks the message without requeueing it.
func (c *Client) ConsumeEvents(ctx context.Context, queue, bindingKey string, handler func(Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	c.mu.Lock()
	q, err := c.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err == nil {
		err = c.channel.QueueBind(q.Name, bindingKey, c.exchange, false, nil)
	}
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = c.channel.Consume(
			q.Name, // queue
			"",     // consumer tag
			false,  // auto-ack
			false,  // exclusive
			false,  // no-local
			false,  // no-wait
			nil,    // args
		)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to set up consumer on %s: %w", queue, err)
	}

	c.logger.Info().Str("queue", q.Name).Str("binding", bindingKey).Msg("waiting for events")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.dispatch(msg, handler)
			}
		}
	}()
	return nil
}

func (c *Client) dispatch(msg amqp.Delivery, handler func(Event) error) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("dropping malformed event")
		_ = msg.Nack(false, false)
		return
	}
	if err := handler(event); err != nil {
		c.logger.Error().Err(err).Str("event", event.Type).Str("message_id", event.ID).Msg("error processing event")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error().Err(nackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("error nacking event")
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error().Err(ackErr).Uint64("delivery_tag", msg.DeliveryTag).Msg("error acking event")
	}
}
