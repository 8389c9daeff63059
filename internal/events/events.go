// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"aura-taste/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// Event is the message body. Messages are keyed by order id so one order's
// events stay in one partition.
type Event struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"orderId"`
	Status     domain.OrderStatus `json:"status"`
	Previous   domain.OrderStatus `json:"previous,omitempty"`
	Method     string             `json:"fulfillmentMethod,omitempty"`
	TotalCents int64              `json:"totalAmount"`
	At         time.Time          `json:"at"`
}

// OrderCreated builds the event for a placed order.
func OrderCreated(o domain.Order) Event {
	return Event{
		Type:       TypeOrderCreated,
		OrderID:    o.ID,
		Status:     o.Status,
		Method:     string(o.FulfillmentMethod),
		TotalCents: o.TotalAmountCents,
		At:         o.CreatedAt,
	}
}

// StatusChanged builds the event for a status transition.
func StatusChanged(o domain.Order, previous domain.OrderStatus) Event {
	return Event{
		Type:       TypeOrderStatusChanged,
		OrderID:    o.ID,
		Status:     o.Status,
		Previous:   previous,
		Method:     string(o.FulfillmentMethod),
		TotalCents: o.TotalAmountCents,
		At:         o.UpdatedAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	logger *log.Logger
}

// NewKafkaWriter returns a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func NewKafkaPublisher(writer messageWriter, logger *log.Logger) *KafkaPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}); err != nil {
		p.logger.Printf("events: publish type=%s order_id=%s error=%v", e.Type, e.OrderID, err)
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
