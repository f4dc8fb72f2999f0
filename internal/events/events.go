// Package events publishes order lifecycle events to Kafka. Publishing is
// best-effort and happens after the store transaction has committed: a
// broker failure is logged and never surfaced to the caller.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/mjyuu/vocaloidshop/internal/models"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     int64              `json:"order_id"`
	UserID      int64              `json:"user_id"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount int64              `json:"total_amount"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

type Publisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewPublisher returns nil when no brokers are configured; a nil *Publisher
// is safe to use and publishes nothing.
func NewPublisher(brokers []string, topic string, logger zerolog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (p *Publisher) OrderPlaced(ctx context.Context, order *models.Order) {
	p.publish(ctx, TypeOrderPlaced, order)
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, order *models.Order) {
	p.publish(ctx, TypeOrderStatusChanged, order)
}

func (p *Publisher) publish(ctx context.Context, eventType string, order *models.Order) {
	if p == nil {
		return
	}

	event := OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Int64("order_id", order.ID).Msg("marshal order event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(order.ID, 10)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", eventType).
			Int64("order_id", order.ID).
			Msg("publish order event")
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
