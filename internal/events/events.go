// Package events publishes business events (sales, purchases, stock, e-invoices)
// to a RabbitMQ topic exchange for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SaleCompleted    = "sale.completed"
	SaleCancelled    = "sale.cancelled"
	PurchaseReceived = "purchase.received"
	StockLow         = "stock.low"
	InvoiceSent      = "invoice.sent"
	EntryPosted      = "journal.posted"
)

// Event is the JSON envelope put on the wire
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher only logs; used when no broker is configured
type NopPublisher struct {
	logger *zap.Logger
}

func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(ctx context.Context, evt Event) error {
	p.logger.Debug("event", zap.String("type", evt.Type), zap.String("id", evt.ID))
	return nil
}

func (p *NopPublisher) Close() error { return nil }
