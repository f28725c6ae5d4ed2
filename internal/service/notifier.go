package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"contapos/internal/cache"
	"contapos/internal/events"
	"contapos/internal/mailer"
	"contapos/internal/metrics"
	"contapos/internal/model"
	"contapos/internal/repository"
	ws "contapos/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockChange is the resulting quantity of a product in a warehouse after a write
type StockChange struct {
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

func (c StockChange) isLow() bool {
	return c.MinStock.IsPositive() && c.Quantity.LessThanOrEqual(c.MinStock)
}

// Notifier fans committed changes out to websocket clients, the event bus,
// metrics, the read-model cache and the low-stock mailbox. Every dependency is optional.
type Notifier struct {
	hub         *ws.Hub
	cache       cache.Cache
	mailer      mailer.Mailer
	publisher   events.Publisher
	metrics     *metrics.Metrics
	settingRepo repository.SettingRepository
	logger      *zap.Logger
	wg          sync.WaitGroup
}

func NewNotifier(
	hub *ws.Hub,
	c cache.Cache,
	m mailer.Mailer,
	publisher events.Publisher,
	mt *metrics.Metrics,
	settingRepo repository.SettingRepository,
	logger *zap.Logger,
) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{hub: hub, cache: c, mailer: m, publisher: publisher, metrics: mt, settingRepo: settingRepo, logger: logger}
}

// Wait blocks until background mail deliveries finish
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

// Invalidate drops dashboard, search and inventory read models
func (n *Notifier) Invalidate(ctx context.Context) {
	if n == nil {
		return
	}
	if err := cache.InvalidateStock(ctx, n.cache); err != nil {
		n.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (n *Notifier) Publish(ctx context.Context, eventType string, payload interface{}) {
	if n == nil || n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, events.New(eventType, payload)); err != nil {
		n.logger.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (n *Notifier) Broadcast(eventType string, data interface{}) {
	if n == nil {
		return
	}
	n.hub.Publish(eventType, data)
}

// StockChanged must be called after the transaction that produced the changes committed
func (n *Notifier) StockChanged(ctx context.Context, changes []StockChange) {
	if n == nil || len(changes) == 0 {
		return
	}
	n.Invalidate(ctx)

	var low []StockChange
	for _, c := range changes {
		n.hub.Publish(ws.EventStockUpdated, c)
		if c.isLow() {
			low = append(low, c)
			n.hub.Publish(ws.EventLowStock, c)
			n.Publish(ctx, events.StockLow, c)
			n.metrics.LowStock()
		}
	}
	if len(low) > 0 {
		n.sendLowStockMail(ctx, low)
	}
}

func (n *Notifier) sendLowStockMail(ctx context.Context, low []StockChange) {
	if n.mailer == nil || n.settingRepo == nil {
		return
	}
	to, err := n.settingRepo.Get(ctx, model.SettingLowStockAlertEmail)
	if err != nil || strings.TrimSpace(to) == "" {
		return
	}

	var b strings.Builder
	b.WriteString("<p>Los siguientes productos alcanzaron su existencia mínima:</p><ul>")
	for _, c := range low {
		fmt.Fprintf(&b, "<li>%s - %s: %s (mínimo %s)</li>", html.EscapeString(c.SKU), html.EscapeString(c.ProductName), c.Quantity, c.MinStock)
	}
	b.WriteString("</ul>")

	msg := mailer.Message{
		To:      []string{strings.TrimSpace(to)},
		Subject: fmt.Sprintf("Alerta de stock bajo (%d productos)", len(low)),
		HTML:    b.String(),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := n.mailer.Send(sendCtx, msg); err != nil {
			n.logger.Warn("low stock mail failed", zap.Error(err))
		}
	}()
}
