package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/metrics"
	"github.com/jafarshop/ttsbridge/internal/repository"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	apperrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

var (
	errNoInvoice = errors.New("vtex order has no invoice yet")
	errNoVTEXID  = errors.New("order mapping has no VTEX order id")
)

var (
	vtexOrderIDKeys = []string{"OrderId", "orderId", "order_id"}
	ttsOrderIDKeys  = []string{"marketplaceOrderId", "MarketplaceOrderId", "marketplace_order_id"}
	statusKeys      = []string{"State", "state", "currentState", "CurrentState", "status", "Status"}
)

type notificationService struct {
	ledger     IdempotencyLedger
	platform   CommercePlatform
	labels     LabelGenerator
	repos      *repository.Repositories
	dispatcher Dispatcher
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewNotificationService creates the VTEX notification handler
func NewNotificationService(ledger IdempotencyLedger, platform CommercePlatform, labels LabelGenerator, repos *repository.Repositories, dispatcher Dispatcher, logger *zap.Logger) *notificationService {
	return &notificationService{
		ledger:     ledger,
		platform:   platform,
		labels:     labels,
		repos:      repos,
		dispatcher: dispatcher,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
	}
}

// Enqueue hands the notification to the dispatcher and returns immediately
func (s *notificationService) Enqueue(shop *domain.Shop, action string, raw []byte) error {
	payload := bytes.Clone(raw)
	return s.dispatcher.Submit("vtex-notification", func(ctx context.Context) error {
		return s.Process(ctx, shop, action, payload)
	})
}

// Process applies one VTEX notification. action is the callback sub-path, possibly empty.
func (s *notificationService) Process(ctx context.Context, shop *domain.Shop, action string, raw []byte) error {
	ctx, span := s.tracer.Start(ctx, "ProcessNotification", trace.WithAttributes(
		attribute.String("shop.id", shop.ID),
		attribute.String("vtex.action", action),
	))
	defer span.End()

	ev, err := ParseNotification(action, raw)
	if err != nil {
		metrics.ObserveWebhook("vtex", metrics.OutcomeFailed)
		return err
	}
	if ev == nil {
		s.logger.Debug("VTEX ping acknowledged", zap.String("shop_id", shop.ID))
		metrics.ObserveWebhook("vtex", metrics.OutcomeIgnored)
		return nil
	}

	key := NotificationKey(shop.ID, ev, raw)
	outcome, err := s.ledger.Register(ctx, key, raw, func(ctx context.Context) error {
		return s.apply(ctx, shop, ev)
	})
	if err != nil {
		if errors.Is(err, ErrPrecondition) {
			s.logger.Info("VTEX notification ignored",
				zap.String("shop_id", shop.ID),
				zap.String("vtex_order_id", ev.VTEXOrderID),
				zap.String("tts_order_id", ev.TTSOrderID),
				zap.String("reason", err.Error()),
			)
			metrics.ObserveWebhook("vtex", metrics.OutcomeIgnored)
			return nil
		}
		metrics.ObserveWebhook("vtex", metrics.OutcomeFailed)
		return err
	}

	metrics.ObserveWebhook("vtex", string(outcome))
	return nil
}

func (s *notificationService) apply(ctx context.Context, shop *domain.Shop, ev *NotificationEvent) error {
	mapping, err := s.findMapping(ctx, shop, ev)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return precondition(err)
		}
		return err
	}
	if mapping.HasLabel() {
		s.logger.Info("Label already generated", zap.String("order_id", mapping.TTSOrderID))
		return nil
	}

	vtexOrderID := ev.VTEXOrderID
	if vtexOrderID == "" && mapping.VTEXOrderID != nil {
		vtexOrderID = *mapping.VTEXOrderID
	}
	if vtexOrderID == "" {
		return precondition(errNoVTEXID)
	}

	order, err := s.platform.GetOrder(ctx, shop, vtexOrderID)
	if err != nil {
		return fmt.Errorf("failed to read vtex order: %w", err)
	}
	value := order.TotalValue()

	meta := ev.Invoice
	if meta == nil {
		inv := order.LatestInvoice()
		if inv == nil {
			return precondition(errNoInvoice)
		}
		meta = &InvoiceMeta{
			Number:       inv.InvoiceNumber,
			Key:          inv.InvoiceKey,
			Value:        inv.InvoiceValue,
			IssuanceDate: inv.IssuanceDate,
		}
	}
	if meta.Value == 0 {
		meta.Value = value
	}

	if mapping.Status != domain.MappingStatusInvoiced {
		if !mapping.Status.CanTransitionTo(domain.MappingStatusInvoiced) {
			return &apperrors.ErrInvalidStateTransition{
				From: mapping.Status,
				To:   domain.MappingStatusInvoiced,
			}
		}
		if err := s.repos.OrderMapping.UpdateStatus(ctx, mapping.TTSOrderID, domain.MappingStatusInvoiced, nil); err != nil {
			return err
		}

		event := &domain.OrderEvent{
			TTSOrderID: mapping.TTSOrderID,
			EventType:  domain.EventStatusChange,
			EventData: map[string]interface{}{
				"from":           mapping.Status,
				"to":             domain.MappingStatusInvoiced,
				"invoice_number": meta.Number,
			},
		}
		if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
			s.logger.Warn("Failed to record status change", zap.String("order_id", mapping.TTSOrderID), zap.Error(err))
		}
	}

	if _, err := s.labels.GenerateLabel(ctx, shop.ID, mapping.TTSOrderID, &value, meta); err != nil {
		return fmt.Errorf("failed to generate label for invoiced order: %w", err)
	}

	return nil
}

func (s *notificationService) findMapping(ctx context.Context, shop *domain.Shop, ev *NotificationEvent) (*domain.OrderMapping, error) {
	if ev.TTSOrderID != "" {
		mapping, err := s.repos.OrderMapping.GetByTTSOrderID(ctx, ev.TTSOrderID)
		if err == nil && mapping.ShopID == shop.ID {
			return mapping, nil
		}
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
	}
	if ev.VTEXOrderID != "" {
		return s.repos.OrderMapping.GetByVTEXOrderID(ctx, shop.ID, ev.VTEXOrderID)
	}
	return nil, &apperrors.ErrNotFound{Resource: "order_mapping", ID: ev.TTSOrderID}
}

// ParseNotification recognises the VTEX payload shapes. It returns nil for a ping.
func ParseNotification(action string, raw []byte) (*NotificationEvent, error) {
	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}

	if strings.EqualFold(tiktok.String(body["hookConfig"]), "ping") {
		return nil, nil
	}

	ev := &NotificationEvent{
		VTEXOrderID: lookup(body, vtexOrderIDKeys),
		TTSOrderID:  lookup(body, ttsOrderIDKeys),
		Status:      lookup(body, statusKeys),
	}

	if id, ok := invoiceAction(action); ok {
		ev.TTSOrderID = id
		ev.Status = string(domain.MappingStatusInvoiced)
	}

	if number := tiktok.String(body["invoiceNumber"]); number != "" {
		ev.Invoice = &InvoiceMeta{
			Number:       number,
			Key:          tiktok.String(body["invoiceKey"]),
			Value:        cents(body["invoiceValue"]),
			IssuanceDate: tiktok.String(body["issuanceDate"]),
		}
	}

	if ev.VTEXOrderID == "" && ev.TTSOrderID == "" {
		return nil, fmt.Errorf("%w: no order id", ErrInvalidPayload)
	}
	return ev, nil
}

// NotificationKey is the idempotency key of a VTEX notification
func NotificationKey(shopID string, ev *NotificationEvent, raw []byte) string {
	correlation := ev.VTEXOrderID
	if correlation == "" {
		correlation = ev.TTSOrderID
	}
	if correlation == "" {
		correlation = "payload:" + PayloadHash(raw)
	}
	return fmt.Sprintf("vtex:notification:%s:%s:%s", shopID, strings.ToLower(ev.Status), correlation)
}

// invoiceAction matches pvt/orders/{marketplaceOrderId}/invoice
func invoiceAction(action string) (string, bool) {
	parts := strings.Split(strings.Trim(action, "/"), "/")
	if len(parts) == 4 && parts[0] == "pvt" && parts[1] == "orders" && parts[3] == "invoice" && parts[2] != "" {
		return parts[2], true
	}
	return "", false
}

func lookup(body map[string]any, keys []string) string {
	for _, k := range keys {
		if v := tiktok.String(body[k]); v != "" {
			return v
		}
	}
	return ""
}

// cents reads an invoice value already expressed in minor units.
// Fractional input is rejected so the caller falls back to the order total.
func cents(v any) int64 {
	s := tiktok.String(v)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0
	}
	return d.IntPart()
}
