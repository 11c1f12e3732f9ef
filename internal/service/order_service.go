package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/builder"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/metrics"
	"github.com/jafarshop/ttsbridge/internal/repository"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/internal/vtex"
	apperrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

const tracerName = "github.com/jafarshop/ttsbridge/internal/service"

// OrderServiceDeps are the collaborators of the order orchestrator
type OrderServiceDeps struct {
	Ledger   IdempotencyLedger
	Shops    ShopResolver
	Orders   MarketplaceOrders
	Builder  PayloadBuilder
	Platform CommercePlatform
	Labels   LabelGenerator
	Repos    *repository.Repositories
}

type orderService struct {
	ledger      IdempotencyLedger
	shops       ShopResolver
	orders      MarketplaceOrders
	builder     PayloadBuilder
	platform    CommercePlatform
	labels      LabelGenerator
	repos       *repository.Repositories
	settleDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewOrderService creates the TikTok order webhook orchestrator
func NewOrderService(deps OrderServiceDeps, settleDelay time.Duration, logger *zap.Logger) *orderService {
	return &orderService{
		ledger:      deps.Ledger,
		shops:       deps.Shops,
		orders:      deps.Orders,
		builder:     deps.Builder,
		platform:    deps.Platform,
		labels:      deps.Labels,
		repos:       deps.Repos,
		settleDelay: settleDelay,
		sleep:       sleepContext,
		tracer:      otel.Tracer(tracerName),
		logger:      logger,
	}
}

// OrderWebhookKey is the idempotency key of a TikTok order event
func OrderWebhookKey(hook *tiktok.Webhook) string {
	return fmt.Sprintf("tts:order:%s:%s:%s", hook.Type.String(), hook.Data.OrderStatus, hook.Data.OrderID)
}

// HandleOrderWebhook imports the order a TikTok webhook points at into VTEX
func (s *orderService) HandleOrderWebhook(ctx context.Context, raw []byte) (*WebhookResult, error) {
	var hook tiktok.Webhook
	if err := json.Unmarshal(raw, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	ctx, span := s.tracer.Start(ctx, "HandleOrderWebhook", trace.WithAttributes(
		attribute.String("tts.order_id", hook.Data.OrderID),
		attribute.String("tts.shop_id", hook.ShopID),
		attribute.String("tts.order_status", hook.Data.OrderStatus),
	))
	defer span.End()

	if hook.Data.OrderID == "" {
		metrics.ObserveWebhook("tiktok", metrics.OutcomeIgnored)
		return &WebhookResult{Status: WebhookIgnored, Reason: "no order id"}, nil
	}

	key := OrderWebhookKey(&hook)
	var ignoreReason string
	outcome, err := s.ledger.Register(ctx, key, raw, func(ctx context.Context) error {
		reason, err := s.processOrder(ctx, &hook)
		ignoreReason = reason
		return err
	})
	if err != nil {
		if errors.Is(err, ErrPrecondition) {
			s.logger.Info("Order webhook ignored",
				zap.String("order_id", hook.Data.OrderID),
				zap.String("reason", err.Error()),
			)
			metrics.ObserveWebhook("tiktok", metrics.OutcomeIgnored)
			return &WebhookResult{Status: WebhookIgnored, Reason: err.Error()}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObserveWebhook("tiktok", metrics.OutcomeFailed)
		return nil, err
	}

	if outcome == OutcomeSkipped {
		metrics.ObserveWebhook("tiktok", metrics.OutcomeSkipped)
		return &WebhookResult{Status: WebhookSkipped}, nil
	}
	if ignoreReason != "" {
		metrics.ObserveWebhook("tiktok", metrics.OutcomeIgnored)
		return &WebhookResult{Status: WebhookIgnored, Reason: ignoreReason}, nil
	}

	metrics.ObserveWebhook("tiktok", metrics.OutcomeProcessed)
	return &WebhookResult{Status: WebhookProcessed}, nil
}

// processOrder returns a non-empty reason when the order was deliberately left alone
func (s *orderService) processOrder(ctx context.Context, hook *tiktok.Webhook) (string, error) {
	orderID := hook.Data.OrderID

	shop, err := s.shops.Resolve(ctx, hook.ShopID)
	if err != nil {
		if errors.Is(err, ErrShopInactive) {
			return "", precondition(err)
		}
		return "", err
	}

	order, err := s.orders.GetOrderDetail(ctx, shop, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch tiktok order: %w", err)
	}

	postal, source, postalErr := builder.PrecheckPostalCode(order)
	s.logger.Info("Fetched TikTok order",
		zap.String("order_id", orderID),
		zap.String("status", order.Status()),
		zap.Int("line_items", len(order.LineItems())),
		zap.String("postal_code", postal),
		zap.String("address_source", source),
	)

	if postalErr != nil {
		return "", precondition(postalErr)
	}
	if order.IsCancelled() {
		return "order is cancelled", nil
	}

	existing, err := s.repos.OrderMapping.GetByTTSOrderID(ctx, orderID)
	if err != nil && !apperrors.IsNotFound(err) {
		return "", err
	}
	if existing != nil && existing.VTEXOrderID != nil && existing.Status != domain.MappingStatusError {
		return "order already imported", nil
	}

	created, res, err := s.submit(ctx, shop, order)
	if err != nil {
		return "", s.handleSubmitError(ctx, shop, order, err)
	}

	status := domain.MappingStatusImported
	if shop.DeferLabelUntilInvoice {
		status = domain.MappingStatusAwaitingInvoice
	}

	mapping := &domain.OrderMapping{
		TTSOrderID:  orderID,
		VTEXOrderID: &created.OrderID,
		ShopID:      shop.ID,
		Status:      status,
	}
	if err := s.repos.OrderMapping.Upsert(ctx, mapping); err != nil {
		return "", fmt.Errorf("failed to persist order mapping: %w", err)
	}

	s.recordEvent(ctx, orderID, domain.EventOrderSubmitted, map[string]interface{}{
		"vtex_order_id":      created.OrderID,
		"status":             status,
		"total":              res.Total,
		"shipping_total":     res.ShippingTotal,
		"postal_code":        res.PostalCode,
		"postal_defaulted":   res.PostalCodeDefaulted,
		"address_source":     res.AddressSource,
		"synthetic_document": res.Document.Synthetic,
	})
	metrics.ObserveSubmission(metrics.SubmissionCreated)

	s.logger.Info("VTEX order created",
		zap.String("order_id", orderID),
		zap.String("vtex_order_id", created.OrderID),
		zap.String("status", string(status)),
	)

	if err := s.sleep(ctx, s.settleDelay); err != nil {
		return "", fmt.Errorf("settle delay interrupted: %w", err)
	}

	if err := s.platform.AuthorizeDispatch(ctx, shop, created.OrderID, orderID); err != nil {
		s.logger.Warn("Failed to authorize dispatch",
			zap.String("order_id", orderID),
			zap.String("vtex_order_id", created.OrderID),
			zap.Error(err),
		)
	}

	if !shop.DeferLabelUntilInvoice {
		total := res.Total
		if _, err := s.labels.GenerateLabel(ctx, shop.ID, orderID, &total, nil); err != nil {
			s.logger.Error("Failed to generate label after import", zap.String("order_id", orderID), zap.Error(err))
			msg := fmt.Sprintf("label generation failed: %v", err)
			if err := s.repos.OrderMapping.UpdateStatus(ctx, orderID, status, &msg); err != nil {
				s.logger.Error("Failed to store label error", zap.String("order_id", orderID), zap.Error(err))
			}
		}
	}

	return "", nil
}

// submit builds and creates the VTEX order, rebuilding once without price tags
// when VTEX reports a price mismatch
func (s *orderService) submit(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail) (*vtex.CreatedOrder, *builder.Result, error) {
	modes := []domain.PricingMode{domain.PricingModeSelling, domain.PricingModePrice}

	var lastErr error
	for i, mode := range modes {
		res, err := s.builder.Build(ctx, shop, order, mode)
		if err != nil {
			return nil, nil, err
		}

		created, err := s.platform.CreateOrder(ctx, shop, res.Payload)
		if err == nil {
			return created, res, nil
		}
		lastErr = err

		var rej *vtex.RejectionError
		if errors.As(err, &rej) && rej.Kind == vtex.RejectionPricing && i < len(modes)-1 {
			s.logger.Warn("VTEX rejected prices, retrying without price tags",
				zap.String("order_id", order.ID()),
				zap.String("code", rej.Code),
			)
			metrics.ObserveSubmission(metrics.SubmissionRetried)
			continue
		}
		break
	}

	return nil, nil, lastErr
}

func (s *orderService) handleSubmitError(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail, err error) error {
	orderID := order.ID()

	if builder.IsPrecondition(err) {
		return precondition(err)
	}

	var noSLA *builder.NoDeliverySLAError
	if errors.As(err, &noSLA) {
		metrics.ObserveSubmission(metrics.SubmissionNoSLA)
		s.persistFailure(ctx, shop, orderID, err.Error())
		return &UnprocessableError{OrderID: orderID, Reason: err.Error()}
	}

	var rej *vtex.RejectionError
	if errors.As(err, &rej) && rej.Kind == vtex.RejectionNoSLA {
		metrics.ObserveSubmission(metrics.SubmissionNoSLA)
		s.logDiagnosis(ctx, shop, order)
		reason := fmt.Sprintf("VTEX found no shippable SLA: %s", rej.Message)
		s.persistFailure(ctx, shop, orderID, reason)
		return &UnprocessableError{OrderID: orderID, Reason: reason}
	}

	metrics.ObserveSubmission(metrics.SubmissionRejected)
	s.persistFailure(ctx, shop, orderID, err.Error())
	return fmt.Errorf("failed to submit order %s: %w", orderID, err)
}

func (s *orderService) logDiagnosis(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail) {
	slas, err := s.builder.Diagnose(ctx, shop, order)
	if err != nil {
		s.logger.Warn("Failed to diagnose SLAs", zap.String("order_id", order.ID()), zap.Error(err))
		return
	}
	for sku, ids := range slas {
		s.logger.Warn("Per-SKU SLA diagnosis",
			zap.String("order_id", order.ID()),
			zap.String("sku", sku),
			zap.Strings("slas", ids),
		)
	}
}

func (s *orderService) persistFailure(ctx context.Context, shop *domain.Shop, orderID, reason string) {
	mapping := &domain.OrderMapping{
		TTSOrderID: orderID,
		ShopID:     shop.ID,
		Status:     domain.MappingStatusError,
		LastError:  &reason,
	}
	if err := s.repos.OrderMapping.Upsert(ctx, mapping); err != nil {
		s.logger.Error("Failed to persist order failure", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	s.recordEvent(ctx, orderID, domain.EventOrderFailed, map[string]interface{}{
		"error": reason,
	})
}

func (s *orderService) recordEvent(ctx context.Context, orderID, eventType string, data map[string]interface{}) {
	event := &domain.OrderEvent{
		TTSOrderID: orderID,
		EventType:  eventType,
		EventData:  data,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event",
			zap.String("order_id", orderID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
