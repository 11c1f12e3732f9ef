package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/metrics"
	"github.com/jafarshop/ttsbridge/internal/repository"
	"github.com/jafarshop/ttsbridge/internal/vtex"
)

const invoiceNumberLength = 8

type labelService struct {
	shops     ShopResolver
	logistics MarketplaceLogistics
	platform  CommercePlatform
	repos     *repository.Repositories
	now       func() time.Time
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewLabelService creates the shipping label service
func NewLabelService(shops ShopResolver, logistics MarketplaceLogistics, platform CommercePlatform, repos *repository.Repositories, logger *zap.Logger) *labelService {
	return &labelService{
		shops:     shops,
		logistics: logistics,
		platform:  platform,
		repos:     repos,
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// GenerateLabel obtains the TikTok shipping label of an imported order, stores its URL
// and pushes tracking to VTEX. shopID may be empty to use the mapping's shop.
func (s *labelService) GenerateLabel(ctx context.Context, shopID, orderID string, orderValue *int64, invoice *InvoiceMeta) (*LabelResult, error) {
	ctx, span := s.tracer.Start(ctx, "GenerateLabel", trace.WithAttributes(attribute.String("tts.order_id", orderID)))
	defer span.End()

	result, err := s.generate(ctx, shopID, orderID, orderValue, invoice)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (s *labelService) generate(ctx context.Context, shopID, orderID string, orderValue *int64, invoice *InvoiceMeta) (*LabelResult, error) {
	mapping, err := s.repos.OrderMapping.GetByTTSOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if shopID == "" {
		shopID = mapping.ShopID
	}

	shop, err := s.shops.Resolve(ctx, shopID)
	if err != nil {
		return nil, err
	}

	doc, err := s.logistics.GetOrCreateShippingDocument(ctx, shop, orderID)
	if err != nil {
		metrics.ObserveLabel(false)
		return nil, fmt.Errorf("failed to obtain shipping document: %w", err)
	}
	metrics.ObserveLabel(true)

	if doc.LabelURL != "" {
		if err := s.repos.OrderMapping.UpdateLabelURL(ctx, orderID, doc.LabelURL); err != nil {
			return nil, err
		}

		event := &domain.OrderEvent{
			TTSOrderID: orderID,
			EventType:  domain.EventLabelGenerated,
			EventData: map[string]interface{}{
				"label_url":  doc.LabelURL,
				"package_id": doc.PackageID,
			},
		}
		if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
			s.logger.Warn("Failed to record label event", zap.String("order_id", orderID), zap.Error(err))
		}

		if mapping.VTEXOrderID != nil {
			s.pushTracking(ctx, shop, orderID, *mapping.VTEXOrderID, orderValue, invoice)
		}
	}

	s.logger.Info("Shipping label generated",
		zap.String("order_id", orderID),
		zap.Bool("has_url", doc.LabelURL != ""),
	)

	return &LabelResult{OrderID: orderID, LabelURL: doc.LabelURL, Document: doc.Document}, nil
}

// pushTracking sends the tracking number to VTEX as an invoice. Failures are logged only.
func (s *labelService) pushTracking(ctx context.Context, shop *domain.Shop, orderID, vtexOrderID string, orderValue *int64, meta *InvoiceMeta) {
	tracking, err := s.logistics.GetTracking(ctx, shop, orderID)
	if err != nil {
		s.logger.Warn("Failed to read tracking", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if tracking.TrackingNumber == "" {
		s.logger.Info("No tracking number yet", zap.String("order_id", orderID))
		return
	}

	inv := vtex.Invoice{
		Type:           "Output",
		TrackingNumber: tracking.TrackingNumber,
		Courier:        tracking.Provider,
	}
	if meta != nil {
		inv.InvoiceNumber = meta.Number
		inv.InvoiceKey = meta.Key
		inv.InvoiceValue = meta.Value
		inv.IssuanceDate = meta.IssuanceDate
	}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = invoiceNumberFromTracking(tracking.TrackingNumber)
	}
	if inv.InvoiceValue == 0 && orderValue != nil {
		inv.InvoiceValue = *orderValue
	}
	if inv.IssuanceDate == "" {
		inv.IssuanceDate = s.now().Format("2006-01-02")
	}

	if err := s.platform.SendInvoice(ctx, shop, vtexOrderID, inv); err != nil {
		s.logger.Warn("Failed to push tracking to VTEX",
			zap.String("order_id", orderID),
			zap.String("vtex_order_id", vtexOrderID),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Tracking pushed to VTEX",
		zap.String("order_id", orderID),
		zap.String("vtex_order_id", vtexOrderID),
		zap.String("tracking_number", tracking.TrackingNumber),
	)
}

// GetLabel returns the stored label URL, or the live shipping document when none is stored
func (s *labelService) GetLabel(ctx context.Context, orderID string) (*LabelResult, error) {
	mapping, err := s.repos.OrderMapping.GetByTTSOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if mapping.HasLabel() {
		return &LabelResult{OrderID: orderID, LabelURL: *mapping.LabelURL}, nil
	}

	shop, err := s.shops.Resolve(ctx, mapping.ShopID)
	if err != nil {
		return nil, err
	}

	doc, err := s.logistics.GetShippingDocument(ctx, shop, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipping document: %w", err)
	}

	return &LabelResult{OrderID: orderID, LabelURL: doc.LabelURL, Document: doc.Document}, nil
}

// invoiceNumberFromTracking uses the trailing digits of the tracking number,
// or its trailing characters when it has too few digits
func invoiceNumberFromTracking(tracking string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, tracking)

	source := digits
	if len(source) < invoiceNumberLength {
		source = tracking
	}
	if len(source) > invoiceNumberLength {
		source = source[len(source)-invoiceNumberLength:]
	}
	return source
}
