package builder

import (
	"context"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/pkg/errors"
)

// Line is a TikTok line item resolved to a VTEX SKU
type Line struct {
	VTEXSkuID string
	TTSSkuID  string
	Quantity  int
	// UnitPrice is the TikTok sale price in cents
	UnitPrice int64
}

// MapLineItems resolves every line item to a VTEX SKU, merging lines of the same SKU.
// Unmappable lines are skipped; only repository failures are returned.
func (b *Builder) MapLineItems(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail) ([]Line, error) {
	lines := make([]Line, 0)
	index := make(map[string]int)

	for _, li := range order.LineItems() {
		skuID := tiktok.String(li["sku_id"])
		productID := tiktok.String(li["product_id"])
		sellerSKU := tiktok.String(li["seller_sku"])

		vtexSkuID, err := b.resolveSKU(ctx, shop.ID, skuID, productID, sellerSKU)
		if err != nil {
			return nil, err
		}
		if vtexSkuID == "" {
			b.logger.Warn("Skipping unmapped line item",
				zap.String("order_id", order.ID()),
				zap.String("tts_sku_id", skuID),
				zap.String("tts_product_id", productID),
			)
			continue
		}

		qty := NormalizeQuantity(li["quantity"])
		if i, ok := index[vtexSkuID]; ok {
			lines[i].Quantity += qty
			continue
		}

		index[vtexSkuID] = len(lines)
		lines = append(lines, Line{
			VTEXSkuID: vtexSkuID,
			TTSSkuID:  skuID,
			Quantity:  qty,
			UnitPrice: ToCents(firstString([]string{"sale_price", "original_price", "price"}, li)),
		})
	}

	return lines, nil
}

// resolveSKU looks up by SKU id, then product id, then adopts the seller SKU
func (b *Builder) resolveSKU(ctx context.Context, shopID, skuID, productID, sellerSKU string) (string, error) {
	if skuID != "" {
		m, err := b.mappings.GetByTTSSkuID(ctx, shopID, skuID)
		if err == nil {
			return m.VTEXSkuID, nil
		}
		if !errors.IsNotFound(err) {
			return "", err
		}
	}

	if productID != "" {
		candidates, err := b.mappings.ListByTTSProductID(ctx, shopID, productID)
		if err != nil {
			return "", err
		}
		switch {
		case len(candidates) == 1:
			return candidates[0].VTEXSkuID, nil
		case len(candidates) > 1:
			if sellerSKU == "" {
				b.logger.Warn("Ambiguous product mapping without seller SKU",
					zap.String("tts_product_id", productID),
					zap.Int("candidates", len(candidates)),
				)
				return "", nil
			}
			for _, c := range candidates {
				if c.VTEXSkuID == sellerSKU || (skuID != "" && c.TTSSkuID == skuID) {
					return c.VTEXSkuID, nil
				}
			}
			b.logger.Warn("Seller SKU matches none of the product mappings",
				zap.String("tts_product_id", productID),
				zap.String("seller_sku", sellerSKU),
				zap.Int("candidates", len(candidates)),
			)
			return "", nil
		}
	}

	if sellerSKU == "" {
		return "", nil
	}

	mapping := &domain.ProductMapping{
		VTEXSkuID:    sellerSKU,
		ShopID:       shopID,
		TTSProductID: productID,
		TTSSkuID:     skuID,
	}
	if err := b.mappings.CreateAutoMapped(ctx, mapping); err != nil {
		b.logger.Warn("Failed to persist auto mapping", zap.String("vtex_sku_id", sellerSKU), zap.Error(err))
	} else {
		b.logger.Info("Auto-mapped seller SKU", zap.String("vtex_sku_id", sellerSKU), zap.String("tts_sku_id", skuID))
	}

	return sellerSKU, nil
}

// NormalizeQuantity floors the quantity; missing, non-finite or non-positive values become 1
func NormalizeQuantity(v any) int {
	s := tiktok.String(v)
	if s == "" {
		return 1
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	q := math.Floor(f)
	if q < 1 {
		return 1
	}
	return int(q)
}

// ToCents converts a decimal currency amount to integer cents, rounding half away from zero
func ToCents(amount string) int64 {
	if amount == "" {
		return 0
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
