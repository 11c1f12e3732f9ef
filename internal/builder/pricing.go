package builder

import (
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/vtex"
)

// UnitPrice computes the final unit price in cents for the pricing mode
func UnitPrice(item vtex.SimulatedItem, mode domain.PricingMode) int64 {
	if mode == domain.PricingModePrice {
		if item.Price > 0 {
			return item.Price
		}
		return item.SellingPrice
	}

	if len(item.PriceTags) > 0 {
		price := item.Price
		for _, tag := range item.PriceTags {
			price += tag.Value
		}
		return price
	}
	if item.SellingPrice > 0 {
		return item.SellingPrice
	}
	return item.Price
}

// simulatedItem finds the simulation entry for basket position i
func simulatedItem(sim *vtex.SimulationResponse, i int, skuID string) (vtex.SimulatedItem, bool) {
	if i < len(sim.Items) && sim.Items[i].ID == skuID {
		return sim.Items[i], true
	}
	for _, it := range sim.Items {
		if it.ID == skuID {
			return it, true
		}
	}
	return vtex.SimulatedItem{}, false
}
