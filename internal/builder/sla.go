package builder

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jafarshop/ttsbridge/internal/vtex"
)

var estimatePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(bd|d|h|m)$`)

// fold lowercases and strips accents so "Sédex" matches "sedex"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// ParseEstimate converts "3bd", "5d", "24h" or "90m" to days; unknown strings are +Inf
func ParseEstimate(s string) float64 {
	m := estimatePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return math.Inf(1)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.Inf(1)
	}
	switch m[2] {
	case "h":
		return n / 24
	case "m":
		return n / (24 * 60)
	default:
		return n
	}
}

// DeliverySLAs drops pickup-point options
func DeliverySLAs(slas []vtex.SLA) []vtex.SLA {
	out := make([]vtex.SLA, 0, len(slas))
	for _, s := range slas {
		ch := fold(s.DeliveryChannel)
		if ch == "" || ch == "delivery" {
			out = append(out, s)
		}
	}
	return out
}

// SelectSLA picks preferred, then "normal", then "sedex", then cheapest-then-fastest
func SelectSLA(slas []vtex.SLA, preferred string) (vtex.SLA, bool) {
	if len(slas) == 0 {
		return vtex.SLA{}, false
	}

	if p := fold(preferred); p != "" {
		for _, s := range slas {
			if fold(s.ID) == p || fold(s.Name) == p {
				return s, true
			}
		}
	}

	for _, s := range slas {
		if fold(s.ID) == "normal" || fold(s.Name) == "normal" {
			return s, true
		}
	}

	for _, s := range slas {
		if strings.Contains(fold(s.ID), "sedex") || strings.Contains(fold(s.Name), "sedex") {
			return s, true
		}
	}

	sorted := append([]vtex.SLA(nil), slas...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		ei, ej := ParseEstimate(sorted[i].ShippingEstimate), ParseEstimate(sorted[j].ShippingEstimate)
		if ei != ej {
			return ei < ej
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0], true
}

// purchasableSLAs keeps SLAs listed in the item's purchase conditions.
// Without purchase-condition data every SLA is accepted.
func purchasableSLAs(slas []vtex.SLA, item vtex.SimulationItem, pc *vtex.PurchaseConditions) []vtex.SLA {
	if pc == nil || len(pc.ItemPurchaseConditions) == 0 {
		return slas
	}

	var cond *vtex.ItemPurchaseCondition
	for i := range pc.ItemPurchaseConditions {
		c := &pc.ItemPurchaseConditions[i]
		if c.ID != item.ID {
			continue
		}
		if c.Seller != "" && item.Seller != "" && c.Seller != item.Seller && !contains(c.SellerChain, item.Seller) {
			continue
		}
		cond = c
		break
	}
	if cond == nil {
		return nil
	}

	allowed := make(map[string]bool, len(cond.SLAs))
	for _, s := range cond.SLAs {
		allowed[s.ID] = true
	}

	out := make([]vtex.SLA, 0, len(slas))
	for _, s := range slas {
		if allowed[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// selectShipping chooses one delivery SLA per basket item
func selectShipping(items []vtex.SimulationItem, sim *vtex.SimulationResponse, preferred, postalCode string) ([]vtex.LogisticsSelection, int64, error) {
	byIndex := make(map[int]vtex.LogisticsInfo, len(sim.LogisticsInfo))
	for _, li := range sim.LogisticsInfo {
		byIndex[li.ItemIndex] = li
	}

	selections := make([]vtex.LogisticsSelection, 0, len(items))
	var shippingTotal int64

	for i, item := range items {
		info, ok := byIndex[i]
		if !ok {
			return nil, 0, &NoDeliverySLAError{SKU: item.ID, PostalCode: postalCode}
		}

		candidates := purchasableSLAs(DeliverySLAs(info.SLAs), item, sim.PurchaseConditions)
		sla, ok := SelectSLA(candidates, preferred)
		if !ok {
			return nil, 0, &NoDeliverySLAError{SKU: item.ID, PostalCode: postalCode}
		}

		lockTTL := sla.LockTTL
		if lockTTL == "" {
			lockTTL = "1bd"
		}
		selections = append(selections, vtex.LogisticsSelection{
			ItemIndex:        i,
			SelectedSLA:      sla.ID,
			Price:            sla.Price,
			ShippingEstimate: sla.ShippingEstimate,
			LockTTL:          lockTTL,
			DeliveryChannel:  "delivery",
		})
		shippingTotal += sla.Price
	}

	return selections, shippingTotal, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
