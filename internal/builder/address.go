package builder

import (
	"strings"

	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/internal/vtex"
)

// ResolvedAddress is the address object picked from the order and where it came from
type ResolvedAddress struct {
	Source string
	Fields map[string]any
}

type addressCandidate struct {
	name string
	get  func(order map[string]any) map[string]any
}

var addressCandidates = []addressCandidate{
	{"shipping_address", func(o map[string]any) map[string]any { return object(o, "shipping_address") }},
	{"recipient_address", func(o map[string]any) map[string]any { return object(o, "recipient_address") }},
	{"shipping_addresses[0]", func(o map[string]any) map[string]any { return firstObject(o, "shipping_addresses") }},
	{"recipient_addresses[0]", func(o map[string]any) map[string]any { return firstObject(o, "recipient_addresses") }},
	{"buyer.shipping_address", func(o map[string]any) map[string]any { return object(o, "buyer", "shipping_address") }},
	{"buyer.address", func(o map[string]any) map[string]any { return object(o, "buyer", "address") }},
	{"address", func(o map[string]any) map[string]any { return object(o, "address") }},
	{"recipient", func(o map[string]any) map[string]any { return object(o, "recipient") }},
	{"shipping", func(o map[string]any) map[string]any { return object(o, "shipping") }},
}

// ResolveAddress returns the first candidate object that looks like an address
func ResolveAddress(order map[string]any) (ResolvedAddress, bool) {
	for _, c := range addressCandidates {
		fields := c.get(order)
		if fields != nil && looksLikeAddress(fields) {
			return ResolvedAddress{Source: c.name, Fields: fields}, true
		}
	}
	return ResolvedAddress{}, false
}

func looksLikeAddress(fields map[string]any) bool {
	return firstString(postalCodeAliases, fields) != "" ||
		firstString(streetAliases, fields) != "" ||
		firstString(cityAliases, fields) != "" ||
		firstString(stateAliases, fields) != "" ||
		len(tiktok.Objects(fields["district_info"])) > 0
}

// NormalizePostalCode strips non-digits; the result is valid only with exactly 8 digits
func NormalizePostalCode(raw string) (string, bool) {
	digits := onlyDigits(raw)
	if len(digits) != 8 {
		return "", false
	}
	return digits, true
}

// ExtractPostalCode takes the first non-empty alias from the address, then the order root
func ExtractPostalCode(addr map[string]any, order map[string]any) (string, bool) {
	raw := firstString(postalCodeAliases, addr, order)
	if raw == "" {
		return "", false
	}
	return NormalizePostalCode(raw)
}

// NormalizeCountry returns a 3-letter country code, BRA when unknown
func NormalizeCountry(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if c == "BR" {
		return "BRA"
	}
	if len(c) == 3 && isLetters(c) {
		return c
	}
	return "BRA"
}

// PrecheckPostalCode validates the destination before anything is submitted
func PrecheckPostalCode(order map[string]any) (postalCode, source string, err error) {
	addr, _ := ResolveAddress(order)
	postalCode, ok := ExtractPostalCode(addr.Fields, order)
	if !ok {
		return "", addr.Source, ErrInvalidPostalCode
	}
	return postalCode, addr.Source, nil
}

// districtLevel reads TikTok district_info entries such as {"address_level_name": "City", "address_name": "..."}
func districtLevel(fields map[string]any, names ...string) string {
	for _, d := range tiktok.Objects(fields["district_info"]) {
		level := strings.ToLower(tiktok.String(d["address_level_name"]))
		code := strings.ToUpper(tiktok.String(d["address_level"]))
		for _, n := range names {
			if level == strings.ToLower(n) || code == strings.ToUpper(n) {
				if v := tiktok.String(d["address_name"]); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func buildAddress(addr ResolvedAddress, order map[string]any, postalCode, receiverName string) vtex.Address {
	f := addr.Fields

	state := firstString(stateAliases, f)
	if state == "" {
		state = districtLevel(f, "state", "L1")
	}
	city := firstString(cityAliases, f)
	if city == "" {
		city = districtLevel(f, "city", "L2")
	}
	neighborhood := firstString(neighborhoodAliases, f)
	if neighborhood == "" {
		neighborhood = districtLevel(f, "district", "neighborhood", "L3")
	}
	number := firstString(numberAliases, f)
	if number == "" {
		number = "S/N"
	}

	return vtex.Address{
		AddressType:  "residential",
		ReceiverName: receiverName,
		PostalCode:   postalCode,
		City:         city,
		State:        state,
		Country:      NormalizeCountry(firstString(countryAliases, f, order)),
		Street:       firstString(streetAliases, f),
		Number:       number,
		Neighborhood: neighborhood,
		Complement:   firstString(complementAliases, f),
	}
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
