package builder

import (
	"strings"

	"github.com/jafarshop/ttsbridge/internal/tiktok"
)

// Field alias tables, tried in order. The first non-empty value wins.
var (
	postalCodeAliases   = []string{"postal_code", "postalCode", "zipcode", "zip_code", "zip", "cep", "postcode"}
	streetAliases       = []string{"address_line1", "address_line_1", "street", "address_detail", "line1", "full_address"}
	numberAliases       = []string{"number", "street_number", "house_number", "address_number"}
	complementAliases   = []string{"complement", "address_line2", "address_line_2", "line2"}
	neighborhoodAliases = []string{"neighborhood", "neighbourhood", "district", "address_line3", "address_line_3"}
	cityAliases         = []string{"city", "locality", "town"}
	stateAliases        = []string{"state", "province", "region", "state_code"}
	countryAliases      = []string{"region_code", "country_code", "country"}
	nameAliases         = []string{"name", "receiver_name", "recipient_name", "full_name"}
	phoneAliases        = []string{"phone_number", "phone", "mobile", "telephone", "buyer_phone"}
	emailAliases        = []string{"buyer_email", "email", "buyer_email_address"}
	documentAliases     = []string{"cpf", "cnpj", "cpf_cnpj", "buyer_tax_number", "tax_id", "tax_number", "document", "buyer_document", "document_number"}
)

// firstString returns the first non-empty scalar among keys on any of the objects
func firstString(keys []string, objects ...map[string]any) string {
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		for _, k := range keys {
			if v := tiktok.String(obj[k]); v != "" {
				return v
			}
		}
	}
	return ""
}

// object returns the nested object at path, or nil
func object(root map[string]any, path ...string) map[string]any {
	cur := root
	for _, p := range path {
		if cur == nil {
			return nil
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// firstObject returns the first object element of the array at key, or nil
func firstObject(root map[string]any, key string) map[string]any {
	objs := tiktok.Objects(root[key])
	if len(objs) == 0 {
		return nil
	}
	return objs[0]
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
