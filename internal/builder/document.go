package builder

import (
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/jafarshop/ttsbridge/internal/tiktok"
)

// Document is a Brazilian taxpayer id: "cpf" (individual) or "cnpj" (business)
type Document struct {
	Type      string
	Value     string
	Synthetic bool
}

// IsCorporate reports a business document
func (d Document) IsCorporate() bool {
	return d.Type == "cnpj"
}

// IsValidCPF checks the two mod-11 check digits of an individual taxpayer id
func IsValidCPF(s string) bool {
	d := onlyDigits(s)
	if len(d) != 11 || allSame(d) {
		return false
	}

	digits := toInts(d)
	d1, d2 := cpfCheckDigits(digits[:9])
	return digits[9] == d1 && digits[10] == d2
}

// IsValidCNPJ checks the two mod-11 check digits of a business taxpayer id
func IsValidCNPJ(s string) bool {
	d := onlyDigits(s)
	if len(d) != 14 || allSame(d) {
		return false
	}

	digits := toInts(d)
	first := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	second := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	return digits[12] == cnpjDigit(digits[:12], first) && digits[13] == cnpjDigit(digits[:13], second)
}

// SyntheticCPF derives a check-digit-valid CPF from a seed. Same seed, same CPF.
func SyntheticCPF(seed string) string {
	var base []int
	for attempt := 0; ; attempt++ {
		input := seed
		if attempt > 0 {
			input = seed + ":" + strconv.Itoa(attempt)
		}
		sum := blake2b.Sum256([]byte(input))

		base = make([]int, 9)
		for i := range base {
			base[i] = int(sum[i] % 10)
		}
		if !allSameInts(base) {
			break
		}
	}

	d1, d2 := cpfCheckDigits(base)
	out := make([]byte, 0, 11)
	for _, n := range append(base, d1, d2) {
		out = append(out, byte('0'+n))
	}
	return string(out)
}

// ResolveDocument returns the first valid CPF/CNPJ found on the order, buyer or recipient
func ResolveDocument(order map[string]any, addr map[string]any) (Document, bool) {
	sources := []map[string]any{
		order,
		object(order, "buyer"),
		object(order, "recipient"),
		addr,
		object(order, "payment"),
	}

	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, k := range documentAliases {
			d := onlyDigits(tiktok.String(src[k]))
			switch {
			case len(d) == 11 && IsValidCPF(d):
				return Document{Type: "cpf", Value: d}, true
			case len(d) == 14 && IsValidCNPJ(d):
				return Document{Type: "cnpj", Value: d}, true
			}
		}
	}

	return Document{}, false
}

// cpfCheckDigits computes both check digits over the 9-digit base
func cpfCheckDigits(base []int) (int, int) {
	digits := append([]int(nil), base...)
	for j := 9; j < 11; j++ {
		sum := 0
		for i := 0; i < j; i++ {
			sum += digits[i] * (j + 1 - i)
		}
		r := (sum * 10) % 11
		if r == 10 {
			r = 0
		}
		digits = append(digits, r)
	}
	return digits[9], digits[10]
}

func cnpjDigit(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

func toInts(d string) []int {
	out := make([]int, len(d))
	for i := range d {
		out[i] = int(d[i] - '0')
	}
	return out
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

func allSameInts(d []int) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
