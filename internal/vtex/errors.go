package vtex

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RejectionKind classifies a refused order submission
type RejectionKind string

const (
	RejectionPricing RejectionKind = "pricing"
	RejectionNoSLA   RejectionKind = "no_sla"
	RejectionOther   RejectionKind = "other"
)

// Fulfillment API error codes the orchestrator reacts to
const (
	CodePriceMismatch = "ORD027"
	CodeNoSLA         = "ORD028"
)

var rejectionKinds = map[string]RejectionKind{
	CodePriceMismatch: RejectionPricing,
	CodeNoSLA:         RejectionNoSLA,
}

// RejectionError is returned by CreateOrder when VTEX refuses the order
type RejectionError struct {
	Kind       RejectionKind
	Code       string
	Message    string
	StatusCode int
}

func (e *RejectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vtex rejected order (%s %s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("vtex rejected order (status %d): %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRejectionError(status int, body []byte) *RejectionError {
	rej := &RejectionError{Kind: RejectionOther, StatusCode: status}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Error.Code != "" || parsed.Error.Message != "") {
		rej.Code = strings.TrimSpace(parsed.Error.Code)
		rej.Message = parsed.Error.Message
	} else {
		rej.Message = strings.TrimSpace(string(body))
	}

	if kind, ok := rejectionKinds[strings.ToUpper(rej.Code)]; ok {
		rej.Kind = kind
	}

	return rej
}
