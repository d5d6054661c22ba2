package domain

import (
	"context"
	"strings"
)

// Outcome is the result reported by a capture provider
type Outcome string

const (
	OutcomePaid     Outcome = "PAID"
	OutcomeDeclined Outcome = "DECLINED"
)

// ParseOutcome accepts any casing. Unknown values are kept as-is and count as
// not paid.
func ParseOutcome(s string) Outcome {
	return Outcome(strings.ToUpper(strings.TrimSpace(s)))
}

func (o Outcome) IsPaid() bool {
	return o == OutcomePaid
}

func (o Outcome) String() string {
	return strings.ToLower(string(o))
}

// CaptureRequest describes the charge for one invoice
type CaptureRequest struct {
	Amount     float64
	CustomerID string
	InvoiceID  string
	OrderID    string
}

// Capturer charges the customer. It returns an error only when no outcome
// could be obtained.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) (Outcome, error)
}
