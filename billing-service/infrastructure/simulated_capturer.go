package infrastructure

import (
	"context"
	"time"

	"github.com/draftea/order-fulfillment/billing-service/domain"
)

var _ domain.Capturer = (*SimulatedCapturer)(nil)

// SimulatedCapturer stands in for a payment provider. It answers every
// request with the same outcome after a fixed latency.
type SimulatedCapturer struct {
	outcome domain.Outcome
	latency time.Duration
}

func NewSimulatedCapturer(outcome domain.Outcome, latency time.Duration) *SimulatedCapturer {
	return &SimulatedCapturer{outcome: outcome, latency: latency}
}

func (c *SimulatedCapturer) Capture(ctx context.Context, _ domain.CaptureRequest) (domain.Outcome, error) {
	if c.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return c.outcome, nil
	}

	timer := time.NewTimer(c.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return c.outcome, nil
	}
}
