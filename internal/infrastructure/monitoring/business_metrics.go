package monitoring

import (
	"github.com/yuzvak/storefront-checkout/internal/application/ports"
)

// CheckoutMetrics feeds use case events into the prometheus vectors.
type CheckoutMetrics struct{}

var _ ports.CheckoutMetrics = (*CheckoutMetrics)(nil)

func NewCheckoutMetrics() *CheckoutMetrics {
	return &CheckoutMetrics{}
}

func (m *CheckoutMetrics) StepTransition(from, to string) {
	CheckoutStepTransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *CheckoutMetrics) CheckoutFailure(kind string) {
	CheckoutFailureTotal.WithLabelValues(kind).Inc()
}

func (m *CheckoutMetrics) PaymentOutcome(status string) {
	PaymentOutcomeTotal.WithLabelValues(status).Inc()
}

func (m *CheckoutMetrics) CartPersisted(outcome string) {
	CartPersistTotal.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) CartEntriesDropped(n int) {
	CartEntriesDroppedTotal.Add(float64(n))
}

func UpdateActiveShoppers(n int) {
	ActiveShoppers.Set(float64(n))
}
