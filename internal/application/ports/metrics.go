package ports

// CheckoutMetrics receives business counters from the use cases.
type CheckoutMetrics interface {
	StepTransition(from, to string)
	CheckoutFailure(kind string)
	PaymentOutcome(status string)
	CartPersisted(outcome string)
	CartEntriesDropped(n int)
}

type NopMetrics struct{}

func (NopMetrics) StepTransition(string, string) {}
func (NopMetrics) CheckoutFailure(string)        {}
func (NopMetrics) PaymentOutcome(string)         {}
func (NopMetrics) CartPersisted(string)          {}
func (NopMetrics) CartEntriesDropped(int)        {}
