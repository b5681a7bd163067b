package checkout

type Step string

const (
	StepIdle          Step = "IDLE"
	StepProductDetail Step = "PRODUCT_DETAIL"
	StepEmail         Step = "EMAIL"
	StepForm          Step = "FORM"
	StepSummary       Step = "SUMMARY"
	StepResult        Step = "RESULT"
)

// AllowedTransitions is the checkout flow as code. Closing the checkout
// (any step back to idle) is always allowed and handled by CanTransition.
var AllowedTransitions = map[Step][]Step{
	StepIdle:          {StepProductDetail},
	StepProductDetail: {StepEmail},
	// back to the product, or forward once the customer is resolved
	StepEmail: {StepProductDetail, StepForm},
	// self-loop on amount reconciliation
	StepForm:    {StepEmail, StepForm, StepSummary},
	StepSummary: {StepSummary, StepResult},
	// retry stays in result, edit billing returns to the form
	StepResult: {StepResult, StepForm},
}

var allowedTransitionSet = buildTransitionSet(AllowedTransitions)

func buildTransitionSet(transitions map[Step][]Step) map[Step]map[Step]struct{} {
	set := make(map[Step]map[Step]struct{}, len(transitions))
	for from, tos := range transitions {
		next := make(map[Step]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

func CanTransition(from, to Step) bool {
	if to == StepIdle {
		return true
	}
	next, ok := allowedTransitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

func (s Step) String() string {
	return string(s)
}
