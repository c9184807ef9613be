package enums

import "slices"

// CheckoutState is the position of a session in the checkout workflow.
type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "idle"
	CheckoutStateAwaitingPayment CheckoutState = "awaiting_payment"
	CheckoutStateSubmitting      CheckoutState = "submitting"
	CheckoutStateCompleted       CheckoutState = "completed"
	CheckoutStateFailed          CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateAwaitingPayment,
	CheckoutStateSubmitting,
	CheckoutStateCompleted,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

func (s CheckoutState) IsValid() bool { return slices.Contains(validCheckoutStates, s) }

func ParseCheckoutState(value string) (CheckoutState, error) {
	return parse("checkout state", validCheckoutStates, value)
}
