package enums

// DeliveryOutcome labels the result of one delivery attempt or of a whole send.
type DeliveryOutcome string

const (
	DeliveryOutcomeSuccess   DeliveryOutcome = "success"
	DeliveryOutcomeRetryable DeliveryOutcome = "retryable"
	DeliveryOutcomeFatal     DeliveryOutcome = "fatal"
	DeliveryOutcomeExhausted DeliveryOutcome = "exhausted"
	DeliveryOutcomeCanceled  DeliveryOutcome = "canceled"
)

// String implements fmt.Stringer.
func (o DeliveryOutcome) String() string {
	return string(o)
}
