package enums

import "fmt"

// OrderStatus is the order lifecycle state understood by the destination API.
type OrderStatus string

const (
	OrderStatusWaitingPayment OrderStatus = "waiting_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusRefused        OrderStatus = "refused"
	OrderStatusRefunded       OrderStatus = "refunded"
	OrderStatusChargedback    OrderStatus = "chargedback"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusWaitingPayment,
	OrderStatusPaid,
	OrderStatusRefused,
	OrderStatusRefunded,
	OrderStatusChargedback,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
