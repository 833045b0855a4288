package normalize

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/angelmondragon/samcart-relay/pkg/enums"
)

var paymentMethods = map[string]enums.PaymentMethod{
	"credit_card": enums.PaymentMethodCreditCard,
	"creditcard":  enums.PaymentMethodCreditCard,
	"credit":      enums.PaymentMethodCreditCard,
	"boleto":      enums.PaymentMethodBoleto,
	"pix":         enums.PaymentMethodPix,
	"paypal":      enums.PaymentMethodPaypal,
	"free":        enums.PaymentMethodFreePrice,
}

var orderStatuses = map[string]enums.OrderStatus{
	"pending":    enums.OrderStatusWaitingPayment,
	"processing": enums.OrderStatusWaitingPayment,
	"completed":  enums.OrderStatusPaid,
	"paid":       enums.OrderStatusPaid,
	"declined":   enums.OrderStatusRefused,
	"refunded":   enums.OrderStatusRefunded,
	"chargeback": enums.OrderStatusChargedback,
	"disputed":   enums.OrderStatusChargedback,
}

// PaymentMethod maps a SamCart payment method. Unknown input is credit_card.
func (n *Normalizer) PaymentMethod(raw any) enums.PaymentMethod {
	if method, ok := paymentMethods[foldKey(raw)]; ok {
		return method
	}
	return enums.PaymentMethodCreditCard
}

// OrderStatus maps a SamCart order status. Unknown input is waiting_payment.
func (n *Normalizer) OrderStatus(raw any) enums.OrderStatus {
	if status, ok := orderStatuses[foldKey(raw)]; ok {
		return status
	}
	return enums.OrderStatusWaitingPayment
}

// foldKey returns "" for non-strings. A Caser is stateful, so one is built per call.
func foldKey(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return cases.Fold().String(strings.TrimSpace(s))
}
