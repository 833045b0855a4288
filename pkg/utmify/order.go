package utmify

import (
	"encoding/json"

	"github.com/angelmondragon/samcart-relay/pkg/enums"
	"github.com/angelmondragon/samcart-relay/pkg/types"
)

// Order is the canonical order accepted by the UTMify orders endpoint. It is
// built once by the mapper and never mutated afterwards.
type Order struct {
	OrderID            string              `json:"orderId"`
	Platform           string              `json:"platform"`
	PaymentMethod      enums.PaymentMethod `json:"paymentMethod"`
	Status             enums.OrderStatus   `json:"status"`
	CreatedAt          *string             `json:"createdAt"`
	ApprovedDate       *string             `json:"approvedDate"`
	RefundedAt         *string             `json:"refundedAt"`
	Customer           Customer            `json:"customer"`
	Products           []Product           `json:"products"`
	TrackingParameters TrackingParameters  `json:"trackingParameters"`
	Commission         Commission          `json:"commission"`
	IsTest             bool                `json:"isTest"`
}

type Customer struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Document *string `json:"document"`
	Country  string  `json:"country"`
	IP       *string `json:"ip"`
}

type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PlanID       *string `json:"planId"`
	PlanName     *string `json:"planName"`
	Quantity     int     `json:"quantity"`
	PriceInCents int64   `json:"priceInCents"`
}

// TrackingParameters always serializes all seven keys; unknown values are null.
type TrackingParameters = types.TrackingParameters

// TrackingKeys lists the serialized tracking keys in order.
var TrackingKeys = types.TrackingKeys

type Commission struct {
	TotalPriceInCents     int64  `json:"totalPriceInCents"`
	GatewayFeeInCents     int64  `json:"gatewayFeeInCents"`
	UserCommissionInCents int64  `json:"userCommissionInCents"`
	Currency              string `json:"currency"`
}

// Acknowledgement is the destination's 2xx reply. Body is kept opaque.
type Acknowledgement struct {
	StatusCode int             `json:"status_code"`
	Attempts   int             `json:"attempts"`
	Body       json.RawMessage `json:"body,omitempty"`
}
