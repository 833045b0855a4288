package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/samcart-relay/internal/normalize"
	"github.com/angelmondragon/samcart-relay/internal/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/enums"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/utmify"
)

const (
	DefaultPlatformName   = "SamCart"
	DefaultCurrency       = "BRL"
	DefaultCountry        = "BR"
	DefaultGatewayFeeRate = 0.05
)

var errOrderIDRequired = errors.New("order_id is required")

type MapperParams struct {
	Normalizer      *normalize.Normalizer
	Logger          *logger.Logger
	PlatformName    string
	GatewayFeeRate  float64
	DefaultCurrency string
	DefaultCountry  string
}

// Mapper turns SamCart notifications into UTMify orders. It holds only
// read-only configuration and is safe for concurrent use.
type Mapper struct {
	norm     *normalize.Normalizer
	logger   *logger.Logger
	platform string
	feeRate  decimal.Decimal
	currency string
	country  string
}

func NewMapper(params MapperParams) (*Mapper, error) {
	if params.GatewayFeeRate < 0 || params.GatewayFeeRate > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("gateway fee rate %v outside [0,1]", params.GatewayFeeRate))
	}
	norm := params.Normalizer
	if norm == nil {
		norm = normalize.New(params.Logger)
	}
	return &Mapper{
		norm:     norm,
		logger:   params.Logger,
		platform: valueOr(params.PlatformName, DefaultPlatformName),
		feeRate:  decimal.NewFromFloat(params.GatewayFeeRate),
		currency: valueOr(params.DefaultCurrency, DefaultCurrency),
		country:  valueOr(params.DefaultCountry, DefaultCountry),
	}, nil
}

// Map builds the canonical order. It either returns a complete order or a
// MAPPING_ERROR, never both. A blank checkoutURL falls back to the event's
// checkout_url field.
func (m *Mapper) Map(ctx context.Context, event samcart.Event, checkoutURL string) (order *utmify.Order, err error) {
	orderID := event.OrderID()
	ctx = m.logger.WithOrderID(ctx, orderID)

	defer func() {
		if r := recover(); r != nil {
			order = nil
			err = m.mappingError(ctx, orderID, fmt.Errorf("panic during mapping: %v", r))
		}
	}()

	if event == nil {
		return nil, m.mappingError(ctx, "", errors.New("event is required"))
	}
	if orderID == "" {
		return nil, m.mappingError(ctx, "", errOrderIDRequired)
	}
	m.logger.Debug(ctx, "mapping samcart order")

	products, err := m.products(event)
	if err != nil {
		return nil, m.mappingError(ctx, orderID, err)
	}

	if strings.TrimSpace(checkoutURL) == "" {
		checkoutURL, _ = event.String(samcart.PathCheckoutURL)
	}

	status := m.norm.OrderStatus(lookup(event, samcart.PathStatus))
	createdAt := m.norm.UTCTimestamp(ctx, lookup(event, samcart.PathCreatedAt))

	var approvedDate, refundedAt *string
	switch status {
	case enums.OrderStatusPaid:
		approvedDate = m.norm.UTCTimestamp(ctx, first(event, samcart.ApprovedAt...))
		if approvedDate == nil {
			now := normalize.FormatTime(m.norm.Now())
			approvedDate = &now
		}
	case enums.OrderStatusRefunded:
		if raw, ok := event.First(samcart.PathRefundedAt); ok {
			refundedAt = m.norm.UTCTimestamp(ctx, raw)
		} else {
			now := normalize.FormatTime(m.norm.Now())
			refundedAt = &now
		}
	}

	order = &utmify.Order{
		OrderID:            orderID,
		Platform:           m.platform,
		PaymentMethod:      m.norm.PaymentMethod(lookup(event, samcart.PathPaymentMethod)),
		Status:             status,
		CreatedAt:          createdAt,
		ApprovedDate:       approvedDate,
		RefundedAt:         refundedAt,
		Customer:           m.customer(event),
		Products:           products,
		TrackingParameters: m.norm.TrackingParameters(ctx, checkoutURL),
		Commission:         m.commission(ctx, event),
		IsTest:             isTrue(event, samcart.PathIsTest),
	}

	m.logger.Debug(m.logger.WithField(ctx, "status", string(status)), "samcart order mapped")
	return order, nil
}

func (m *Mapper) customer(event samcart.Event) utmify.Customer {
	src, ok := event.Object(samcart.PathCustomer)
	if !ok {
		src = samcart.Event{}
	}
	name, _ := src.String(samcart.CustomerName...)
	email, _ := src.String(samcart.CustomerEmail...)
	country, ok := src.String(samcart.CustomerCountry...)
	if !ok {
		country = m.country
	}
	return utmify.Customer{
		Name:     name,
		Email:    email,
		Phone:    optional(src, samcart.CustomerPhone),
		Document: optional(src, samcart.CustomerDocument),
		Country:  country,
		IP:       optional(src, samcart.CustomerIP),
	}
}

func (m *Mapper) products(event samcart.Event) ([]utmify.Product, error) {
	var items []any
	switch raw := lookup(event, samcart.PathProducts).(type) {
	case []any:
		items = raw
	case map[string]any:
		items = []any{raw}
	default:
		return []utmify.Product{}, nil
	}

	products := make([]utmify.Product, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("products[%d] is null", i)
		}
		// scalar elements carry no fields and map to an empty product
		obj, _ := item.(map[string]any)
		src := samcart.Event(obj)
		id, _ := src.String(samcart.ProductID...)
		name, _ := src.String(samcart.ProductName...)
		products = append(products, utmify.Product{
			ID:           id,
			Name:         name,
			PlanID:       optional(src, samcart.ProductPlanID),
			PlanName:     optional(src, samcart.ProductPlanName),
			Quantity:     quantity(first(src, samcart.ProductQuantity...)),
			PriceInCents: m.norm.MinorUnits(first(src, samcart.ProductPrice...)),
		})
	}
	return products, nil
}

// commission charges round(total * rate) as the gateway fee, using the same
// half-away-from-zero rule as MinorUnits, so fee + commission == total.
func (m *Mapper) commission(ctx context.Context, event samcart.Event) utmify.Commission {
	total := m.norm.MinorUnits(lookup(event, samcart.PathTotal))
	rate := m.feeRate
	if raw, ok := event.First(samcart.PathGatewayFeePercentage); ok {
		if override, valid := normalize.Decimal(raw); valid && !override.IsNegative() && override.LessThanOrEqual(decimal.NewFromInt(1)) {
			rate = override
		} else {
			m.logger.Warn(ctx, fmt.Sprintf("ignoring gateway_fee_percentage %v", raw))
		}
	}
	fee := decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()

	currency, ok := event.String(samcart.PathCurrency)
	if !ok {
		currency = m.currency
	}
	return utmify.Commission{
		TotalPriceInCents:     total,
		GatewayFeeInCents:     fee,
		UserCommissionInCents: total - fee,
		Currency:              currency,
	}
}

func (m *Mapper) mappingError(ctx context.Context, orderID string, cause error) error {
	m.logger.Error(ctx, "samcart order mapping failed", cause)
	return pkgerrors.Wrap(pkgerrors.CodeMapping, cause, "map samcart order").
		WithDetails(map[string]any{"order_id": orderID})
}
