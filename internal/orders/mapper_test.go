package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/samcart-relay/internal/normalize"
	"github.com/angelmondragon/samcart-relay/internal/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/enums"
	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
)

var fixedNow = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(MapperParams{
		Normalizer:     normalize.New(nil, normalize.WithClock(func() time.Time { return fixedNow })),
		GatewayFeeRate: DefaultGatewayFeeRate,
	})
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	return m
}

func decodeEvent(t *testing.T, raw string) samcart.Event {
	t.Helper()
	event, err := samcart.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event
}

const paidEvent = `{
	"order_id": "ORD-1",
	"customer": {"email": "ana@example.com", "name": "Ana", "phone": "+5511999999999"},
	"products": [{"id": "P1", "name": "Course", "price": 99.99, "quantity": 1}],
	"total": 99.99,
	"payment_method": "credit_card",
	"status": "paid",
	"created_at": "2024-01-15T10:30:00Z"
}`

func TestMapPaidOrder(t *testing.T) {
	m := newTestMapper(t)
	order, err := m.Map(context.Background(), decodeEvent(t, paidEvent),
		"https://checkout.samcart.com/p?utm_source=fb&utm_campaign=launch")
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	if order.OrderID != "ORD-1" || order.Platform != DefaultPlatformName {
		t.Fatalf("unexpected identity %s/%s", order.OrderID, order.Platform)
	}
	if order.Status != enums.OrderStatusPaid || order.PaymentMethod != enums.PaymentMethodCreditCard {
		t.Fatalf("unexpected codes %s/%s", order.Status, order.PaymentMethod)
	}
	if order.CreatedAt == nil || *order.CreatedAt != "2024-01-15 10:30:00" {
		t.Fatalf("unexpected createdAt %v", order.CreatedAt)
	}
	if order.ApprovedDate == nil || *order.ApprovedDate != "2024-01-15 10:30:00" {
		t.Fatalf("approvedDate should fall back to created_at, got %v", order.ApprovedDate)
	}
	if order.RefundedAt != nil {
		t.Fatalf("refundedAt only applies to refunds")
	}

	c := order.Commission
	if c.TotalPriceInCents != 9999 || c.GatewayFeeInCents != 500 || c.UserCommissionInCents != 9499 || c.Currency != "BRL" {
		t.Fatalf("unexpected commission %+v", c)
	}

	if len(order.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(order.Products))
	}
	p := order.Products[0]
	if p.ID != "P1" || p.Name != "Course" || p.Quantity != 1 || p.PriceInCents != 9999 || p.PlanID != nil {
		t.Fatalf("unexpected product %+v", p)
	}

	if order.Customer.Country != "BR" || order.Customer.Phone == nil || order.Customer.Document != nil {
		t.Fatalf("unexpected customer %+v", order.Customer)
	}

	tp := order.TrackingParameters
	if tp.UTMSource == nil || *tp.UTMSource != "fb" || tp.UTMCampaign == nil || *tp.UTMCampaign != "launch" {
		t.Fatalf("unexpected tracking %+v", tp)
	}
	if tp.Src != nil || tp.Sck != nil || tp.UTMMedium != nil || tp.UTMContent != nil || tp.UTMTerm != nil {
		t.Fatalf("unset tracking keys must stay null: %+v", tp)
	}
	if order.IsTest {
		t.Fatalf("isTest defaults to false")
	}
}

func TestMapSerializesAllTrackingKeys(t *testing.T) {
	m := newTestMapper(t)
	order, err := m.Map(context.Background(), decodeEvent(t, paidEvent), "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	raw, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var tracking map[string]any
	if err := json.Unmarshal(envelope["trackingParameters"], &tracking); err != nil {
		t.Fatalf("unmarshal tracking: %v", err)
	}
	for _, key := range []string{"src", "sck", "utm_source", "utm_campaign", "utm_medium", "utm_content", "utm_term"} {
		v, ok := tracking[key]
		if !ok || v != nil {
			t.Fatalf("expected %s to be present and null, got %v (present=%v)", key, v, ok)
		}
	}
}

func TestMapCompletedAndRefundedDates(t *testing.T) {
	m := newTestMapper(t)

	completed, err := m.Map(context.Background(), decodeEvent(t, `{
		"order_id": "ORD-2", "status": "completed",
		"created_at": "2024-01-15T10:30:00Z", "paid_at": "2024-01-15T10:35:00Z"
	}`), "")
	if err != nil {
		t.Fatalf("map completed: %v", err)
	}
	if completed.Status != enums.OrderStatusPaid || completed.ApprovedDate == nil || *completed.ApprovedDate != "2024-01-15 10:35:00" {
		t.Fatalf("completed orders are paid with paid_at approval, got %s %v", completed.Status, completed.ApprovedDate)
	}

	refunded, err := m.Map(context.Background(), decodeEvent(t, `{"order_id": "ORD-3", "status": "refunded"}`), "")
	if err != nil {
		t.Fatalf("map refunded: %v", err)
	}
	if refunded.RefundedAt == nil || *refunded.RefundedAt != "2024-02-01 09:00:00" {
		t.Fatalf("refundedAt should default to the clock, got %v", refunded.RefundedAt)
	}
	if refunded.ApprovedDate != nil {
		t.Fatalf("approvedDate only applies to paid orders")
	}

	explicit, err := m.Map(context.Background(), decodeEvent(t, `{"order_id": "ORD-4", "status": "Refunded", "refunded_at": "2024-01-20 08:00:00"}`), "")
	if err != nil {
		t.Fatalf("map refunded explicit: %v", err)
	}
	if explicit.RefundedAt == nil || *explicit.RefundedAt != "2024-01-20 08:00:00" {
		t.Fatalf("unexpected refundedAt %v", explicit.RefundedAt)
	}

	pending, err := m.Map(context.Background(), decodeEvent(t, `{"order_id": "ORD-5", "status": "pending", "paid_at": "2024-01-15T10:35:00Z"}`), "")
	if err != nil {
		t.Fatalf("map pending: %v", err)
	}
	if pending.ApprovedDate != nil || pending.RefundedAt != nil {
		t.Fatalf("pending orders carry no approval or refund date")
	}
}

func TestMapFieldFallbacks(t *testing.T) {
	m := newTestMapper(t)
	order, err := m.Map(context.Background(), decodeEvent(t, `{
		"order_id": 987,
		"customer": {"full_name": "Bruno Lima", "email": "b@example.com", "tax_id": "123.456.789-00", "country": "US", "ip": "10.0.0.1"},
		"products": {"product_id": 55, "product_name": "Ebook", "amount": "19.90", "quantity": "2", "plan_id": "PL1", "plan_name": "Monthly"},
		"total": "39.80",
		"currency": "USD",
		"payment_method": "PIX",
		"status": "declined",
		"is_test": true
	}`), "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if order.OrderID != "987" {
		t.Fatalf("numeric ids keep their JSON text, got %q", order.OrderID)
	}
	cust := order.Customer
	if cust.Name != "Bruno Lima" || cust.Document == nil || *cust.Document != "123.456.789-00" || cust.Country != "US" || cust.IP == nil {
		t.Fatalf("unexpected customer %+v", cust)
	}
	if len(order.Products) != 1 {
		t.Fatalf("single product object should become a list, got %d", len(order.Products))
	}
	p := order.Products[0]
	if p.ID != "55" || p.Name != "Ebook" || p.PriceInCents != 1990 || p.Quantity != 2 || *p.PlanID != "PL1" || *p.PlanName != "Monthly" {
		t.Fatalf("unexpected product %+v", p)
	}
	if order.Commission.Currency != "USD" || order.Commission.TotalPriceInCents != 3980 {
		t.Fatalf("unexpected commission %+v", order.Commission)
	}
	if order.PaymentMethod != enums.PaymentMethodPix || order.Status != enums.OrderStatusRefused {
		t.Fatalf("unexpected codes %s/%s", order.PaymentMethod, order.Status)
	}
	if !order.IsTest {
		t.Fatalf("is_test true should map to isTest")
	}
}

func TestMapDefaultsForMissingData(t *testing.T) {
	m := newTestMapper(t)
	order, err := m.Map(context.Background(), decodeEvent(t, `{"order_id": "ORD-6", "customer": "not an object", "products": "nope", "is_test": "true"}`), "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if order.Customer.Name != "" || order.Customer.Email != "" || order.Customer.Country != "BR" {
		t.Fatalf("unexpected customer defaults %+v", order.Customer)
	}
	if order.Products == nil || len(order.Products) != 0 {
		t.Fatalf("expected empty product list, got %v", order.Products)
	}
	if order.Status != enums.OrderStatusWaitingPayment || order.PaymentMethod != enums.PaymentMethodCreditCard {
		t.Fatalf("unexpected defaults %s/%s", order.Status, order.PaymentMethod)
	}
	if order.CreatedAt != nil {
		t.Fatalf("createdAt should be null")
	}
	if order.IsTest {
		t.Fatalf("only the JSON boolean true marks a test order")
	}
	if c := order.Commission; c.TotalPriceInCents != 0 || c.GatewayFeeInCents != 0 || c.UserCommissionInCents != 0 {
		t.Fatalf("unexpected commission %+v", c)
	}
}

func TestMapQuantityCoercion(t *testing.T) {
	tests := map[string]int{
		`0`:     1,
		`-3`:    1,
		`2.7`:   2,
		`"4"`:   4,
		`"abc"`: 1,
		`null`:  1,
		`true`:  1,
		`"3.9"`: 3,
	}
	m := newTestMapper(t)
	for raw, want := range tests {
		event := decodeEvent(t, `{"order_id": "Q", "products": [{"id": "P", "quantity": `+raw+`}]}`)
		order, err := m.Map(context.Background(), event, "")
		if err != nil {
			t.Fatalf("map quantity %s: %v", raw, err)
		}
		if got := order.Products[0].Quantity; got != want {
			t.Fatalf("quantity %s: got %d want %d", raw, got, want)
		}
	}
}

func TestMapGatewayFeeOverride(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		raw  string
		fee  int64
		user int64
	}{
		{raw: `0.1`, fee: 1000, user: 9000},
		{raw: `0`, fee: 0, user: 10000},
		{raw: `1`, fee: 10000, user: 0},
		{raw: `1.5`, fee: 500, user: 9500},
		{raw: `-0.2`, fee: 500, user: 9500},
		{raw: `"abc"`, fee: 500, user: 9500},
	}
	for _, tt := range tests {
		event := decodeEvent(t, `{"order_id": "F", "total": 100, "gateway_fee_percentage": `+tt.raw+`}`)
		order, err := m.Map(context.Background(), event, "")
		if err != nil {
			t.Fatalf("map %s: %v", tt.raw, err)
		}
		if order.Commission.GatewayFeeInCents != tt.fee || order.Commission.UserCommissionInCents != tt.user {
			t.Fatalf("rate %s: unexpected commission %+v", tt.raw, order.Commission)
		}
	}
}

func TestMapFailures(t *testing.T) {
	m := newTestMapper(t)
	tests := []struct {
		name    string
		event   samcart.Event
		orderID string
	}{
		{name: "nil event", event: nil},
		{name: "missing order id", event: decodeEvent(t, `{"status": "paid"}`)},
		{name: "blank order id", event: decodeEvent(t, `{"order_id": "  "}`)},
		{name: "null product", event: decodeEvent(t, `{"order_id": "ORD-7", "products": [{"id": "P"}, null]}`), orderID: "ORD-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := m.Map(context.Background(), tt.event, "")
			if order != nil {
				t.Fatalf("no partial order may be returned")
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeMapping) {
				t.Fatalf("expected mapping error, got %v", err)
			}
			details, ok := pkgerrors.As(err).Details().(map[string]any)
			if !ok || details["order_id"] != tt.orderID {
				t.Fatalf("unexpected details %#v", pkgerrors.As(err).Details())
			}
		})
	}
}

func TestMapScalarProductElement(t *testing.T) {
	m := newTestMapper(t)
	order, err := m.Map(context.Background(), decodeEvent(t, `{"order_id": "ORD-8", "products": [{"id": "P", "price": "5"}, "oops"]}`), "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(order.Products) != 2 {
		t.Fatalf("expected 2 products, got %+v", order.Products)
	}
	empty := order.Products[1]
	if empty.ID != "" || empty.Name != "" || empty.Quantity != 1 || empty.PriceInCents != 0 || empty.PlanID != nil {
		t.Fatalf("scalar element should map to an empty product, got %+v", empty)
	}
}

func TestMapCompletedOrderWithoutTimestamps(t *testing.T) {
	m := newTestMapper(t)
	event := decodeEvent(t, `{
		"order_id": "T1",
		"status": "completed",
		"total": 50.00,
		"payment_method": "pix",
		"customer": {"name": "A", "email": "a@a.com"},
		"products": [{"name": "P", "price": 50.00}]
	}`)

	order, err := m.Map(context.Background(), event, "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if order.PaymentMethod != enums.PaymentMethodPix || order.Status != enums.OrderStatusPaid {
		t.Fatalf("unexpected codes %s/%s", order.PaymentMethod, order.Status)
	}
	if len(order.Products) != 1 || order.Products[0].PriceInCents != 5000 {
		t.Fatalf("unexpected products %+v", order.Products)
	}
	if !order.TrackingParameters.Empty() {
		t.Fatalf("tracking parameters should all be absent: %+v", order.TrackingParameters)
	}
	if order.CreatedAt != nil {
		t.Fatalf("createdAt should be absent, got %q", *order.CreatedAt)
	}
	if order.ApprovedDate == nil || *order.ApprovedDate != "2024-02-01 09:00:00" {
		t.Fatalf("approvedDate should fall back to the clock, got %v", order.ApprovedDate)
	}
	if order.RefundedAt != nil {
		t.Fatalf("refundedAt should be absent")
	}
}

func TestMapUnparsableApprovalFallsBackToClock(t *testing.T) {
	m := newTestMapper(t)
	order, err := m.Map(context.Background(), decodeEvent(t, `{"order_id": "T2", "status": "paid", "paid_at": "yesterday"}`), "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if order.ApprovedDate == nil || *order.ApprovedDate != "2024-02-01 09:00:00" {
		t.Fatalf("unexpected approvedDate %v", order.ApprovedDate)
	}
}

func TestNewMapperRejectsInvalidRate(t *testing.T) {
	for _, rate := range []float64{-0.01, 1.01} {
		if _, err := NewMapper(MapperParams{GatewayFeeRate: rate}); err == nil {
			t.Fatalf("expected error for rate %v", rate)
		}
	}
	m, err := NewMapper(MapperParams{PlatformName: "Custom", DefaultCurrency: "EUR", DefaultCountry: "PT"})
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}
	order, err := m.Map(context.Background(), samcart.Event{"order_id": "X"}, "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if order.Platform != "Custom" || order.Commission.Currency != "EUR" || order.Customer.Country != "PT" {
		t.Fatalf("configured defaults not applied: %+v", order)
	}
}
