package samcart

// Field paths in a SamCart notification. Where SamCart has used more than one
// name for a field, callers pass the candidates in priority order.
const (
	PathOrderID              Path = "order_id"
	PathCustomer             Path = "customer"
	PathProducts             Path = "products"
	PathTotal                Path = "total"
	PathCurrency             Path = "currency"
	PathPaymentMethod        Path = "payment_method"
	PathStatus               Path = "status"
	PathCreatedAt            Path = "created_at"
	PathPaidAt               Path = "paid_at"
	PathRefundedAt           Path = "refunded_at"
	PathGatewayFeePercentage Path = "gateway_fee_percentage"
	PathIsTest               Path = "is_test"
	PathCheckoutURL          Path = "checkout_url"
)

// Paths relative to the customer object.
var (
	CustomerName     = []Path{"name", "full_name"}
	CustomerEmail    = []Path{"email"}
	CustomerPhone    = []Path{"phone"}
	CustomerDocument = []Path{"document", "tax_id"}
	CustomerCountry  = []Path{"country"}
	CustomerIP       = []Path{"ip"}
)

// Paths relative to a product object.
var (
	ProductID       = []Path{"id", "product_id"}
	ProductName     = []Path{"name", "product_name"}
	ProductPlanID   = []Path{"plan_id"}
	ProductPlanName = []Path{"plan_name"}
	ProductQuantity = []Path{"quantity"}
	ProductPrice    = []Path{"price", "amount"}
)

// ApprovedAt lists the sources of the approval instant for paid orders.
var ApprovedAt = []Path{PathPaidAt, PathCreatedAt}
