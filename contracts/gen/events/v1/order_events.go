package v1

// Order lifecycle event types. The topic name equals the event type.
const (
	OrderPlaced         = "order.placed"
	OrderRequested      = "order.requested"
	OrderQuoted         = "order.quoted"
	OrderQuoteAccepted  = "order.quote_accepted"
	OrderConfirmed      = "order.confirmed"
	OrderReady          = "order.ready"
	OrderCompleted      = "order.completed"
	OrderRefused        = "order.refused"
	OrderPickupReminder = "order.pickup_reminder"
)

// OrderTopics lists every order lifecycle topic in publication order.
var OrderTopics = []string{
	OrderPlaced,
	OrderRequested,
	OrderQuoted,
	OrderQuoteAccepted,
	OrderConfirmed,
	OrderReady,
	OrderCompleted,
	OrderRefused,
	OrderPickupReminder,
}

// OrderEventData is the Data payload of every order.* envelope.
// Amounts are minor currency units.
type OrderEventData struct {
	OrderID          string           `json:"order_id"`
	Ref              string           `json:"ref"`
	ShopID           string           `json:"shop_id"`
	ShopName         string           `json:"shop_name"`
	ShopEmail        string           `json:"shop_email"`
	Kind             string           `json:"kind"`
	Status           string           `json:"status"`
	PreviousStatus   string           `json:"previous_status,omitempty"`
	ProductName      string           `json:"product_name,omitempty"`
	Lines            []OrderEventLine `json:"lines,omitempty"`
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email"`
	CustomerPhone    string           `json:"customer_phone,omitempty"`
	PickupDate       string           `json:"pickup_date"`
	Message          string           `json:"message,omitempty"`
	TotalCents       int64            `json:"total_cents"`
	DepositCents     int64            `json:"deposit_cents"`
	Currency         string           `json:"currency"`
	QuoteMessage     string           `json:"quote_message,omitempty"`
	QuoteExpiresAt   string           `json:"quote_expires_at,omitempty"`
	RefusalReason    string           `json:"refusal_reason,omitempty"`
	RefusedBy        string           `json:"refused_by,omitempty"`
	PaymentLink      string           `json:"payment_link,omitempty"`
	OrderPageURL     string           `json:"order_page_url,omitempty"`
}

type OrderEventLine struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	PriceCents int64  `json:"price_cents"`
}
