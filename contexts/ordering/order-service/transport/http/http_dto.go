package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CustomerDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type OrderLineDTO struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	PriceCents int64  `json:"price_cents"`
}

type QuoteDTO struct {
	AmountCents  int64  `json:"amount_cents"`
	DepositCents int64  `json:"deposit_cents"`
	Message      string `json:"message,omitempty"`
	ExpiresAt    string `json:"expires_at"`
}

type OrderDTO struct {
	OrderID           string         `json:"order_id"`
	Ref               string         `json:"ref"`
	Kind              string         `json:"kind"`
	Status            string         `json:"status"`
	ProductID         string         `json:"product_id,omitempty"`
	ProductName       string         `json:"product_name,omitempty"`
	Lines             []OrderLineDTO `json:"lines"`
	Customer          CustomerDTO    `json:"customer"`
	PickupDate        string         `json:"pickup_date"`
	Message           string         `json:"message,omitempty"`
	InspirationURLs   []string       `json:"inspiration_urls,omitempty"`
	BudgetCents       int64          `json:"budget_cents,omitempty"`
	TotalCents        int64          `json:"total_cents"`
	DepositCents      int64          `json:"deposit_cents"`
	Currency          string         `json:"currency"`
	Quote             *QuoteDTO      `json:"quote,omitempty"`
	RefusalReason     string         `json:"refusal_reason,omitempty"`
	RefusedBy         string         `json:"refused_by,omitempty"`
	PaymentDeclaredAt string         `json:"payment_declared_at,omitempty"`
	ConfirmedAt       string         `json:"confirmed_at,omitempty"`
	ReadyAt           string         `json:"ready_at,omitempty"`
	CompletedAt       string         `json:"completed_at,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

type CheckoutRequest struct {
	ProductID  string         `json:"product_id"`
	Selection  map[string]any `json:"selection"`
	Customer   CustomerDTO    `json:"customer"`
	PickupDate string         `json:"pickup_date"`
	Message    string         `json:"message,omitempty"`
}

type CustomOrderRequest struct {
	Customer        CustomerDTO `json:"customer"`
	PickupDate      string      `json:"pickup_date"`
	Message         string      `json:"message"`
	InspirationURLs []string    `json:"inspiration_urls,omitempty"`
	BudgetCents     int64       `json:"budget_cents,omitempty"`
}

type PlacementResponse struct {
	Status   string `json:"status"`
	Replayed bool   `json:"replayed"`
	Data     struct {
		Order       OrderDTO `json:"order"`
		PaymentLink string   `json:"payment_link,omitempty"`
	} `json:"data"`
}

type PublicOrderResponse struct {
	Status string `json:"status"`
	Data   struct {
		Order        OrderDTO `json:"order"`
		ShopName     string   `json:"shop_name"`
		ShopSlug     string   `json:"shop_slug"`
		PaymentLink  string   `json:"payment_link,omitempty"`
		QuoteExpired bool     `json:"quote_expired"`
	} `json:"data"`
}

type OrderResponse struct {
	Status   string   `json:"status"`
	Replayed bool     `json:"replayed,omitempty"`
	Data     OrderDTO `json:"data"`
}

type ListOrdersRequest struct {
	Statuses []string
	From     string
	To       string
	Page     int
	Limit    int
}

type ListOrdersResponse struct {
	Status string `json:"status"`
	Data   struct {
		Orders     []OrderDTO `json:"orders"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	} `json:"data"`
}

type SummaryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Counts            map[string]int `json:"counts"`
		ToPrepare         []OrderDTO     `json:"to_prepare"`
		MonthRevenueCents int64          `json:"month_revenue_cents"`
		Currency          string         `json:"currency"`
	} `json:"data"`
}

type SendQuoteRequest struct {
	AmountCents  int64  `json:"amount_cents"`
	DepositCents *int64 `json:"deposit_cents,omitempty"`
	Message      string `json:"message,omitempty"`
	ValidDays    int    `json:"valid_days,omitempty"`
}

type ReasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AvailableDateDTO struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

type AvailableDatesRequest struct {
	ProductID string
	From      string
	Days      int
}

type AvailableDatesResponse struct {
	Status string             `json:"status"`
	Data   []AvailableDateDTO `json:"data"`
}
