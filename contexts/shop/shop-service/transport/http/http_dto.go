package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CustomizationDTO struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	BackgroundColor string `json:"background_color"`
	FontFamily      string `json:"font_family"`
	LogoURL         string `json:"logo_url,omitempty"`
	BannerURL       string `json:"banner_url,omitempty"`
}

// PublicShopDTO is what the storefront sees.
type PublicShopDTO struct {
	ShopID              string           `json:"shop_id"`
	Slug                string           `json:"slug"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	Currency            string           `json:"currency"`
	DepositPercentage   int              `json:"deposit_percentage"`
	MinDaysNotice       int              `json:"min_days_notice"`
	Customization       CustomizationDTO `json:"customization"`
	PaymentInstructions string           `json:"payment_instructions,omitempty"`
}

type ShopDTO struct {
	PublicShopDTO
	OwnerID      string `json:"owner_id"`
	Email        string `json:"email"`
	PaypalHandle string `json:"paypal_handle,omitempty"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type ShopResponse struct {
	Status string  `json:"status"`
	Data   ShopDTO `json:"data"`
}

type PublicShopResponse struct {
	Status string        `json:"status"`
	Data   PublicShopDTO `json:"data"`
}

type CreateShopRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description,omitempty"`
}

type UpdateProfileRequest struct {
	Slug          string `json:"slug,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Description   string `json:"description"`
	MinDaysNotice *int   `json:"min_days_notice,omitempty"`
}

type UpdateCustomizationRequest = CustomizationDTO

type UpdatePaymentRequest struct {
	PaypalHandle        string `json:"paypal_handle"`
	PaymentInstructions string `json:"payment_instructions"`
	Currency            string `json:"currency"`
	DepositPercentage   *int   `json:"deposit_percentage,omitempty"`
}

type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type AvailabilityDTO struct {
	Weekday         int  `json:"weekday"`
	IsOpen          bool `json:"is_open"`
	DailyOrderLimit int  `json:"daily_order_limit"`
}

type UnavailabilityDTO struct {
	UnavailabilityID string `json:"unavailability_id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Reason           string `json:"reason,omitempty"`
}

type ScheduleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Availabilities   []AvailabilityDTO   `json:"availabilities"`
		Unavailabilities []UnavailabilityDTO `json:"unavailabilities"`
	} `json:"data"`
}

type SetAvailabilityRequest struct {
	IsOpen          bool `json:"is_open"`
	DailyOrderLimit int  `json:"daily_order_limit"`
}

type AvailabilityResponse struct {
	Status string          `json:"status"`
	Data   AvailabilityDTO `json:"data"`
}

type AddUnavailabilityRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason,omitempty"`
}

type UnavailabilityResponse struct {
	Status string            `json:"status"`
	Data   UnavailabilityDTO `json:"data"`
}

type FAQDTO struct {
	FAQID    string `json:"faq_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

type FAQRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQResponse struct {
	Status string `json:"status"`
	Data   FAQDTO `json:"data"`
}

type ListFAQResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items []FAQDTO `json:"items"`
	} `json:"data"`
}

type ReorderFAQRequest struct {
	FAQIDs []string `json:"faq_ids"`
}
