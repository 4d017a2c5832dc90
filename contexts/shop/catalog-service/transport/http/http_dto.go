package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FieldOptionDTO struct {
	OptionID   string `json:"option_id"`
	Label      string `json:"label"`
	PriceCents int64  `json:"price_cents"`
}

type FormFieldDTO struct {
	FieldID    string           `json:"field_id"`
	Label      string           `json:"label"`
	Type       string           `json:"type"`
	Required   bool             `json:"required"`
	Options    []FieldOptionDTO `json:"options,omitempty"`
	PriceCents int64            `json:"price_cents,omitempty"`
}

type ProductDTO struct {
	ProductID      string         `json:"product_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	BasePriceCents int64          `json:"base_price_cents"`
	ImageURL       string         `json:"image_url,omitempty"`
	Category       string         `json:"category,omitempty"`
	MinDaysNotice  *int           `json:"min_days_notice,omitempty"`
	IsActive       bool           `json:"is_active"`
	Position       int            `json:"position"`
	Form           []FormFieldDTO `json:"form"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

type ListProductsRequest struct {
	Category string
	Page     int
	Limit    int
}

type ListProductsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Products   []ProductDTO `json:"products"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	} `json:"data"`
}

type ProductResponse struct {
	Status string     `json:"status"`
	Data   ProductDTO `json:"data"`
}

type ProductRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	BasePriceCents int64  `json:"base_price_cents"`
	ImageURL       string `json:"image_url,omitempty"`
	Category       string `json:"category,omitempty"`
	MinDaysNotice  *int   `json:"min_days_notice,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type SetProductFormRequest struct {
	Fields []FormFieldDTO `json:"fields"`
}

type SetProductActiveRequest struct {
	IsActive bool `json:"is_active"`
}
