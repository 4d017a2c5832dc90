package v1

const ShopCreated = "shop.created"

type ShopCreatedData struct {
	ShopID  string `json:"shop_id"`
	OwnerID string `json:"owner_id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}
