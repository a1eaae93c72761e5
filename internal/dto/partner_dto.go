package dto

// Customers and suppliers share the same minimal contact shape.

type CreatePartnerRequest struct {
	ShopID  string  `json:"shop_id" validate:"required,uuid"`
	Name    string  `json:"name"    validate:"required,min=1,max=120"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Phone   *string `json:"phone"   validate:"omitempty,max=30"`
	Address *string `json:"address" validate:"omitempty,max=250"`
}

type PartnerResponse struct {
	ID      string  `json:"id"`
	ShopID  string  `json:"shop_id"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address,omitempty"`
}
