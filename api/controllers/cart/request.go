package cart

// CreateCartRequest opens a new cart session for a customer.
type CreateCartRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	Currency   string `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
}

// AddItemRequest adds quantity of a product at a unit price. Prices arrive
// as JSON numbers from the storefront and are converted to decimals before
// they touch cart math.
type AddItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// UpdateItemRequest sets a line's quantity. Zero and negative values are
// valid input and remove the line, so the field is a pointer to tell "absent"
// from "zero".
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// ApplyPromotionRequest applies a promotion code to the cart.
type ApplyPromotionRequest struct {
	PromoCode string `json:"promoCode" validate:"required"`
}
