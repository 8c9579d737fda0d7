package api

// ListingCreateRequest is the payload to publish a new catalog listing.
type ListingCreateRequest struct {
	Name     string `json:"name" example:"Fresh Maize (90kg bag)"`
	Price    int64  `json:"price" example:"2500"`
	Category string `json:"category" example:"cereals"`
	Image    string `json:"image,omitempty"`
}

// CartAddRequest puts an existing listing into the current user's cart.
type CartAddRequest struct {
	ProductID string `json:"productId"`
}

// CheckoutRequest starts the escrow payment flow for the whole cart.
type CheckoutRequest struct {
	Phone  string `json:"phone" example:"0712345678"`
	Method string `json:"method" example:"mobile_money"`
}

// FulfillmentUpdateRequest moves an order along its delivery lifecycle.
type FulfillmentUpdateRequest struct {
	Status string `json:"status" example:"in_transit"`
}

// ProfileUpdateRequest patches the active user profile. Omitted fields
// are left unchanged.
type ProfileUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty" example:"producer"`
	Location *string `json:"location,omitempty" example:"Nakuru"`
}
