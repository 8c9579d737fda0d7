package api

import (
	"fmt"
	"strings"
)

func (r ListingCreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.Price <= 0 {
		return fmt.Errorf("price must be greater than 0")
	}
	return nil
}

func (r CartAddRequest) Validate() error {
	if strings.TrimSpace(r.ProductID) == "" {
		return fmt.Errorf("productId is required")
	}
	return nil
}

func (r CheckoutRequest) Validate() error {
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if strings.TrimSpace(r.Method) == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

func (r FulfillmentUpdateRequest) Validate() error {
	if strings.TrimSpace(r.Status) == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}
