package model

import "time"

// Role identifies what a user can do in the marketplace.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleProducer Role = "producer"
)

// UserProfile is the identity context consumed read-only by the core.
type UserProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Location   string `json:"location"`
	IsVerified bool   `json:"isVerified"`
}

// SellerInfo is the seller snapshot embedded in every Product.
// It is a value copy, never a reference: later profile edits must not
// retroactively alter listings already on the catalog.
type SellerInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Verified     bool     `json:"verified"`
	ProfileImage string   `json:"profileImage,omitempty"`
	PriorSales   []string `json:"priorSales,omitempty"`
}

// Clone returns an independent copy of the seller snapshot.
func (s SellerInfo) Clone() SellerInfo {
	out := s
	if s.PriorSales != nil {
		out.PriorSales = append([]string(nil), s.PriorSales...)
	}
	return out
}

// SellerFromProfile builds a seller snapshot from the owning profile.
func SellerFromProfile(p UserProfile) SellerInfo {
	return SellerInfo{
		ID:       p.ID,
		Name:     p.Name,
		Location: p.Location,
		Verified: p.IsVerified,
	}
}

// Product is a published listing. Price is a positive integer in the
// display currency's major unit; formatting is applied only at render.
// Seller.ID never changes after creation.
type Product struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Category  string     `json:"category,omitempty"`
	Image     string     `json:"image,omitempty"`
	Seller    SellerInfo `json:"seller"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Clone returns an independent copy of the product, including its
// embedded seller snapshot.
func (p Product) Clone() Product {
	out := p
	out.Seller = p.Seller.Clone()
	return out
}

// SellerRef is the minimal frozen seller identity carried by a cart line.
type SellerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartLine is a buyer's frozen intent to purchase one product unit.
// Price and seller identity are snapshots taken at add-to-cart time;
// later product mutations do not affect existing lines.
type CartLine struct {
	ProductID string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Seller    SellerRef `json:"seller"`
	AddedAt   time.Time `json:"addedAt"`
}

// LineFromProduct freezes a cart line out of a catalog product.
func LineFromProduct(p Product) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Seller:    SellerRef{ID: p.Seller.ID, Name: p.Seller.Name},
		AddedAt:   time.Now().UTC(),
	}
}
