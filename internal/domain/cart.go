package domain

import "math"

// CartLine is one product in the cart. At most one line exists per ProductID.
type CartLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

// Total returns UnitPrice * Quantity.
func (l CartLine) Total() Money {
	return MoneyFromFloat(l.UnitPrice).Mul(l.Quantity)
}

// Validate checks the line invariants.
func (l CartLine) Validate() error {
	if l.ProductID == "" {
		return NewValidationError("productId", "product id is required", ErrMissingProduct)
	}
	if math.IsNaN(l.UnitPrice) || math.IsInf(l.UnitPrice, 0) {
		return NewValidationError("unitPrice", "price must be a finite number", ErrInvalidPrice)
	}
	if l.UnitPrice < 0 {
		return NewValidationError("unitPrice", "price must not be negative", ErrInvalidPrice)
	}
	if l.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1", ErrInvalidQuantity)
	}
	return nil
}

// LineFromProduct builds a cart line for qty units of p.
func LineFromProduct(p Product, qty int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Quantity:  qty,
	}
}

// OrderTotals is derived from the cart on every read.
type OrderTotals struct {
	Subtotal   Money `json:"subtotal"`
	Shipping   Money `json:"shipping"`
	Tax        Money `json:"tax"`
	GrandTotal Money `json:"grandTotal"`
}

// FreeShipping reports whether the order ships for free.
func (t OrderTotals) FreeShipping() bool {
	return t.Shipping == 0
}
