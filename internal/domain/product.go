package domain

import (
	"encoding/json"
	"strconv"
)

// Product is a catalog list entry.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Rating   Rating  `json:"rating"`
}

// UnmarshalJSON accepts "_id" identifiers and falls back to the first
// entry of "images" when "image" is absent.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		MongoID string   `json:"_id"`
		Images  []string `json:"images"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	if p.Image == "" && len(aux.Images) > 0 {
		p.Image = aux.Images[0]
	}
	return nil
}

// ProductDetail is returned by GET /products/:id.
type ProductDetail struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	ComparePrice   *float64          `json:"comparePrice,omitempty"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"`
	Inventory      int               `json:"inventory"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
	Rating         Rating            `json:"rating"`
}

// UnmarshalJSON accepts "_id" identifiers.
func (p *ProductDetail) UnmarshalJSON(data []byte) error {
	type alias ProductDetail
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

// InStock reports whether any inventory remains.
func (p *ProductDetail) InStock() bool {
	return p.Inventory > 0
}

// Summary converts the detail into a list entry, e.g. for adding to a cart.
func (p *ProductDetail) Summary() Product {
	prod := Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Rating:   p.Rating,
	}
	if len(p.Images) > 0 {
		prod.Image = p.Images[0]
	}
	return prod
}

// Rating is either a bare number or {average, count} on the wire.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// UnmarshalJSON accepts both wire shapes.
func (r *Rating) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if f, err := strconv.ParseFloat(string(data), 64); err == nil {
		r.Average = f
		return nil
	}
	type alias Rating
	return json.Unmarshal(data, (*alias)(r))
}

// Category is a product category managed from the admin panel.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both "_id" and "id" identifiers.
func (c *Category) UnmarshalJSON(data []byte) error {
	type alias Category
	aux := struct {
		*alias
		PlainID string `json:"id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.PlainID
	}
	return nil
}
