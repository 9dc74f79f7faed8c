package admin

import (
	"strconv"
	"strings"

	"github.com/felixgeelhaar/storefront/internal/domain"
)

// Spec is one specification row of the product form.
type Spec struct {
	Key   string
	Value string
}

// ProductForm is the raw, string-typed product input.
type ProductForm struct {
	Name           string
	Description    string
	Price          string
	ComparePrice   string
	Images         []string
	Category       string
	Inventory      string
	Features       []string
	Specifications []Spec
	RatingAverage  string
	RatingCount    string
}

// NewProduct is the POST /products body.
type NewProduct struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	ComparePrice   *float64          `json:"comparePrice,omitempty"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"`
	Inventory      int               `json:"inventory"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
	Rating         domain.Rating     `json:"rating"`
}

// Build parses and validates the form. Empty images, features and
// specification keys are dropped; an empty rating is zero.
func (f ProductForm) Build() (*NewProduct, error) {
	p := &NewProduct{
		Name:           strings.TrimSpace(f.Name),
		Description:    strings.TrimSpace(f.Description),
		Category:       strings.TrimSpace(f.Category),
		Images:         nonEmpty(f.Images),
		Features:       nonEmpty(f.Features),
		Specifications: map[string]string{},
	}
	if p.Name == "" {
		return nil, domain.NewValidationError("name", "name is required", nil)
	}
	if p.Category == "" {
		return nil, domain.NewValidationError("category", "category is required", nil)
	}

	price, err := parseAmount("price", f.Price, true)
	if err != nil {
		return nil, err
	}
	p.Price = *price

	if p.ComparePrice, err = parseAmount("comparePrice", f.ComparePrice, false); err != nil {
		return nil, err
	}

	if p.Inventory, err = parseCount("inventory", f.Inventory); err != nil {
		return nil, err
	}

	if avg, err := parseAmount("rating.average", f.RatingAverage, false); err != nil {
		return nil, err
	} else if avg != nil {
		if *avg > 5 {
			return nil, domain.NewValidationError("rating.average", "rating must be between 0 and 5", nil)
		}
		p.Rating.Average = *avg
	}
	if p.Rating.Count, err = parseCount("rating.count", f.RatingCount); err != nil {
		return nil, err
	}

	for _, spec := range f.Specifications {
		if key := strings.TrimSpace(spec.Key); key != "" {
			p.Specifications[key] = strings.TrimSpace(spec.Value)
		}
	}
	return p, nil
}

// ParseSpec reads "key=value" or "key: value".
func ParseSpec(raw string) Spec {
	if k, v, ok := strings.Cut(raw, "="); ok {
		return Spec{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)}
	}
	if k, v, ok := strings.Cut(raw, ":"); ok {
		return Spec{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)}
	}
	return Spec{Key: strings.TrimSpace(raw)}
}

func parseAmount(field, raw string, required bool) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return nil, domain.NewValidationError(field, field+" is required", domain.ErrInvalidPrice)
		}
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewValidationError(field, field+" must be a number", domain.ErrInvalidPrice)
	}
	if v < 0 {
		return nil, domain.NewValidationError(field, field+" must not be negative", domain.ErrInvalidPrice)
	}
	return &v, nil
}

func parseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(field, field+" must be a whole number", domain.ErrInvalidQuantity)
	}
	if v < 0 {
		return 0, domain.NewValidationError(field, field+" must not be negative", domain.ErrInvalidQuantity)
	}
	return v, nil
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
