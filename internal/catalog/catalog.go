package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/storefront/internal/domain"
)

// ProductsPath is the navigable path of the product list.
const ProductsPath = "/products"

// API is the subset of the gateway the catalog needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Catalog reads products and categories.
type Catalog struct {
	api API
}

// New creates a catalog reader.
func New(api API) *Catalog {
	return &Catalog{api: api}
}

// Products lists products matching q.
func (c *Catalog) Products(ctx context.Context, q Query) ([]domain.Product, error) {
	var list domain.ProductList
	if err := c.api.Get(ctx, "/products", q.Values(), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Product fetches one product.
func (c *Catalog) Product(ctx context.Context, id string) (*domain.ProductDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "product id is required", domain.ErrMissingProduct)
	}
	var p domain.ProductDetail
	if err := c.api.Get(ctx, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

// Categories lists the product categories.
func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	var list domain.CategoryList
	if err := c.api.Get(ctx, "/categories", nil, &list); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}
