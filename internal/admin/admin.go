// Package admin is the role-gated passthrough for category and product
// management.
package admin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/storefront/internal/domain"
)

// Principal exposes the signed-in user.
type Principal interface {
	User() *domain.User
}

// RequireRole fails unless the principal is signed in with role.
func RequireRole(p Principal, role string) error {
	user := p.User()
	if user == nil {
		return domain.ErrNotAuthenticated
	}
	if user.Role != role {
		return fmt.Errorf("%w: requires role %q", domain.ErrForbidden, role)
	}
	return nil
}

// API is the subset of the gateway admin calls use.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Service runs admin operations on behalf of an admin user.
type Service struct {
	api       API
	principal Principal
}

// NewService creates an admin service.
func NewService(api API, principal Principal) *Service {
	return &Service{api: api, principal: principal}
}

func (s *Service) authorize() error {
	return RequireRole(s.principal, domain.RoleAdmin)
}

// Categories lists categories.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	var list domain.CategoryList
	if err := s.api.Get(ctx, "/categories", nil, &list); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// CreateCategory adds a category by name.
func (s *Service) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "category name is required", nil)
	}

	var created domain.Category
	if err := s.api.Post(ctx, "/categories", map[string]string{"name": name}, &created); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if created.Name == "" {
		created.Name = name
	}
	return &created, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.authorize(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewValidationError("id", "category id is required", nil)
	}
	if err := s.api.Delete(ctx, "/categories/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Products lists all products.
func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	var list domain.ProductList
	if err := s.api.Get(ctx, "/products", nil, &list); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

// CreateProduct validates form and posts the product.
func (s *Service) CreateProduct(ctx context.Context, form ProductForm) (*domain.ProductDetail, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	payload, err := form.Build()
	if err != nil {
		return nil, err
	}

	var created domain.ProductDetail
	if err := s.api.Post(ctx, "/products", payload, &created); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if created.Name == "" {
		created.Name = payload.Name
	}
	return &created, nil
}
