package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/storefront/internal/cart"
	"github.com/felixgeelhaar/storefront/internal/catalog"
	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/session"
)

// Server wraps the MCP server with storefront functionality
type Server struct {
	mcpServer *server.Server
	catalog   *catalog.Catalog
	cart      *cart.Ledger
	session   *session.Store
}

// Config contains configuration for the MCP server
type Config struct {
	Catalog *catalog.Catalog
	Cart    *cart.Ledger
	Session *session.Store
	Version string
}

// NewServer creates a new MCP server for the storefront
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog: cfg.Catalog,
		cart:    cfg.Cart,
		session: cfg.Session,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "storefront",
		Version: version,
	}, server.WithInstructions(`
Storefront exposes the product catalog and the local shopping cart.

Available tools:
- storefront_products: List products, filtered by category, price range, search and sort
- storefront_product: Get one product with images, inventory and specifications
- storefront_cart: Show cart lines and totals
- storefront_cart_add: Add a product to the cart
- storefront_cart_update: Set a line quantity (0 or less removes the line)
- storefront_cart_remove: Remove a line
- storefront_whoami: Show the signed-in user

Pricing: orders over $100.00 ship free, otherwise shipping is $10.00. Tax is 10% of the subtotal.
`))

	s.registerTools()

	return s
}

// registerTools registers all storefront MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("storefront_products").
		Description("List products. Sort is one of newest, price_asc, price_desc, rating.").
		Handler(s.handleProducts)

	s.mcpServer.Tool("storefront_product").
		Description("Get product details by ID.").
		Handler(s.handleProduct)

	s.mcpServer.Tool("storefront_cart").
		Description("Show the cart with subtotal, shipping, tax and total.").
		Handler(s.handleCart)

	s.mcpServer.Tool("storefront_cart_add").
		Description("Add a product to the cart by ID.").
		Handler(s.handleCartAdd)

	s.mcpServer.Tool("storefront_cart_update").
		Description("Set the quantity of a cart line. Zero or less removes it.").
		Handler(s.handleCartUpdate)

	s.mcpServer.Tool("storefront_cart_remove").
		Description("Remove a product from the cart.").
		Handler(s.handleCartRemove)

	s.mcpServer.Tool("storefront_whoami").
		Description("Show the signed-in user, if any.").
		Handler(s.handleWhoami)
}

// Input/Output types for tools

type ProductsInput struct {
	Query    string `json:"query,omitempty" jsonschema:"description=Product-list query string such as category=Books&sort=rating; the fields below override it"`
	Category string `json:"category,omitempty" jsonschema:"description=Category name"`
	MinPrice string `json:"min_price,omitempty" jsonschema:"description=Lower price bound"`
	MaxPrice string `json:"max_price,omitempty" jsonschema:"description=Upper price bound"`
	Sort     string `json:"sort,omitempty" jsonschema:"description=Sort order,enum=newest,enum=price_asc,enum=price_desc,enum=rating"`
	Search   string `json:"search,omitempty" jsonschema:"description=Free-text search"`
}

type ProductItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    string  `json:"price"`
	Category string  `json:"category,omitempty"`
	Rating   float64 `json:"rating"`
}

type ProductsOutput struct {
	Query    string        `json:"query"`
	Products []ProductItem `json:"products"`
}

type ProductInput struct {
	ProductID string `json:"product_id" jsonschema:"description=Product ID"`
}

type ProductOutput struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Price          string            `json:"price"`
	ComparePrice   string            `json:"compare_price,omitempty"`
	Category       string            `json:"category,omitempty"`
	InStock        bool              `json:"in_stock"`
	Inventory      int               `json:"inventory"`
	Images         []string          `json:"images,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Rating         float64           `json:"rating"`
	RatingCount    int               `json:"rating_count"`
}

type CartInput struct{}

type CartLineOutput struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

type CartOutput struct {
	Lines      []CartLineOutput `json:"lines"`
	Count      int              `json:"count"`
	Subtotal   string           `json:"subtotal"`
	Shipping   string           `json:"shipping"`
	Tax        string           `json:"tax"`
	GrandTotal string           `json:"grand_total"`
}

type CartAddInput struct {
	ProductID string `json:"product_id" jsonschema:"description=Product ID"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"description=Units to add (default 1)"`
}

type CartUpdateInput struct {
	ProductID string `json:"product_id" jsonschema:"description=Product ID"`
	Quantity  int    `json:"quantity" jsonschema:"description=New quantity; 0 or less removes the line"`
}

type CartRemoveInput struct {
	ProductID string `json:"product_id" jsonschema:"description=Product ID"`
}

type WhoamiInput struct{}

type WhoamiOutput struct {
	Authenticated bool   `json:"authenticated"`
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
}

// Tool handlers

func (s *Server) handleProducts(ctx context.Context, input ProductsInput) (ProductsOutput, error) {
	q := catalog.DefaultQuery()
	if input.Query != "" {
		var err error
		if q, err = catalog.ParseQueryString(input.Query); err != nil {
			return ProductsOutput{}, err
		}
	}
	for key, value := range map[string]string{
		catalog.KeyCategory: input.Category,
		catalog.KeyMinPrice: input.MinPrice,
		catalog.KeyMaxPrice: input.MaxPrice,
		catalog.KeySort:     input.Sort,
		catalog.KeySearch:   input.Search,
	} {
		if value == "" {
			continue
		}
		var err error
		if q, err = q.With(key, value); err != nil {
			return ProductsOutput{}, err
		}
	}

	products, err := s.catalog.Products(ctx, q)
	if err != nil {
		return ProductsOutput{}, fmt.Errorf("list products: %s", domain.MessageOf(err))
	}

	out := ProductsOutput{Query: q.Encode(), Products: make([]ProductItem, 0, len(products))}
	for _, p := range products {
		out.Products = append(out.Products, ProductItem{
			ID:       p.ID,
			Name:     p.Name,
			Price:    domain.MoneyFromFloat(p.Price).String(),
			Category: p.Category,
			Rating:   p.Rating.Average,
		})
	}
	return out, nil
}

func (s *Server) handleProduct(ctx context.Context, input ProductInput) (ProductOutput, error) {
	p, err := s.catalog.Product(ctx, input.ProductID)
	if err != nil {
		return ProductOutput{}, fmt.Errorf("get product: %s", domain.MessageOf(err))
	}

	out := ProductOutput{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          domain.MoneyFromFloat(p.Price).String(),
		Category:       p.Category,
		InStock:        p.InStock(),
		Inventory:      p.Inventory,
		Images:         p.Images,
		Features:       p.Features,
		Specifications: p.Specifications,
		Rating:         p.Rating.Average,
		RatingCount:    p.Rating.Count,
	}
	if p.ComparePrice != nil {
		out.ComparePrice = domain.MoneyFromFloat(*p.ComparePrice).String()
	}
	return out, nil
}

func (s *Server) handleCart(ctx context.Context, input CartInput) (CartOutput, error) {
	return s.cartOutput(), nil
}

func (s *Server) handleCartAdd(ctx context.Context, input CartAddInput) (CartOutput, error) {
	if input.Quantity < 0 {
		return CartOutput{}, domain.NewValidationError("quantity", "quantity must be at least 1", domain.ErrInvalidQuantity)
	}
	p, err := s.catalog.Product(ctx, input.ProductID)
	if err != nil {
		return CartOutput{}, fmt.Errorf("get product: %s", domain.MessageOf(err))
	}
	if err := s.cart.AddProduct(ctx, p.Summary(), input.Quantity); err != nil {
		return CartOutput{}, err
	}
	return s.cartOutput(), nil
}

func (s *Server) handleCartUpdate(ctx context.Context, input CartUpdateInput) (CartOutput, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return CartOutput{}, domain.ErrMissingProduct
	}
	if err := s.cart.UpdateQuantity(ctx, input.ProductID, input.Quantity); err != nil {
		return CartOutput{}, err
	}
	return s.cartOutput(), nil
}

func (s *Server) handleCartRemove(ctx context.Context, input CartRemoveInput) (CartOutput, error) {
	if err := s.cart.RemoveItem(ctx, input.ProductID); err != nil {
		return CartOutput{}, err
	}
	return s.cartOutput(), nil
}

func (s *Server) handleWhoami(ctx context.Context, input WhoamiInput) (WhoamiOutput, error) {
	user := s.session.User()
	if user == nil {
		return WhoamiOutput{}, nil
	}
	return WhoamiOutput{
		Authenticated: true,
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
	}, nil
}

func (s *Server) cartOutput() CartOutput {
	summary := s.cart.Summary()
	out := CartOutput{
		Lines:      make([]CartLineOutput, 0, len(summary.Lines)),
		Count:      summary.Count,
		Subtotal:   summary.Totals.Subtotal.String(),
		Shipping:   summary.Totals.Shipping.String(),
		Tax:        summary.Totals.Tax.String(),
		GrandTotal: summary.Totals.GrandTotal.String(),
	}
	for _, line := range summary.Lines {
		out.Lines = append(out.Lines, CartLineOutput{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: domain.MoneyFromFloat(line.UnitPrice).String(),
			Quantity:  line.Quantity,
			Total:     line.Total().String(),
		})
	}
	return out
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
