// Package catalog binds the product-list filters to the navigable URL and
// fetches products through the gateway.
package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/storefront/internal/domain"
)

// Filter keys as they appear in the query string.
const (
	KeyCategory = "category"
	KeyMinPrice = "minPrice"
	KeyMaxPrice = "maxPrice"
	KeySort     = "sort"
	KeySearch   = "search"
)

// Sort is a product ordering.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating"
)

// SortOption pairs a sort value with its display label.
type SortOption struct {
	Value Sort
	Label string
}

// SortOptions lists the orderings in display order.
var SortOptions = []SortOption{
	{SortNewest, "Newest Arrivals"},
	{SortPriceAsc, "Price: Low to High"},
	{SortPriceDesc, "Price: High to Low"},
	{SortRating, "Highest Rated"},
}

// Valid reports whether s is a known ordering.
func (s Sort) Valid() bool {
	for _, opt := range SortOptions {
		if opt.Value == s {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value when unknown.
func (s Sort) Label() string {
	for _, opt := range SortOptions {
		if opt.Value == s {
			return opt.Label
		}
	}
	return string(s)
}

// Query is the product-list filter set. Empty fields mean "any".
type Query struct {
	Category string
	MinPrice string
	MaxPrice string
	Sort     Sort
	Search   string
}

// DefaultQuery lists all products, newest first.
func DefaultQuery() Query {
	return Query{Sort: SortNewest}
}

// ParseQuery reads a query from URL parameters. Missing fields default;
// an unknown sort or a malformed price bound is treated as missing.
func ParseQuery(v url.Values) Query {
	q := DefaultQuery()
	q.Category = strings.TrimSpace(v.Get(KeyCategory))
	q.Search = strings.TrimSpace(v.Get(KeySearch))
	if s := Sort(v.Get(KeySort)); s.Valid() {
		q.Sort = s
	}
	if p := v.Get(KeyMinPrice); validPrice(p) == nil {
		q.MinPrice = strings.TrimSpace(p)
	}
	if p := v.Get(KeyMaxPrice); validPrice(p) == nil {
		q.MaxPrice = strings.TrimSpace(p)
	}
	return q
}

// ParseQueryString parses a raw "category=X&sort=rating" string.
func ParseQueryString(raw string) (Query, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return Query{}, fmt.Errorf("parse query: %w", err)
	}
	return ParseQuery(v), nil
}

// Values renders the full filter set. Empty fields are omitted; sort is
// always present.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set(KeyCategory, q.Category)
	set(KeyMinPrice, q.MinPrice)
	set(KeyMaxPrice, q.MaxPrice)
	set(KeySearch, q.Search)

	sort := q.Sort
	if sort == "" {
		sort = SortNewest
	}
	v.Set(KeySort, string(sort))
	return v
}

// Encode renders the query string, keys sorted.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// With returns a copy with one field changed.
func (q Query) With(key, value string) (Query, error) {
	value = strings.TrimSpace(value)
	switch key {
	case KeyCategory:
		q.Category = value
	case KeySearch:
		q.Search = value
	case KeySort:
		s := Sort(value)
		if value == "" {
			s = SortNewest
		}
		if !s.Valid() {
			return q, domain.NewValidationError(key, fmt.Sprintf("unknown sort option %q", value), domain.ErrInvalidSort)
		}
		q.Sort = s
	case KeyMinPrice, KeyMaxPrice:
		if err := validPrice(value); err != nil {
			return q, domain.NewValidationError(key, err.Error(), domain.ErrInvalidPrice)
		}
		if key == KeyMinPrice {
			q.MinPrice = value
		} else {
			q.MaxPrice = value
		}
	default:
		return q, domain.NewValidationError(key, fmt.Sprintf("unknown filter %q", key), domain.ErrUnknownFilter)
	}
	return q, nil
}

// validPrice accepts an empty bound or a non-negative number.
func validPrice(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("price must be a number")
	}
	if f < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}
