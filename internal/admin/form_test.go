package admin

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/storefront/internal/domain"
)

func validForm() ProductForm {
	return ProductForm{Name: "Lamp", Price: "20", Category: "c1"}
}

func TestProductForm_Build(t *testing.T) {
	form := validForm()
	form.ComparePrice = "25.5"
	form.Features = []string{"LED", "", " Dimmable "}
	form.RatingAverage = "4.5"
	form.RatingCount = "12"

	p, err := form.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.ComparePrice == nil || *p.ComparePrice != 25.5 {
		t.Errorf("ComparePrice = %v", p.ComparePrice)
	}
	if len(p.Features) != 2 || p.Features[1] != "Dimmable" {
		t.Errorf("Features = %v", p.Features)
	}
	if p.Rating.Average != 4.5 || p.Rating.Count != 12 {
		t.Errorf("Rating = %+v", p.Rating)
	}
	if p.Images == nil || p.Specifications == nil {
		t.Error("empty collections should encode as [] and {}")
	}
}

func TestProductForm_BuildDefaults(t *testing.T) {
	p, err := validForm().Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Inventory != 0 || p.Rating != (domain.Rating{}) || p.ComparePrice != nil {
		t.Errorf("defaults = %+v", p)
	}
}

func TestProductForm_BuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductForm)
		field  string
		want   error
	}{
		{"missing name", func(f *ProductForm) { f.Name = " " }, "name", domain.ErrInvalidInput},
		{"missing category", func(f *ProductForm) { f.Category = "" }, "category", domain.ErrInvalidInput},
		{"missing price", func(f *ProductForm) { f.Price = "" }, "price", domain.ErrInvalidPrice},
		{"bad price", func(f *ProductForm) { f.Price = "cheap" }, "price", domain.ErrInvalidPrice},
		{"negative compare", func(f *ProductForm) { f.ComparePrice = "-1" }, "comparePrice", domain.ErrInvalidPrice},
		{"bad inventory", func(f *ProductForm) { f.Inventory = "2.5" }, "inventory", domain.ErrInvalidQuantity},
		{"rating too high", func(f *ProductForm) { f.RatingAverage = "6" }, "rating.average", domain.ErrInvalidInput},
		{"bad rating count", func(f *ProductForm) { f.RatingCount = "many" }, "rating.count", domain.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, err := form.Build()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("field = %v, want %s", err, tt.field)
			}
		})
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		raw  string
		want Spec
	}{
		{"Color=Red", Spec{"Color", "Red"}},
		{"Weight: 2kg", Spec{"Weight", "2kg"}},
		{"Solo", Spec{Key: "Solo"}},
	}
	for _, tt := range tests {
		if got := ParseSpec(tt.raw); got != tt.want {
			t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}
