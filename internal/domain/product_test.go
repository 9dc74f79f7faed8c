package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestProduct_UnmarshalJSON(t *testing.T) {
	input := `{"_id":"p1","name":"Lamp","price":25.5,"images":["a.png","b.png"],"category":"Home","rating":4.5}`

	var p Product
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if p.ID != "p1" {
		t.Errorf("ID = %q, want p1", p.ID)
	}
	if p.Image != "a.png" {
		t.Errorf("Image = %q, want a.png", p.Image)
	}
	if p.Rating.Average != 4.5 {
		t.Errorf("Rating.Average = %v, want 4.5", p.Rating.Average)
	}
}

func TestRating_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantAvg   float64
		wantCount int
	}{
		{"number", `3.5`, 3.5, 0},
		{"object", `{"average":4.2,"count":17}`, 4.2, 17},
		{"null", `null`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Rating
			if err := json.Unmarshal([]byte(tt.input), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.Average != tt.wantAvg || r.Count != tt.wantCount {
				t.Errorf("Rating = %+v, want {%v %d}", r, tt.wantAvg, tt.wantCount)
			}
		})
	}
}

func TestCategory_UnmarshalJSON(t *testing.T) {
	for _, input := range []string{`{"_id":"c1","name":"Books"}`, `{"id":"c1","name":"Books"}`} {
		var c Category
		if err := json.Unmarshal([]byte(input), &c); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", input, err)
		}
		if c.ID != "c1" || c.Name != "Books" {
			t.Errorf("Unmarshal(%s) = %+v", input, c)
		}
	}
}

func TestProductDetail_Summary(t *testing.T) {
	d := ProductDetail{ID: "p9", Name: "Chair", Price: 80, Images: []string{"c.png"}, Inventory: 0}

	s := d.Summary()
	if s.ID != "p9" || s.Image != "c.png" || s.Price != 80 {
		t.Errorf("Summary() = %+v", s)
	}
	if d.InStock() {
		t.Error("InStock() = true, want false")
	}
}

func TestCartLine_Validate(t *testing.T) {
	tests := []struct {
		name    string
		line    CartLine
		wantErr error
	}{
		{"valid", CartLine{ProductID: "p", UnitPrice: 1, Quantity: 1}, nil},
		{"missing id", CartLine{UnitPrice: 1, Quantity: 1}, ErrMissingProduct},
		{"negative price", CartLine{ProductID: "p", UnitPrice: -1, Quantity: 1}, ErrInvalidPrice},
		{"NaN price", CartLine{ProductID: "p", UnitPrice: math.NaN(), Quantity: 1}, ErrInvalidPrice},
		{"infinite price", CartLine{ProductID: "p", UnitPrice: math.Inf(1), Quantity: 1}, ErrInvalidPrice},
		{"negative infinite price", CartLine{ProductID: "p", UnitPrice: math.Inf(-1), Quantity: 1}, ErrInvalidPrice},
		{"zero quantity", CartLine{ProductID: "p", UnitPrice: 1, Quantity: 0}, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
