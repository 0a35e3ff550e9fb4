package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Instant Noodles":       "instant-noodles",
		"  Wai Wai (Chicken)  ": "wai-wai-chicken",
		"Rice--5kg/Bag":         "rice-5kg-bag",
		"!!!":                   "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestProductFigures(t *testing.T) {
	p := &Product{
		Price:         decimal.RequireFromString("120.00"),
		Cost:          decimal.RequireFromString("90.00"),
		StockQuantity: 12,
		ReorderLevel:  10,
	}
	if !p.Margin().Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected margin 30, got %s", p.Margin())
	}
	if !p.MarginPercent().Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected margin 25%%, got %s", p.MarginPercent())
	}
	if p.NeedsReorder() {
		t.Fatal("stock above reorder level")
	}
	p.StockQuantity = 10
	if !p.NeedsReorder() {
		t.Fatal("stock at reorder level needs reorder")
	}

	free := &Product{}
	if !free.MarginPercent().IsZero() {
		t.Fatalf("expected zero margin percent without price, got %s", free.MarginPercent())
	}
}
