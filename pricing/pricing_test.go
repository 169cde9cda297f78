package pricing_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/LakshanUd/sl-go-tour-backend/pricing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name string
		line pricing.Line
		want float64
	}{
		{"plain", pricing.Line{UnitPrice: 100, Qty: 2}, 200},
		{"adjusted", pricing.Line{UnitPrice: 50, Qty: 3, Discount: 20, Tax: 7.5, Fees: 2.5}, 140},
		{"discount beyond gross floors at zero", pricing.Line{UnitPrice: 10, Qty: 1, Discount: 25}, 0},
		{"negative unit price is clamped before adjustments", pricing.Line{UnitPrice: -10, Qty: 2, Tax: 3}, 3},
		{"zero qty", pricing.Line{UnitPrice: 99, Qty: 0, Fees: 1}, 1},
		{"decimal exact", pricing.Line{UnitPrice: 0.1, Qty: 3}, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.LineTotal(tt.line))
		})
	}
}

func TestBookingTotals(t *testing.T) {
	lines := []pricing.Line{
		{UnitPrice: 100, Qty: 2, Discount: 50},
		{UnitPrice: 19.99, Qty: 1},
	}

	got := pricing.BookingTotals(lines, pricing.Adjustments{Discount: 10, Tax: 5})
	want := pricing.Totals{ItemsSubtotal: 219.99, Discount: 10, Tax: 5, GrandTotal: 214.99}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BookingTotals mismatch (-want +got):\n%s", diff)
	}

	floored := pricing.BookingTotals(lines, pricing.Adjustments{Discount: 1000})
	assert.Equal(t, 0.0, floored.GrandTotal)

	empty := pricing.BookingTotals(nil, pricing.Adjustments{})
	assert.Equal(t, pricing.Totals{}, empty)
}

func TestSubtotalAndTotal(t *testing.T) {
	lines := []pricing.Line{{UnitPrice: 100, Qty: 2}, {UnitPrice: 0.1, Qty: 3}}
	assert.Equal(t, 200.3, pricing.Subtotal(lines))
	assert.Equal(t, 190.3, pricing.Total(200.3, pricing.Adjustments{Discount: 20, Fees: 10}))
	assert.Equal(t, 0.0, pricing.Total(5, pricing.Adjustments{Discount: 6}))
}

func TestDeriveWindow(t *testing.T) {
	d := func(s string) *time.Time {
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return &v
	}

	start, end := pricing.DeriveWindow([]pricing.Span{
		{Start: d("2025-03-05"), End: d("2025-03-07")},
		{},
		{Start: d("2025-03-01")},
		{End: d("2025-03-10")},
	})
	assert.Equal(t, d("2025-03-01"), start)
	assert.Equal(t, d("2025-03-10"), end)

	start, end = pricing.DeriveWindow([]pricing.Span{{}, {}})
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestDeriveWindow_DoesNotAliasInput(t *testing.T) {
	s := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	start, _ := pricing.DeriveWindow([]pricing.Span{{Start: &s}})
	s = s.AddDate(1, 0, 0)
	assert.Equal(t, 2025, start.Year())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(20000), pricing.MinorUnits(200))
	assert.Equal(t, int64(1999), pricing.MinorUnits(19.99))
	assert.Equal(t, int64(1), pricing.MinorUnits(0.005))
	assert.Equal(t, int64(30), pricing.MinorUnits(0.1*3))
}
