// Package pricing computes line and order totals. All arithmetic runs on
// decimals; amounts enter and leave as float64 rounded to cents.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

const scale = 2

// Line is the priced part of a cart or booking item.
type Line struct {
	UnitPrice float64
	Qty       int
	Discount  float64
	Tax       float64
	Fees      float64
}

// Adjustments are order level discount, tax and fees.
type Adjustments struct {
	Discount float64
	Tax      float64
	Fees     float64
}

// Totals is the aggregate of a set of lines.
type Totals struct {
	ItemsSubtotal float64
	Discount      float64
	Tax           float64
	Fees          float64
	GrandTotal    float64
}

// Span is an optional date window of one item.
type Span struct {
	Start *time.Time
	End   *time.Time
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func floor0(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func out(d decimal.Decimal) float64 {
	return d.Round(scale).InexactFloat64()
}

func gross(unitPrice float64, qty int) decimal.Decimal {
	return floor0(dec(unitPrice).Mul(decimal.NewFromInt(int64(qty))))
}

// Gross returns max(0, unitPrice*qty).
func Gross(unitPrice float64, qty int) float64 {
	return out(gross(unitPrice, qty))
}

// LineTotal returns max(0, max(0, unitPrice*qty) - discount + tax + fees).
func LineTotal(l Line) float64 {
	t := gross(l.UnitPrice, l.Qty).Sub(dec(l.Discount)).Add(dec(l.Tax)).Add(dec(l.Fees))
	return out(floor0(t))
}

// Subtotal sums the gross of every line. Line level adjustments are ignored.
func Subtotal(lines []Line) float64 {
	return out(subtotal(lines))
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(gross(l.UnitPrice, l.Qty))
	}
	return sum
}

// Total applies order level adjustments to a subtotal, floored at zero.
func Total(subtotal float64, adj Adjustments) float64 {
	return out(total(dec(subtotal), adj))
}

func total(sub decimal.Decimal, adj Adjustments) decimal.Decimal {
	return floor0(sub.Sub(dec(adj.Discount)).Add(dec(adj.Tax)).Add(dec(adj.Fees)))
}

// BookingTotals computes itemsSubtotal and grandTotal for lines under adj.
func BookingTotals(lines []Line, adj Adjustments) Totals {
	sub := subtotal(lines)
	return Totals{
		ItemsSubtotal: out(sub),
		Discount:      adj.Discount,
		Tax:           adj.Tax,
		Fees:          adj.Fees,
		GrandTotal:    out(total(sub, adj)),
	}
}

// DeriveWindow returns the earliest start and the latest end across spans.
// Either bound is nil when no span carries it.
func DeriveWindow(spans []Span) (start, end *time.Time) {
	for _, s := range spans {
		if s.Start != nil && (start == nil || s.Start.Before(*start)) {
			t := *s.Start
			start = &t
		}
		if s.End != nil && (end == nil || s.End.After(*end)) {
			t := *s.End
			end = &t
		}
	}
	return start, end
}

// MinorUnits converts an amount to the smallest currency unit (cents),
// rounding half away from zero.
func MinorUnits(amount float64) int64 {
	return dec(amount).Shift(scale).Round(0).IntPart()
}
