package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LakshanUd/sl-go-tour-backend/pricing"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusOngoing   BookingStatus = "ongoing"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
	StatusRefunded  BookingStatus = "refunded"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusOngoing, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRefunded:
		return true
	}
	return false
}

// Terminal states accept no forward transition other than the admin-only
// side branches.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusRefunded, StatusNoShow:
		return true
	}
	return false
}

// forward edges of the booking lifecycle
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusOngoing, StatusCancelled},
	StatusOngoing:   {StatusCompleted},
}

// CanTransition reports whether a booking may move from s to next. Any state
// may move to no_show or refunded. Staying put is always allowed.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s == next || next == StatusNoShow || next == StatusRefunded {
		return true
	}
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// OwnerCancellable reports whether the owning customer may cancel.
func (s BookingStatus) OwnerCancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// BookingItem is an immutable priced line captured at booking time.
type BookingItem struct {
	ServiceType  ServiceType `bson:"serviceType" json:"serviceType"`
	ResourceRefs `bson:",inline"`

	Name  string `bson:"name" json:"name"`
	Code  string `bson:"code" json:"code"`
	Image string `bson:"image" json:"image"`

	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Duration  string     `bson:"duration,omitempty" json:"duration,omitempty"`

	Qty   int    `bson:"qty" json:"qty"`
	Pax   int    `bson:"pax" json:"pax"`
	Notes string `bson:"notes" json:"notes"`

	Currency  string  `bson:"currency" json:"currency"`
	UnitPrice float64 `bson:"unitPrice" json:"unitPrice"`
	Discount  float64 `bson:"discount" json:"discount"`
	Tax       float64 `bson:"tax" json:"tax"`
	Fees      float64 `bson:"fees" json:"fees"`
	LineTotal float64 `bson:"lineTotal" json:"lineTotal"`
}

func (it BookingItem) Line() pricing.Line {
	return pricing.Line{UnitPrice: it.UnitPrice, Qty: it.Qty, Discount: it.Discount, Tax: it.Tax, Fees: it.Fees}
}

// Ref returns the referenced resource id.
func (it BookingItem) Ref() (primitive.ObjectID, bool) {
	return it.ResourceRefs.For(it.ServiceType)
}

// Priced returns it with LineTotal recomputed.
func (it BookingItem) Priced() BookingItem {
	it.LineTotal = pricing.LineTotal(it.Line())
	return it
}

// BookingItemFromCart snapshots a cart item. Line adjustments start at zero.
func BookingItemFromCart(it CartItem) BookingItem {
	pax := it.Pax
	if pax == 0 {
		pax = 1
	}
	return BookingItem{
		ServiceType:  it.ServiceType,
		ResourceRefs: it.ResourceRefs,
		Name:         it.Name,
		Code:         it.Code,
		Image:        it.Image,
		StartDate:    it.StartDate,
		EndDate:      it.EndDate,
		Duration:     it.Duration,
		Qty:          it.Qty,
		Pax:          pax,
		Notes:        it.Notes,
		Currency:     it.Currency,
		UnitPrice:    it.UnitPrice,
	}.Priced()
}

type Guests struct {
	Adults   int `bson:"adults" json:"adults" validate:"min=0"`
	Children int `bson:"children" json:"children" validate:"min=0"`
}

// Booking is the order of record.
type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	BookingID string             `bson:"bookingID" json:"bookingID"`
	Customer  string             `bson:"customer" json:"customer"`
	Channel   string             `bson:"channel" json:"channel"`

	Items     []BookingItem `bson:"items" json:"items"`
	StartDate *time.Time    `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time    `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Guests    Guests        `bson:"guests" json:"guests"`

	Currency      string  `bson:"currency" json:"currency"`
	ItemsSubtotal float64 `bson:"itemsSubtotal" json:"itemsSubtotal"`
	Discount      float64 `bson:"discount" json:"discount"`
	Tax           float64 `bson:"tax" json:"tax"`
	Fees          float64 `bson:"fees" json:"fees"`
	GrandTotal    float64 `bson:"grandTotal" json:"grandTotal"`

	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	Notes         string        `bson:"notes" json:"notes"`

	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy string     `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`

	PaymentSessionID string     `bson:"paymentSessionId,omitempty" json:"paymentSessionId,omitempty"`
	PaidAt           *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	// FulfilledAt is set once every post-payment side effect has been applied.
	FulfilledAt *time.Time `bson:"fulfilledAt,omitempty" json:"fulfilledAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Reprice recomputes every line total, the order totals and the date window.
func (b *Booking) Reprice() {
	lines := make([]pricing.Line, len(b.Items))
	spans := make([]pricing.Span, len(b.Items))
	for i := range b.Items {
		b.Items[i] = b.Items[i].Priced()
		lines[i] = b.Items[i].Line()
		spans[i] = pricing.Span{Start: b.Items[i].StartDate, End: b.Items[i].EndDate}
	}
	t := pricing.BookingTotals(lines, pricing.Adjustments{Discount: b.Discount, Tax: b.Tax, Fees: b.Fees})
	b.ItemsSubtotal = t.ItemsSubtotal
	b.GrandTotal = t.GrandTotal
	b.StartDate, b.EndDate = pricing.DeriveWindow(spans)
}

// Cancel moves the booking to cancelled and stamps who did it.
func (b *Booking) Cancel(by string, now time.Time) {
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.CancelledBy = by
	b.UpdatedAt = now
}

// IsFulfilled reports whether the payment cascade already completed.
func (b *Booking) IsFulfilled() bool {
	return b.PaymentStatus == PaymentPaid && b.FulfilledAt != nil
}

// ReservedResources groups the referenced ids by service type, de-duplicated.
func (b *Booking) ReservedResources() map[ServiceType][]primitive.ObjectID {
	out := make(map[ServiceType][]primitive.ObjectID)
	seen := make(map[primitive.ObjectID]bool)
	for _, it := range b.Items {
		id, ok := it.Ref()
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out[it.ServiceType] = append(out[it.ServiceType], id)
	}
	return out
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingID returns a business id of the form BK-YYYYMMDD-XXXX.
func NewBookingID(now time.Time) string {
	u := uuid.New()
	var sb strings.Builder
	for _, b := range u[:4] {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102"), sb.String())
}
