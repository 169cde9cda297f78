package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/pricing"
)

// DefaultCurrency is used for carts and drafts that do not name one.
const DefaultCurrency = "LKR"

// CartItem is one prospective purchase. The display fields are a snapshot
// taken when the item was added.
type CartItem struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	ServiceType ServiceType        `bson:"serviceType" json:"serviceType"`
	ResourceRefs `bson:",inline"`

	Name  string `bson:"name" json:"name"`
	Image string `bson:"image" json:"image"`
	Code  string `bson:"code" json:"code"`

	Currency  string  `bson:"currency" json:"currency"`
	UnitPrice float64 `bson:"unitPrice" json:"unitPrice"`
	Qty       int     `bson:"qty" json:"qty"`
	Pax       int     `bson:"pax,omitempty" json:"pax,omitempty"`

	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Duration  string     `bson:"duration,omitempty" json:"duration,omitempty"`
	Notes     string     `bson:"notes" json:"notes"`
}

// Line returns the priced view of the item.
func (it CartItem) Line() pricing.Line {
	return pricing.Line{UnitPrice: it.UnitPrice, Qty: it.Qty}
}

// mergeable reports whether other describes the same priced offering.
func (it CartItem) mergeable(other CartItem) bool {
	return it.ServiceType == other.ServiceType &&
		it.ResourceRefs.equal(other.ResourceRefs) &&
		sameTime(it.StartDate, other.StartDate) &&
		sameTime(it.EndDate, other.EndDate) &&
		it.UnitPrice == other.UnitPrice
}

// Cart is the per-customer staging area. Totals are written only by recalc.
type Cart struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Customer string             `bson:"customer" json:"customer"`
	Items    []CartItem         `bson:"items" json:"items"`
	Currency string             `bson:"currency" json:"currency"`

	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Discount float64 `bson:"discount" json:"discount"`
	Tax      float64 `bson:"tax" json:"tax"`
	Fees     float64 `bson:"fees" json:"fees"`
	Total    float64 `bson:"total" json:"total"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewCart returns an empty cart for customer.
func NewCart(customer string, now time.Time) *Cart {
	c := &Cart{
		ID:        primitive.NewObjectID(),
		Customer:  customer,
		Items:     []CartItem{},
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.recalc()
	return c
}

// ItemPatch carries the mutable fields of a cart item.
type ItemPatch struct {
	Qty       *int         `json:"qty"`
	Notes     *string      `json:"notes"`
	StartDate OptionalTime `json:"startDate"`
	EndDate   OptionalTime `json:"endDate"`
}

// AddItem merges draft into a matching item or appends it. The returned item
// is the row that now holds draft's quantity.
func (c *Cart) AddItem(draft CartItem) CartItem {
	if draft.Qty < 1 {
		draft.Qty = 1
	}
	defer c.recalc()

	for i := range c.Items {
		if c.Items[i].mergeable(draft) {
			c.Items[i].Qty += draft.Qty
			return c.Items[i]
		}
	}
	if draft.ID.IsZero() {
		draft.ID = primitive.NewObjectID()
	}
	if draft.Currency == "" {
		draft.Currency = c.Currency
	}
	c.Items = append(c.Items, draft)
	return draft
}

// UpdateItem applies patch to the item with the given id.
func (c *Cart) UpdateItem(id primitive.ObjectID, patch ItemPatch) error {
	it := c.find(id)
	if it == nil {
		return apperrors.NotFound("Item not found")
	}
	start, end := it.StartDate, it.EndDate
	if patch.StartDate.Set {
		start = patch.StartDate.Value
	}
	if patch.EndDate.Set {
		end = patch.EndDate.Value
	}
	if start != nil && end != nil && end.Before(*start) {
		return apperrors.Validation("endDate must not be before startDate")
	}

	it.StartDate, it.EndDate = start, end
	if patch.Qty != nil {
		it.Qty = max(1, *patch.Qty)
	}
	if patch.Notes != nil {
		it.Notes = *patch.Notes
	}
	c.recalc()
	return nil
}

// RemoveItem deletes the item with the given id.
func (c *Cart) RemoveItem(id primitive.ObjectID) error {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.recalc()
			return nil
		}
	}
	return apperrors.NotFound("Item not found")
}

// Clear empties the cart. The document itself is kept.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.recalc()
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) find(id primitive.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) recalc() {
	lines := make([]pricing.Line, len(c.Items))
	for i, it := range c.Items {
		lines[i] = it.Line()
	}
	c.Subtotal = pricing.Subtotal(lines)
	c.Total = pricing.Total(c.Subtotal, pricing.Adjustments{Discount: c.Discount, Tax: c.Tax, Fees: c.Fees})
}

// Clone returns a copy whose item slice can be mutated independently.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
