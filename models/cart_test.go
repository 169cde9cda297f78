package models_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/pricing"
)

func vehicleItem(ref primitive.ObjectID, price float64, qty int) models.CartItem {
	return models.CartItem{
		ServiceType:  models.Vehicle,
		ResourceRefs: models.NewRefs(models.Vehicle, ref),
		Name:         "Toyota KDH Van",
		UnitPrice:    price,
		Qty:          qty,
	}
}

func assertTotals(t *testing.T, c *models.Cart) {
	t.Helper()
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, it.Line())
	}
	assert.Equal(t, pricing.Subtotal(lines), c.Subtotal)
	assert.Equal(t, pricing.Total(c.Subtotal, pricing.Adjustments{Discount: c.Discount, Tax: c.Tax, Fees: c.Fees}), c.Total)
	assert.GreaterOrEqual(t, c.Total, 0.0)
}

func TestNewCart_Empty(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	assert.NotNil(t, c.Items)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0.0, c.Total)
	assert.Equal(t, models.DefaultCurrency, c.Currency)
}

func TestAddItem_MergesSameOffering(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	ref := primitive.NewObjectID()

	c.AddItem(vehicleItem(ref, 100, 1))
	c.AddItem(vehicleItem(ref, 100, 1))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Qty)
	assert.Equal(t, 200.0, c.Subtotal)
	assert.Equal(t, 200.0, c.Total)
}

func TestAddItem_DistinctOfferingsAppend(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	ref := primitive.NewObjectID()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	c.AddItem(vehicleItem(ref, 100, 1))
	c.AddItem(vehicleItem(ref, 120, 1)) // different price

	dated := vehicleItem(ref, 100, 1)
	dated.StartDate = &day
	c.AddItem(dated) // different window

	other := vehicleItem(ref, 100, 1)
	other.ServiceType = models.Accommodation
	other.ResourceRefs = models.NewRefs(models.Accommodation, ref)
	c.AddItem(other) // same id, different type

	assert.Len(t, c.Items, 4)
	assert.Equal(t, 420.0, c.Subtotal)
}

func TestAddItem_MergeComparesDatesByInstant(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	ref := primitive.NewObjectID()
	utc := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	colombo := utc.In(time.FixedZone("IST", 5*3600+1800))

	a := vehicleItem(ref, 50, 1)
	a.StartDate = &utc
	b := vehicleItem(ref, 50, 3)
	b.StartDate = &colombo

	c.AddItem(a)
	c.AddItem(b)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 4, c.Items[0].Qty)
}

func TestUpdateItem(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	added := c.AddItem(vehicleItem(primitive.NewObjectID(), 100, 2))

	zero := 0
	notes := "airport pickup"
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.UpdateItem(added.ID, models.ItemPatch{
		Qty:       &zero,
		Notes:     &notes,
		StartDate: models.OptionalTime{Set: true, Value: &start},
	}))
	assert.Equal(t, 1, c.Items[0].Qty, "qty is clamped to 1")
	assert.Equal(t, "airport pickup", c.Items[0].Notes)
	assert.Equal(t, &start, c.Items[0].StartDate)
	assert.Equal(t, 100.0, c.Total)

	require.NoError(t, c.UpdateItem(added.ID, models.ItemPatch{StartDate: models.OptionalTime{Set: true}}))
	assert.Nil(t, c.Items[0].StartDate, "explicit null clears the date")
}

func TestUpdateItem_RejectsInvertedWindowWithoutMutating(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	added := c.AddItem(vehicleItem(primitive.NewObjectID(), 100, 1))
	start := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -2)
	qty := 9

	err := c.UpdateItem(added.ID, models.ItemPatch{
		Qty:       &qty,
		StartDate: models.OptionalTime{Set: true, Value: &start},
		EndDate:   models.OptionalTime{Set: true, Value: &end},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, 1, c.Items[0].Qty)
	assert.Nil(t, c.Items[0].StartDate)
	assertTotals(t, c)
}

func TestUpdateAndRemove_UnknownItem(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	c.AddItem(vehicleItem(primitive.NewObjectID(), 100, 1))

	err := c.UpdateItem(primitive.NewObjectID(), models.ItemPatch{})
	assert.Equal(t, 404, apperrors.StatusOf(err))
	err = c.RemoveItem(primitive.NewObjectID())
	assert.Equal(t, 404, apperrors.StatusOf(err))
	assert.Len(t, c.Items, 1)
}

func TestClear(t *testing.T) {
	c := models.NewCart("cust-1", time.Now())
	c.AddItem(vehicleItem(primitive.NewObjectID(), 100, 2))
	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0.0, c.Subtotal)
	assert.Equal(t, 0.0, c.Total)
}

// Random sequences of mutations must keep the stored totals consistent.
func TestCart_TotalsInvariantUnderRandomMutations(t *testing.T) {
	faker := gofakeit.New(42)
	refs := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}

	for run := 0; run < 50; run++ {
		c := models.NewCart(faker.UUID(), time.Now())
		for step := 0; step < 30; step++ {
			switch faker.IntRange(0, 4) {
			case 0, 1:
				it := vehicleItem(refs[faker.IntRange(0, len(refs)-1)], float64(faker.IntRange(0, 500))+0.25*float64(faker.IntRange(0, 3)), faker.IntRange(1, 4))
				it.ServiceType = models.ServiceTypes[faker.IntRange(0, 3)]
				ref, _ := it.ResourceRefs.For(models.Vehicle)
				it.ResourceRefs = models.NewRefs(it.ServiceType, ref)
				c.AddItem(it)
			case 2:
				if !c.IsEmpty() {
					qty := faker.IntRange(-2, 6)
					id := c.Items[faker.IntRange(0, len(c.Items)-1)].ID
					require.NoError(t, c.UpdateItem(id, models.ItemPatch{Qty: &qty}))
				}
			case 3:
				if !c.IsEmpty() {
					require.NoError(t, c.RemoveItem(c.Items[faker.IntRange(0, len(c.Items)-1)].ID))
				}
			case 4:
				if faker.Bool() {
					c.Clear()
				}
			}
			assertTotals(t, c)
			for _, it := range c.Items {
				assert.GreaterOrEqual(t, it.Qty, 1)
				assert.True(t, it.ResourceRefs.Valid(it.ServiceType))
			}
		}
	}
}
