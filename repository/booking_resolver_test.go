package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LakshanUd/sl-go-tour-backend/models"
)

type fakeFinder struct {
	byBusiness map[string]*models.Booking
	byID       map[primitive.ObjectID]*models.Booking
	calls      []string
	err        error
}

func (f *fakeFinder) FindByBookingID(_ context.Context, id string) (*models.Booking, error) {
	f.calls = append(f.calls, "business")
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.byBusiness[id]; ok {
		return b, nil
	}
	return nil, ErrNotFound
}

func (f *fakeFinder) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	f.calls = append(f.calls, "storage")
	if b, ok := f.byID[id]; ok {
		return b, nil
	}
	return nil, ErrNotFound
}

func TestResolveBooking_Precedence(t *testing.T) {
	b := &models.Booking{ID: primitive.NewObjectID(), BookingID: "BK-20250101-ABCD"}
	f := &fakeFinder{
		byBusiness: map[string]*models.Booking{b.BookingID: b},
		byID:       map[primitive.ObjectID]*models.Booking{b.ID: b},
	}
	ctx := context.Background()

	got, err := ResolveBooking(ctx, f, b.BookingID)
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, []string{"business"}, f.calls)

	f.calls = nil
	got, err = ResolveBooking(ctx, f, b.ID.Hex())
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, []string{"business", "storage"}, f.calls)
}

func TestResolveBooking_NotFound(t *testing.T) {
	f := &fakeFinder{}
	ctx := context.Background()

	_, err := ResolveBooking(ctx, f, "BK-nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"business"}, f.calls, "non-hex ids never hit the storage lookup")

	_, err = ResolveBooking(ctx, f, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ResolveBooking(ctx, f, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveBooking_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	f := &fakeFinder{err: boom}
	_, err := ResolveBooking(context.Background(), f, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"business"}, f.calls)
}
