package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LakshanUd/sl-go-tour-backend/models"
)

// ResolveBooking looks id up as a business id (BK-...) first and falls back
// to the storage ObjectID when id is a valid hex id. It returns ErrNotFound
// when neither matches.
func ResolveBooking(ctx context.Context, f BookingFinder, id string) (*models.Booking, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	b, err := f.FindByBookingID(ctx, id)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return b, err
	}

	oid, hexErr := primitive.ObjectIDFromHex(id)
	if hexErr != nil {
		return nil, ErrNotFound
	}
	return f.FindByID(ctx, oid)
}
