package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LakshanUd/sl-go-tour-backend/database"
	"github.com/LakshanUd/sl-go-tour-backend/models"
)

// BookingFilter narrows List. An empty Customer lists every booking.
type BookingFilter struct {
	Customer string
	Status   models.BookingStatus
	Limit    int64
}

type BookingRepository interface {
	BookingFinder
	Create(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	Replace(ctx context.Context, b *models.Booking) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetPaymentSession(ctx context.Context, id primitive.ObjectID, sessionID string) error
	// MarkPaid flips an unpaid booking to paid/confirmed. It reports false
	// when the booking was already paid.
	MarkPaid(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	MarkFulfilled(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// BookingFinder looks bookings up by either of their identifiers.
type BookingFinder interface {
	FindByBookingID(ctx context.Context, bookingID string) (*models.Booking, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
}

type mongoBookingRepository struct {
	collection *mongo.Collection
}

func NewMongoBookingRepository(db *mongo.Database) BookingRepository {
	return &mongoBookingRepository{collection: db.Collection(database.BookingsCollection)}
}

func (r *mongoBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, b); err != nil {
		if err = translate(err); err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	var b models.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&b); err != nil {
		if err = translate(err); err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *mongoBookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"bookingID": bookingID})
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBookingRepository) List(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	filter := bson.M{}
	if f.Customer != "" {
		filter["customer"] = f.Customer
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	bookings := []models.Booking{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Replace(ctx context.Context, b *models.Booking) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) SetPaymentSession(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"paymentSessionId": sessionID,
		"updatedAt":        time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to store payment session: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "paymentStatus": bson.M{"$ne": models.PaymentPaid}},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentPaid,
			"status":        models.StatusConfirmed,
			"paidAt":        at,
			"updatedAt":     at,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark booking paid: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoBookingRepository) MarkFulfilled(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "fulfilledAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"fulfilledAt": at, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking fulfilled: %w", err)
	}
	return nil
}
