package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LakshanUd/sl-go-tour-backend/database"
	"github.com/LakshanUd/sl-go-tour-backend/models"
)

// ResourceRepository reads and flips the status of bookable resources. The
// resource documents themselves are owned by the catalogue services.
type ResourceRepository interface {
	Exists(ctx context.Context, t models.ServiceType, id primitive.ObjectID) (bool, error)
	// SetStatus sets status on every listed resource and returns how many
	// documents matched.
	SetStatus(ctx context.Context, t models.ServiceType, ids []primitive.ObjectID, status string) (int64, error)
}

type mongoResourceRepository struct {
	db *mongo.Database
}

func NewMongoResourceRepository(db *mongo.Database) ResourceRepository {
	return &mongoResourceRepository{db: db}
}

func collectionFor(t models.ServiceType) (string, error) {
	switch t {
	case models.Accommodation:
		return database.AccommodationsCollection, nil
	case models.Meal:
		return database.MealsCollection, nil
	case models.TourPackage:
		return database.TourPackagesCollection, nil
	case models.Vehicle:
		return database.VehiclesCollection, nil
	}
	return "", fmt.Errorf("unknown service type %q", t)
}

func (r *mongoResourceRepository) Exists(ctx context.Context, t models.ServiceType, id primitive.ObjectID) (bool, error) {
	name, err := collectionFor(t)
	if err != nil {
		return false, err
	}
	n, err := r.db.Collection(name).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", t, err)
	}
	return n > 0, nil
}

func (r *mongoResourceRepository) SetStatus(ctx context.Context, t models.ServiceType, ids []primitive.ObjectID, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	name, err := collectionFor(t)
	if err != nil {
		return 0, err
	}
	res, err := r.db.Collection(name).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s status: %w", t, err)
	}
	return res.MatchedCount, nil
}
