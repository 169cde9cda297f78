package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LakshanUd/sl-go-tour-backend/database"
	"github.com/LakshanUd/sl-go-tour-backend/models"
)

// CartRepository persists one cart document per customer.
type CartRepository interface {
	FindByCustomer(ctx context.Context, customer string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
}

type mongoCartRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{collection: db.Collection(database.CartsCollection), now: time.Now}
}

func (r *mongoCartRepository) FindByCustomer(ctx context.Context, customer string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.collection.FindOne(ctx, bson.M{"customer": customer}).Decode(&cart); err != nil {
		if err = translate(err); err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Create inserts a new cart. ErrDuplicate means another request created the
// customer's cart first.
func (r *mongoCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if _, err := r.collection.InsertOne(ctx, cart); err != nil {
		if err = translate(err); err == ErrDuplicate {
			return err
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Save replaces the whole document, items and totals together.
func (r *mongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = r.now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"customer": cart.Customer}, cart, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
