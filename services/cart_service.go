package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/repository"
)

// CartService manages the caller's cart. Every mutation loads the document,
// applies the change with totals recomputed, and writes it back whole.
type CartService interface {
	Get(ctx context.Context, caller models.Caller) (*models.Cart, error)
	AddItem(ctx context.Context, caller models.Caller, in models.ItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, caller models.Caller, itemID string, patch models.ItemPatch) (*models.Cart, error)
	RemoveItem(ctx context.Context, caller models.Caller, itemID string) (*models.Cart, error)
	Clear(ctx context.Context, caller models.Caller) (*models.Cart, error)
}

type cartServiceImpl struct {
	carts  repository.CartRepository
	group  singleflight.Group
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(carts repository.CartRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, logger: logger, now: time.Now}
}

func requireCustomer(caller models.Caller) error {
	if caller.CustomerID == "" {
		return apperrors.Unauthenticated("You need to login first")
	}
	return nil
}

// getOrCreate returns the customer's cart, inserting an empty one on first
// access. Concurrent first accesses share one lookup.
func (s *cartServiceImpl) getOrCreate(ctx context.Context, customer string) (*models.Cart, error) {
	v, err, _ := s.group.Do(customer, func() (any, error) {
		cart, err := s.carts.FindByCustomer(ctx, customer)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		cart = models.NewCart(customer, s.now())
		if err := s.carts.Create(ctx, cart); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return s.carts.FindByCustomer(ctx, customer)
			}
			return nil, err
		}
		s.logger.Info("Cart created", zap.String("customer_id", customer))
		return cart, nil
	})
	if err != nil {
		return nil, apperrors.Internal("failed to load cart", err)
	}
	return v.(*models.Cart).Clone(), nil
}

func (s *cartServiceImpl) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal("failed to save cart", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) Get(ctx context.Context, caller models.Caller) (*models.Cart, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, caller.CustomerID)
}

func (s *cartServiceImpl) AddItem(ctx context.Context, caller models.Caller, in models.ItemInput) (*models.Cart, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, caller.CustomerID)
	if err != nil {
		return nil, err
	}

	draft := in.CartItem()
	if draft.Currency == "" {
		draft.Currency = cart.Currency
	}
	item := cart.AddItem(draft)
	s.logger.Debug("Cart item added",
		zap.String("customer_id", caller.CustomerID),
		zap.String("item_id", item.ID.Hex()),
		zap.Int("qty", item.Qty),
	)
	return s.save(ctx, cart)
}

func parseItemID(itemID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("Invalid cart item id")
	}
	return id, nil
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, caller models.Caller, itemID string, patch models.ItemPatch) (*models.Cart, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	id, err := parseItemID(itemID)
	if err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, caller.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateItem(id, patch); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, caller models.Caller, itemID string) (*models.Cart, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	id, err := parseItemID(itemID)
	if err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, caller.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(id); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

func (s *cartServiceImpl) Clear(ctx context.Context, caller models.Caller) (*models.Cart, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, caller.CustomerID)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	return s.save(ctx, cart)
}
