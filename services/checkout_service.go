package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/pricing"
	"github.com/LakshanUd/sl-go-tour-backend/repository"
)

const (
	checkoutNote      = "Created from cart (draft until payment)"
	bookingIDAttempts = 3
	defaultChannel    = "web"
)

// CheckoutResult is returned to the client for the redirect.
type CheckoutResult struct {
	BookingID   string `json:"bookingId"`
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

// CheckoutService turns the caller's cart into a draft booking and a hosted
// payment session. The cart is left untouched.
type CheckoutService interface {
	Checkout(ctx context.Context, caller models.Caller) (*CheckoutResult, error)
}

type checkoutServiceImpl struct {
	carts    repository.CartRepository
	bookings repository.BookingRepository
	payments repository.PaymentRepository // optional
	gateway  PaymentGateway
	metrics  Recorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewCheckoutService(
	carts repository.CartRepository,
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	gateway PaymentGateway,
	metrics Recorder,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		carts:    carts,
		bookings: bookings,
		payments: payments,
		gateway:  gateway,
		metrics:  recorderOrNop(metrics),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, caller models.Caller) (*CheckoutResult, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("customer_id", caller.CustomerID))

	cart, err := s.carts.FindByCustomer(ctx, caller.CustomerID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && cart.IsEmpty()) {
		s.metrics.CheckoutResult("empty")
		return nil, apperrors.Validation("Cart is empty")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load cart", err)
	}

	booking := s.draftFromCart(cart)
	if err := s.createWithUniqueID(ctx, booking); err != nil {
		return nil, apperrors.Internal("failed to create booking", err)
	}
	log = log.With(zap.String("booking_id", booking.BookingID))
	log.Info("Draft booking created", zap.Float64("grand_total", booking.GrandTotal))

	req := CheckoutRequest{
		BookingID:  booking.BookingID,
		CustomerID: caller.CustomerID,
		Lines:      checkoutLines(cart.Items),
	}
	sess, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		// the draft stays pending/unpaid
		log.Error("Failed to create payment session", zap.Error(err))
		s.metrics.CheckoutResult("gateway_error")
		return nil, apperrors.External("Failed to create payment session", err)
	}
	log = log.With(zap.String("session_id", sess.ID))

	if err := s.bookings.SetPaymentSession(ctx, booking.ID, sess.ID); err != nil {
		log.Warn("Failed to store session on booking", zap.Error(err))
	}
	s.recordPayment(ctx, log, booking, req, sess)

	s.metrics.CheckoutResult("created")
	log.Info("Checkout session created")
	return &CheckoutResult{BookingID: booking.BookingID, CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

func (s *checkoutServiceImpl) draftFromCart(cart *models.Cart) *models.Booking {
	now := s.now()
	items := make([]models.BookingItem, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = models.BookingItemFromCart(it)
	}
	b := &models.Booking{
		Customer:      cart.Customer,
		Channel:       defaultChannel,
		Items:         items,
		Guests:        models.Guests{Adults: 1},
		Currency:      cart.Currency,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		Notes:         checkoutNote,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Reprice()
	return b
}

// createWithUniqueID inserts b, drawing a fresh business id on collision.
func (s *checkoutServiceImpl) createWithUniqueID(ctx context.Context, b *models.Booking) error {
	return createBooking(ctx, s.bookings, b, s.now)
}

func createBooking(ctx context.Context, repo repository.BookingRepository, b *models.Booking, now func() time.Time) error {
	var err error
	for i := 0; i < bookingIDAttempts; i++ {
		b.BookingID = models.NewBookingID(now())
		if err = repo.Create(ctx, b); !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return err
}

func checkoutLines(items []models.CartItem) []CheckoutLine {
	lines := make([]CheckoutLine, len(items))
	for i, it := range items {
		lines[i] = CheckoutLine{
			Name:       it.Name,
			Image:      it.Image,
			UnitAmount: pricing.MinorUnits(it.UnitPrice),
			Quantity:   int64(max(1, it.Qty)),
		}
	}
	return lines
}

// recordPayment writes the pending ledger row. Ledger failures never fail
// the checkout.
func (s *checkoutServiceImpl) recordPayment(ctx context.Context, log *zap.Logger, b *models.Booking, req CheckoutRequest, sess *CheckoutSession) {
	if s.payments == nil {
		return
	}
	url := sess.URL
	err := s.payments.Create(ctx, &models.Payment{
		BookingID:   b.BookingID,
		CustomerID:  b.Customer,
		SessionID:   sess.ID,
		Amount:      req.Amount(),
		Currency:    sess.Currency,
		Status:      models.PaymentRowPending,
		CheckoutURL: &url,
	})
	if err != nil {
		log.Warn("Failed to record payment", zap.Error(err))
	}
}
