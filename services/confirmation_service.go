package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/repository"
)

// WebhookOutcome tells the caller what a delivery did. Every outcome is
// acknowledged with 200.
type WebhookOutcome string

const (
	OutcomeConfirmed WebhookOutcome = "confirmed"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)

// DefaultEventTTL bounds how long processed event ids are remembered.
const DefaultEventTTL = 72 * time.Hour

// reservationStatus is written to the resource once a booking is paid.
// Types not listed are left untouched.
var reservationStatus = map[models.ServiceType]string{
	models.Vehicle:       "inactive",
	models.Accommodation: "Fully Booked",
}

// ConfirmationService applies verified payment notifications.
type ConfirmationService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error)
}

type ConfirmationDeps struct {
	Bookings  repository.BookingRepository
	Carts     repository.CartRepository
	Resources repository.ResourceRepository
	Payments  repository.PaymentRepository // optional
	Events    repository.WebhookEventStore // optional
	Gateway   PaymentGateway
	Publisher EventPublisher
	Metrics   Recorder
	EventTTL  time.Duration
}

type confirmationServiceImpl struct {
	ConfirmationDeps
	logger *zap.Logger
	now    func() time.Time
}

func NewConfirmationService(deps ConfirmationDeps, logger *zap.Logger) ConfirmationService {
	if deps.Events == nil {
		deps.Events = repository.NopWebhookEventStore{}
	}
	if deps.EventTTL <= 0 {
		deps.EventTTL = DefaultEventTTL
	}
	deps.Metrics = recorderOrNop(deps.Metrics)
	deps.Publisher = deps.Publisher.withLogger(logger)
	return &confirmationServiceImpl{ConfirmationDeps: deps, logger: logger, now: time.Now}
}

func (s *confirmationServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error) {
	event, err := s.Gateway.ParseEvent(payload, signature)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		s.Metrics.WebhookOutcome("rejected")
		return "", apperrors.New(apperrors.KindAuthentication, http.StatusBadRequest, "Invalid webhook signature", err)
	}

	outcome, err := s.handle(ctx, event)
	if err != nil {
		s.Metrics.WebhookOutcome("failed")
		return "", err
	}
	s.Metrics.WebhookOutcome(string(outcome))
	return outcome, nil
}

func (s *confirmationServiceImpl) handle(ctx context.Context, event *PaymentEvent) (WebhookOutcome, error) {
	log := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("session_id", event.SessionID),
		zap.String("booking_id", event.BookingID),
	)

	if event.Type != EventCheckoutCompleted && event.Type != EventAsyncPaymentSucceeded {
		log.Debug("Ignoring unhandled event type")
		return OutcomeIgnored, nil
	}
	if !event.Settled() {
		log.Info("Checkout completed without payment", zap.String("payment_status", event.PaymentStatus))
		return OutcomeIgnored, nil
	}

	seen, err := s.Events.Seen(ctx, event.ID)
	if err != nil {
		log.Warn("Webhook event store unavailable", zap.Error(err))
	} else if seen {
		log.Info("Duplicate webhook event")
		return OutcomeDuplicate, nil
	}

	booking, err := repository.ResolveBooking(ctx, s.Bookings, event.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("Webhook for unknown booking")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", apperrors.Internal("failed to load booking", err)
	}
	if booking.Customer != event.CustomerID {
		log.Warn("Webhook customer does not own booking", zap.String("customer_id", event.CustomerID))
		return OutcomeIgnored, nil
	}
	if booking.IsFulfilled() {
		s.remember(ctx, log, event.ID)
		log.Info("Booking already fulfilled")
		return OutcomeDuplicate, nil
	}

	now := s.now()
	if booking.PaymentStatus != models.PaymentPaid {
		if booking.Status.Terminal() {
			log.Warn("Payment received for a closed booking, reopening as confirmed",
				zap.String("prior_status", string(booking.Status)))
		}
		changed, err := s.Bookings.MarkPaid(ctx, booking.ID, now)
		if err != nil {
			return "", apperrors.Internal("failed to mark booking paid", err)
		}
		if !changed {
			log.Info("Booking paid by a concurrent delivery")
			return OutcomeDuplicate, nil
		}
		booking.PaymentStatus = models.PaymentPaid
		booking.Status = models.StatusConfirmed
		booking.PaidAt = &now
	} else {
		log.Info("Resuming interrupted fulfillment")
	}

	if err := s.fulfill(ctx, log, booking, event); err != nil {
		return "", err
	}
	if err := s.Bookings.MarkFulfilled(ctx, booking.ID, now); err != nil {
		return "", apperrors.Internal("failed to mark booking fulfilled", err)
	}
	s.remember(ctx, log, event.ID)

	log.Info("Booking confirmed", zap.String("customer_id", booking.Customer))
	return OutcomeConfirmed, nil
}

// fulfill runs the post-payment side effects. Each step is safe to repeat.
func (s *confirmationServiceImpl) fulfill(ctx context.Context, log *zap.Logger, b *models.Booking, event *PaymentEvent) error {
	for t, ids := range b.ReservedResources() {
		status, ok := reservationStatus[t]
		if !ok {
			continue
		}
		matched, err := s.Resources.SetStatus(ctx, t, ids, status)
		if err != nil {
			return apperrors.Internal("failed to reserve resources", err)
		}
		if matched < int64(len(ids)) {
			log.Warn("Some reserved resources no longer exist",
				zap.String("service_type", string(t)),
				zap.Int("expected", len(ids)),
				zap.Int64("matched", matched),
			)
		}
	}

	if s.Payments != nil && event.SessionID != "" {
		raw := string(event.Raw)
		if err := s.Payments.MarkSucceeded(ctx, event.SessionID, &raw, s.now()); err != nil {
			log.Warn("Failed to update payment ledger", zap.Error(err))
		}
	}

	if err := s.clearCart(ctx, b.Customer); err != nil {
		return apperrors.Internal("failed to clear cart", err)
	}

	s.Publisher.publish(ctx, newBookingEvent(EventBookingConfirmed, b, s.now()))
	return nil
}

func (s *confirmationServiceImpl) clearCart(ctx context.Context, customer string) error {
	cart, err := s.Carts.FindByCustomer(ctx, customer)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		return nil
	}
	cart.Clear()
	return s.Carts.Save(ctx, cart)
}

func (s *confirmationServiceImpl) remember(ctx context.Context, log *zap.Logger, eventID string) {
	if err := s.Events.Remember(ctx, eventID, s.EventTTL); err != nil {
		log.Warn("Failed to remember webhook event", zap.Error(err))
	}
}
