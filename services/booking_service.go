package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ListOptions narrows a booking listing.
type ListOptions struct {
	Status models.BookingStatus
	Limit  int64
}

// BookingService is the direct booking path. Owners read and cancel their
// own bookings and edit them while pending; admins may do anything.
type BookingService interface {
	Create(ctx context.Context, caller models.Caller, draft models.BookingDraft) (*models.Booking, error)
	List(ctx context.Context, caller models.Caller, opts ListOptions) ([]models.Booking, error)
	Get(ctx context.Context, caller models.Caller, id string) (*models.Booking, error)
	Update(ctx context.Context, caller models.Caller, id string, patch models.BookingPatch) (*models.Booking, error)
	Cancel(ctx context.Context, caller models.Caller, id string) (*models.Booking, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
	Receipt(ctx context.Context, caller models.Caller, id string) (*models.Booking, []byte, error)
}

type bookingServiceImpl struct {
	bookings  repository.BookingRepository
	resources repository.ResourceRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	bookings repository.BookingRepository,
	resources repository.ResourceRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) BookingService {
	return &bookingServiceImpl{
		bookings:  bookings,
		resources: resources,
		publisher: publisher.withLogger(logger),
		logger:    logger,
		now:       time.Now,
	}
}

// load resolves id and applies the ownership rule, failing with forbidden
// when the caller is neither the owner nor an admin.
func (s *bookingServiceImpl) load(ctx context.Context, caller models.Caller, id, forbidden string) (*models.Booking, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	b, err := repository.ResolveBooking(ctx, s.bookings, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Booking not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load booking", err)
	}
	if !caller.IsAdmin() && !caller.Owns(b.Customer) {
		return nil, apperrors.Forbidden(forbidden)
	}
	return b, nil
}

// checkResources fails with NotFound for the first item whose resource does
// not exist.
func (s *bookingServiceImpl) checkResources(ctx context.Context, items []models.ItemInput) error {
	for i, in := range items {
		ok, err := s.resources.Exists(ctx, in.ServiceType, in.Ref)
		if err != nil {
			return apperrors.Internal("failed to verify booking items", err)
		}
		if !ok {
			return apperrors.NotFound(fmt.Sprintf("items[%d]: %s %s not found", i, in.ServiceType, in.Ref.Hex()))
		}
	}
	return nil
}

func bookingItems(items []models.ItemInput) []models.BookingItem {
	out := make([]models.BookingItem, len(items))
	for i, in := range items {
		out[i] = in.BookingItem()
	}
	return out
}

func (s *bookingServiceImpl) Create(ctx context.Context, caller models.Caller, draft models.BookingDraft) (*models.Booking, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	if len(draft.Items) == 0 {
		return nil, apperrors.Validation("Booking must contain at least one item")
	}
	if err := s.checkResources(ctx, draft.Items); err != nil {
		return nil, err
	}

	now := s.now()
	b := &models.Booking{
		Customer:      caller.CustomerID,
		Channel:       draft.Channel,
		Items:         bookingItems(draft.Items),
		Guests:        draft.Guests,
		Currency:      draft.Currency,
		Discount:      draft.Discount,
		Tax:           draft.Tax,
		Fees:          draft.Fees,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		Notes:         draft.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b.Channel == "" {
		b.Channel = defaultChannel
	}
	if b.Currency == "" {
		b.Currency = models.DefaultCurrency
	}
	b.Reprice()

	if err := createBooking(ctx, s.bookings, b, s.now); err != nil {
		return nil, apperrors.Internal("failed to create booking", err)
	}
	s.logger.Info("Booking created",
		zap.String("booking_id", b.BookingID),
		zap.String("customer_id", b.Customer),
		zap.Float64("grand_total", b.GrandTotal),
	)
	return b, nil
}

func (s *bookingServiceImpl) List(ctx context.Context, caller models.Caller, opts ListOptions) ([]models.Booking, error) {
	if err := requireCustomer(caller); err != nil {
		return nil, err
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, apperrors.Validationf("Invalid status %q", opts.Status)
	}
	filter := repository.BookingFilter{Status: opts.Status, Limit: opts.Limit}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	filter.Limit = min(filter.Limit, maxListLimit)
	if !caller.IsAdmin() {
		filter.Customer = caller.CustomerID
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

func (s *bookingServiceImpl) Get(ctx context.Context, caller models.Caller, id string) (*models.Booking, error) {
	return s.load(ctx, caller, id, "Unauthorized to view this booking")
}

func (s *bookingServiceImpl) Update(ctx context.Context, caller models.Caller, id string, patch models.BookingPatch) (*models.Booking, error) {
	b, err := s.load(ctx, caller, id, "You cannot modify this booking")
	if err != nil {
		return nil, err
	}

	if caller.IsAdmin() {
		if err := s.applyStatus(b, caller, patch); err != nil {
			return nil, err
		}
	} else {
		if b.Status != models.StatusPending {
			return nil, apperrors.Forbidden("Only pending bookings can be modified")
		}
		if (patch.Status != nil && *patch.Status != b.Status) ||
			(patch.PaymentStatus != nil && *patch.PaymentStatus != b.PaymentStatus) {
			return nil, apperrors.Forbidden("Only an admin can change booking or payment status")
		}
	}

	reprice := false
	if patch.ItemsSet {
		if err := s.checkResources(ctx, patch.Items); err != nil {
			return nil, err
		}
		b.Items = bookingItems(patch.Items)
		reprice = true
	}
	if patch.Discount != nil {
		b.Discount, reprice = *patch.Discount, true
	}
	if patch.Tax != nil {
		b.Tax, reprice = *patch.Tax, true
	}
	if patch.Fees != nil {
		b.Fees, reprice = *patch.Fees, true
	}
	if reprice {
		b.Reprice()
	}
	if patch.Channel != nil {
		b.Channel = *patch.Channel
	}
	if patch.Notes != nil {
		b.Notes = *patch.Notes
	}
	if patch.Guests != nil {
		b.Guests = *patch.Guests
	}
	b.UpdatedAt = s.now()

	if err := s.bookings.Replace(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Booking not found")
		}
		return nil, apperrors.Internal("failed to update booking", err)
	}
	s.logger.Info("Booking updated",
		zap.String("booking_id", b.BookingID),
		zap.String("by", caller.CustomerID),
		zap.String("status", string(b.Status)),
	)
	return b, nil
}

// applyStatus applies an admin status change. Cancellation is allowed from
// any state; everything else follows the lifecycle graph.
func (s *bookingServiceImpl) applyStatus(b *models.Booking, caller models.Caller, patch models.BookingPatch) error {
	if patch.Status != nil && *patch.Status != b.Status {
		next := *patch.Status
		switch {
		case next == models.StatusCancelled:
			b.Cancel(caller.CustomerID, s.now())
		case b.Status.CanTransition(next):
			b.Status = next
		default:
			return apperrors.Validationf("Cannot change status from %s to %s", b.Status, next)
		}
	}
	if patch.PaymentStatus != nil {
		b.PaymentStatus = *patch.PaymentStatus
	}
	return nil
}

func (s *bookingServiceImpl) Cancel(ctx context.Context, caller models.Caller, id string) (*models.Booking, error) {
	b, err := s.load(ctx, caller, id, "You cannot cancel this booking")
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusCancelled {
		return b, nil
	}
	if !caller.IsAdmin() && !b.Status.OwnerCancellable() {
		return nil, apperrors.Validation("Booking cannot be cancelled in its current status")
	}

	b.Cancel(caller.CustomerID, s.now())
	if err := s.bookings.Replace(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Booking not found")
		}
		return nil, apperrors.Internal("failed to cancel booking", err)
	}
	s.logger.Info("Booking cancelled", zap.String("booking_id", b.BookingID), zap.String("by", caller.CustomerID))
	s.publisher.publish(ctx, newBookingEvent(EventBookingCancelled, b, s.now()))
	return b, nil
}

func (s *bookingServiceImpl) Delete(ctx context.Context, caller models.Caller, id string) error {
	if err := requireCustomer(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperrors.Forbidden("You cannot delete bookings")
	}
	b, err := s.load(ctx, caller, id, "You cannot delete bookings")
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, b.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Booking not found")
		}
		return apperrors.Internal("failed to delete booking", err)
	}
	s.logger.Info("Booking deleted", zap.String("booking_id", b.BookingID), zap.String("by", caller.CustomerID))
	return nil
}

func (s *bookingServiceImpl) Receipt(ctx context.Context, caller models.Caller, id string) (*models.Booking, []byte, error) {
	b, err := s.load(ctx, caller, id, "Unauthorized to view this booking")
	if err != nil {
		return nil, nil, err
	}
	pdf, err := RenderReceipt(b)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to render receipt", err)
	}
	return b, pdf, nil
}
