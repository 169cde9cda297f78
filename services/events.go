package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	awspkg "github.com/LakshanUd/sl-go-tour-backend/pkg/aws"
	"github.com/LakshanUd/sl-go-tour-backend/models"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published to SNS when a booking changes state.
type BookingEvent struct {
	EventType     string               `json:"event_type"`
	BookingID     string               `json:"booking_id"`
	CustomerID    string               `json:"customer_id"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	GrandTotal    float64              `json:"grand_total"`
	Currency      string               `json:"currency"`
	Timestamp     time.Time            `json:"timestamp"`
}

func newBookingEvent(eventType string, b *models.Booking, now time.Time) BookingEvent {
	return BookingEvent{
		EventType:     eventType,
		BookingID:     b.BookingID,
		CustomerID:    b.Customer,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		GrandTotal:    b.GrandTotal,
		Currency:      b.Currency,
		Timestamp:     now.UTC(),
	}
}

// EventPublisher sends booking events to SNS. Failures are logged only.
// The zero value publishes nothing.
type EventPublisher struct {
	sns    awspkg.SNSPublisher
	topic  string
	logger *zap.Logger
}

func NewEventPublisher(sns awspkg.SNSPublisher, topic string, logger *zap.Logger) EventPublisher {
	return EventPublisher{sns: sns, topic: topic, logger: logger}
}

func (p EventPublisher) withLogger(logger *zap.Logger) EventPublisher {
	if p.logger == nil {
		p.logger = logger
	}
	return p
}

func (p EventPublisher) publish(ctx context.Context, event BookingEvent) {
	if p.sns == nil || p.topic == "" {
		p.logger.Debug("SNS not configured, skipping event publish", zap.String("event_type", event.EventType))
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal SNS event", zap.Error(err))
		return
	}
	if err := p.sns.Publish(ctx, p.topic, event.EventType, b); err != nil {
		p.logger.Error("Failed to publish SNS event",
			zap.String("event_type", event.EventType),
			zap.String("booking_id", event.BookingID),
			zap.Error(err),
		)
		return
	}
	p.logger.Info("Published SNS event", zap.String("event_type", event.EventType), zap.String("booking_id", event.BookingID))
}

// Recorder counts business outcomes.
type Recorder interface {
	CheckoutResult(result string)
	WebhookOutcome(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutResult(string) {}
func (nopRecorder) WebhookOutcome(string) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
