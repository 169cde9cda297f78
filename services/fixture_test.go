package services_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/services"
)

type fixture struct {
	carts     *memCartRepo
	bookings  *memBookingRepo
	resources *memResourceRepo
	payments  *memPaymentRepo
	events    *memEventStore
	gateway   *fakeGateway
	sns       *fakeSNS
	metrics   *countingRecorder

	cart     services.CartService
	checkout services.CheckoutService
	confirm  services.ConfirmationService
	booking  services.BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		carts:     newMemCartRepo(),
		bookings:  newMemBookingRepo(),
		resources: newMemResourceRepo(),
		payments:  newMemPaymentRepo(),
		events:    newMemEventStore(),
		gateway:   &fakeGateway{},
		sns:       &fakeSNS{},
		metrics:   newCountingRecorder(),
	}
	publisher := services.NewEventPublisher(f.sns, "arn:aws:sns:us-east-1:000000000000:bookings", logger)

	f.cart = services.NewCartService(f.carts, logger)
	f.checkout = services.NewCheckoutService(f.carts, f.bookings, f.payments, f.gateway, f.metrics, logger)
	f.confirm = services.NewConfirmationService(services.ConfirmationDeps{
		Bookings:  f.bookings,
		Carts:     f.carts,
		Resources: f.resources,
		Payments:  f.payments,
		Events:    f.events,
		Gateway:   f.gateway,
		Publisher: publisher,
		Metrics:   f.metrics,
	}, logger)
	f.booking = services.NewBookingService(f.bookings, f.resources, publisher, logger)
	return f
}

var (
	alice = models.Caller{CustomerID: "cust-alice"}
	bob   = models.Caller{CustomerID: "cust-bob"}
	admin = models.Caller{CustomerID: "admin-1", Role: models.RoleAdmin}
)

func vehicleItem(ref primitive.ObjectID, unitPrice float64, qty int) models.ItemInput {
	return models.ItemInput{
		ServiceType: models.Vehicle,
		Ref:         ref,
		Name:        "Toyota KDH Van",
		Currency:    "LKR",
		UnitPrice:   unitPrice,
		Qty:         qty,
	}
}

func completedEvent(id, sessionID, bookingID, customer string) []byte {
	return eventPayload(services.PaymentEvent{
		ID:            id,
		Type:          services.EventCheckoutCompleted,
		SessionID:     sessionID,
		PaymentStatus: "paid",
		BookingID:     bookingID,
		CustomerID:    customer,
	})
}
