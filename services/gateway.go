package services

import "context"

// CheckoutLine is one priced row of a hosted checkout page.
type CheckoutLine struct {
	Name       string
	Image      string
	UnitAmount int64 // minor units
	Quantity   int64
}

// CheckoutRequest opens a hosted payment session for a draft booking.
type CheckoutRequest struct {
	BookingID  string
	CustomerID string
	Lines      []CheckoutLine
}

// CheckoutSession is the gateway's answer to CheckoutRequest.
type CheckoutSession struct {
	ID       string
	URL      string
	Currency string
}

// Amount returns the total the session will charge, in minor units.
func (r CheckoutRequest) Amount() int64 {
	var total int64
	for _, l := range r.Lines {
		total += l.UnitAmount * l.Quantity
	}
	return total
}

const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// PaymentEvent is a verified gateway notification about a checkout session.
type PaymentEvent struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
	BookingID     string
	CustomerID    string
	Raw           []byte
}

// Settled reports whether the session's funds were captured.
func (e *PaymentEvent) Settled() bool {
	switch e.PaymentStatus {
	case "", "paid", "no_payment_required":
		return true
	}
	return false
}

// PaymentGateway is the external hosted-checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseEvent verifies signature over payload and decodes the event.
	ParseEvent(payload []byte, signature string) (*PaymentEvent, error)
}
