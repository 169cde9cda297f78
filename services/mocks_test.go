package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/repository"
	"github.com/LakshanUd/sl-go-tour-backend/services"
)

// ---- carts ----

type memCartRepo struct {
	mu      sync.Mutex
	carts   map[string]*models.Cart
	creates int
	saves   int
	findErr error
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*models.Cart)}
}

func (m *memCartRepo) FindByCustomer(_ context.Context, customer string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.carts[customer]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

func (m *memCartRepo) Create(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[cart.Customer]; ok {
		return repository.ErrDuplicate
	}
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	m.creates++
	m.carts[cart.Customer] = cart.Clone()
	return nil
}

func (m *memCartRepo) Save(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.carts[cart.Customer] = cart.Clone()
	return nil
}

func (m *memCartRepo) get(customer string) *models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[customer]
	if !ok {
		return nil
	}
	return c.Clone()
}

// ---- bookings ----

type memBookingRepo struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.Booking
	markPaid  int
	createErr error
	dupIDs    int // Create calls to fail with ErrDuplicate
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{byID: make(map[primitive.ObjectID]*models.Booking)}
}

func copyBooking(b *models.Booking) *models.Booking {
	cp := *b
	cp.Items = append([]models.BookingItem(nil), b.Items...)
	return &cp
}

func (m *memBookingRepo) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.dupIDs > 0 {
		m.dupIDs--
		return repository.ErrDuplicate
	}
	for _, existing := range m.byID {
		if existing.BookingID == b.BookingID {
			return repository.ErrDuplicate
		}
	}
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	m.byID[b.ID] = copyBooking(b)
	return nil
}

func (m *memBookingRepo) FindByBookingID(_ context.Context, bookingID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.byID {
		if b.BookingID == bookingID {
			return copyBooking(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memBookingRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyBooking(b), nil
}

func (m *memBookingRepo) List(_ context.Context, f repository.BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.byID {
		if f.Customer != "" && b.Customer != f.Customer {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, *copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memBookingRepo) Replace(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[b.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[b.ID] = copyBooking(b)
	return nil
}

func (m *memBookingRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memBookingRepo) SetPaymentSession(_ context.Context, id primitive.ObjectID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentSessionID = sessionID
	return nil
}

func (m *memBookingRepo) MarkPaid(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok || b.PaymentStatus == models.PaymentPaid {
		return false, nil
	}
	m.markPaid++
	b.PaymentStatus = models.PaymentPaid
	b.Status = models.StatusConfirmed
	b.PaidAt = &at
	return true, nil
}

func (m *memBookingRepo) MarkFulfilled(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.byID[id]; ok && b.FulfilledAt == nil {
		b.FulfilledAt = &at
	}
	return nil
}

func (m *memBookingRepo) only() *models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.byID {
		return copyBooking(b)
	}
	return nil
}

func (m *memBookingRepo) put(b *models.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	m.byID[b.ID] = copyBooking(b)
}

// ---- resources ----

type memResourceRepo struct {
	mu        sync.Mutex
	status    map[primitive.ObjectID]string
	types     map[primitive.ObjectID]models.ServiceType
	setCalls  int
	setErr    error
	existsErr error
}

func newMemResourceRepo() *memResourceRepo {
	return &memResourceRepo{
		status: make(map[primitive.ObjectID]string),
		types:  make(map[primitive.ObjectID]models.ServiceType),
	}
}

func (m *memResourceRepo) add(t models.ServiceType, status string) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.types[id] = t
	m.status[id] = status
	return id
}

func (m *memResourceRepo) Exists(_ context.Context, t models.ServiceType, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.types[id] == t, nil
}

func (m *memResourceRepo) SetStatus(_ context.Context, t models.ServiceType, ids []primitive.ObjectID, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return 0, m.setErr
	}
	var matched int64
	for _, id := range ids {
		if m.types[id] == t {
			m.status[id] = status
			matched++
		}
	}
	return matched, nil
}

func (m *memResourceRepo) statusOf(id primitive.ObjectID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[id]
}

// ---- payments ledger ----

type memPaymentRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.Payment
	createErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{rows: make(map[string]*models.Payment)}
}

func (m *memPaymentRepo) Create(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *p
	m.rows[p.SessionID] = &cp
	return nil
}

func (m *memPaymentRepo) FindBySessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) MarkSucceeded(_ context.Context, sessionID string, payload *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != models.PaymentRowSucceeded {
		p.Status = models.PaymentRowSucceeded
		p.EventPayload = payload
		p.SucceededAt = &at
	}
	return nil
}

// ---- webhook event store ----

type memEventStore struct {
	mu      sync.Mutex
	seen    map[string]bool
	seenErr error
}

func newMemEventStore() *memEventStore { return &memEventStore{seen: make(map[string]bool)} }

func (m *memEventStore) Seen(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.seen[id], nil
}

func (m *memEventStore) Remember(_ context.Context, id string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[id] = true
	return nil
}

// ---- gateway ----

const goodSignature = "t=1,v1=good"

type fakeGateway struct {
	mu        sync.Mutex
	requests  []services.CheckoutRequest
	createErr error
	seq       int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req services.CheckoutRequest) (*services.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	return &services.CheckoutSession{ID: id, URL: "https://pay.example.com/" + id, Currency: "usd"}, nil
}

// ParseEvent accepts goodSignature and decodes payload as a PaymentEvent.
func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*services.PaymentEvent, error) {
	if signature != goodSignature {
		return nil, errors.New("no signatures found matching the expected signature for payload")
	}
	var e services.PaymentEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	e.Raw = payload
	return &e, nil
}

func eventPayload(e services.PaymentEvent) []byte {
	b, _ := json.Marshal(e)
	return b
}

// ---- sns + metrics ----

type fakeSNS struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, _ string, eventType string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeSNS) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type countingRecorder struct {
	mu        sync.Mutex
	checkouts map[string]int
	webhooks  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{checkouts: map[string]int{}, webhooks: map[string]int{}}
}

func (r *countingRecorder) CheckoutResult(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkouts[result]++
}

func (r *countingRecorder) WebhookOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks[outcome]++
}
