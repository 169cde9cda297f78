package controllers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LakshanUd/sl-go-tour-backend/controllers"
	"github.com/LakshanUd/sl-go-tour-backend/middleware"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/routes"
	"github.com/LakshanUd/sl-go-tour-backend/services"
)

// ---- mock services ----

type mockCartSvc struct {
	cart   *models.Cart
	err    error
	caller models.Caller
	added  models.ItemInput
	itemID string
	patch  models.ItemPatch
}

func (m *mockCartSvc) Get(_ context.Context, caller models.Caller) (*models.Cart, error) {
	m.caller = caller
	return m.cart, m.err
}
func (m *mockCartSvc) AddItem(_ context.Context, caller models.Caller, in models.ItemInput) (*models.Cart, error) {
	m.caller, m.added = caller, in
	return m.cart, m.err
}
func (m *mockCartSvc) UpdateItem(_ context.Context, caller models.Caller, itemID string, patch models.ItemPatch) (*models.Cart, error) {
	m.caller, m.itemID, m.patch = caller, itemID, patch
	return m.cart, m.err
}
func (m *mockCartSvc) RemoveItem(_ context.Context, caller models.Caller, itemID string) (*models.Cart, error) {
	m.caller, m.itemID = caller, itemID
	return m.cart, m.err
}
func (m *mockCartSvc) Clear(_ context.Context, caller models.Caller) (*models.Cart, error) {
	m.caller = caller
	return m.cart, m.err
}

type mockCheckoutSvc struct {
	res *services.CheckoutResult
	err error
}

func (m *mockCheckoutSvc) Checkout(context.Context, models.Caller) (*services.CheckoutResult, error) {
	return m.res, m.err
}

type mockConfirmSvc struct {
	err       error
	payload   []byte
	signature string
}

func (m *mockConfirmSvc) HandleWebhook(_ context.Context, payload []byte, signature string) (services.WebhookOutcome, error) {
	m.payload, m.signature = payload, signature
	if m.err != nil {
		return "", m.err
	}
	return services.OutcomeConfirmed, nil
}

type mockBookingSvc struct {
	booking  *models.Booking
	bookings []models.Booking
	pdf      []byte
	err      error
	id       string
	opts     services.ListOptions
	draft    models.BookingDraft
	patch    models.BookingPatch
}

func (m *mockBookingSvc) Create(_ context.Context, _ models.Caller, d models.BookingDraft) (*models.Booking, error) {
	m.draft = d
	return m.booking, m.err
}
func (m *mockBookingSvc) List(_ context.Context, _ models.Caller, opts services.ListOptions) ([]models.Booking, error) {
	m.opts = opts
	return m.bookings, m.err
}
func (m *mockBookingSvc) Get(_ context.Context, _ models.Caller, id string) (*models.Booking, error) {
	m.id = id
	return m.booking, m.err
}
func (m *mockBookingSvc) Update(_ context.Context, _ models.Caller, id string, p models.BookingPatch) (*models.Booking, error) {
	m.id, m.patch = id, p
	return m.booking, m.err
}
func (m *mockBookingSvc) Cancel(_ context.Context, _ models.Caller, id string) (*models.Booking, error) {
	m.id = id
	return m.booking, m.err
}
func (m *mockBookingSvc) Delete(_ context.Context, _ models.Caller, id string) error {
	m.id = id
	return m.err
}
func (m *mockBookingSvc) Receipt(_ context.Context, _ models.Caller, id string) (*models.Booking, []byte, error) {
	m.id = id
	return m.booking, m.pdf, m.err
}

// ---- helpers ----

type mocks struct {
	cart     *mockCartSvc
	checkout *mockCheckoutSvc
	confirm  *mockConfirmSvc
	booking  *mockBookingSvc
}

func setupRouter() (*gin.Engine, *mocks) {
	gin.SetMode(gin.TestMode)
	m := &mocks{
		cart:     &mockCartSvc{cart: models.NewCart("cust-1", testTime)},
		checkout: &mockCheckoutSvc{},
		confirm:  &mockConfirmSvc{},
		booking:  &mockBookingSvc{},
	}
	logger := zap.NewNop()
	auth := middleware.NewAuthenticator("", true)

	r := gin.New()
	api := r.Group("/api")
	routes.RegisterCartRoutes(api, auth, controllers.NewCartController(m.cart, m.checkout, m.confirm, logger))
	routes.RegisterBookingRoutes(api, auth, controllers.NewBookingController(m.booking, logger))
	return r, m
}

func do(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "cust-1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
