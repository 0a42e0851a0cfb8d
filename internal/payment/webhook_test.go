package payment

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"coursebook/internal/email"
	"coursebook/internal/logger"
	"coursebook/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v79/webhook"
)

func TestMain(m *testing.M) {
	logger.Init()
	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

const webhookSecret = "whsec_test_secret"

type MockPaymentRepo struct{ mock.Mock }
type MockTenantRepo struct{ mock.Mock }
type MockConfirmer struct{ mock.Mock }
type MockSubscriptionApplier struct{ mock.Mock }

func (m *MockPaymentRepo) Create(ctx context.Context, tenantID int, bookingID, bundleBookingID *int, amountPence int64, paymentType Type, intentID string) (*Payment, error) {
	args := m.Called(ctx, tenantID, bookingID, bundleBookingID, amountPence, paymentType, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockPaymentRepo) UpdateStatusByIntentID(ctx context.Context, intentID string, status Status) (*Payment, error) {
	args := m.Called(ctx, intentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockPaymentRepo) ListByTenant(ctx context.Context, tenantID int) ([]Payment, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Payment), args.Error(1)
}

func (m *MockPaymentRepo) InsertProviderEvent(ctx context.Context, provider, eventID, eventType string) error {
	return m.Called(ctx, provider, eventID, eventType).Error(0)
}

func (m *MockTenantRepo) Create(ctx context.Context, slug, name string, plan tenant.Plan, primaryColor, secondaryColor string) (*tenant.Tenant, error) {
	args := m.Called(ctx, slug, name, plan, primaryColor, secondaryColor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id int) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) List(ctx context.Context) ([]tenant.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) UpdateBranding(ctx context.Context, id int, name, primaryColor, secondaryColor string, depositPercent *int) (*tenant.Tenant, error) {
	args := m.Called(ctx, id, name, primaryColor, secondaryColor, depositPercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) UpdatePlan(ctx context.Context, id int, plan tenant.Plan) error {
	return m.Called(ctx, id, plan).Error(0)
}

func (m *MockTenantRepo) SetStripeRefs(ctx context.Context, id int, customerID, subscriptionID string) error {
	return m.Called(ctx, id, customerID, subscriptionID).Error(0)
}

func (m *MockTenantRepo) SetActive(ctx context.Context, id int, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockConfirmer) ConfirmByID(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSubscriptionApplier) ApplyActivated(ctx context.Context, tenantID int, plan string, stripeCustomerID, stripeSubscriptionID string) error {
	return m.Called(ctx, tenantID, plan, stripeCustomerID, stripeSubscriptionID).Error(0)
}

func (m *MockSubscriptionApplier) ApplyCanceled(ctx context.Context, tenantID int) error {
	return m.Called(ctx, tenantID).Error(0)
}

type webhookMocks struct {
	repo          *MockPaymentRepo
	tenantRepo    *MockTenantRepo
	bookings      *MockConfirmer
	bundles       *MockConfirmer
	subscriptions *MockSubscriptionApplier
}

func newWebhookHandler() (*WebhookHandler, *webhookMocks, redismock.ClientMock) {
	m := &webhookMocks{
		repo:          new(MockPaymentRepo),
		tenantRepo:    new(MockTenantRepo),
		bookings:      new(MockConfirmer),
		bundles:       new(MockConfirmer),
		subscriptions: new(MockSubscriptionApplier),
	}

	rdb, rmock := redismock.NewClientMock()
	emailService := email.NewWithClient(rdb, "noreply@coursebook.co.uk", "CourseBook")

	h := NewWebhookHandler(m.repo, m.tenantRepo, m.bookings, m.bundles, m.subscriptions, emailService, webhookSecret)
	return h, m, rmock
}

// signedRequest signs the payload the way Stripe does so the handler's
// signature check passes.
func signedRequest(payload string) *http.Request {
	now := time.Now()
	sig := webhook.ComputeSignature(now, []byte(payload), webhookSecret)

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature",
		fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig)))
	return req
}

func serve(h *WebhookHandler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	h.Handle(c)
	return w
}

func TestWebhookPaymentIntentSucceededConfirmsBooking(t *testing.T) {
	h, m, rmock := newWebhookHandler()

	// The receipt greets the payer by the name carried in the intent metadata.
	rmock.Regexp().ExpectLPush("emails", `.*Sam Field.*`).SetVal(1)

	payload := `{
		"id": "evt_1",
		"api_version": "2024-06-20",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "metadata": {"customer_email": "sam@example.co.uk", "customer_name": "Sam Field"}}}
	}`

	bookingID := 99
	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_1", "payment_intent.succeeded").Return(nil)
	m.repo.On("UpdateStatusByIntentID", mock.Anything, "pi_123", StatusPaid).
		Return(&Payment{ID: 1, TenantID: 1, BookingID: &bookingID, AmountPence: 30000, Status: StatusPaid, IntentID: "pi_123"}, nil)
	m.bookings.On("ConfirmByID", mock.Anything, 99).Return(nil)
	m.tenantRepo.On("GetByID", mock.Anything, 1).Return(&tenant.Tenant{ID: 1, Name: "Acme Training"}, nil)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	m.bookings.AssertCalled(t, "ConfirmByID", mock.Anything, 99)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestWebhookDuplicateEventIsAcknowledgedOnce(t *testing.T) {
	h, m, _ := newWebhookHandler()

	payload := `{
		"id": "evt_1",
		"api_version": "2024-06-20",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123"}}
	}`

	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_1", "payment_intent.succeeded").
		Return(ErrDuplicateProviderEvent)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"duplicate"`)
	m.repo.AssertNotCalled(t, "UpdateStatusByIntentID", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, m, _ := newWebhookHandler()

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	w := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.repo.AssertNotCalled(t, "InsertProviderEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookPaymentIntentFailed(t *testing.T) {
	h, m, _ := newWebhookHandler()

	payload := `{
		"id": "evt_2",
		"api_version": "2024-06-20",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_123"}}
	}`

	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_2", "payment_intent.payment_failed").Return(nil)
	m.repo.On("UpdateStatusByIntentID", mock.Anything, "pi_123", StatusFailed).
		Return(&Payment{ID: 1, TenantID: 1, Status: StatusFailed, IntentID: "pi_123"}, nil)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	m.repo.AssertExpectations(t)
}

func TestWebhookChargeRefunded(t *testing.T) {
	h, m, _ := newWebhookHandler()

	payload := `{
		"id": "evt_3",
		"api_version": "2024-06-20",
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_1", "payment_intent": "pi_123"}}
	}`

	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_3", "charge.refunded").Return(nil)
	m.repo.On("UpdateStatusByIntentID", mock.Anything, "pi_123", StatusRefunded).
		Return(&Payment{ID: 1, TenantID: 1, Status: StatusRefunded, IntentID: "pi_123"}, nil)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	m.repo.AssertExpectations(t)
}

func TestWebhookSubscriptionActivated(t *testing.T) {
	h, m, _ := newWebhookHandler()

	payload := `{
		"id": "evt_4",
		"api_version": "2024-06-20",
		"type": "customer.subscription.created",
		"data": {"object": {
			"id": "sub_1",
			"status": "active",
			"customer": "cus_1",
			"metadata": {"tenant_id": "7", "plan": "PROFESSIONAL"}
		}}
	}`

	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_4", "customer.subscription.created").Return(nil)
	m.subscriptions.On("ApplyActivated", mock.Anything, 7, "PROFESSIONAL", "cus_1", "sub_1").Return(nil)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	m.subscriptions.AssertExpectations(t)
}

func TestWebhookSubscriptionNotYetActiveIsIgnored(t *testing.T) {
	h, m, _ := newWebhookHandler()

	payload := `{
		"id": "evt_5",
		"api_version": "2024-06-20",
		"type": "customer.subscription.created",
		"data": {"object": {
			"id": "sub_1",
			"status": "incomplete",
			"metadata": {"tenant_id": "7", "plan": "PROFESSIONAL"}
		}}
	}`

	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_5", "customer.subscription.created").Return(nil)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	m.subscriptions.AssertNotCalled(t, "ApplyActivated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	h, m, _ := newWebhookHandler()

	payload := `{
		"id": "evt_6",
		"api_version": "2024-06-20",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "metadata": {"tenant_id": "7"}}}
	}`

	m.repo.On("InsertProviderEvent", mock.Anything, "stripe", "evt_6", "customer.subscription.deleted").Return(nil)
	m.subscriptions.On("ApplyCanceled", mock.Anything, 7).Return(nil)

	w := serve(h, signedRequest(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	m.subscriptions.AssertExpectations(t)
}

func TestTenantMetadata(t *testing.T) {
	id, plan, ok := tenantMetadata(map[string]string{"tenant_id": "7", "plan": "PROFESSIONAL"})
	assert.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, "PROFESSIONAL", plan)

	_, _, ok = tenantMetadata(map[string]string{"plan": "PROFESSIONAL"})
	assert.False(t, ok)

	_, _, ok = tenantMetadata(map[string]string{"tenant_id": "abc"})
	assert.False(t, ok)
}
