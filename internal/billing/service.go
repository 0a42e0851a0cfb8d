package billing

import (
	"context"
	"errors"
	"fmt"

	"coursebook/internal/logger"
	"coursebook/internal/metrics"
	"coursebook/internal/tenant"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	stripesubscription "github.com/stripe/stripe-go/v79/subscription"
)

var (
	ErrUnknownPlan         = errors.New("unknown plan")
	ErrPlanNotConfigured   = errors.New("no stripe price configured for plan")
	ErrNoSubscription      = errors.New("tenant has no active subscription")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrProviderUnavailable = errors.New("billing provider unavailable")
)

type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type Service interface {
	StartCheckout(ctx context.Context, tenantID int, plan tenant.Plan) (*CheckoutSession, error)
	ChangePlan(ctx context.Context, tenantID int, plan tenant.Plan) error
	Cancel(ctx context.Context, tenantID int) error
	ApplyActivated(ctx context.Context, tenantID int, plan string, stripeCustomerID, stripeSubscriptionID string) error
	ApplyCanceled(ctx context.Context, tenantID int) error
}

type service struct {
	tenants  tenant.Repository
	priceIDs map[string]string
	appURL   string
}

// NewService wires Stripe subscriptions for the platform fee. priceIDs maps
// plan names to Stripe price ids; the global stripe.Key is set by the caller.
func NewService(tenants tenant.Repository, priceIDs map[string]string, appURL string) Service {
	return &service{tenants: tenants, priceIDs: priceIDs, appURL: appURL}
}

func (s *service) StartCheckout(ctx context.Context, tenantID int, plan tenant.Plan) (*CheckoutSession, error) {
	if !validPlan(plan) {
		return nil, ErrUnknownPlan
	}
	priceID := s.priceIDs[string(plan)]
	if priceID == "" {
		return nil, ErrPlanNotConfigured
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, ErrTenantNotFound
	}

	meta := map[string]string{
		"tenant_id": fmt.Sprintf("%d", t.ID),
		"plan":      string(plan),
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.appURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.appURL + "/billing/cancelled"),
		ClientReferenceID: stripe.String(t.Slug),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		Metadata: meta,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: meta,
		},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		logger.Errorf("Stripe checkout session failed for tenant %d: %v", tenantID, err)
		return nil, ErrProviderUnavailable
	}
	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// ChangePlan takes effect immediately. Existing courses or customers above the
// new plan's limits stay; the limits only gate new creations.
func (s *service) ChangePlan(ctx context.Context, tenantID int, plan tenant.Plan) error {
	if !validPlan(plan) {
		return ErrUnknownPlan
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return ErrTenantNotFound
	}
	if err := s.tenants.UpdatePlan(ctx, tenantID, plan); err != nil {
		return err
	}
	metrics.RecordPlanChange(string(plan))
	logger.Infof("Tenant %d moved to plan %s", tenantID, plan)
	return nil
}

func (s *service) Cancel(ctx context.Context, tenantID int) error {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return ErrTenantNotFound
	}
	if t.StripeSubscriptionID == nil || *t.StripeSubscriptionID == "" {
		return ErrNoSubscription
	}

	cancelParams := &stripe.SubscriptionCancelParams{}
	// Deterministic key makes client retries safe.
	cancelParams.IdempotencyKey = stripe.String(fmt.Sprintf("cancel:%d:%s", t.ID, *t.StripeSubscriptionID))
	cancelParams.Context = ctx

	if _, err := stripesubscription.Cancel(*t.StripeSubscriptionID, cancelParams); err != nil {
		logger.Errorf("Stripe subscription cancel failed for tenant %d: %v", tenantID, err)
		return ErrProviderUnavailable
	}

	return s.ApplyCanceled(ctx, tenantID)
}

func (s *service) ApplyActivated(ctx context.Context, tenantID int, plan string, stripeCustomerID, stripeSubscriptionID string) error {
	p := tenant.Plan(plan)
	if !validPlan(p) {
		return ErrUnknownPlan
	}
	if err := s.tenants.UpdatePlan(ctx, tenantID, p); err != nil {
		return err
	}
	if stripeSubscriptionID != "" {
		if err := s.tenants.SetStripeRefs(ctx, tenantID, stripeCustomerID, stripeSubscriptionID); err != nil {
			return err
		}
	}
	if err := s.tenants.SetActive(ctx, tenantID, true); err != nil {
		return err
	}
	metrics.RecordPlanChange(plan)
	logger.Infof("Subscription active for tenant %d on plan %s", tenantID, plan)
	return nil
}

// ApplyCanceled deactivates the tenant. Rows are kept so the centre can
// reactivate later with history intact.
func (s *service) ApplyCanceled(ctx context.Context, tenantID int) error {
	if err := s.tenants.SetActive(ctx, tenantID, false); err != nil {
		return err
	}
	logger.Infof("Subscription cancelled for tenant %d", tenantID)
	return nil
}

func validPlan(p tenant.Plan) bool {
	switch p {
	case tenant.PlanStarter, tenant.PlanProfessional, tenant.PlanEnterprise:
		return true
	}
	return false
}
