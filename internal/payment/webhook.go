package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"coursebook/internal/email"
	"coursebook/internal/logger"
	"coursebook/internal/metrics"
	"coursebook/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const maxWebhookBody = 1 << 20 // Stripe events are small; cap reads hard.

// BookingConfirmer and BundleConfirmer flip a PENDING booking to CONFIRMED.
// They are narrow interfaces so this package never imports the booking or
// bundle packages.
type BookingConfirmer interface {
	ConfirmByID(ctx context.Context, id int) error
}

type BundleConfirmer interface {
	ConfirmByID(ctx context.Context, id int) error
}

// SubscriptionApplier lets tenant plan events reach the billing package.
type SubscriptionApplier interface {
	ApplyActivated(ctx context.Context, tenantID int, plan string, stripeCustomerID, stripeSubscriptionID string) error
	ApplyCanceled(ctx context.Context, tenantID int) error
}

type WebhookHandler struct {
	repo          Repository
	tenantRepo    tenant.Repository
	bookings      BookingConfirmer
	bundles       BundleConfirmer
	subscriptions SubscriptionApplier
	emailService  *email.Service
	secret        string
	tolerance     time.Duration
}

func NewWebhookHandler(
	repo Repository,
	tenantRepo tenant.Repository,
	bookings BookingConfirmer,
	bundles BundleConfirmer,
	subscriptions SubscriptionApplier,
	emailService *email.Service,
	secret string,
) *WebhookHandler {
	return &WebhookHandler{
		repo:          repo,
		tenantRepo:    tenantRepo,
		bookings:      bookings,
		bundles:       bundles,
		subscriptions: subscriptions,
		emailService:  emailService,
		secret:        secret,
		tolerance:     5 * time.Minute,
	}
}

// Handle godoc
// @Summary      Stripe webhook
// @Description  Signature verification is the authentication; no JWT on this route.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  gin.H
// @Failure      400  {object}  gin.H
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stripe webhook not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, c.GetHeader("Stripe-Signature"), h.secret, h.tolerance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ctx := c.Request.Context()
	evtType := string(evt.Type)
	logger.Infof("Stripe event received: %s (%s)", evt.ID, evtType)

	// Replays are acknowledged without reprocessing.
	if err := h.repo.InsertProviderEvent(ctx, "stripe", evt.ID, evtType); err != nil {
		if errors.Is(err, ErrDuplicateProviderEvent) {
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record event"})
		return
	}

	switch evtType {
	case "payment_intent.succeeded":
		h.handleIntentSucceeded(ctx, evt)
	case "payment_intent.payment_failed":
		h.handleIntentFailed(ctx, evt)
	case "charge.refunded":
		h.handleChargeRefunded(ctx, evt)
	case "customer.subscription.created", "customer.subscription.updated":
		h.handleSubscriptionActivated(ctx, evt)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(ctx, evt)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) handleIntentSucceeded(ctx context.Context, evt stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		logger.Errorf("Stripe: invalid payment intent payload: %v", err)
		return
	}

	p, err := h.repo.UpdateStatusByIntentID(ctx, pi.ID, StatusPaid)
	if err != nil {
		logger.Errorf("Stripe: no payment record for intent %s: %v", pi.ID, err)
		return
	}
	metrics.RecordPayment(string(StatusPaid))

	switch {
	case p.BookingID != nil:
		if err := h.bookings.ConfirmByID(ctx, *p.BookingID); err != nil {
			logger.Errorf("Failed to confirm booking %d: %v", *p.BookingID, err)
		}
	case p.BundleBookingID != nil:
		if err := h.bundles.ConfirmByID(ctx, *p.BundleBookingID); err != nil {
			logger.Errorf("Failed to confirm bundle booking %d: %v", *p.BundleBookingID, err)
		}
	}

	if to := pi.Metadata["customer_email"]; to != "" {
		centreName := "your training centre"
		if t, err := h.tenantRepo.GetByID(ctx, p.TenantID); err == nil {
			centreName = t.Name
		}
		if err := h.emailService.SendPaymentReceipt(ctx, to, pi.Metadata["customer_name"], p.AmountPence, centreName); err != nil {
			logger.Warnf("Could not queue receipt for intent %s: %v", pi.ID, err)
		}
	}
}

func (h *WebhookHandler) handleIntentFailed(ctx context.Context, evt stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		logger.Errorf("Stripe: invalid payment intent payload: %v", err)
		return
	}

	if _, err := h.repo.UpdateStatusByIntentID(ctx, pi.ID, StatusFailed); err != nil {
		logger.Errorf("Stripe: no payment record for failed intent %s: %v", pi.ID, err)
		return
	}
	metrics.RecordPayment(string(StatusFailed))
}

func (h *WebhookHandler) handleChargeRefunded(ctx context.Context, evt stripe.Event) {
	var ch stripe.Charge
	if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
		logger.Errorf("Stripe: invalid charge payload: %v", err)
		return
	}
	if ch.PaymentIntent == nil {
		return
	}

	if _, err := h.repo.UpdateStatusByIntentID(ctx, ch.PaymentIntent.ID, StatusRefunded); err != nil {
		logger.Errorf("Stripe: no payment record for refunded intent %s: %v", ch.PaymentIntent.ID, err)
		return
	}
	metrics.RecordPayment(string(StatusRefunded))
}

func (h *WebhookHandler) handleSubscriptionActivated(ctx context.Context, evt stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
		logger.Errorf("Stripe: invalid subscription payload: %v", err)
		return
	}

	// Only active or trialing subscriptions grant entitlements.
	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		return
	}

	tenantID, plan, ok := tenantMetadata(sub.Metadata)
	if !ok {
		logger.Warnf("Stripe: subscription %s missing tenant metadata", sub.ID)
		return
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	if err := h.subscriptions.ApplyActivated(ctx, tenantID, plan, customerID, sub.ID); err != nil {
		logger.Errorf("Failed to apply subscription activation for tenant %d: %v", tenantID, err)
	}
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, evt stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
		logger.Errorf("Stripe: invalid subscription payload: %v", err)
		return
	}

	tenantID, _, ok := tenantMetadata(sub.Metadata)
	if !ok {
		logger.Warnf("Stripe: subscription %s missing tenant metadata", sub.ID)
		return
	}

	if err := h.subscriptions.ApplyCanceled(ctx, tenantID); err != nil {
		logger.Errorf("Failed to apply subscription cancellation for tenant %d: %v", tenantID, err)
	}
}

func tenantMetadata(metadata map[string]string) (int, string, bool) {
	tenantID, err := strconv.Atoi(metadata["tenant_id"])
	if err != nil {
		return 0, "", false
	}
	return tenantID, metadata["plan"], true
}
