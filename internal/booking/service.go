package booking

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"coursebook/internal/achievement"
	"coursebook/internal/course"
	"coursebook/internal/customer"
	"coursebook/internal/email"
	"coursebook/internal/logger"
	"coursebook/internal/metrics"
	"coursebook/internal/payment"
	"coursebook/internal/tenant"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInPast   = errors.New("cannot book a session that has already started")
	ErrPaymentProvider = errors.New("payment provider request failed")
)

type Service interface {
	CreateBooking(ctx context.Context, tenantID int, req CreateBookingRequest) (*CreateBookingResponse, error)
	CancelBooking(ctx context.Context, tenantID, bookingID int) error
	CompleteBooking(ctx context.Context, tenantID, bookingID int) (*Booking, error)
}

type service struct {
	repo            Repository
	courseRepo      course.Repository
	customerRepo    customer.Repository
	tenantRepo      tenant.Repository
	paymentRepo     payment.Repository
	achievementRepo achievement.Repository
	intents         payment.IntentClient
	emailService    *email.Service
}

func NewService(
	repo Repository,
	courseRepo course.Repository,
	customerRepo customer.Repository,
	tenantRepo tenant.Repository,
	paymentRepo payment.Repository,
	achievementRepo achievement.Repository,
	intents payment.IntentClient,
	emailService *email.Service,
) Service {
	return &service{
		repo:            repo,
		courseRepo:      courseRepo,
		customerRepo:    customerRepo,
		tenantRepo:      tenantRepo,
		paymentRepo:     paymentRepo,
		achievementRepo: achievementRepo,
		intents:         intents,
		emailService:    emailService,
	}
}

// CreateBooking reserves the seat, writes the booking, requests the payment
// intent and records the Payment, in that order. The seat reservation and
// booking insert commit together; a payment-provider failure afterwards rolls
// the booking back by compensation so no orphan survives the request.
func (s *service) CreateBooking(ctx context.Context, tenantID int, req CreateBookingRequest) (*CreateBookingResponse, error) {
	sess, err := s.courseRepo.GetSessionByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.TenantID != tenantID {
		return nil, ErrSessionNotFound
	}
	if sess.StartDate.Before(time.Now()) {
		return nil, ErrSessionInPast
	}

	t, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	cust, err := s.customerRepo.Upsert(ctx, tenantID, req.Email, req.Name, req.Phone)
	if err != nil {
		return nil, err
	}

	paymentType := payment.Type(req.PaymentType)
	chargePence := payment.ChargeAmount(sess.PricePence, paymentType, t.DepositPercent)

	var depositPence *int64
	if paymentType == payment.TypeDeposit {
		depositPence = &chargePence
	}

	b, err := s.repo.CreateWithReservation(ctx, tenantID, cust.ID, sess.ID, sess.PricePence, depositPence)
	if err != nil {
		if errors.Is(err, course.ErrSessionFull) {
			metrics.RecordSessionFullRejection()
		}
		return nil, err
	}

	intent, err := s.intents.CreateIntent(ctx, chargePence, map[string]string{
		"booking_id":     strconv.Itoa(b.ID),
		"tenant_id":      strconv.Itoa(tenantID),
		"payment_type":   string(paymentType),
		"customer_email": cust.Email,
		"customer_name":  cust.Name,
	})
	if err != nil {
		logger.Errorf("Payment intent request failed for booking %d: %v", b.ID, err)
		s.compensate(ctx, b.ID)
		return nil, ErrPaymentProvider
	}

	p, err := s.paymentRepo.Create(ctx, tenantID, &b.ID, nil, chargePence, paymentType, intent.ID)
	if err != nil {
		logger.Errorf("Payment record insert failed for booking %d: %v", b.ID, err)
		s.compensate(ctx, b.ID)
		return nil, err
	}

	metrics.RecordBooking(string(StatusPending), string(paymentType))

	// Best effort: a notification failure must never fail the booking.
	if err := s.emailService.SendBookingConfirmation(ctx, cust.Email, cust.Name, sess.CourseTitle, t.Name, sess.StartDate, chargePence); err != nil {
		logger.Warnf("Could not queue confirmation email for booking %d: %v", b.ID, err)
	}

	return &CreateBookingResponse{
		Booking:      b,
		Payment:      p,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *service) compensate(ctx context.Context, bookingID int) {
	if err := s.repo.CancelAndRelease(ctx, bookingID); err != nil {
		// The reconciliation sweep picks this up if the cancel itself fails.
		logger.Errorf("Failed to roll back booking %d: %v", bookingID, err)
	}
}

func (s *service) CancelBooking(ctx context.Context, tenantID, bookingID int) error {
	b, err := s.repo.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}

	if err := s.repo.CancelAndRelease(ctx, b.ID); err != nil {
		return err
	}

	sess, err := s.courseRepo.GetSessionByID(ctx, b.SessionID)
	if err == nil {
		if cust, cerr := s.customerRepo.GetByID(ctx, tenantID, b.CustomerID); cerr == nil {
			if t, terr := s.tenantRepo.GetByID(ctx, tenantID); terr == nil {
				if err := s.emailService.SendBookingCancellation(ctx, cust.Email, cust.Name, sess.CourseTitle, t.Name); err != nil {
					logger.Warnf("Could not queue cancellation email for booking %d: %v", b.ID, err)
				}
			}
		}
	}

	metrics.RecordBooking(string(StatusCancelled), "")
	return nil
}

// CompleteBooking marks a confirmed booking as delivered and recomputes the
// student's achievement for that course from their full completion history.
func (s *service) CompleteBooking(ctx context.Context, tenantID, bookingID int) (*Booking, error) {
	b, err := s.repo.CompleteByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotCompletable
		}
		return nil, err
	}

	sess, err := s.courseRepo.GetSessionByID(ctx, b.SessionID)
	if err != nil {
		return b, nil
	}

	completed, categories, err := s.achievementRepo.CompletedStats(ctx, tenantID, b.CustomerID)
	if err != nil {
		logger.Errorf("Failed to load completion stats for customer %d: %v", b.CustomerID, err)
		return b, nil
	}

	level := achievement.CalculateLevel(completed, categories)
	if _, err := s.achievementRepo.Upsert(ctx, tenantID, b.CustomerID, sess.CourseID, sess.Category, level); err != nil {
		logger.Errorf("Failed to upsert achievement for customer %d: %v", b.CustomerID, err)
		return b, nil
	}

	metrics.RecordAchievement(string(level))
	return b, nil
}
