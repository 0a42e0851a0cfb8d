package bundle

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"coursebook/internal/course"
	"coursebook/internal/customer"
	"coursebook/internal/email"
	"coursebook/internal/logger"
	"coursebook/internal/metrics"
	"coursebook/internal/payment"
	"coursebook/internal/tenant"
)

var (
	ErrSessionNotInBundle  = errors.New("selected session does not belong to a bundle course")
	ErrDuplicateCourse     = errors.New("bundle selections must cover distinct courses")
	ErrSelectionIncomplete = errors.New("a session must be selected for every course in the bundle")
	ErrSessionInPast       = errors.New("cannot book a session that has already started")
	ErrPaymentProvider     = errors.New("payment provider request failed")
)

type Service interface {
	CreateBooking(ctx context.Context, tenantID int, req CreateBundleBookingRequest) (*CreateBundleBookingResponse, error)
	CancelBooking(ctx context.Context, tenantID, bookingID int) error
}

type service struct {
	repo         Repository
	courseRepo   course.Repository
	customerRepo customer.Repository
	tenantRepo   tenant.Repository
	paymentRepo  payment.Repository
	intents      payment.IntentClient
	emailService *email.Service
}

func NewService(
	repo Repository,
	courseRepo course.Repository,
	customerRepo customer.Repository,
	tenantRepo tenant.Repository,
	paymentRepo payment.Repository,
	intents payment.IntentClient,
	emailService *email.Service,
) Service {
	return &service{
		repo:         repo,
		courseRepo:   courseRepo,
		customerRepo: customerRepo,
		tenantRepo:   tenantRepo,
		paymentRepo:  paymentRepo,
		intents:      intents,
		emailService: emailService,
	}
}

func (s *service) CreateBooking(ctx context.Context, tenantID int, req CreateBundleBookingRequest) (*CreateBundleBookingResponse, error) {
	b, err := s.repo.GetBundleByID(ctx, tenantID, req.BundleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		return nil, err
	}

	if len(req.SessionIDs) != len(b.CourseIDs) {
		return nil, ErrSelectionIncomplete
	}

	bundleCourses := map[int]bool{}
	for _, id := range b.CourseIDs {
		bundleCourses[id] = false
	}

	// Every selection must resolve to a distinct course inside the bundle and
	// lie in the future; the seat counts themselves are checked atomically in
	// the reservation transaction below.
	var firstTitle string
	var firstStart time.Time
	for _, sessionID := range req.SessionIDs {
		sess, err := s.courseRepo.GetSessionByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrSessionNotInBundle
			}
			return nil, err
		}
		if sess.TenantID != tenantID {
			return nil, ErrSessionNotInBundle
		}
		taken, ok := bundleCourses[sess.CourseID]
		if !ok {
			return nil, ErrSessionNotInBundle
		}
		if taken {
			return nil, ErrDuplicateCourse
		}
		bundleCourses[sess.CourseID] = true
		if sess.StartDate.Before(time.Now()) {
			return nil, ErrSessionInPast
		}
		if firstTitle == "" || sess.StartDate.Before(firstStart) {
			firstTitle = sess.CourseTitle
			firstStart = sess.StartDate
		}
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
	chargePence := payment.ChargeAmount(b.PricePence, paymentType, t.DepositPercent)

	var depositPence *int64
	if paymentType == payment.TypeDeposit {
		depositPence = &chargePence
	}

	bb, err := s.repo.CreateBookingWithReservations(ctx, tenantID, cust.ID, b.ID, req.SessionIDs, b.PricePence, depositPence)
	if err != nil {
		if errors.Is(err, course.ErrSessionFull) {
			metrics.RecordSessionFullRejection()
		}
		return nil, err
	}

	intent, err := s.intents.CreateIntent(ctx, chargePence, map[string]string{
		"bundle_booking_id": strconv.Itoa(bb.ID),
		"tenant_id":         strconv.Itoa(tenantID),
		"payment_type":      string(paymentType),
		"customer_email":    cust.Email,
		"customer_name":     cust.Name,
	})
	if err != nil {
		logger.Errorf("Payment intent request failed for bundle booking %d: %v", bb.ID, err)
		s.compensate(ctx, bb.ID)
		return nil, ErrPaymentProvider
	}

	p, err := s.paymentRepo.Create(ctx, tenantID, nil, &bb.ID, chargePence, paymentType, intent.ID)
	if err != nil {
		logger.Errorf("Payment record insert failed for bundle booking %d: %v", bb.ID, err)
		s.compensate(ctx, bb.ID)
		return nil, err
	}

	metrics.RecordBundleBooking(string(StatusPending), string(paymentType))

	if err := s.emailService.SendBookingConfirmation(ctx, cust.Email, cust.Name, b.Name, t.Name, firstStart, chargePence); err != nil {
		logger.Warnf("Could not queue confirmation email for bundle booking %d: %v", bb.ID, err)
	}

	return &CreateBundleBookingResponse{
		BundleBooking: bb,
		Payment:       p,
		ClientSecret:  intent.ClientSecret,
	}, nil
}

func (s *service) compensate(ctx context.Context, bookingID int) {
	if err := s.repo.CancelAndRelease(ctx, bookingID); err != nil {
		logger.Errorf("Failed to roll back bundle booking %d: %v", bookingID, err)
	}
}

func (s *service) CancelBooking(ctx context.Context, tenantID, bookingID int) error {
	bb, err := s.repo.GetBookingByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotCancellable
		}
		return err
	}

	if err := s.repo.CancelAndRelease(ctx, bb.ID); err != nil {
		return err
	}

	metrics.RecordBundleBooking(string(StatusCancelled), "")
	return nil
}
