package user

import (
	"context"
	"os"
	"testing"

	"coursebook/internal/auth"
	"coursebook/internal/email"
	"coursebook/internal/logger"
	"coursebook/internal/tenant"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockUserRepo struct{ mock.Mock }
type MockTenantRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, tenantID int, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, tenantID, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tenantID int, email string) (*User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, tenantID int, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) CountByTenant(ctx context.Context, tenantID int) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepo) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
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

const testJWTSecret = "test-jwt-secret"

func newTestService() (Service, *MockUserRepo, *MockTenantRepo, redismock.ClientMock) {
	repo := new(MockUserRepo)
	tenantRepo := new(MockTenantRepo)

	rdb, rmock := redismock.NewClientMock()
	emailService := email.NewWithClient(rdb, "noreply@coursebook.co.uk", "CourseBook")

	svc := NewService(repo, tenantRepo, rdb, emailService, testJWTSecret, "https://app.coursebook.co.uk")
	return svc, repo, tenantRepo, rmock
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	svc, repo, tenantRepo, _ := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("EmailExists", ctx, 1, "owner@acme.co.uk").Return(false, nil)
	repo.On("CountByTenant", ctx, 1).Return(0, nil)
	repo.On("Create", ctx, 1, "Owner", "owner@acme.co.uk", mock.AnythingOfType("string"), "admin").
		Return(&User{ID: 1, TenantID: 1, Name: "Owner", Email: "owner@acme.co.uk", Role: "admin"}, nil)

	u, access, refresh, err := svc.Register(ctx, RegisterRequest{
		TenantSlug: "acme",
		Name:       "Owner",
		Email:      "owner@acme.co.uk",
		Password:   "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	claims, err := auth.ValidateToken(access, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.TenantID)
	repo.AssertExpectations(t)
}

func TestRegisterSecondUserIsStaff(t *testing.T) {
	svc, repo, tenantRepo, _ := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("EmailExists", ctx, 1, "staff@acme.co.uk").Return(false, nil)
	repo.On("CountByTenant", ctx, 1).Return(1, nil)
	repo.On("Create", ctx, 1, "Staff", "staff@acme.co.uk", mock.AnythingOfType("string"), "staff").
		Return(&User{ID: 2, TenantID: 1, Name: "Staff", Email: "staff@acme.co.uk", Role: "staff"}, nil)

	u, _, _, err := svc.Register(ctx, RegisterRequest{
		TenantSlug: "acme",
		Name:       "Staff",
		Email:      "staff@acme.co.uk",
		Password:   "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "staff", u.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo, tenantRepo, _ := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("EmailExists", ctx, 1, "owner@acme.co.uk").Return(true, nil)

	_, _, _, err := svc.Register(ctx, RegisterRequest{
		TenantSlug: "acme",
		Name:       "Owner",
		Email:      "owner@acme.co.uk",
		Password:   "password123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterUnknownTenant(t *testing.T) {
	svc, _, tenantRepo, _ := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "nope").Return(nil, assert.AnError)

	_, _, _, err := svc.Register(ctx, RegisterRequest{
		TenantSlug: "nope",
		Name:       "Owner",
		Email:      "owner@acme.co.uk",
		Password:   "password123",
	})
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestLogin(t *testing.T) {
	svc, repo, tenantRepo, _ := newTestService()
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("FindByEmail", ctx, 1, "owner@acme.co.uk").
		Return(&User{ID: 1, TenantID: 1, Email: "owner@acme.co.uk", Role: "admin", PasswordHash: hash}, nil)

	u, access, _, err := svc.Login(ctx, LoginRequest{
		TenantSlug: "acme",
		Email:      "owner@acme.co.uk",
		Password:   "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.NotEmpty(t, access)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, tenantRepo, _ := newTestService()
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("FindByEmail", ctx, 1, "owner@acme.co.uk").
		Return(&User{ID: 1, TenantID: 1, Email: "owner@acme.co.uk", PasswordHash: hash}, nil)

	_, _, _, loginErr := svc.Login(ctx, LoginRequest{
		TenantSlug: "acme",
		Email:      "owner@acme.co.uk",
		Password:   "wrong",
	})
	assert.ErrorIs(t, loginErr, ErrInvalidCredentials)
}

func TestLoginUnknownUserDoesNotLeak(t *testing.T) {
	svc, repo, tenantRepo, _ := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("FindByEmail", ctx, 1, "ghost@acme.co.uk").Return(nil, ErrUserNotFound)

	_, _, _, err := svc.Login(ctx, LoginRequest{
		TenantSlug: "acme",
		Email:      "ghost@acme.co.uk",
		Password:   "whatever",
	})
	// The same error as a bad password, so callers cannot probe for accounts.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequestPasswordResetStoresTokenAndQueuesEmail(t *testing.T) {
	svc, repo, tenantRepo, rmock := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("FindByEmail", ctx, 1, "owner@acme.co.uk").
		Return(&User{ID: 1, TenantID: 1, Name: "Owner", Email: "owner@acme.co.uk"}, nil)

	rmock.Regexp().ExpectSet(`pwreset:.*`, `1`, resetTokenTTL).SetVal("OK")
	rmock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	err := svc.RequestPasswordReset(ctx, PasswordResetRequest{TenantSlug: "acme", Email: "owner@acme.co.uk"})
	assert.NoError(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRequestPasswordResetUnknownAccountIsSilent(t *testing.T) {
	svc, repo, tenantRepo, rmock := newTestService()
	ctx := context.Background()

	tenantRepo.On("GetBySlug", ctx, "acme").Return(&tenant.Tenant{ID: 1, Slug: "acme"}, nil)
	repo.On("FindByEmail", ctx, 1, "ghost@acme.co.uk").Return(nil, ErrUserNotFound)

	err := svc.RequestPasswordReset(ctx, PasswordResetRequest{TenantSlug: "acme", Email: "ghost@acme.co.uk"})
	assert.NoError(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestConfirmPasswordReset(t *testing.T) {
	svc, repo, _, rmock := newTestService()
	ctx := context.Background()

	rmock.ExpectGetDel("pwreset:tok-123").SetVal("1")
	repo.On("UpdatePassword", ctx, 1, mock.AnythingOfType("string")).Return(nil)

	err := svc.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: "tok-123", NewPassword: "newPassword1"})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestConfirmPasswordResetBadToken(t *testing.T) {
	svc, _, _, rmock := newTestService()
	ctx := context.Background()

	rmock.ExpectGetDel("pwreset:bad").RedisNil()

	err := svc.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: "bad", NewPassword: "newPassword1"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}
