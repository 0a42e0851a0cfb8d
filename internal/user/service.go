package user

import (
	"context"
	"errors"
	"strconv"
	"time"

	"coursebook/internal/auth"
	"coursebook/internal/email"
	"coursebook/internal/logger"
	"coursebook/internal/tenant"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const (
	resetKeyPrefix = "pwreset:"
	resetTokenTTL  = time.Hour
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error
}

type service struct {
	repo         Repository
	tenantRepo   tenant.Repository
	redis        *redis.Client
	emailService *email.Service
	jwtSecret    string
	appURL       string
}

func NewService(repo Repository, tenantRepo tenant.Repository, redisClient *redis.Client, emailService *email.Service, jwtSecret, appURL string) Service {
	return &service{
		repo:         repo,
		tenantRepo:   tenantRepo,
		redis:        redisClient,
		emailService: emailService,
		jwtSecret:    jwtSecret,
		appURL:       appURL,
	}
}

// Register creates a staff account under the named centre. The first account
// for a centre becomes its admin.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	t, err := s.tenantRepo.GetBySlug(ctx, req.TenantSlug)
	if err != nil {
		return nil, "", "", ErrTenantNotFound
	}

	exists, err := s.repo.EmailExists(ctx, t.ID, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	role := "staff"
	count, err := s.repo.CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, "", "", err
	}
	if count == 0 {
		role = "admin"
	}

	u, err := s.repo.Create(ctx, t.ID, req.Name, req.Email, passwordHash, role)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.TenantID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	t, err := s.tenantRepo.GetBySlug(ctx, req.TenantSlug)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, t.ID, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.TenantID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	newAccessToken, err := auth.GenerateAccessToken(u.ID, u.TenantID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

// RequestPasswordReset never reports whether the account exists.
func (s *service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	t, err := s.tenantRepo.GetBySlug(ctx, req.TenantSlug)
	if err != nil {
		return nil
	}

	u, err := s.repo.FindByEmail(ctx, t.ID, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	if err := s.redis.Set(ctx, resetKeyPrefix+token, u.ID, resetTokenTTL).Err(); err != nil {
		return err
	}

	resetURL := s.appURL + "/reset-password?token=" + token
	if err := s.emailService.SendPasswordReset(ctx, u.Email, u.Name, resetURL); err != nil {
		logger.Warnf("Could not queue password reset email for user %d: %v", u.ID, err)
	}
	return nil
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	val, err := s.redis.GetDel(ctx, resetKeyPrefix+req.Token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidResetToken
		}
		return err
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return ErrInvalidResetToken
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}
