// Package auth covers registration and the phone + one-time-passcode
// login flow. OTP challenges live in the expiring cache under
// otp?phone=<phone> and are single-use: a successful verification deletes
// the challenge before issuing a token.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/example/ride-hail/internal/cache"
	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/storage"
	"github.com/example/ride-hail/internal/token"
)

var (
	ErrNotRegistered = errors.New("user not registered")
	ErrInvalidOTP    = errors.New("invalid otp")
	ErrUnknownRole   = errors.New("unknown role")
)

// OTPKeyPrefix is the cache key namespace for pending challenges, fixed
// for compatibility with existing cache inspection tooling.
const OTPKeyPrefix = "otp?phone="

const DefaultOTPTTL = 60 * time.Second

type Service struct {
	users  storage.UserStore
	cache  cache.Store
	tokens *token.Service
	sms    dispatch.SMSSender
	otpTTL time.Duration
	logger *slog.Logger
}

func NewService(users storage.UserStore, c cache.Store, tokens *token.Service, sms dispatch.SMSSender, otpTTL time.Duration, logger *slog.Logger) *Service {
	if otpTTL <= 0 {
		otpTTL = DefaultOTPTTL
	}
	return &Service{users: users, cache: c, tokens: tokens, sms: sms, otpTTL: otpTTL, logger: logger}
}

func otpKey(phone string) string { return OTPKeyPrefix + phone }

func tableForRole(role string) (string, error) {
	switch role {
	case models.RoleDriver:
		return storage.TableDrivers, nil
	case models.RoleRider:
		return storage.TableRiders, nil
	}
	return "", ErrUnknownRole
}

// Register creates a rider or driver. Phone and email uniqueness is
// enforced by the store and surfaces as storage.ErrPhoneTaken /
// storage.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, role, name, phone, email string) (*models.User, error) {
	table, err := tableForRole(role)
	if err != nil {
		return nil, err
	}
	u, err := s.users.CreateUser(ctx, table, models.User{Name: name, Phone: phone, Email: email, Role: role})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "role", role, "user_id", u.ID)
	return u, nil
}

// Login starts an OTP challenge for a registered phone. The code lands in
// the cache with a short TTL and goes out through the SMS collaborator.
func (s *Service) Login(ctx context.Context, role, phone string) error {
	table, err := tableForRole(role)
	if err != nil {
		return err
	}
	if _, err := s.users.FindUserByPhone(ctx, table, phone); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotRegistered
		}
		return fmt.Errorf("login lookup: %w", err)
	}
	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.cache.SetWithTTL(ctx, otpKey(phone), code, s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.sms.SendOTP(phone, code)
}

// VerifyOTP checks the pending challenge and, on a match, consumes it and
// issues a signed token for the user.
func (s *Service) VerifyOTP(ctx context.Context, role, phone, code string) (string, *models.User, error) {
	table, err := tableForRole(role)
	if err != nil {
		return "", nil, err
	}
	sent, err := s.cache.Get(ctx, otpKey(phone))
	if errors.Is(err, cache.ErrMiss) {
		return "", nil, ErrInvalidOTP
	}
	if err != nil {
		return "", nil, fmt.Errorf("load otp: %w", err)
	}
	if sent != code {
		return "", nil, ErrInvalidOTP
	}
	u, err := s.users.FindUserByPhone(ctx, table, phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrNotRegistered
		}
		return "", nil, fmt.Errorf("verify lookup: %w", err)
	}
	if err := s.cache.Delete(ctx, otpKey(phone)); err != nil {
		return "", nil, fmt.Errorf("consume otp: %w", err)
	}
	tok, err := s.tokens.Issue(u.ID, u.Phone, role)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("otp verified", "role", role, "user_id", u.ID)
	return tok, u, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
