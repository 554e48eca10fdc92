package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/utils"
	"golang.org/x/crypto/bcrypt"
)

// OTPService issues password reset codes. Codes live in the store with an
// expiry, never in process memory.
type OTPService struct {
	store       OTPStore
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	generate    func() (string, error)
}

func NewOTPService(store OTPStore, ttl time.Duration, maxAttempts int) *OTPService {
	return &OTPService{
		store:       store,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
		generate:    utils.GenerateOTP,
	}
}

// Issue stores a fresh code for email, replacing any earlier one, and
// returns the plain code for delivery.
func (s *OTPService) Issue(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ValidationError("email", "email is required")
	}
	code, err := s.generate()
	if err != nil {
		return "", StoreError("generate otp", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", StoreError("hash otp", err)
	}
	now := s.now()
	err = s.store.UpsertOTP(ctx, &models.PasswordResetOTP{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", StoreError("save otp", err)
	}
	return code, nil
}

func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	otp, err := s.load(ctx, email)
	if err != nil {
		return err
	}
	if otp.Attempts >= s.maxAttempts {
		return ForbiddenError("otp-locked", "Too many attempts. Request a new code.")
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		otp.Attempts++
		if err := s.store.UpdateOTP(ctx, otp); err != nil {
			return StoreError("update otp", err)
		}
		return ValidationError("otp-invalid", "Invalid OTP")
	}
	verified := s.now()
	otp.VerifiedAt = &verified
	if err := s.store.UpdateOTP(ctx, otp); err != nil {
		return StoreError("update otp", err)
	}
	return nil
}

// Consume succeeds once per verified code and removes it.
func (s *OTPService) Consume(ctx context.Context, email string) error {
	otp, err := s.load(ctx, email)
	if err != nil {
		return err
	}
	if otp.VerifiedAt == nil {
		return ForbiddenError("otp-unverified", "Verify the OTP before resetting the password")
	}
	if err := s.store.DeleteOTP(ctx, otp.Email); err != nil {
		return StoreError("delete otp", err)
	}
	return nil
}

// Sweep deletes expired codes and reports how many were removed.
func (s *OTPService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredOTPs(ctx, s.now())
	if err != nil {
		return 0, StoreError("sweep otps", err)
	}
	return n, nil
}

func (s *OTPService) load(ctx context.Context, email string) (*models.PasswordResetOTP, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ValidationError("email", "email is required")
	}
	otp, err := s.store.FindOTP(ctx, email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NotFoundError("otp", "No OTP requested for this email")
		}
		return nil, StoreError("find otp", err)
	}
	if !s.now().Before(otp.ExpiresAt) {
		if err := s.store.DeleteOTP(ctx, otp.Email); err != nil {
			return nil, StoreError("delete otp", err)
		}
		return nil, ValidationError("otp-expired", "OTP has expired")
	}
	return otp, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *OTPService) TTL() time.Duration {
	return s.ttl
}
