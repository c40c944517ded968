// README: Email one-time passcodes; expiry is checked lazily when a code is verified.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bitebay/internal/apperr"
	"bitebay/internal/infra"
	"bitebay/internal/logger"
)

const codeDigits = 6

var (
	ErrInvalidEmail = apperr.New(apperr.ErrValidation, "a valid email is required")
	ErrInvalidCode  = apperr.New(apperr.ErrValidation, "invalid code")
	ErrExpired      = apperr.New(apperr.ErrValidation, "code expired")
)

type Record struct {
	Email     string
	CodeHash  string
	CreatedAt time.Time
}

type Service struct {
	store    Repository
	mailer   infra.Mailer
	ttl      time.Duration
	now      func() time.Time
	validate *validator.Validate
}

func NewService(store Repository, mailer infra.Mailer, ttl time.Duration) *Service {
	return &Service{
		store:    store,
		mailer:   mailer,
		ttl:      ttl,
		now:      time.Now,
		validate: validator.New(),
	}
}

func (s *Service) normalize(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Issue replaces any outstanding code for email and mails the new one.
func (s *Service) Issue(ctx context.Context, email string) error {
	email, err := s.normalize(email)
	if err != nil {
		return err
	}
	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.store.Upsert(ctx, Record{Email: email, CodeHash: string(hash), CreatedAt: s.now().UTC()}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	minutes := int(s.ttl.Round(time.Minute) / time.Minute)
	if err := s.mailer.Send(ctx, infra.Email{
		To:      email,
		Subject: "Your bitebay verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
	}); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	logger.FromCtx(ctx).Info("otp issued", zap.String("layer", "service"), zap.String("email", email))
	return nil
}

// Verify consumes the code for email. Expired rows are deleted on lookup.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email, err := s.normalize(email)
	if err != nil {
		return err
	}
	rec, err := s.store.Get(ctx, email)
	if errors.Is(err, ErrNoCode) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if s.now().Sub(rec.CreatedAt) > s.ttl {
		if err := s.store.Delete(ctx, email); err != nil {
			logger.FromCtx(ctx).Warn("delete expired otp failed", zap.String("email", email), zap.Error(err))
		}
		return ErrExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return ErrInvalidCode
	}
	if err := s.store.Delete(ctx, email); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

func newCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
