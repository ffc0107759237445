package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/mailer"
	"github.com/vasapolrittideah/freelance-hub-api/shared/validation"
)

// OTPUsecase defines the business logic for one-time email codes.
type OTPUsecase interface {
	// SendOTP replaces any outstanding code for the email and purpose with a new one and mails it.
	SendOTP(ctx context.Context, email string, purpose model.OTPPurpose) (*SendOTPResult, error)

	// VerifyOTP checks code against the latest code issued for the email and purpose and consumes it.
	VerifyOTP(ctx context.Context, email string, purpose model.OTPPurpose, code string) error
}

// SendOTPResult reports the outcome of issuing a code. Code is only set in development.
type SendOTPResult struct {
	Issued bool
	Code   string
}

var (
	ErrInvalidEmail           = errors.New("please provide a valid email address")
	ErrInvalidOTPPurpose      = errors.New("invalid otp purpose")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrOTPNotFound            = errors.New("otp not found or already used")
	ErrOTPExpired             = errors.New("otp has expired")
	ErrOTPMismatch            = errors.New("invalid otp")
)

const otpDigits = 6

var validate = validation.New()

type otpUsecase struct {
	otpRepo     repository.OTPRepository
	userRepo    repository.UserRepository
	sender      mailer.Sender
	logger      *zerolog.Logger
	expiresIn   time.Duration
	development bool
	now         func() time.Time
	generate    func() (string, error)
}

func NewOTPUsecase(
	otpRepo repository.OTPRepository,
	userRepo repository.UserRepository,
	sender mailer.Sender,
	logger *zerolog.Logger,
	cfg *config.Config,
) OTPUsecase {
	return &otpUsecase{
		otpRepo:     otpRepo,
		userRepo:    userRepo,
		sender:      sender,
		logger:      logger,
		expiresIn:   cfg.OTP.ExpiresIn,
		development: cfg.IsDevelopment(),
		now:         time.Now,
		generate:    generateOTPCode,
	}
}

func (u *otpUsecase) SendOTP(ctx context.Context, email string, purpose model.OTPPurpose) (*SendOTPResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if !purpose.Valid() {
		return nil, ErrInvalidOTPPurpose
	}

	if purpose == model.OTPPurposeRegistration {
		user, err := u.userRepo.GetUserByEmail(ctx, email)
		switch {
		case err == nil && user.Verified:
			return nil, ErrEmailAlreadyRegistered
		case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
			return nil, err
		}
	}

	if _, err := u.otpRepo.DeleteOTPs(ctx, email, purpose); err != nil {
		return nil, err
	}

	code, err := u.generate()
	if err != nil {
		return nil, err
	}

	now := u.now()
	if _, err := u.otpRepo.CreateOTP(ctx, &model.OTP{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(u.expiresIn),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	u.deliver(email, purpose, code)

	result := &SendOTPResult{Issued: true}
	if u.development {
		result.Code = code
	}

	return result, nil
}

func (u *otpUsecase) VerifyOTP(ctx context.Context, email string, purpose model.OTPPurpose, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if !purpose.Valid() {
		return ErrInvalidOTPPurpose
	}

	otp, err := u.otpRepo.GetLatestOTP(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrOTPNotFound
		}
		return err
	}

	if otp.Expired(u.now()) {
		if _, err := u.otpRepo.DeleteOTP(ctx, otp.ID); err != nil {
			return err
		}
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(strings.TrimSpace(code))) != 1 {
		return ErrOTPMismatch
	}

	// Only the caller whose delete removes the record wins a concurrent verification.
	consumed, err := u.otpRepo.DeleteOTP(ctx, otp.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrOTPNotFound
	}

	return nil
}

// deliver mails the code. Delivery failures are logged together with the code and never surfaced.
func (u *otpUsecase) deliver(email string, purpose model.OTPPurpose, code string) {
	subject, intro := "Verify your email", "Use this code to finish creating your Freelance Hub account:"
	if purpose == model.OTPPurposePasswordReset {
		subject, intro = "Reset your password", "Use this code to reset your Freelance Hub password:"
	}

	minutes := int(u.expiresIn.Minutes())
	textBody := fmt.Sprintf("%s\n\n%s\n\nThe code expires in %d minutes.", intro, code, minutes)
	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>%s</p>
		<h2 style="letter-spacing: 4px;">%s</h2>
		<p>The code expires in %d minutes. If you did not request it, you can ignore this email.</p>
		<p>Freelance Hub Team</p>
	`, intro, code, minutes)

	err := u.sender.Send(mailer.Email{
		To:       []string{email},
		Subject:  subject,
		Body:     textBody,
		HTMLBody: htmlBody,
	})
	if err != nil {
		u.logger.Warn().
			Err(err).
			Str("email", email).
			Str("purpose", string(purpose)).
			Str("otp", code).
			Msg("otp email not delivered, code logged instead")
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// generateOTPCode returns a uniformly random zero-padded decimal code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
