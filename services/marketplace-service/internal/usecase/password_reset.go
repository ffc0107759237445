package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/auth"
	"github.com/vasapolrittideah/freelance-hub-api/shared/security"
)

// PasswordResetUsecase defines the business logic for resetting a forgotten password.
type PasswordResetUsecase interface {
	// RequestPasswordReset mails a password-reset code when the email belongs to a user.
	// Unknown emails succeed without issuing a code.
	RequestPasswordReset(ctx context.Context, email string) (*SendOTPResult, error)

	// ResetPassword stores a new password after proving control of the email,
	// either with the code itself or with a token from VerifyEmail, and revokes every session.
	// Both proofs are single-use.
	ResetPassword(ctx context.Context, params ResetPasswordParams) error
}

type ResetPasswordParams struct {
	Email             string
	Code              string
	VerificationToken string
	NewPassword       string
}

var ErrResetProofRequired = errors.New("otp or verification token is required")

type passwordResetUsecase struct {
	otpUsecase  OTPUsecase
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	verifier    *emailVerifier
	logger      *zerolog.Logger
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	otpUsecase OTPUsecase,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	grantRepo repository.VerificationGrantRepository,
	jwtAuth auth.JWTAuthenticator,
	logger *zerolog.Logger,
	cfg *config.Config,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		otpUsecase:  otpUsecase,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		verifier:    newEmailVerifier(jwtAuth, grantRepo, cfg.Token),
		logger:      logger,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) (*SendOTPResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Do not reveal whether the email exists.
			return &SendOTPResult{Issued: false}, nil
		}
		return nil, err
	}

	return u.otpUsecase.SendOTP(ctx, email, model.OTPPurposePasswordReset)
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return err
	}

	if len(params.NewPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	switch {
	case strings.TrimSpace(params.Code) != "":
		err = u.otpUsecase.VerifyOTP(ctx, email, model.OTPPurposePasswordReset, params.Code)
	case params.VerificationToken != "":
		err = u.verifier.redeem(ctx, params.VerificationToken, email, model.OTPPurposePasswordReset)
	default:
		err = ErrResetProofRequired
	}
	if err != nil {
		return err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	revoked, err := u.sessionRepo.DeleteUserSessions(ctx, user.ID.Hex())
	if err != nil {
		return err
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Int64("revoked_sessions", revoked).Msg("password reset")

	return nil
}
