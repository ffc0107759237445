package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/auth"
)

var ErrEmailNotVerified = errors.New("email verification required")

// emailVerifier issues and redeems the short-lived tokens that prove a code was verified.
// Each token is backed by a stored grant and can be redeemed once.
type emailVerifier struct {
	jwtAuth   auth.JWTAuthenticator
	grants    repository.VerificationGrantRepository
	secret    string
	expiresIn time.Duration
}

func (v *emailVerifier) issue(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
	now time.Time,
) (string, error) {
	claims := auth.EmailVerificationClaims{
		Email:            email,
		Purpose:          string(purpose),
		RegisteredClaims: v.jwtAuth.NewRegisteredClaims(email, now, v.expiresIn),
	}

	token, err := v.jwtAuth.GenerateToken(claims, v.secret)
	if err != nil {
		return "", err
	}

	if err := v.grants.CreateGrant(ctx, &model.VerificationGrant{
		TokenID:   claims.ID,
		Email:     email,
		Purpose:   purpose,
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: now,
	}); err != nil {
		return "", err
	}

	return token, nil
}

// redeem validates token for email and purpose and consumes its grant.
func (v *emailVerifier) redeem(ctx context.Context, token, email string, purpose model.OTPPurpose) error {
	if token == "" {
		return ErrEmailNotVerified
	}

	var claims auth.EmailVerificationClaims
	if _, err := v.jwtAuth.ValidateTokenWithClaims(token, v.secret, &claims); err != nil {
		return ErrEmailNotVerified
	}

	if claims.Email != email || claims.Purpose != string(purpose) || claims.ID == "" {
		return ErrEmailNotVerified
	}

	consumed, err := v.grants.ConsumeGrant(ctx, claims.ID, email, purpose)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrEmailNotVerified
	}

	return nil
}
