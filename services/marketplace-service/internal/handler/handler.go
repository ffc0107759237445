package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/middleware"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
	"github.com/vasapolrittideah/freelance-hub-api/shared/validation"
)

const maxBodyBytes = 1 << 20

var (
	badRequestErrors = []error{
		usecase.ErrInvalidEmail,
		usecase.ErrInvalidOTPPurpose,
		usecase.ErrOTPExpired,
		usecase.ErrOTPMismatch,
		usecase.ErrNameRequired,
		usecase.ErrWeakPassword,
		usecase.ErrInvalidRole,
		usecase.ErrNoProfileChanges,
		usecase.ErrResetProofRequired,
		usecase.ErrPortfolioIncomplete,
		usecase.ErrProjectTitle,
		usecase.ErrProjectCategory,
		usecase.ErrInvalidExperience,
	}
	notFoundErrors = []error{
		usecase.ErrOTPNotFound,
		usecase.ErrUserNotFound,
		usecase.ErrPortfolioNotFound,
		usecase.ErrProjectNotFound,
	}
	conflictErrors = []error{
		usecase.ErrUserAlreadyExists,
		usecase.ErrEmailAlreadyRegistered,
	}
)

// requestDecoder reads JSON request bodies and validates them against their struct tags.
type requestDecoder struct {
	validator *validation.Validator
}

// decode writes a 400 response and returns false when the body is malformed or invalid.
func (d requestDecoder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := d.validator.Struct(dst); err != nil {
		var fieldErrs validation.FieldErrors
		if errors.As(err, &fieldErrs) {
			response.FailWithFields(w, http.StatusBadRequest, "Validation failed", fieldErrs)
			return false
		}

		writeError(w, r, err)
		return false
	}

	return true
}

// writeError maps usecase errors to status codes. Unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Fail(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, usecase.ErrUnauthorized):
		response.Fail(w, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, usecase.ErrEmailNotVerified):
		response.Fail(w, http.StatusUnauthorized, "Email verification required")
	default:
		if target, ok := matchError(err, badRequestErrors); ok {
			response.Fail(w, http.StatusBadRequest, sentence(target.Error()))
			return
		}
		if target, ok := matchError(err, notFoundErrors); ok {
			response.Fail(w, http.StatusNotFound, sentence(target.Error()))
			return
		}
		if target, ok := matchError(err, conflictErrors); ok {
			response.Fail(w, http.StatusConflict, sentence(target.Error()))
			return
		}

		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		response.Fail(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func matchError(err error, targets []error) (error, bool) {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target, true
		}
	}
	return nil, false
}

func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// sessionUserID returns the user ID of the authenticated session.
func sessionUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Not authorized")
		return "", false
	}
	return claims.UserID, true
}
