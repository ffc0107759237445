package handler

import (
	"net/http"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

func (h *authHTTPHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	result, err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The same message is returned whether or not the email has an account.
	response.JSON(w, http.StatusOK, payload.SendOTPResponse{
		Success: true,
		Message: "If an account exists for this email, a reset code has been sent",
		OTP:     result.Code,
	})
}

func (h *authHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	err := h.passwordResetUsecase.ResetPassword(r.Context(), usecase.ResetPasswordParams{
		Email:             req.Email,
		Code:              req.OTP,
		VerificationToken: req.VerificationToken,
		NewPassword:       req.NewPassword,
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("password reset rejected")
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.MessageResponse{Success: true, Message: "Password reset successfully"})
}
