package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/middleware"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

type authHTTPHandler struct {
	authUsecase          usecase.AuthUsecase
	otpUsecase           usecase.OTPUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	decoder              requestDecoder
	logger               *zerolog.Logger
}

func (h *authHTTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.SendOTPRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	result, err := h.otpUsecase.SendOTP(r.Context(), req.Email, otpPurpose(req.Purpose))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.SendOTPResponse{
		Success: true,
		Message: "OTP sent to your email",
		OTP:     result.Code,
	})
}

func (h *authHTTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyOTPRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	token, err := h.authUsecase.VerifyEmail(r.Context(), usecase.VerifyEmailParams{
		Email:   req.Email,
		Purpose: otpPurpose(req.Purpose),
		Code:    req.OTP,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.VerifyOTPResponse{
		Success:           true,
		Message:           "Email verified successfully",
		VerificationToken: token,
	})
}

func (h *authHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:              req.Name,
		Email:             req.Email,
		Password:          req.Password,
		Role:              model.Role(req.UserType),
		VerificationToken: req.VerificationToken,
		Profile: model.UserProfile{
			Title:      req.Title,
			Skills:     req.Skills,
			Bio:        req.Bio,
			HourlyRate: req.HourlyRate,
			Location:   req.Location,
		},
		ClientInfo: clientInfo(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, payload.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    payload.NewUserResponse(result.User),
	})
}

func (h *authHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:      req.Email,
		Password:   req.Password,
		ClientInfo: clientInfo(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    payload.NewUserResponse(result.User),
	})
}

func (h *authHTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		response.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	user, err := h.authUsecase.GetCurrentUser(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.DataResponse{Success: true, Data: payload.NewUserResponse(user)})
}

func (h *authHTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateProfileRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	user, err := h.authUsecase.UpdateProfile(r.Context(), userID, usecase.UpdateProfileParams{
		Name:       req.Name,
		Title:      req.Title,
		Skills:     req.Skills,
		Bio:        req.Bio,
		HourlyRate: req.HourlyRate,
		Location:   req.Location,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.DataResponse{Success: true, Data: payload.NewUserResponse(user)})
}

func (h *authHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	if err := h.authUsecase.Logout(r.Context(), claims.SessionID); err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.MessageResponse{Success: true, Message: "Logged out successfully"})
}

func otpPurpose(purpose string) model.OTPPurpose {
	if purpose == "" {
		return model.OTPPurposeRegistration
	}
	return model.OTPPurpose(purpose)
}

func clientInfo(r *http.Request) usecase.ClientInfo {
	return usecase.ClientInfo{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
