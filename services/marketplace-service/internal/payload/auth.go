package payload

import (
	"time"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
)

type SendOTPRequest struct {
	Email   string `json:"email"   validate:"required,email"`
	Purpose string `json:"purpose" validate:"omitempty,oneof=registration password-reset"`
}

type SendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email"   validate:"required,email"`
	OTP     string `json:"otp"     validate:"required,len=6,numeric"`
	Purpose string `json:"purpose" validate:"omitempty,oneof=registration password-reset"`
}

type VerifyOTPResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	VerificationToken string `json:"verificationToken"`
}

type RegisterRequest struct {
	Name              string   `json:"name"              validate:"required,max=100"`
	Email             string   `json:"email"             validate:"required,email"`
	Password          string   `json:"password"          validate:"required,min=8,max=128"`
	UserType          string   `json:"userType"          validate:"omitempty,oneof=freelancer client"`
	VerificationToken string   `json:"verificationToken" validate:"required"`
	Title             string   `json:"title"             validate:"max=150"`
	Skills            []string `json:"skills"            validate:"max=50,dive,max=50"`
	Bio               string   `json:"bio"               validate:"max=2000"`
	HourlyRate        float64  `json:"hourlyRate"        validate:"gte=0"`
	Location          string   `json:"location"          validate:"max=150"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email             string `json:"email"             validate:"required,email"`
	OTP               string `json:"otp"               validate:"omitempty,len=6,numeric"`
	VerificationToken string `json:"verificationToken"`
	NewPassword       string `json:"newPassword"       validate:"required,min=8,max=128"`
}

type UpdateProfileRequest struct {
	Name       *string   `json:"name"       validate:"omitempty,min=1,max=100"`
	Title      *string   `json:"title"      validate:"omitempty,max=150"`
	Skills     *[]string `json:"skills"     validate:"omitempty,max=50,dive,max=50"`
	Bio        *string   `json:"bio"        validate:"omitempty,max=2000"`
	HourlyRate *float64  `json:"hourlyRate" validate:"omitempty,gte=0"`
	Location   *string   `json:"location"   validate:"omitempty,max=150"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// UserResponse is the public view of a user. The password hash never leaves the service.
type UserResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	UserType   string          `json:"userType"`
	IsVerified bool            `json:"isVerified"`
	Profile    ProfileResponse `json:"profile"`
	LastLogin  *time.Time      `json:"lastLogin,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type ProfileResponse struct {
	Title      string   `json:"title"`
	Skills     []string `json:"skills"`
	Bio        string   `json:"bio"`
	HourlyRate float64  `json:"hourlyRate"`
	Location   string   `json:"location"`
}

func NewUserResponse(user *model.User) UserResponse {
	skills := user.Profile.Skills
	if skills == nil {
		skills = []string{}
	}

	return UserResponse{
		ID:         user.ID.Hex(),
		Name:       user.Name,
		Email:      user.Email,
		UserType:   string(user.Role),
		IsVerified: user.Verified,
		Profile: ProfileResponse{
			Title:      user.Profile.Title,
			Skills:     skills,
			Bio:        user.Profile.Bio,
			HourlyRate: user.Profile.HourlyRate,
			Location:   user.Profile.Location,
		},
		LastLogin: user.LastLoginAt,
		CreatedAt: user.CreatedAt,
	}
}
