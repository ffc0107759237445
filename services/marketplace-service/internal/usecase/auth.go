package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/auth"
	"github.com/vasapolrittideah/freelance-hub-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// VerifyEmail consumes a one-time code and returns a token proving control of the email.
	VerifyEmail(ctx context.Context, params VerifyEmailParams) (string, error)
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error

	// VerifySession resolves a session token whose session has not been revoked.
	VerifySession(ctx context.Context, token string) (*auth.SessionClaims, error)
	GetCurrentUser(ctx context.Context, token string) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)
}

type VerifyEmailParams struct {
	Email   string
	Purpose model.OTPPurpose
	Code    string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name              string
	Email             string
	Password          string
	Role              model.Role
	VerificationToken string
	Profile           model.UserProfile
	ClientInfo
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
	ClientInfo
}

// ClientInfo describes the client a session is opened for.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// UpdateProfileParams defines the optional profile fields to change.
type UpdateProfileParams struct {
	Name       *string
	Title      *string
	Skills     *[]string
	Bio        *string
	HourlyRate *float64
	Location   *string
}

// AuthResult is a session token together with the user it was issued for.
type AuthResult struct {
	Token string
	User  *model.User
}

const minPasswordLength = 8

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("not authorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrNameRequired       = errors.New("name is required")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidRole        = errors.New("user type must be freelancer or client")
	ErrNoProfileChanges   = errors.New("no profile fields to update")
)

type authUsecase struct {
	otpUsecase  OTPUsecase
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	jwtAuth     auth.JWTAuthenticator
	verifier    *emailVerifier
	logger      *zerolog.Logger
	tokenCfg    config.TokenConfig
	now         func() time.Time
}

func NewAuthUsecase(
	otpUsecase OTPUsecase,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	grantRepo repository.VerificationGrantRepository,
	jwtAuth auth.JWTAuthenticator,
	logger *zerolog.Logger,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		otpUsecase:  otpUsecase,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		jwtAuth:     jwtAuth,
		verifier:    newEmailVerifier(jwtAuth, grantRepo, cfg.Token),
		logger:      logger,
		tokenCfg:    cfg.Token,
		now:         time.Now,
	}
}

func newEmailVerifier(
	jwtAuth auth.JWTAuthenticator,
	grants repository.VerificationGrantRepository,
	cfg config.TokenConfig,
) *emailVerifier {
	return &emailVerifier{
		jwtAuth:   jwtAuth,
		grants:    grants,
		secret:    cfg.VerificationTokenSecret,
		expiresIn: cfg.VerificationTokenExpiresIn,
	}
}

func (u *authUsecase) VerifyEmail(ctx context.Context, params VerifyEmailParams) (string, error) {
	purpose := params.Purpose
	if purpose == "" {
		purpose = model.OTPPurposeRegistration
	}

	if err := u.otpUsecase.VerifyOTP(ctx, params.Email, purpose, params.Code); err != nil {
		return "", err
	}

	email, _ := normalizeEmail(params.Email)

	return u.verifier.issue(ctx, email, purpose, u.now())
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}

	if len(params.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	role := params.Role
	if role == "" {
		role = model.RoleFreelancer
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if err := u.verifier.redeem(ctx, params.VerificationToken, email, model.OTPPurposeRegistration); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		Verified:     true,
		Profile:      params.Profile,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}

		return nil, err
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Str("role", string(role)).Msg("user registered")

	return u.createAuthSession(ctx, user, params.ClientInfo)
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	now := u.now()
	user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{LastLoginAt: &now})
	if err != nil {
		return nil, err
	}

	return u.createAuthSession(ctx, user, params.ClientInfo)
}

func (u *authUsecase) Logout(ctx context.Context, sessionID string) error {
	if err := u.sessionRepo.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	return nil
}

func (u *authUsecase) VerifySession(ctx context.Context, token string) (*auth.SessionClaims, error) {
	var claims auth.SessionClaims
	if _, err := u.jwtAuth.ValidateTokenWithClaims(token, u.tokenCfg.AccessTokenSecret, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	session, err := u.sessionRepo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: session revoked", ErrUnauthorized)
		}

		return nil, err
	}

	if session.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: session belongs to another user", ErrUnauthorized)
	}

	return &claims, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, token string) (*model.User, error) {
	claims, err := u.VerifySession(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := u.GetUser(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUnauthorized
	}

	return user, err
}

func (u *authUsecase) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func (u *authUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.User, error) {
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		params.Name = &name
	}

	user, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Name:       params.Name,
		Title:      params.Title,
		Skills:     params.Skills,
		Bio:        params.Bio,
		HourlyRate: params.HourlyRate,
		Location:   params.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoFieldsToUpdate):
			return nil, ErrNoProfileChanges
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrUserNotFound
		default:
			return nil, err
		}
	}

	return user, nil
}

func (u *authUsecase) createAuthSession(
	ctx context.Context,
	user *model.User,
	client ClientInfo,
) (*AuthResult, error) {
	now := u.now()
	userID := user.ID.Hex()

	session, err := u.sessionRepo.CreateSession(ctx, &model.Session{
		UserID:    userID,
		IPAddress: optionalString(client.IPAddress),
		UserAgent: optionalString(client.UserAgent),
		ExpiresAt: now.Add(u.tokenCfg.AccessTokenExpiresIn),
	})
	if err != nil {
		return nil, err
	}

	claims := auth.SessionClaims{
		UserID:           userID,
		SessionID:        session.ID.Hex(),
		RegisteredClaims: u.jwtAuth.NewRegisteredClaims(userID, now, u.tokenCfg.AccessTokenExpiresIn),
	}

	token, err := u.jwtAuth.GenerateToken(claims, u.tokenCfg.AccessTokenSecret)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
