package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/auth"
	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
	"github.com/vasapolrittideah/freelance-hub-api/shared/middleware"
)

// Stubs embed the usecase interfaces so that a test only implements what it calls.

type stubAuthUsecase struct {
	usecase.AuthUsecase
	verifySession func(token string) (*auth.SessionClaims, error)
	register      func(params usecase.RegisterParams) (*usecase.AuthResult, error)
	login         func(params usecase.LoginParams) (*usecase.AuthResult, error)
	currentUser   func(token string) (*model.User, error)
}

func (s *stubAuthUsecase) VerifySession(_ context.Context, token string) (*auth.SessionClaims, error) {
	if s.verifySession == nil {
		return nil, usecase.ErrUnauthorized
	}
	return s.verifySession(token)
}

func (s *stubAuthUsecase) Register(_ context.Context, params usecase.RegisterParams) (*usecase.AuthResult, error) {
	return s.register(params)
}

func (s *stubAuthUsecase) Login(_ context.Context, params usecase.LoginParams) (*usecase.AuthResult, error) {
	return s.login(params)
}

func (s *stubAuthUsecase) GetCurrentUser(_ context.Context, token string) (*model.User, error) {
	return s.currentUser(token)
}

type stubOTPUsecase struct {
	usecase.OTPUsecase
	sendOTP func(email string, purpose model.OTPPurpose) (*usecase.SendOTPResult, error)
}

func (s *stubOTPUsecase) SendOTP(
	_ context.Context,
	email string,
	purpose model.OTPPurpose,
) (*usecase.SendOTPResult, error) {
	return s.sendOTP(email, purpose)
}

type stubPasswordResetUsecase struct {
	usecase.PasswordResetUsecase
	requestReset func(email string) (*usecase.SendOTPResult, error)
}

func (s *stubPasswordResetUsecase) RequestPasswordReset(_ context.Context, email string) (*usecase.SendOTPResult, error) {
	return s.requestReset(email)
}

type stubPortfolioUsecase struct {
	usecase.PortfolioUsecase
	save          func(userID string, params usecase.SavePortfolioParams) (*model.Portfolio, error)
	publish       func(userID string) (*model.Portfolio, error)
	getPublic     func(userID string) (*model.Portfolio, error)
	updateProject func(userID, projectID string, params repository.UpdateProjectParams) (*model.Portfolio, error)
}

func (s *stubPortfolioUsecase) SavePortfolio(
	_ context.Context,
	userID string,
	params usecase.SavePortfolioParams,
) (*model.Portfolio, error) {
	return s.save(userID, params)
}

func (s *stubPortfolioUsecase) PublishPortfolio(_ context.Context, userID string) (*model.Portfolio, error) {
	return s.publish(userID)
}

func (s *stubPortfolioUsecase) GetPublicPortfolio(_ context.Context, userID string) (*model.Portfolio, error) {
	return s.getPublic(userID)
}

func (s *stubPortfolioUsecase) UpdateProject(
	_ context.Context,
	userID string,
	projectID string,
	params repository.UpdateProjectParams,
) (*model.Portfolio, error) {
	return s.updateProject(userID, projectID, params)
}

type stubSearchUsecase struct {
	usecase.SearchUsecase
	search     func(params usecase.SearchParams) (*usecase.SearchResult, error)
	getFilters func() (*usecase.Filters, error)
}

func (s *stubSearchUsecase) SearchFreelancers(_ context.Context, params usecase.SearchParams) (*usecase.SearchResult, error) {
	return s.search(params)
}

func (s *stubSearchUsecase) GetFilters(context.Context) (*usecase.Filters, error) {
	return s.getFilters()
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context, *readpref.ReadPref) error {
	return s.err
}

type testServer struct {
	auth      *stubAuthUsecase
	otp       *stubOTPUsecase
	reset     *stubPasswordResetUsecase
	portfolio *stubPortfolioUsecase
	search    *stubSearchUsecase
	pinger    *stubPinger

	rateLimit  middleware.RateLimitConfig
	trustProxy bool
}

func newTestServer() *testServer {
	return &testServer{
		auth:      &stubAuthUsecase{},
		otp:       &stubOTPUsecase{},
		reset:     &stubPasswordResetUsecase{},
		portfolio: &stubPortfolioUsecase{},
		search:    &stubSearchUsecase{},
		pinger:    &stubPinger{},
		rateLimit: middleware.RateLimitConfig{Requests: 100, Window: time.Minute, Burst: 100},
	}
}

func (s *testServer) handler() http.Handler {
	logger := zerolog.New(io.Discard)
	return NewRouter(RouterConfig{
		AuthUsecase:          s.auth,
		OTPUsecase:           s.otp,
		PasswordResetUsecase: s.reset,
		PortfolioUsecase:     s.portfolio,
		SearchUsecase:        s.search,
		Database:             s.pinger,
		Cache:                &cache.Cache{},
		AuthRateLimit:        s.rateLimit,
		TrustProxy:           s.trustProxy,
		Logger:               &logger,
	})
}

// withSession makes every bearer token resolve to a session of userID.
func (s *testServer) withSession(userID string) {
	s.auth.verifySession = func(token string) (*auth.SessionClaims, error) {
		if token != "valid-token" {
			return nil, usecase.ErrUnauthorized
		}
		return &auth.SessionClaims{UserID: userID, SessionID: bson.NewObjectID().Hex()}, nil
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSendOTP(t *testing.T) {
	t.Parallel()

	t.Run("success echoes development code", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.otp.sendOTP = func(email string, purpose model.OTPPurpose) (*usecase.SendOTPResult, error) {
			require.Equal(t, "ada@example.com", email)
			require.Equal(t, model.OTPPurposeRegistration, purpose)
			return &usecase.SendOTPResult{Issued: true, Code: "123456"}, nil
		}

		rec := s.do(t, http.MethodPost, "/api/auth/send-otp", map[string]string{"email": "ada@example.com"}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, true, body["success"])
		require.Equal(t, "123456", body["otp"])
	})

	t.Run("invalid email reports field errors", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()

		rec := s.do(t, http.MethodPost, "/api/auth/send-otp", map[string]string{"email": "nope"}, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, false, body["success"])
		require.Equal(t, "Validation failed", body["message"])
		require.Contains(t, body["errors"], "email")
	})

	t.Run("already registered", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.otp.sendOTP = func(string, model.OTPPurpose) (*usecase.SendOTPResult, error) {
			return nil, usecase.ErrEmailAlreadyRegistered
		}

		rec := s.do(t, http.MethodPost, "/api/auth/send-otp", map[string]string{"email": "ada@example.com"}, "")
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid request body", decodeBody(t, rec)["message"])
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.auth.register = func(params usecase.RegisterParams) (*usecase.AuthResult, error) {
		require.Equal(t, "Ada", params.Name)
		require.Equal(t, model.RoleClient, params.Role)
		require.Equal(t, "verify-token", params.VerificationToken)
		return &usecase.AuthResult{
			Token: "session-token",
			User:  &model.User{ID: bson.NewObjectID(), Name: "Ada", Email: "ada@example.com", Role: model.RoleClient},
		}, nil
	}

	rec := s.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":              "Ada",
		"email":             "ada@example.com",
		"password":          "correct-horse",
		"userType":          "client",
		"verificationToken": "verify-token",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "session-token", body["token"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ada@example.com", user["email"])
	require.NotContains(t, user, "passwordHash")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.auth.login = func(params usecase.LoginParams) (*usecase.AuthResult, error) {
		return nil, usecase.ErrInvalidCredentials
	}

	unknown := s.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "ghost@example.com", "password": "whatever"}, "")
	wrong := s.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "ada@example.com", "password": "wrong-password"}, "")

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, unknown.Code, wrong.Code)
	require.Equal(t, unknown.Body.String(), wrong.Body.String())
	require.Equal(t, "Invalid email or password", decodeBody(t, unknown)["message"])
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.reset.requestReset = func(string) (*usecase.SendOTPResult, error) {
		return &usecase.SendOTPResult{}, nil
	}

	rec := s.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "ghost@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestMe(t *testing.T) {
	t.Parallel()

	userID := bson.NewObjectID()

	t.Run("no token", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()

		rec := s.do(t, http.MethodGet, "/api/auth/me", nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.withSession(userID.Hex())

		rec := s.do(t, http.MethodGet, "/api/auth/me", nil, "stale-token")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.withSession(userID.Hex())
		s.auth.currentUser = func(token string) (*model.User, error) {
			require.Equal(t, "valid-token", token)
			return &model.User{ID: userID, Name: "Ada", Email: "ada@example.com", Role: model.RoleFreelancer}, nil
		}

		rec := s.do(t, http.MethodGet, "/api/auth/me", nil, "valid-token")
		require.Equal(t, http.StatusOK, rec.Code)

		data, ok := decodeBody(t, rec)["data"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "Ada", data["name"])
	})

	t.Run("session of a removed user", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.withSession(userID.Hex())
		s.auth.currentUser = func(string) (*model.User, error) {
			return nil, usecase.ErrUnauthorized
		}

		rec := s.do(t, http.MethodGet, "/api/auth/me", nil, "valid-token")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Not authorized", decodeBody(t, rec)["message"])
	})
}

func TestPortfolioRoutes(t *testing.T) {
	t.Parallel()

	userID := bson.NewObjectID()

	t.Run("save keeps projects when omitted", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.withSession(userID.Hex())
		s.portfolio.save = func(id string, params usecase.SavePortfolioParams) (*model.Portfolio, error) {
			require.Equal(t, userID.Hex(), id)
			require.Nil(t, params.Projects)
			require.Equal(t, "https://github.com/ada", params.SocialLinks.GitHub)
			return &model.Portfolio{UserID: userID, Name: params.Name}, nil
		}

		rec := s.do(t, http.MethodPost, "/api/portfolio", map[string]any{
			"name":        "Ada",
			"socialLinks": map[string]string{"github": "https://github.com/ada"},
		}, "valid-token")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Portfolio saved successfully", decodeBody(t, rec)["message"])
	})

	t.Run("publish incomplete portfolio", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.withSession(userID.Hex())
		s.portfolio.publish = func(string) (*model.Portfolio, error) {
			return nil, usecase.ErrPortfolioIncomplete
		}

		rec := s.do(t, http.MethodPost, "/api/portfolio/publish", nil, "valid-token")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, false, decodeBody(t, rec)["success"])
	})

	t.Run("publish requires session", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()

		rec := s.do(t, http.MethodPost, "/api/portfolio/publish", nil, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("public portfolio not found", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.portfolio.getPublic = func(id string) (*model.Portfolio, error) {
			require.Equal(t, "abc", id)
			return nil, usecase.ErrPortfolioNotFound
		}

		rec := s.do(t, http.MethodGet, "/api/portfolio/public/abc", nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update project passes only present fields", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.withSession(userID.Hex())
		projectID := bson.NewObjectID().Hex()
		s.portfolio.updateProject = func(
			id, gotProjectID string,
			params repository.UpdateProjectParams,
		) (*model.Portfolio, error) {
			require.Equal(t, projectID, gotProjectID)
			require.NotNil(t, params.Title)
			require.Equal(t, "Renamed", *params.Title)
			require.Nil(t, params.Description)
			require.NotNil(t, params.LiveURL)
			require.Nil(t, params.RepositoryURL)
			return &model.Portfolio{UserID: userID}, nil
		}

		rec := s.do(t, http.MethodPut, "/api/portfolio/projects/"+projectID, map[string]any{
			"title": "Renamed",
			"links": map[string]string{"live": "https://example.com"},
		}, "valid-token")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSearchFreelancers(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.search.search = func(params usecase.SearchParams) (*usecase.SearchResult, error) {
		require.Equal(t, "go", params.Query)
		require.Equal(t, []string{"react", "node", "mongodb"}, params.Skills)
		require.Equal(t, 2, params.Page)
		require.Equal(t, 0, params.Limit, "malformed limit falls back to the default")
		return &usecase.SearchResult{
			Freelancers: []*model.Freelancer{},
			Pagination:  usecase.Pagination{CurrentPage: 2, TotalPages: 1, TotalResults: 0, HasPrevPage: true},
		}, nil
	}

	rec := s.do(t, http.MethodGet, "/api/search/freelancers?query=go&skills=react,node&skills=mongodb&page=2&limit=x", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, []any{}, body["freelancers"])
	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	require.InDelta(t, 2, pagination["currentPage"], 0)
	require.Equal(t, true, pagination["hasPrevPage"])
	require.Equal(t, false, pagination["hasNextPage"])
}

func TestGetFilters(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.search.getFilters = func() (*usecase.Filters, error) {
		return &usecase.Filters{Skills: []string{"go"}, Locations: []string{"Remote"}}, nil
	}

	rec := s.do(t, http.MethodGet, "/api/search/filters", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeBody(t, rec)["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, []any{"go"}, data["skills"])
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.search.getFilters = func() (*usecase.Filters, error) {
		return nil, errors.New("connection reset by peer")
	}

	rec := s.do(t, http.MethodGet, "/api/search/filters", nil, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Something went wrong", decodeBody(t, rec)["message"])
	require.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("up", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()

		rec := s.do(t, http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, "ok", body["status"])
		require.Equal(t, "up", body["database"])
		require.Equal(t, "disabled", body["cache"])
	})

	t.Run("database down", func(t *testing.T) {
		t.Parallel()
		s := newTestServer()
		s.pinger.err = errors.New("no reachable servers")

		rec := s.do(t, http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "down", decodeBody(t, rec)["database"])
	})
}

func TestAuthRateLimitKeysOnRemoteAddr(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, h http.Handler, forwardedFor string) int {
		t.Helper()
		body := bytes.NewBufferString(`{"email":"ada@example.com","password":"wrong-password"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		req.RemoteAddr = "198.51.100.9:40000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	newServer := func(trustProxy bool) http.Handler {
		s := newTestServer()
		s.rateLimit = middleware.RateLimitConfig{Requests: 1, Window: time.Hour, Burst: 1}
		s.trustProxy = trustProxy
		s.auth.login = func(usecase.LoginParams) (*usecase.AuthResult, error) {
			return nil, usecase.ErrInvalidCredentials
		}
		return s.handler()
	}

	t.Run("forwarded headers ignored by default", func(t *testing.T) {
		t.Parallel()
		h := newServer(false)

		require.Equal(t, http.StatusUnauthorized, login(t, h, "203.0.113.1"))
		require.Equal(t, http.StatusTooManyRequests, login(t, h, "203.0.113.2"),
			"rotating X-Forwarded-For must not reset the limit")
	})

	t.Run("forwarded headers honoured behind a trusted proxy", func(t *testing.T) {
		t.Parallel()
		h := newServer(true)

		require.Equal(t, http.StatusUnauthorized, login(t, h, "203.0.113.1"))
		require.Equal(t, http.StatusUnauthorized, login(t, h, "203.0.113.2"))
		require.Equal(t, http.StatusTooManyRequests, login(t, h, "203.0.113.2"))
	})
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	rec := s.do(t, http.MethodGet, "/api/nothing", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Route not found", decodeBody(t, rec)["message"])
}
