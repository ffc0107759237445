package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
	"github.com/vasapolrittideah/freelance-hub-api/shared/middleware"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
	"github.com/vasapolrittideah/freelance-hub-api/shared/validation"
)

// RouterConfig holds everything the REST API depends on.
type RouterConfig struct {
	AuthUsecase          usecase.AuthUsecase
	OTPUsecase           usecase.OTPUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	PortfolioUsecase     usecase.PortfolioUsecase
	SearchUsecase        usecase.SearchUsecase
	Database             DatabasePinger
	Cache                *cache.Cache
	AuthRateLimit        middleware.RateLimitConfig

	// TrustProxy rewrites RemoteAddr from X-Forwarded-For/X-Real-IP before rate limiting.
	TrustProxy bool
	Logger     *zerolog.Logger
}

// NewRouter builds the HTTP routes of the marketplace API.
func NewRouter(cfg RouterConfig) http.Handler {
	decoder := requestDecoder{validator: validation.New()}

	authHandler := &authHTTPHandler{
		authUsecase:          cfg.AuthUsecase,
		otpUsecase:           cfg.OTPUsecase,
		passwordResetUsecase: cfg.PasswordResetUsecase,
		decoder:              decoder,
		logger:               cfg.Logger,
	}
	portfolioHandler := &portfolioHTTPHandler{
		portfolioUsecase: cfg.PortfolioUsecase,
		decoder:          decoder,
		logger:           cfg.Logger,
	}
	searchHandler := &searchHTTPHandler{
		searchUsecase: cfg.SearchUsecase,
		logger:        cfg.Logger,
	}
	healthHandler := &healthHTTPHandler{
		db:     cfg.Database,
		cache:  cfg.Cache,
		logger: cfg.Logger,
	}

	requireSession := middleware.NewJWTMiddleware(cfg.AuthUsecase, cfg.Logger)

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Method(http.MethodGet, "/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(cfg.AuthRateLimit, cfg.Logger))

				r.Post("/send-otp", authHandler.SendOTP)
				r.Post("/verify-otp", authHandler.VerifyOTP)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/forgot-password", authHandler.ForgotPassword)
				r.Post("/reset-password", authHandler.ResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireSession)

				r.Get("/me", authHandler.Me)
				r.Patch("/profile", authHandler.UpdateProfile)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/public/{freelancerId}", portfolioHandler.GetPublic)

			r.Group(func(r chi.Router) {
				r.Use(requireSession)

				r.Post("/", portfolioHandler.Save)
				r.Delete("/", portfolioHandler.Delete)
				r.Get("/my-portfolio", portfolioHandler.GetMine)
				r.Post("/publish", portfolioHandler.Publish)
				r.Post("/unpublish", portfolioHandler.Unpublish)

				r.Post("/projects", portfolioHandler.AddProject)
				r.Put("/projects/{projectId}", portfolioHandler.UpdateProject)
				r.Delete("/projects/{projectId}", portfolioHandler.DeleteProject)
			})
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/freelancers", searchHandler.SearchFreelancers)
			r.Get("/filters", searchHandler.GetFilters)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
