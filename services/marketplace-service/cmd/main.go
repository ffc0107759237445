package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/handler"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/auth"
	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
	"github.com/vasapolrittideah/freelance-hub-api/shared/discovery"
	"github.com/vasapolrittideah/freelance-hub-api/shared/logger"
	"github.com/vasapolrittideah/freelance-hub-api/shared/mailer"
	"github.com/vasapolrittideah/freelance-hub-api/shared/utilities"
)

func main() {
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient := connectMongo(ctx, cfg, log)
	db := mongoClient.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	sessionRepo := repository.NewSessionMongoRepository(ctx, log, db)
	otpRepo := repository.NewOTPMongoRepository(ctx, log, db)
	grantRepo := repository.NewVerificationGrantMongoRepository(ctx, log, db)
	portfolioRepo := repository.NewPortfolioMongoRepository(ctx, log, db)
	freelancerRepo := repository.NewFreelancerMongoRepository(ctx, log, db)

	if !cfg.Mailer.Enabled() {
		log.Warn().Msg("smtp is not configured, one-time codes will only be logged")
	}
	mail := mailer.NewMailer(cfg.Mailer)
	redisCache := cache.New(ctx, cfg.Redis, log)
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)

	otpUsecase := usecase.NewOTPUsecase(otpRepo, userRepo, mail, log, cfg)
	authUsecase := usecase.NewAuthUsecase(otpUsecase, sessionRepo, userRepo, grantRepo, jwtAuth, log, cfg)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		otpUsecase, userRepo, sessionRepo, grantRepo, jwtAuth, log, cfg,
	)
	portfolioUsecase := usecase.NewPortfolioUsecase(portfolioRepo, freelancerRepo, redisCache, log)
	searchUsecase := usecase.NewSearchUsecase(freelancerRepo, redisCache, log, cfg)

	router := handler.NewRouter(handler.RouterConfig{
		AuthUsecase:          authUsecase,
		OTPUsecase:           otpUsecase,
		PasswordResetUsecase: passwordResetUsecase,
		PortfolioUsecase:     portfolioUsecase,
		SearchUsecase:        searchUsecase,
		Database:             mongoClient,
		Cache:                redisCache,
		AuthRateLimit:        cfg.RateLimit,
		TrustProxy:           cfg.Server.TrustProxy,
		Logger:               log,
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 2)

	go func() {
		log.Info().Str("address", server.Addr).Str("environment", cfg.Environment).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("serve http: %w", err)
		}
	}()

	var healthServer *utilities.HealthServer
	if cfg.Server.GRPCHealthPort > 0 {
		healthServer = startHealthServer(cfg, log, serverErrors)
	}

	var registrar *discovery.Registrar
	if cfg.Consul.Enabled() {
		registrar = register(cfg, log)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErrors:
		log.Error().Err(err).Msg("server stopped unexpectedly")
	}

	if registrar != nil {
		if err := registrar.Deregister(); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}
	if healthServer != nil {
		healthServer.SetServing(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}
	if healthServer != nil {
		healthServer.Stop()
	}
	if err := redisCache.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis client")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to disconnect from mongodb")
	}

	log.Info().Msg("server stopped")
}

func connectMongo(ctx context.Context, cfg *config.Config, log *zerolog.Logger) *mongo.Client {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI).SetConnectTimeout(cfg.Mongo.ConnectTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	return client
}

func startHealthServer(cfg *config.Config, log *zerolog.Logger, serverErrors chan<- error) *utilities.HealthServer {
	address := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.GRPCHealthPort))
	lis, err := net.Listen("tcp", address)
	if err != nil {
		log.Fatal().Err(err).Str("address", address).Msg("failed to listen for grpc health checks")
	}

	healthServer := utilities.NewHealthServer()
	go func() {
		log.Info().Str("address", address).Msg("grpc health server listening")
		if err := healthServer.Serve(lis); err != nil {
			serverErrors <- err
		}
	}()

	return healthServer
}

func register(cfg *config.Config, log *zerolog.Logger) *discovery.Registrar {
	registrar, err := discovery.NewRegistrar(cfg.Consul)
	if err != nil {
		log.Error().Err(err).Msg("consul is unavailable, continuing without registration")
		return nil
	}

	if err := registrar.Register(cfg.Server.Port, cfg.Server.GRPCHealthPort); err != nil {
		log.Error().Err(err).Msg("failed to register with consul, continuing without registration")
		return nil
	}

	log.Info().Str("service", cfg.Consul.ServiceName).Msg("registered with consul")
	return registrar
}
