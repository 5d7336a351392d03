package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/bot"
	"github.com/RodrigoCastroMoura/trackerbot/internal/config"
	"github.com/RodrigoCastroMoura/trackerbot/internal/database"
	"github.com/RodrigoCastroMoura/trackerbot/internal/handler"
	"github.com/RodrigoCastroMoura/trackerbot/internal/jobs"
	"github.com/RodrigoCastroMoura/trackerbot/internal/middleware"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/redis"
	"github.com/RodrigoCastroMoura/trackerbot/internal/repository"
	"github.com/RodrigoCastroMoura/trackerbot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL, config.PingTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without it")
		} else {
			defer redisClient.Close()
			log.Info().Msg("redis connected")
		}
	}

	metrics := observability.NewMetrics(config.MetricsNamespace, prometheus.DefaultRegisterer)

	sessionRepo := repository.NewSessionRepositoryFromConfig(cfg, redisClient, repository.WithMetrics(metrics))
	customerRepo := repository.NewCustomerRepository(db.DB)

	authService := service.NewAuthService(customerRepo)
	trackingService := service.NewTrackingService(service.TrackingConfig{
		BaseURL: cfg.TrackingAPIURL,
		APIKey:  cfg.TrackingAPIKey,
		Timeout: cfg.GatewayTimeout(),
	}, metrics)
	whatsappService := service.NewWhatsAppService(service.WhatsAppConfig{
		APIURL:        cfg.WhatsAppAPIURL,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Token:         cfg.WhatsAppToken,
		Timeout:       cfg.OutboundTimeout(),
	}, metrics)

	flow, err := bot.NewCredentialFlow(cfg.AuthFlow)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth flow")
	}
	machine := bot.NewMachine(authService, trackingService, whatsappService, flow, bot.Config{
		SharedSecret:      cfg.ChatbotSharedSecret,
		PhonePrefixLength: cfg.PhonePrefixLength,
		GatewayTimeout:    cfg.GatewayTimeout(),
	})
	convService := service.NewConversationService(sessionRepo, machine, metrics)

	var limiterClient *goredis.Client
	if redisClient != nil {
		limiterClient = redisClient.Client
	}
	inboundLimiter := service.NewRateLimiter(limiterClient, cfg.InboundRateLimitPerMin, config.InboundRateLimitWindow)
	opsLimiter := service.NewRateLimiter(limiterClient, config.OpsRateLimitPerMin, config.InboundRateLimitWindow)

	tokenAuthMiddleware := middleware.NewTokenAuthMiddleware(cfg.InboundAPIToken)
	opsRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(opsLimiter, redis.OpsRateLimitKey)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	inboundHandler := handler.NewInboundHandler(convService, inboundLimiter, metrics)
	sessionHandler := handler.NewSessionHandler(convService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", handler.Health(sessionRepo.Backend()))
	r.Handle("/metrics", observability.MetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(tokenAuthMiddleware.Handler)
		r.Mount("/messages", inboundHandler.Routes())

		r.Route("/sessions", func(r chi.Router) {
			r.Use(opsRateLimitMiddleware.Handler)
			r.Mount("/", sessionHandler.Routes())
		})
	})

	if interval := cfg.CleanupInterval(); interval > 0 {
		cleanupJob := jobs.NewCleanupJob(sessionRepo, metrics, interval)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("sessionStore", sessionRepo.Backend()).
			Str("authFlow", flow.Name()).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
