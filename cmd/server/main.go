package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/config"
	"github.com/classroom-assistant/classroom-go/internal/database"
	"github.com/classroom-assistant/classroom-go/internal/handler"
	"github.com/classroom-assistant/classroom-go/internal/jobs"
	"github.com/classroom-assistant/classroom-go/internal/middleware"
	"github.com/classroom-assistant/classroom-go/internal/redis"
	"github.com/classroom-assistant/classroom-go/internal/repository"
	"github.com/classroom-assistant/classroom-go/internal/service"
	"github.com/classroom-assistant/classroom-go/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := cfg.IsProduction()
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		applied, err := db.Migrate(ctx, cfg.MigrationsDir)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
		log.Info().Int("applied", applied).Msg("migrations up to date")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	teacherRepo := repository.NewTeacherRepository(db.DB)
	studentRepo := repository.NewStudentRepository(db.DB)
	presenceRepo := repository.NewPresenceRepository(db)
	classroomStore := repository.NewClassroomStore(redisClient.Client, cfg.ClassTTL())

	broker := sse.NewBroker(redisClient)

	translator := service.NewTranslationService(cfg.DatasetPath)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration())
	authService := service.NewAuthService(teacherRepo, studentRepo, presenceRepo, tokens)
	if cfg.GoogleClientID != "" {
		authService.WithGoogle(service.NewTokenInfoVerifier(cfg.GoogleClientID))
	} else {
		log.Info().Msg("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}
	classroomService := service.NewClassroomService(classroomStore, translator, broker)
	statsService := service.NewStatsService(teacherRepo, studentRepo, presenceRepo, classroomStore)
	rateLimiter := service.NewRateLimiter(redisClient.Client, true)

	authMiddleware := middleware.NewAuthMiddleware(tokens)
	loginLimiter := middleware.NewLoginRateLimiter()
	teacherRateLimit := middleware.NewRateLimitMiddleware(rateLimiter, cfg.RateLimitPerMin, time.Minute, "teacher")
	translateRateLimit := middleware.NewRateLimitMiddleware(rateLimiter, cfg.RateLimitPerMin, time.Minute, "translate")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(cfg.MaxBodyBytes)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, authMiddleware.Handler, loginLimiter.Handler)
	studentHandler := handler.NewStudentHandler(authService, classroomService, authMiddleware.Handler, loginLimiter.Handler)
	teacherHandler := handler.NewTeacherHandler(authService, classroomService, authMiddleware.Handler, teacherRateLimit.Handler)
	translateHandler := handler.NewTranslateHandler(translator, translateRateLimit.Handler)
	adminHandler := handler.NewAdminHandler(authService, statsService, authMiddleware.Handler)
	eventsHandler := handler.NewEventsHandler(broker, classroomService, config.SSEHeartbeatInterval)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", handler.Health)

	r.Route("/api", func(r chi.Router) {
		// Event streams outlive the request timeout.
		r.Get("/student/events/{joinCode}", eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

			r.Mount("/auth", authHandler.Routes())
			r.Mount("/student", studentHandler.Routes())
			r.Mount("/teacher", teacherHandler.Routes())
			r.Mount("/translate", translateHandler.Routes())
			r.Post("/logout", studentHandler.Logout)
			r.Mount("/", adminHandler.Routes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(presenceRepo, cfg.PresenceTTL(), config.LoginHistoryRetention, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := newServer(cfg.Addr(), r, broker)

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Int("phrases", translator.Size()).
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

// newServer builds the HTTP server. Event streams never go idle, so
// Shutdown closes the broker to end them instead of waiting out the timeout.
func newServer(addr string, h http.Handler, broker *sse.Broker) *http.Server {
	server := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}
	server.RegisterOnShutdown(broker.Close)
	return server
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
