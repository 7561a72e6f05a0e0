// Package server provides the HTTP server for the Stockmaster password reset API.
// It handles routing, middleware configuration, and server lifecycle management.
//
// The server package follows a structured initialization approach with dependency injection
// and proper lifecycle management. It handles graceful shutdown, the embedded mail worker,
// periodic purging of expired reset requests and GDPR-compliant logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/auth"
	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/database"
	"github.com/stockmaster/stockmaster-backend/internal/handlers"
	"github.com/stockmaster/stockmaster-backend/internal/identity"
	"github.com/stockmaster/stockmaster-backend/internal/mailer"
	"github.com/stockmaster/stockmaster-backend/internal/middleware"
	"github.com/stockmaster/stockmaster-backend/internal/repository"
	"github.com/stockmaster/stockmaster-backend/internal/service"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
	"github.com/stockmaster/stockmaster-backend/internal/utils/gdprlog"
	"github.com/stockmaster/stockmaster-backend/internal/utils/ratelimit"
	"github.com/stockmaster/stockmaster-backend/migrations"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	// PasswordResetHandler serves the public reset request and verification endpoints
	PasswordResetHandler *handlers.PasswordResetHandler

	// AdminHandler serves the support inspection endpoints
	AdminHandler *handlers.AdminHandler
}

// Server represents the API server.
// It encapsulates all server components and handles server lifecycle management,
// including initialization, startup, and graceful shutdown.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database health checks and is closed on shutdown
	Db ServerDBHealthChecker

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	pool       *database.Pool
	router     chi.Router
	jwtService auth.JWTValidator

	// limiter is nil when rate limiting is disabled
	limiter     ratelimit.Backend
	stopLimiter func()
	clientIPs   *middleware.ClientIPResolver

	purger ResetPurger

	// mailWorker is nil unless the embedded worker is enabled
	mailWorker   MailWorker
	workerCancel context.CancelFunc
	workerDone   chan struct{}

	maintenanceStop chan struct{}
	stopOnce        sync.Once

	httpServer *http.Server
	gdprLogger *gdprlog.GDPRLogger
}

// NewServer creates a new server instance with all required components.
// Initialization order: database → identity provider → rate limiter →
// services → mail worker → handlers → routes.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	s := &Server{
		Config:          cfg,
		jwtService:      auth.NewJWTService(&cfg.JWT),
		maintenanceStop: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBConnectionTimeout+constants.IdentityCallTimeout)
	defer cancel()

	if err := s.setupDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	provider, err := identity.NewFirebaseProvider(ctx, &cfg.Firebase)
	if err != nil {
		s.pool.Close()
		return nil, fmt.Errorf("failed to set up identity provider: %w", err)
	}

	s.setupRateLimiter(ctx)

	resetService, err := s.setupServices(provider)
	if err != nil {
		s.pool.Close()
		return nil, fmt.Errorf("failed to set up services: %w", err)
	}

	if cfg.Mail.EmbeddedWorker {
		if err := s.setupMailWorker(ctx); err != nil {
			s.pool.Close()
			return nil, fmt.Errorf("failed to set up mail worker: %w", err)
		}
	}

	s.setupHandlers(resetService)

	if err := s.setupGDPRLogging(); err != nil {
		log.Warn().Err(err).Msg("Failed to set up GDPR logging, falling back to standard logging")
	}

	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupGDPRLogging reuses the logger created by utils.InitLogger or creates one.
func (s *Server) setupGDPRLogging() error {
	if existing := utils.GetGDPRLogger(); existing != nil {
		s.gdprLogger = existing
		return nil
	}

	gdprLogger, err := gdprlog.NewGDPRLogger(&s.Config.GDPRLogging)
	if err != nil {
		return fmt.Errorf("failed to create GDPR logger: %w", err)
	}

	if err := gdprLogger.SetupLogRotation(); err != nil {
		return fmt.Errorf("failed to set up GDPR log rotation: %w", err)
	}

	s.gdprLogger = gdprLogger
	utils.SetGDPRLogger(gdprLogger)

	log.Info().Msg("GDPR logging configured successfully")
	return nil
}

// setupDatabase connects to the database and creates missing tables.
func (s *Server) setupDatabase(ctx context.Context) error {
	pool, err := database.Connect(s.Config)
	if err != nil {
		return err
	}

	if err := migrations.NewMigrator(pool).RunMigrations(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	s.pool = pool
	s.Db = pool
	return nil
}

// setupRateLimiter prefers a shared Redis counter and falls back to
// per-instance token buckets when Redis is not configured or unreachable.
func (s *Server) setupRateLimiter(ctx context.Context) {
	rl := s.Config.RateLimit
	if !rl.Enabled {
		log.Warn().Msg("Rate limiting is disabled")
		return
	}

	if rl.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, rl.RedisURL)
		if err == nil {
			s.limiter = ratelimit.NewRedisStore(client, rl.RequestsPerMinute, time.Minute)
			s.stopLimiter = closeRedis(client)
			log.Info().Int("per_minute", rl.RequestsPerMinute).Msg("Using Redis rate limiter")
			return
		}
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory rate limiter")
	}

	store := ratelimit.NewStore(
		ratelimit.PerMinute(rl.RequestsPerMinute, rl.Burst),
		constants.RateLimitCleanupInterval,
		constants.RateLimitBucketMaxAge,
	)
	s.limiter = store
	s.stopLimiter = store.Stop
	log.Info().
		Int("per_minute", rl.RequestsPerMinute).
		Int("burst", rl.Burst).
		Msg("Using in-memory rate limiter")
}

func closeRedis(client *redis.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// setupServices builds the password reset service on the shared pool.
func (s *Server) setupServices(provider identity.Provider) (*service.PasswordResetService, error) {
	hasher := auth.NewOTPHasher(auth.HashConfigFromSettings(&s.Config.OTPHash))

	resetService, err := service.NewPasswordResetService(
		&s.Config.PasswordReset,
		provider,
		repository.NewPasswordResetRepository(s.pool),
		repository.NewMailQueueRepository(s.pool),
		hasher,
		auth.GenerateOTP,
	)
	if err != nil {
		return nil, err
	}

	if s.Config.PasswordReset.PurgeExpired {
		s.purger = resetService
	}
	return resetService, nil
}

// setupMailWorker builds the dispatcher run alongside the API.
func (s *Server) setupMailWorker(ctx context.Context) error {
	transport, err := mailer.NewTransport(ctx, &s.Config.Mail)
	if err != nil {
		return err
	}

	s.mailWorker = mailer.NewDispatcher(repository.NewMailQueueRepository(s.pool), transport, &s.Config.Mail)
	return nil
}

func (s *Server) setupHandlers(resetService handlers.PasswordResetServiceInterface) {
	s.Handlers = &Handlers{
		PasswordResetHandler: handlers.NewPasswordResetHandler(resetService),
		AdminHandler:         handlers.NewAdminHandler(resetService),
	}
}

// Start starts the HTTP server and blocks until it fails or a shutdown
// signal (SIGINT, SIGTERM) is received, then shuts down gracefully.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	s.StartMailWorker()
	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		s.stopBackground()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// StartMailWorker runs the embedded mail dispatcher in the background.
// It does nothing when the worker is disabled.
func (s *Server) StartMailWorker() {
	if s.mailWorker == nil || s.workerCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.workerCancel = cancel
	s.workerDone = make(chan struct{})

	go func() {
		defer close(s.workerDone)
		if err := s.mailWorker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Mail worker exited")
		}
	}()
}

// Shutdown stops accepting requests, waits for in-flight ones, then stops
// background work and releases the database, limiter and log files.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")

	s.stopBackground()

	if s.Db != nil {
		s.Db.Close()
		log.Info().Msg("Database connection closed")
	}

	if s.gdprLogger != nil {
		if err := s.gdprLogger.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close GDPR logs during shutdown")
		}
	}

	return nil
}

// stopBackground stops the maintenance loop, the mail worker and the limiter.
// The mail worker finishes its current delivery before returning.
func (s *Server) stopBackground() {
	s.stopOnce.Do(func() {
		if s.maintenanceStop != nil {
			close(s.maintenanceStop)
		}

		if s.workerCancel != nil {
			s.workerCancel()
			<-s.workerDone
		}

		if s.stopLimiter != nil {
			s.stopLimiter()
		}
	})
}

// SetupMaintenanceTasks purges expired reset requests on a fixed schedule.
func (s *Server) SetupMaintenanceTasks() {
	if s.purger == nil {
		return
	}

	ticker := time.NewTicker(constants.ResetPurgeInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-s.maintenanceStop:
				return
			case <-ticker.C:
				s.runMaintenance()
			}
		}
	}()
}

func (s *Server) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DBQueryTimeout)
	defer cancel()

	if count, err := s.purger.PurgeExpired(ctx, constants.ResetRequestRetention); err != nil {
		utils.LogError(err, map[string]interface{}{"task": "purge_reset_requests"})
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("Purged expired reset requests")
	}
}
