package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/metrics"
	"github.com/stockmaster/stockmaster-backend/internal/middleware"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// SetupRoutes configures the routes for the application.
//
// The configured routes include:
// - Health check, version and metrics endpoints (unprotected)
// - Password reset request and verification (public, rate limited, never cached)
// - Support inspection of reset requests (admin bearer token)
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	ips, err := middleware.NewClientIPResolver(s.Config.Server.TrustedProxies)
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring trusted proxies, keying clients on the peer address")
		ips = &middleware.ClientIPResolver{}
	}
	s.clientIPs = ips

	r.Use(s.corsMiddleware().Handler)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(ips))
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	r.Get(constants.HealthPath, s.handleHealth)
	r.Get(constants.VersionPath, s.handleVersion)
	r.Method(http.MethodGet, constants.MetricsPath, metrics.Handler())
	r.Get(constants.APIBasePath+"/routes", s.GetAPIRoutes)

	r.Route(constants.PasswordResetBasePath, func(r chi.Router) {
		r.Use(middleware.NoStore())

		r.With(s.rateLimit("request")).Post("/request", s.Handlers.PasswordResetHandler.RequestReset)
		r.With(s.rateLimit("verify")).Post("/verify", s.Handlers.PasswordResetHandler.VerifyOTP)
	})

	r.Route(constants.AdminBasePath, func(r chi.Router) {
		r.Use(middleware.NoStore())
		r.Use(middleware.JWTAuth(s.jwtService))
		r.Use(middleware.RequireRole(constants.RoleAdmin))

		r.Get("/password-reset/requests", s.Handlers.AdminHandler.ListResetRequests)
	})

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// rateLimit returns the limiter middleware for route, or a pass-through
// when rate limiting is disabled.
func (s *Server) rateLimit(route string) func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(s.limiter, route, s.clientIPs)
}

// corsMiddleware builds the CORS policy from configuration.
// A wildcard origin never allows credentials.
func (s *Server) corsMiddleware() *cors.Cors {
	origins := s.Config.CORS.AllowedOrigins
	allowCredentials := s.Config.CORS.AllowCredentials
	for _, origin := range origins {
		if origin == "*" && allowCredentials {
			log.Warn().Msg("CORS credentials disabled because all origins are allowed")
			allowCredentials = false
			break
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{constants.HeaderRetryAfter, constants.HeaderXRateLimitLimit},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Db == nil {
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, "Service is not healthy", nil)
		return
	}

	if err := s.Db.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, "Service is not healthy", nil)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.Config.App.Version,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"version":     s.Config.App.Version,
		"environment": s.Config.App.Environment,
	})
}

// GetAPIRoutes returns documentation about all API routes.
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	routes := map[string]interface{}{
		"password_reset": map[string]interface{}{
			"POST " + constants.PasswordResetRequestPath: map[string]interface{}{
				"description": "Request a one-time password by email. Unknown addresses get the same response.",
				"headers": map[string]string{
					"Content-Type": "application/json",
				},
				"body": map[string]interface{}{
					"email": "string - Account email address",
				},
				"response": "204 No Content",
			},
			"POST " + constants.PasswordResetVerifyPath: map[string]interface{}{
				"description": "Exchange a one-time password for the provider action token",
				"headers": map[string]string{
					"Content-Type": "application/json",
				},
				"body": map[string]interface{}{
					"email": "string - Account email address",
					"otp":   "string - 6 digit code from the reset mail",
				},
				"response": map[string]interface{}{
					"actionToken": "string - Token for the provider password reset",
					"email":       "string - Normalized email address",
				},
				"errors": map[string]string{
					constants.CodeResetRequestNotFound: "404 - No reset was requested for this email",
					constants.CodeInvalidOTP:           "400 - Code is wrong or already used",
					constants.CodeOTPExpired:           "400 - Code has expired",
					constants.CodeTooManyRequests:      "429 - Retry after the Retry-After header",
				},
			},
		},
		"admin": map[string]interface{}{
			"GET " + constants.AdminResetRequestsPath: map[string]interface{}{
				"description": "List recent reset requests for an email. Codes and tokens are never returned.",
				"headers": map[string]string{
					"Authorization": "Bearer <admin token>",
				},
				"query": map[string]string{
					constants.QueryParamEmail: "string - Required",
					constants.QueryParamLimit: "int - Optional, default 20, max 100",
				},
			},
		},
		"system": map[string]interface{}{
			"GET " + constants.HealthPath:  "Database health check",
			"GET " + constants.VersionPath: "Application version and environment",
			"GET " + constants.MetricsPath: "Prometheus metrics",
		},
	}

	utils.JSON(w, http.StatusOK, routes)
}
