package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/stockmaster/stockmaster-backend/internal/constants"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// maxStackLines bounds the stack trace written to the log
const maxStackLines = 40

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := sanitizeStackTrace(string(debug.Stack()))

				// Request bodies and headers are never logged; they may carry codes or tokens
				if gdprLogger := utils.GetGDPRLogger(); gdprLogger != nil {
					gdprLogger.Error("Panic recovered in request handler", nil, map[string]interface{}{
						constants.RequestIDContextKey: chimiddleware.GetReqID(r.Context()),
						"method":                      r.Method,
						"path":                        r.URL.Path,
						"panic":                       rec,
						"stack":                       stack,
					})
				} else {
					log.Error().
						Str(constants.RequestIDContextKey, chimiddleware.GetReqID(r.Context())).
						Interface("panic", rec).
						Str("stack", stack).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("Panic recovered in request handler")
				}

				utils.Error(
					w,
					http.StatusInternalServerError,
					constants.CodeInternalError,
					"An unexpected error occurred while processing your request",
					nil,
				)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// sanitizeStackTrace drops the goroutine header and keeps at most maxStackLines lines
func sanitizeStackTrace(stack string) string {
	lines := strings.Split(strings.TrimSpace(stack), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "goroutine ") {
		lines = lines[1:]
	}
	if len(lines) > maxStackLines {
		lines = append(lines[:maxStackLines], "...")
	}
	return strings.Join(lines, "\n")
}
