package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/rpsls-go/internal/api/apierr"
	"github.com/mcoot/rpsls-go/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns JSON error responses on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

// Logging logs each API request with its request ID
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// RequestID tags each API request with an X-Request-ID
func RequestID() func(http.Handler) http.Handler {
	return middleware.RequestID
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
