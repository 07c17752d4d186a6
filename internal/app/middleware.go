package app

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/apperrors"
	"github.com/tripper-app/tripper/internal/auth"
)

// RequestLogging logs one structured line per request
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", apperrors.GetRequestID(r.Context())).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request handled")
	})
}

// Recovery converts panics into 500 responses
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("Panic recovered in handler")
				apperrors.WriteInternalError(w, r, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CSRFProtect enforces the double-submit CSRF check on mutating requests
// from authenticated sessions. Pre-session requests (signup, login) carry no
// CSRF cookie yet and are exempt.
func CSRFProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if auth.GetUserID(r.Context()) == uuid.Nil {
			next.ServeHTTP(w, r)
			return
		}

		if err := auth.ValidateCSRF(r); err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("CSRF validation failed")
			apperrors.WriteForbidden(w, r, "CSRF validation failed")
			return
		}

		next.ServeHTTP(w, r)
	})
}
