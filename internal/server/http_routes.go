package server

import (
	"context"
	"net/http"
	"strings"

	"resumescan/internal/errors"

	"github.com/gorilla/mux"
)

type principalKey struct{}

// Router builds the route table and middleware chain
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.statsHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.rateLimitMiddleware, s.authMiddleware, s.requestSizeLimitMiddleware)

	api.HandleFunc("/analyze", s.withPrincipal(s.analyzeHandler)).Methods(http.MethodPost)
	api.HandleFunc("/judge", s.judgeHandler).Methods(http.MethodPost)
	api.HandleFunc("/diff", s.diffHandler).Methods(http.MethodPost)
	api.HandleFunc("/quality/health", s.qualityHealthHandler).Methods(http.MethodGet)

	scans := api.PathPrefix("/scans/{scanID}").Subrouter()
	scans.HandleFunc("/suggestions/summary", s.withPrincipal(s.summaryHandler)).Methods(http.MethodGet)
	scans.HandleFunc("/suggestions/{suggestionID}", s.withPrincipal(s.updateStatusHandler)).Methods(http.MethodPatch)
	scans.HandleFunc("/sections/{section}/accept-all", s.withPrincipal(s.acceptAllHandler)).Methods(http.MethodPost)
	scans.HandleFunc("/sections/{section}/reject-all", s.withPrincipal(s.rejectAllHandler)).Methods(http.MethodPost)
	scans.HandleFunc("/skip-pending", s.withPrincipal(s.skipPendingHandler)).Methods(http.MethodPost)
	scans.HandleFunc("/merge", s.withPrincipal(s.mergeHandler)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, errors.ErrCodeNotFound, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

// withPrincipal rejects requests without a principal header and stores it in the context
func (s *Server) withPrincipal(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := strings.TrimSpace(r.Header.Get(s.PrincipalHeader))
		if principal == "" {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeValidation,
				s.PrincipalHeader+" header is required", nil))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
	}
}

func principalFrom(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := extractAPIKey(r)

		required, valid := s.checkAPIKey(apiKey)
		if !required {
			next.ServeHTTP(w, r)
			return
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "UNAUTHORIZED", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !valid {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "UNAUTHORIZED", "invalid API key", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next.ServeHTTP(w, r)
	})
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}

// extractAPIKey reads X-API-Key, falling back to a Bearer token
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
