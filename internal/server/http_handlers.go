package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"resumescan/internal/errors"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if t := s.AppConfig.Observability.HealthCheck.Timeout; t > 0 {
		return t
	}
	return 15 * time.Second
}

// healthHandler reports liveness, store reachability, AI model availability
// and circuit breaker state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "resumescan",
		"version": s.Version,
	}
	healthy := true

	if s.deps.Scans != nil {
		if err := s.deps.Scans.Ping(ctx); err != nil {
			healthy = false
			response["store"] = map[string]any{"available": false, "error": err.Error()}
		} else {
			response["store"] = map[string]any{"available": true}
		}
	}

	if s.deps.AIHealth != nil {
		ops := s.deps.AIHealth.Health(ctx, s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout)
		models := make(map[string]any, len(ops))
		breakers := make(map[string]any, len(ops))
		for op, h := range ops {
			models[op] = h.Model
			breakers[op] = h.CircuitBreaker
			if h.Model == nil || !h.Model.Available {
				healthy = false
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = breakers
	}

	if s.deps.Variants != nil {
		response["keyword_variants"] = map[string]any{"watcher_running": s.deps.Variants.IsRunning()}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumescan",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.apiKeyCount(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes the body into v and validates its struct tags
func parseJSONRequest(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && ct != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeValidation,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse JSON: "+err.Error(), err)
	}

	if err := requestValidator.Struct(v); err != nil {
		return errors.NewValidationError(errors.ErrCodeValidation, validationMessage(err), err)
	}
	return nil
}

// statusFor maps an error code to its HTTP status
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeValidation, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeLLM:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes {"error": CODE, "message": text}
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	message := "internal error"
	if appErr, ok := errors.AsAppError(err); ok {
		message = appErr.Message
	}
	status := statusFor(code)

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "status", status)
	} else {
		s.Logger.Debug("Request rejected", "endpoint", r.URL.Path, "status", status, "error_code", code)
	}

	writeErrorResponse(w, code, message, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
