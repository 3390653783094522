package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumescan/internal/config"
	appErrors "resumescan/internal/errors"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// Recorder receives one observation per completed AI call
type Recorder interface {
	RecordAICall(ctx context.Context, operation string, duration time.Duration, usage *TokenUsage, err error)
}

// GeminiProvider implements Completer for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         config.OperationAIConfig
	operation      string
	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]
	recorder       Recorder
	logger         *appErrors.Logger

	// retryBase is the first backoff step; tests shrink it
	retryBase time.Duration
}

var _ UsageCompleter = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg config.OperationAIConfig, operation string, logger *appErrors.Logger) (*GeminiProvider, error) {
	if cfg.Provider != "" && cfg.Provider != "gemini" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}
	if logger == nil {
		logger = appErrors.NewNopLogger()
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeLLM, "Failed to create Gemini client", err)
	}

	logger.Debug("Initializing AI provider",
		"provider", "gemini",
		"operation", operation,
		"model", cfg.Model,
		"timeout", derefDuration(cfg.Timeout),
		"max_retries", derefInt(cfg.MaxRetries))

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operation:      operation,
		circuitBreaker: NewCircuitBreaker[*genai.GenerateContentResponse](operation, cfg.CircuitBreaker, logger),
		modelBreaker:   newModelBreaker(operation, cfg.CircuitBreaker, logger),
		logger:         logger,
		retryBase:      time.Second,
	}, nil
}

// newModelBreaker is more lenient than the content breaker since model info is only used by health checks
func newModelBreaker(operation string, cfg config.CircuitBreakerConfig, logger *appErrors.Logger) *CircuitBreaker[*genai.Model] {
	lenient := cfg
	lenient.MinRequests = 5
	lenient.FailureThreshold = 0.8
	return NewCircuitBreaker[*genai.Model]("Model-"+operation, lenient, logger)
}

// WithRecorder attaches a metrics recorder
func (g *GeminiProvider) WithRecorder(r Recorder) *GeminiProvider {
	g.recorder = r
	return g
}

// Complete implements Completer
func (g *GeminiProvider) Complete(ctx context.Context, prompt Prompt) (string, error) {
	text, _, err := g.CompleteWithUsage(ctx, prompt)
	return text, err
}

// CompleteWithUsage runs one traced, retried and circuit-broken generation call
func (g *GeminiProvider) CompleteWithUsage(ctx context.Context, prompt Prompt) (string, *TokenUsage, error) {
	operation := prompt.Operation
	if operation == "" {
		operation = g.operation
	}

	tracer := otel.Tracer("resumescan.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(derefFloat(g.config.Temperature))),
		attribute.Int("input.prompt_length", len(prompt.User)),
	)

	if timeout := derefDuration(g.config.Timeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	genaiConfig := g.buildConfig(prompt)
	start := time.Now()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operation, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt.User), genaiConfig)
		})
	})

	var usage *TokenUsage
	var text string
	if err == nil {
		usage = extractTokenUsage(result)
		text = result.Text()
		if text == "" {
			err = errors.New("empty response from model")
		}
	}

	if g.recorder != nil {
		g.recorder.RecordAICall(ctx, operation, time.Since(start), usage, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, classifyError(operation, err)
	}

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return text, usage, nil
}

func (g *GeminiProvider) buildConfig(prompt Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if prompt.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = prompt.Schema
	}
	if t := derefFloat(g.config.Temperature); t > 0 {
		cfg.Temperature = &t
	}
	if derefBool(g.config.UseSystemPrompts) && prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	return cfg
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	maxRetries := derefInt(g.config.MaxRetries)
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// backoff is 2^(attempt-1) base steps plus up to 10% jitter, capped at 30s
func (g *GeminiProvider) backoff(attempt int) time.Duration {
	base := g.retryBase
	if base <= 0 {
		base = time.Second
	}
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * base
	var jitter time.Duration
	if maxJitter := int64(float64(delay) * 0.1); maxJitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(maxJitter)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(delay+jitter, 30*time.Second)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	switch statusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// statusCode extracts an HTTP status from googleapi or genai errors, or 0
func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) {
		return genaiErrPtr.Code
	}
	return 0
}

// classifyError maps a failed call to LLM_TIMEOUT, RATE_LIMITED or LLM_ERROR
func classifyError(operation string, err error) *appErrors.AppError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return appErrors.NewAIError(appErrors.ErrCodeLLMTimeout,
			"AI call timed out for "+operation, err).WithContext("operation", operation)
	case statusCode(err) == http.StatusTooManyRequests:
		return appErrors.NewRateLimitError(appErrors.ErrCodeRateLimited,
			"AI provider rate limited "+operation, err).WithContext("operation", operation)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return appErrors.NewAIError(appErrors.ErrCodeLLM,
			"AI circuit breaker is open for "+operation, err).
			WithContext("operation", operation).
			WithContext("circuit_open", true)
	}
	return appErrors.NewAIError(appErrors.ErrCodeLLM,
		"Failed to generate content for "+operation, err).WithContext("operation", operation)
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context, timeout time.Duration) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

func derefDuration(d *time.Duration) time.Duration {
	if d == nil {
		return 0
	}
	return *d
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func derefFloat(f *float32) float32 {
	if f == nil {
		return 0
	}
	return *f
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
