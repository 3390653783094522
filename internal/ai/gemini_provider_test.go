package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"resumescan/internal/config"
	appErrors "resumescan/internal/errors"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"network timeout", timeoutErr{}, true},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"googleapi 503", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusServiceUnavailable}), true},
		{"googleapi 400", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"genai 500", genai.APIError{Code: http.StatusInternalServerError}, true},
		{"deadline", context.DeadlineExceeded, false},
		{"plain", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		code        string
		circuitOpen bool
	}{
		{"deadline", fmt.Errorf("operation failed: %w", context.DeadlineExceeded), appErrors.ErrCodeLLMTimeout, false},
		{"net timeout", timeoutErr{}, appErrors.ErrCodeLLMTimeout, false},
		{"googleapi 429", &googleapi.Error{Code: 429}, appErrors.ErrCodeRateLimited, false},
		{"genai 429", &genai.APIError{Code: 429}, appErrors.ErrCodeRateLimited, false},
		{"breaker open", gobreaker.ErrOpenState, appErrors.ErrCodeLLM, true},
		{"other", errors.New("invalid argument"), appErrors.ErrCodeLLM, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := classifyError("judge", tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, "judge", appErr.Context["operation"])
			if tt.circuitOpen {
				assert.Equal(t, true, appErr.Context["circuit_open"])
			} else {
				assert.NotContains(t, appErr.Context, "circuit_open")
			}
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func testProvider(maxRetries int) *GeminiProvider {
	return &GeminiProvider{
		config:    config.OperationAIConfig{MaxRetries: &maxRetries},
		logger:    appErrors.NewNopLogger(),
		retryBase: time.Millisecond,
	}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("retries retryable errors", func(t *testing.T) {
		g := testProvider(3)
		calls := 0
		_, err := g.executeWithRetry(context.Background(), "judge", func() (*genai.GenerateContentResponse, error) {
			calls++
			if calls < 3 {
				return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
			}
			return &genai.GenerateContentResponse{}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		g := testProvider(3)
		calls := 0
		_, err := g.executeWithRetry(context.Background(), "judge", func() (*genai.GenerateContentResponse, error) {
			calls++
			return nil, &googleapi.Error{Code: http.StatusBadRequest}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("honours cancellation during backoff", func(t *testing.T) {
		g := testProvider(3)
		g.retryBase = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.executeWithRetry(ctx, "judge", func() (*genai.GenerateContentResponse, error) {
			return nil, &googleapi.Error{Code: http.StatusBadGateway}
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoffIsCapped(t *testing.T) {
	g := testProvider(0)
	g.retryBase = time.Second
	if d := g.backoff(10); d != 30*time.Second {
		t.Errorf("Expected backoff capped at 30s, got %v", d)
	}
	if d := g.backoff(1); d < time.Second || d > 1100*time.Millisecond {
		t.Errorf("Expected first backoff within 10%% of 1s, got %v", d)
	}
}

func TestNewGeminiProviderValidation(t *testing.T) {
	_, err := NewGeminiProvider(config.OperationAIConfig{Provider: "openai", APIKey: "k"}, "judge", nil)
	assert.Equal(t, appErrors.ErrCodeInvalidConfig, appErrors.CodeOf(err))

	_, err = NewGeminiProvider(config.OperationAIConfig{Provider: "gemini"}, "judge", nil)
	assert.Equal(t, appErrors.ErrCodeMissingAPIKey, appErrors.CodeOf(err))
}

func TestBuildConfig(t *testing.T) {
	temp := float32(0.4)
	use := true
	g := &GeminiProvider{config: config.OperationAIConfig{Temperature: &temp, UseSystemPrompts: &use}}
	schema := &genai.Schema{Type: genai.TypeObject}

	cfg := g.buildConfig(Prompt{System: "sys", User: "u", Schema: schema})
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Same(t, schema, cfg.ResponseSchema)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(0.4), *cfg.Temperature)
	require.NotNil(t, cfg.SystemInstruction)

	zero := float32(0)
	off := false
	g.config = config.OperationAIConfig{Temperature: &zero, UseSystemPrompts: &off}
	cfg = g.buildConfig(Prompt{System: "sys", User: "u"})
	assert.Nil(t, cfg.Temperature)
	assert.Nil(t, cfg.SystemInstruction)
	assert.Empty(t, cfg.ResponseMIMEType)
}
