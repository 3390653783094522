package ai

import (
	"context"
	"time"

	"resumescan/internal/config"
	"resumescan/internal/errors"
)

// Operation names, one provider and circuit breaker each
const (
	OperationKeywords = "keywords"
	OperationSuggest  = "suggest"
	OperationJudge    = "judge"
)

// Services holds one provider per AI operation
type Services struct {
	Keywords *GeminiProvider
	Suggest  *GeminiProvider
	Judge    *GeminiProvider
}

// NewServices creates the per-operation providers from the application config
func NewServices(cfg *config.Config, recorder Recorder, logger *errors.Logger) (*Services, error) {
	build := func(op string, opCfg config.OperationAIConfig) (*GeminiProvider, error) {
		p, err := NewGeminiProvider(opCfg, op, logger)
		if err != nil {
			return nil, err
		}
		if recorder != nil {
			p.WithRecorder(recorder)
		}
		return p, nil
	}

	keywords, err := build(OperationKeywords, cfg.GetKeywordsConfig())
	if err != nil {
		return nil, err
	}
	suggest, err := build(OperationSuggest, cfg.GetSuggestConfig())
	if err != nil {
		return nil, err
	}
	judge, err := build(OperationJudge, cfg.GetJudgeConfig())
	if err != nil {
		return nil, err
	}
	return &Services{Keywords: keywords, Suggest: suggest, Judge: judge}, nil
}

// OperationHealth is the health of a single AI operation
type OperationHealth struct {
	Model          *ModelInfo     `json:"model"`
	CircuitBreaker map[string]any `json:"circuitBreaker"`
}

// Health checks model availability and breaker state for every operation
func (s *Services) Health(ctx context.Context, timeout time.Duration) map[string]OperationHealth {
	out := make(map[string]OperationHealth, 3)
	for op, p := range map[string]*GeminiProvider{
		OperationKeywords: s.Keywords,
		OperationSuggest:  s.Suggest,
		OperationJudge:    s.Judge,
	} {
		out[op] = OperationHealth{
			Model:          p.GetModelInfo(ctx, timeout),
			CircuitBreaker: p.GetCircuitBreakerStats(),
		}
	}
	return out
}
