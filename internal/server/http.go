package server

import (
	"context"
	"sync"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"
	"resumescan/internal/judge"
	"resumescan/internal/keywords"
	"resumescan/internal/pipeline"
	"resumescan/internal/types"
)

// Analyzer runs one analysis for a principal
type Analyzer interface {
	Run(ctx context.Context, principal string, in pipeline.Input) (*pipeline.AnalysisResult, error)
}

// SuggestionJudge scores a single suggestion
type SuggestionJudge interface {
	JudgeSuggestion(ctx context.Context, in judge.Input) (*types.JudgeResult, error)
	Excerpt(jobText string) string
}

// Lifecycle applies suggestion status changes
type Lifecycle interface {
	UpdateSuggestionStatus(ctx context.Context, principal, suggestionID, scanID string, status types.SuggestionStatus) (*types.Suggestion, error)
	AcceptAllInSection(ctx context.Context, principal, scanID string, section types.Section) (int, error)
	RejectAllInSection(ctx context.Context, principal, scanID string, section types.Section) (int, error)
	SkipAllPending(ctx context.Context, principal, scanID string) (int, error)
	GetSuggestionSummary(ctx context.Context, principal, scanID string) (types.SuggestionSummary, error)
}

// ScanReader is the read side of the store used by merge and quality routes
type ScanReader interface {
	GetScan(ctx context.Context, scanID string) (*types.Scan, error)
	ListSuggestions(ctx context.Context, scanID string) ([]types.Suggestion, error)
	RecentQualityLogs(ctx context.Context, limit int) ([]types.QualityMetricLog, error)
	Ping(ctx context.Context) error
}

// AIHealthChecker reports model availability and breaker state
type AIHealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) map[string]ai.OperationHealth
}

// RateLimitRecorder observes rejected requests
type RateLimitRecorder interface {
	RecordRateLimitHit(ctx context.Context, limitType string)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Dependencies are the domain services the HTTP layer calls into
type Dependencies struct {
	Analyzer  Analyzer
	Judge     SuggestionJudge
	Lifecycle Lifecycle
	Scans     ScanReader
	AIHealth  AIHealthChecker
	RateLimit RateLimitRecorder
	Variants  *keywords.VariantWatcher
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// API Authentication
	apiKeysMu sync.RWMutex
	apiKeys   map[string]bool

	// PrincipalHeader names the header carrying the caller id
	PrincipalHeader string

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// HealthWindow is the default number of logs /v1/quality/health pools
	HealthWindow int

	deps         Dependencies
	vaultWatcher *VaultWatcher

	// Logger
	Logger *errors.Logger
}

// NewServer creates a Server from the application config
func NewServer(appCfg *config.Config, version string, deps Dependencies, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	sc := appCfg.Server

	var rateLimiter *RateLimiter
	if sc.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(sc.RateLimit.RequestsPerMin, sc.RateLimit.BurstCapacity, logger)
	}

	principalHeader := sc.PrincipalHeader
	if principalHeader == "" {
		principalHeader = "X-Principal-ID"
	}

	s := &Server{
		Host:            sc.Host,
		Port:            sc.Port,
		Version:         version,
		AppConfig:       appCfg,
		PrincipalHeader: principalHeader,
		ReadTimeout:     sc.ReadTimeout,
		WriteTimeout:    sc.WriteTimeout,
		IdleTimeout:     sc.IdleTimeout,
		MaxRequestSize:  sc.MaxRequestSize,
		RateLimit:       &sc.RateLimit,
		RateLimiter:     rateLimiter,
		HealthWindow:    appCfg.Pipeline.HealthWindow,
		deps:            deps,
		Logger:          logger,
	}
	s.SetAPIKeys(sc.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. An empty set disables auth.
func (s *Server) SetAPIKeys(keys []string) {
	// Convert API keys slice to map for O(1) lookup
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			m[key] = true
		}
	}
	s.apiKeysMu.Lock()
	s.apiKeys = m
	s.apiKeysMu.Unlock()
}

// checkAPIKey reports whether auth is required and, if so, whether key is valid
func (s *Server) checkAPIKey(key string) (required, valid bool) {
	s.apiKeysMu.RLock()
	defer s.apiKeysMu.RUnlock()
	return len(s.apiKeys) > 0, s.apiKeys[key]
}

func (s *Server) apiKeyCount() int {
	s.apiKeysMu.RLock()
	defer s.apiKeysMu.RUnlock()
	return len(s.apiKeys)
}
