package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/config"
	"resumescan/internal/errors"
	"resumescan/internal/judge"
	"resumescan/internal/lifecycle"
	"resumescan/internal/pipeline"
	"resumescan/internal/store"
	"resumescan/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResume = `Jane Doe

Experience
- Built billing service in Go
- Led a team of 5 engineers

Skills
Go, SQL
`

type fakeAnalyzer struct {
	err       error
	principal string
}

func (f *fakeAnalyzer) Run(_ context.Context, principal string, in pipeline.Input) (*pipeline.AnalysisResult, error) {
	f.principal = principal
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.AnalysisResult{
		Scan:        types.Scan{ID: "scan-1", OwnerID: principal, JobTitle: in.JobTitle},
		QualityFlag: pipeline.FlagVerified,
	}, nil
}

type fakeJudge struct {
	err error
	got judge.Input
}

func (f *fakeJudge) JudgeSuggestion(_ context.Context, in judge.Input) (*types.JudgeResult, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &types.JudgeResult{QualityScore: 82, Passed: true, Recommendation: types.RecommendAccept}, nil
}

func (f *fakeJudge) Excerpt(jobText string) string { return "excerpt:" + jobText }

type fakeAIHealth struct{ available bool }

func (f fakeAIHealth) Health(context.Context, time.Duration) map[string]ai.OperationHealth {
	return map[string]ai.OperationHealth{
		"judge": {Model: &ai.ModelInfo{Name: "gemini-test", Available: f.available}, CircuitBreaker: map[string]any{"state": "closed"}},
	}
}

type countingRateRecorder struct{ hits map[string]int }

func (c *countingRateRecorder) RecordRateLimitHit(_ context.Context, limitType string) {
	c.hits[limitType]++
}

type testEnv struct {
	server   *Server
	handler  http.Handler
	store    *store.Memory
	analyzer *fakeAnalyzer
	judge    *fakeJudge
}

func newTestEnv(t *testing.T, mutate func(*config.Config, *Dependencies)) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			MaxRequestSize: 1 << 20,
		},
		Pipeline: config.PipelineConfig{HealthWindow: 20},
	}

	mem := store.NewMemory()
	env := &testEnv{store: mem, analyzer: &fakeAnalyzer{}, judge: &fakeJudge{}}
	deps := Dependencies{
		Analyzer:  env.analyzer,
		Judge:     env.judge,
		Lifecycle: lifecycle.NewManager(mem, nil, nil),
		Scans:     mem,
		AIHealth:  fakeAIHealth{available: true},
	}
	if mutate != nil {
		mutate(cfg, &deps)
	}

	env.server = NewServer(cfg, "test", deps, errors.NewNopLogger())
	t.Cleanup(func() {
		if env.server.RateLimiter != nil {
			env.server.RateLimiter.Close()
		}
	})
	env.handler = env.server.Handler(nil)
	return env
}

func (e *testEnv) seed(t *testing.T, owner string, suggestions ...types.Suggestion) {
	t.Helper()
	scan := types.Scan{ID: "scan-1", OwnerID: owner, ResumeText: testResume, CreatedAt: time.Now()}
	for i := range suggestions {
		suggestions[i].ScanID = scan.ID
		if suggestions[i].Status == "" {
			suggestions[i].Status = types.StatusPending
		}
		suggestions[i].CreatedAt = scan.CreatedAt.Add(time.Duration(i) * time.Second)
	}
	require.NoError(t, e.store.SaveAnalysis(context.Background(), scan, suggestions, types.QualityMetricLog{
		ScanID: scan.ID, TotalEvaluated: 4, Passed: 4, PassRate: 100, AvgScore: 85, CreatedAt: scan.CreatedAt,
	}))
}

func (e *testEnv) do(t *testing.T, method, path, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set("X-Principal-ID", principal)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func experienceSuggestions() []types.Suggestion {
	return []types.Suggestion{
		{ID: "s1", Section: types.SectionExperience, ItemIndex: 0, OriginalText: "Built billing service in Go", SuggestedText: "Built a Go billing service processing $2M monthly", SuggestionType: types.TypeQuantification},
		{ID: "s2", Section: types.SectionExperience, ItemIndex: 1, OriginalText: "Led a team of 5 engineers", SuggestedText: "Directed a team of 5 engineers", SuggestionType: types.TypeActionVerb},
		{ID: "s3", Section: types.SectionSkills, ItemIndex: 0, OriginalText: "Go", SuggestedText: "Golang", SuggestionType: types.TypeSkillMapping},
	}
}

func TestStatusForErrorCodes(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{errors.ErrCodeValidation, http.StatusBadRequest},
		{errors.ErrCodeInvalidFormat, http.StatusBadRequest},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{errors.ErrCodeLLMTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeLLM, http.StatusBadGateway},
		{errors.ErrCodeDB, http.StatusInternalServerError},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := statusFor(tt.code); got != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, got)
			}
		})
	}
}

func TestAnalyzeHandler(t *testing.T) {
	t.Run("success passes principal", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/v1/analyze", "user-1", pipeline.Input{ResumeText: testResume, JobText: "Go engineer", JobTitle: "Engineer"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result pipeline.AnalysisResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "scan-1", result.Scan.ID)
		assert.Equal(t, "Engineer", result.Scan.JobTitle)
		assert.Equal(t, "user-1", env.analyzer.principal)
	})

	t.Run("missing principal", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/v1/analyze", "", pipeline.Input{ResumeText: "r", JobText: "j"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeValidation, decodeError(t, rec).Error)
	})

	t.Run("body validation", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/v1/analyze", "user-1", map[string]string{"resumeText": "r"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errors.ErrCodeValidation, resp.Error)
		assert.Contains(t, resp.Message, "JobText is required")
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"llm timeout", errors.NewAIError(errors.ErrCodeLLMTimeout, "keyword extraction timed out", nil), http.StatusGatewayTimeout, errors.ErrCodeLLMTimeout},
		{"llm error", errors.NewAIError(errors.ErrCodeLLM, "model failed", nil), http.StatusBadGateway, errors.ErrCodeLLM},
		{"db error", errors.NewDatabaseError(errors.ErrCodeDB, "save failed", nil), http.StatusInternalServerError, errors.ErrCodeDB},
		{"foreign error", fmt.Errorf("boom"), http.StatusInternalServerError, errors.ErrCodeInternal},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.analyzer.err = tc.err
			rec := env.do(t, http.MethodPost, "/v1/analyze", "user-1", pipeline.Input{ResumeText: "r", JobText: "j"})
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error)
		})
	}
}

func TestRequestParsing(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config, _ *Dependencies) {
		c.Server.MaxRequestSize = 64
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/diff", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/diff", bytes.NewBufferString(`{"original":`))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Error)
	})

	t.Run("body too large", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/diff", "", DiffRequest{Original: string(make([]byte, 200)), Suggested: "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "too large")
	})
}

func TestJudgeHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/v1/judge", "", JudgeRequest{
		Original: "Led team", Suggested: "Directed a team of 5", JobDescription: "lead engineers", Section: types.SectionExperience,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.JudgeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 82, result.QualityScore)
	assert.Equal(t, "excerpt:lead engineers", env.judge.got.JDExcerpt)

	rec = env.do(t, http.MethodPost, "/v1/judge", "", JudgeRequest{Original: "a", Suggested: "b", Section: "summary"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.judge.err = errors.NewAIError(errors.ErrCodeLLM, "judge failed", nil)
	rec = env.do(t, http.MethodPost, "/v1/judge", "", JudgeRequest{Original: "a", Suggested: "b", Section: types.SectionSkills})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDiffHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/v1/diff", "", DiffRequest{Original: "led the team", Suggested: "directed the team"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DiffResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Chunks)

	var deleted, inserted string
	for _, c := range resp.Chunks {
		switch c.Type {
		case types.DiffDelete:
			deleted += c.Value
		case types.DiffInsert:
			inserted += c.Value
		}
	}
	assert.Contains(t, deleted, "led")
	assert.Contains(t, inserted, "directed")
}

func TestSuggestionLifecycleRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "owner", experienceSuggestions()...)

	rec := env.do(t, http.MethodPatch, "/v1/scans/scan-1/suggestions/s1", "owner", StatusRequest{Status: types.StatusAccepted})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated types.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, types.StatusAccepted, updated.Status)

	rec = env.do(t, http.MethodPost, "/v1/scans/scan-1/sections/experience/reject-all", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var count CountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count))
	assert.Equal(t, 1, count.Count)

	rec = env.do(t, http.MethodPost, "/v1/scans/scan-1/sections/skills/accept-all", "owner", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count))
	assert.Equal(t, 1, count.Count)

	rec = env.do(t, http.MethodPost, "/v1/scans/scan-1/skip-pending", "owner", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count))
	assert.Equal(t, 0, count.Count)

	rec = env.do(t, http.MethodGet, "/v1/scans/scan-1/suggestions/summary", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary types.SuggestionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, types.SuggestionSummary{Total: 3, Accepted: 2, Rejected: 1, Pending: 0}, summary)

	t.Run("unknown section", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/scans/scan-1/sections/summary/accept-all", "owner", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/v1/scans/scan-1/suggestions/s2", "owner", StatusRequest{Status: "maybe"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other principal sees not found", func(t *testing.T) {
		for _, path := range []string{"/v1/scans/scan-1/suggestions/summary", "/v1/scans/missing/suggestions/summary"} {
			rec := env.do(t, http.MethodGet, path, "intruder", nil)
			assert.Equal(t, http.StatusNotFound, rec.Code, path)
			assert.Equal(t, "scan not found", decodeError(t, rec).Message, path)
		}
	})
}

func TestMergeHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	suggestions := experienceSuggestions()
	suggestions[0].Status = types.StatusAccepted
	suggestions[1].Status = types.StatusRejected
	env.seed(t, "owner", suggestions...)

	rec := env.do(t, http.MethodPost, "/v1/scans/scan-1/merge", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MergeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"s1"}, resp.Applied)
	assert.Contains(t, resp.Text, "Built a Go billing service processing $2M monthly")
	assert.Contains(t, resp.Text, "Led a team of 5 engineers")
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "s1", resp.Changes[0].SuggestionID)
	assert.NotEmpty(t, resp.Changes[0].Chunks)

	rec = env.do(t, http.MethodPost, "/v1/scans/scan-1/merge", "intruder", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "scan not found", decodeError(t, rec).Message)
}

func TestQualityHealthHandler(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "owner")

	rec := env.do(t, http.MethodGet, "/v1/quality/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp QualityHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.HealthHealthy, resp.Status)
	assert.Equal(t, 1, resp.Window)

	for _, limit := range []string{"0", "abc", "1001"} {
		rec := env.do(t, http.MethodGet, "/v1/quality/health?limit="+limit, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for limit=%s, got %d", limit, rec.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config, _ *Dependencies) {
		c.Server.APIKeys = []string{"secret-key-123"}
	})

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong", http.StatusUnauthorized},
		{"x-api-key", "X-API-Key", "secret-key-123", http.StatusOK},
		{"bearer", "Authorization", "Bearer secret-key-123", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/diff", bytes.NewBufferString(`{"original":"a","suggested":"b"}`))
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	t.Run("health stays public", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rotated keys apply", func(t *testing.T) {
		env.server.SetAPIKeys([]string{"rotated"})
		req := httptest.NewRequest(http.MethodPost, "/v1/diff", bytes.NewBufferString(`{}`))
		req.Header.Set("X-API-Key", "secret-key-123")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	recorder := &countingRateRecorder{hits: map[string]int{}}
	env := newTestEnv(t, func(c *config.Config, d *Dependencies) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
		d.RateLimit = recorder
	})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, env.do(t, http.MethodPost, "/v1/diff", "", DiffRequest{}).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, recorder.hits["ip"])

	rec := env.do(t, http.MethodPost, "/v1/diff", "", DiffRequest{})
	assert.Equal(t, errors.ErrCodeRateLimited, decodeError(t, rec).Error)
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Contains(t, body, "circuit_breakers")
	})

	t.Run("model unavailable", func(t *testing.T) {
		env := newTestEnv(t, func(_ *config.Config, d *Dependencies) {
			d.AIHealth = fakeAIHealth{available: false}
		})
		rec := env.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
	})
}

func TestRoutingErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/analyze", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "resumescan", stats["service"])
}
