package store

import (
	"context"
	"sort"
	"sync"

	"resumescan/internal/types"
)

// Memory is an in-process Store for the CLI and tests
type Memory struct {
	mu          sync.RWMutex
	scans       map[string]types.Scan
	suggestions map[string][]*types.Suggestion // by scan id, creation order
	logs        []types.QualityMetricLog
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		scans:       make(map[string]types.Scan),
		suggestions: make(map[string][]*types.Suggestion),
	}
}

func (m *Memory) SaveAnalysis(_ context.Context, scan types.Scan, suggestions []types.Suggestion, log types.QualityMetricLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scans[scan.ID] = scan
	rows := make([]*types.Suggestion, len(suggestions))
	for i := range suggestions {
		s := suggestions[i]
		rows[i] = &s
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	m.suggestions[scan.ID] = rows
	m.logs = append(m.logs, log)
	return nil
}

func (m *Memory) GetScan(_ context.Context, scanID string) (*types.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scan, ok := m.scans[scanID]
	if !ok {
		return nil, scanNotFound(scanID)
	}
	return &scan, nil
}

func (m *Memory) ListSuggestions(_ context.Context, scanID string) ([]types.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Suggestion, 0, len(m.suggestions[scanID]))
	for _, s := range m.suggestions[scanID] {
		out = append(out, *s)
	}
	return out, nil
}

func (m *Memory) find(scanID, suggestionID string) *types.Suggestion {
	for _, s := range m.suggestions[scanID] {
		if s.ID == suggestionID {
			return s
		}
	}
	return nil
}

func (m *Memory) GetSuggestion(_ context.Context, scanID, suggestionID string) (*types.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.find(scanID, suggestionID)
	if s == nil {
		return nil, suggestionNotFound(suggestionID)
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) TransitionSuggestion(_ context.Context, scanID, suggestionID string, from, to types.SuggestionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.find(scanID, suggestionID)
	if s == nil || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (m *Memory) TransitionPending(_ context.Context, scanID string, section types.Section, to types.SuggestionStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.suggestions[scanID] {
		if s.Status != types.StatusPending || (section != AllSections && s.Section != section) {
			continue
		}
		s.Status = to
		n++
	}
	return n, nil
}

func (m *Memory) SummarizeSuggestions(_ context.Context, scanID string) (types.SuggestionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum types.SuggestionSummary
	for _, s := range m.suggestions[scanID] {
		sum.Total++
		switch s.Status {
		case types.StatusAccepted:
			sum.Accepted++
		case types.StatusRejected:
			sum.Rejected++
		default:
			sum.Pending++
		}
	}
	return sum, nil
}

func (m *Memory) RecentQualityLogs(_ context.Context, limit int) ([]types.QualityMetricLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if limit > 0 && len(m.logs) > limit {
		start = len(m.logs) - limit
	}
	out := make([]types.QualityMetricLog, 0, len(m.logs)-start)
	for i := len(m.logs) - 1; i >= start; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
