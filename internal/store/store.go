// Package store persists scans, suggestions and quality logs in Postgres or
// in memory. Every method returns NOT_FOUND or DB_ERROR application errors.
package store

import (
	"context"

	"resumescan/internal/errors"
	"resumescan/internal/types"
)

// Store is the full persistence surface used by the pipeline, the
// lifecycle manager and the HTTP API
type Store interface {
	SaveAnalysis(ctx context.Context, scan types.Scan, suggestions []types.Suggestion, log types.QualityMetricLog) error

	GetScan(ctx context.Context, scanID string) (*types.Scan, error)
	ListSuggestions(ctx context.Context, scanID string) ([]types.Suggestion, error)
	GetSuggestion(ctx context.Context, scanID, suggestionID string) (*types.Suggestion, error)
	TransitionSuggestion(ctx context.Context, scanID, suggestionID string, from, to types.SuggestionStatus) (bool, error)
	TransitionPending(ctx context.Context, scanID string, section types.Section, to types.SuggestionStatus) (int, error)
	SummarizeSuggestions(ctx context.Context, scanID string) (types.SuggestionSummary, error)

	RecentQualityLogs(ctx context.Context, limit int) ([]types.QualityMetricLog, error)

	Ping(ctx context.Context) error
	Close()
}

// AllSections makes TransitionPending apply to every section of a scan
const AllSections types.Section = ""

func scanNotFound(scanID string) error {
	return errors.NewNotFoundError(errors.ErrCodeNotFound, "scan not found", nil).WithContext("scan_id", scanID)
}

func suggestionNotFound(suggestionID string) error {
	return errors.NewNotFoundError(errors.ErrCodeNotFound, "suggestion not found", nil).WithContext("suggestion_id", suggestionID)
}

func dbError(op string, err error) error {
	return errors.NewDatabaseError(errors.ErrCodeDB, "failed to "+op, err)
}
