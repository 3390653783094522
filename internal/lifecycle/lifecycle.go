// Package lifecycle owns suggestion status changes: the pending, accepted
// and rejected state machine, bulk section operations and ownership checks.
package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"resumescan/internal/errors"
	"resumescan/internal/types"
)

// Store is the persistence port the manager needs
type Store interface {
	GetScan(ctx context.Context, scanID string) (*types.Scan, error)
	GetSuggestion(ctx context.Context, scanID, suggestionID string) (*types.Suggestion, error)
	TransitionSuggestion(ctx context.Context, scanID, suggestionID string, from, to types.SuggestionStatus) (bool, error)
	TransitionPending(ctx context.Context, scanID string, section types.Section, to types.SuggestionStatus) (int, error)
	SummarizeSuggestions(ctx context.Context, scanID string) (types.SuggestionSummary, error)
}

// Recorder observes status transitions
type Recorder interface {
	RecordTransition(ctx context.Context, from, to types.SuggestionStatus, count int)
}

// transitions maps each target status to the statuses it may be reached from
var transitions = map[types.SuggestionStatus][]types.SuggestionStatus{
	types.StatusAccepted: {types.StatusPending},
	types.StatusRejected: {types.StatusPending},
	types.StatusPending:  {types.StatusAccepted, types.StatusRejected},
}

// CanTransition reports whether from -> to is an edge of the state machine
func CanTransition(from, to types.SuggestionStatus) bool {
	for _, prior := range transitions[to] {
		if prior == from {
			return true
		}
	}
	return false
}

// allSections is the store's marker for every section of a scan
const allSections types.Section = ""

// Manager applies status changes on behalf of a principal
type Manager struct {
	store    Store
	recorder Recorder
	logger   *errors.Logger
}

// NewManager creates a manager. recorder may be nil.
func NewManager(store Store, recorder Recorder, logger *errors.Logger) *Manager {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Manager{store: store, recorder: recorder, logger: logger}
}

// UpdateSuggestionStatus moves one suggestion to status. The change is a
// conditional update on the suggestion's current status, so a concurrent
// writer makes it fail rather than overwrite.
func (m *Manager) UpdateSuggestionStatus(ctx context.Context, principal, suggestionID, scanID string, status types.SuggestionStatus) (*types.Suggestion, error) {
	if strings.TrimSpace(suggestionID) == "" {
		return nil, validation("suggestion id is required")
	}
	if !status.Valid() {
		return nil, validation(fmt.Sprintf("unknown status %q", status))
	}
	if err := m.authorize(ctx, principal, scanID); err != nil {
		return nil, err
	}

	current, err := m.store.GetSuggestion(ctx, scanID, suggestionID)
	if err != nil {
		return nil, storeError(err, "get suggestion")
	}
	if err := checkTransition(current.Status, status); err != nil {
		return nil, err
	}

	ok, err := m.store.TransitionSuggestion(ctx, scanID, suggestionID, current.Status, status)
	if err != nil {
		return nil, storeError(err, "update suggestion status")
	}
	if !ok {
		// the row changed or vanished between read and update
		latest, err := m.store.GetSuggestion(ctx, scanID, suggestionID)
		if err != nil {
			return nil, storeError(err, "get suggestion")
		}
		if err := checkTransition(latest.Status, status); err != nil {
			return nil, err
		}
		return nil, validation("suggestion status changed concurrently, retry")
	}

	m.record(ctx, current.Status, status, 1)
	m.logger.Info("Suggestion status updated",
		"scan_id", scanID,
		"suggestion_id", suggestionID,
		"from", string(current.Status),
		"to", string(status))

	current.Status = status
	return current, nil
}

// AcceptAllInSection accepts every pending suggestion in one section
func (m *Manager) AcceptAllInSection(ctx context.Context, principal, scanID string, section types.Section) (int, error) {
	return m.bulk(ctx, principal, scanID, section, types.StatusAccepted)
}

// RejectAllInSection rejects every pending suggestion in one section
func (m *Manager) RejectAllInSection(ctx context.Context, principal, scanID string, section types.Section) (int, error) {
	return m.bulk(ctx, principal, scanID, section, types.StatusRejected)
}

// SkipAllPending rejects every pending suggestion of a scan
func (m *Manager) SkipAllPending(ctx context.Context, principal, scanID string) (int, error) {
	return m.bulk(ctx, principal, scanID, allSections, types.StatusRejected)
}

func (m *Manager) bulk(ctx context.Context, principal, scanID string, section types.Section, to types.SuggestionStatus) (int, error) {
	if section != allSections && !section.Valid() {
		return 0, validation(fmt.Sprintf("unknown section %q", section))
	}
	if err := m.authorize(ctx, principal, scanID); err != nil {
		return 0, err
	}

	n, err := m.store.TransitionPending(ctx, scanID, section, to)
	if err != nil {
		return 0, storeError(err, "update section status")
	}

	m.record(ctx, types.StatusPending, to, n)
	m.logger.Info("Bulk suggestion update",
		"scan_id", scanID,
		"section", string(section),
		"to", string(to),
		"count", n)
	return n, nil
}

// GetSuggestionSummary counts a scan's suggestions by status
func (m *Manager) GetSuggestionSummary(ctx context.Context, principal, scanID string) (types.SuggestionSummary, error) {
	if err := m.authorize(ctx, principal, scanID); err != nil {
		return types.SuggestionSummary{}, err
	}
	sum, err := m.store.SummarizeSuggestions(ctx, scanID)
	if err != nil {
		return types.SuggestionSummary{}, storeError(err, "summarize suggestions")
	}
	return sum, nil
}

// authorize fails with NOT_FOUND when the scan is missing or owned by
// someone else, so callers cannot probe for other principals' scans.
func (m *Manager) authorize(ctx context.Context, principal, scanID string) error {
	if strings.TrimSpace(principal) == "" {
		return validation("principal is required")
	}
	if strings.TrimSpace(scanID) == "" {
		return validation("scan id is required")
	}

	scan, err := m.store.GetScan(ctx, scanID)
	if err != nil {
		return storeError(err, "get scan")
	}
	if scan.OwnerID != principal {
		return errors.NewNotFoundError(errors.ErrCodeNotFound, "scan not found", nil).WithContext("scan_id", scanID)
	}
	return nil
}

func (m *Manager) record(ctx context.Context, from, to types.SuggestionStatus, n int) {
	if m.recorder != nil && n > 0 {
		m.recorder.RecordTransition(ctx, from, to, n)
	}
}

func checkTransition(from, to types.SuggestionStatus) error {
	if from == to {
		return validation(fmt.Sprintf("suggestion is already %s", to))
	}
	if !CanTransition(from, to) {
		return validation(fmt.Sprintf("cannot change a %s suggestion to %s; reset it to pending first", from, to))
	}
	return nil
}

func validation(msg string) error {
	return errors.NewValidationError(errors.ErrCodeValidation, msg, nil)
}

// storeError keeps typed store errors and wraps anything else as DB_ERROR
func storeError(err error, op string) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	return errors.NewDatabaseError(errors.ErrCodeDB, "failed to "+op, err)
}
