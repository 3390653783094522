package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"resumescan/internal/errors"
	"resumescan/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedAnalysis saves a scan with two experience suggestions and one skills suggestion
func seedAnalysis(t *testing.T, s Store, owner string) (types.Scan, []types.Suggestion) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	scan := types.Scan{ID: uuid.NewString(), OwnerID: owner, JobTitle: "Engineer", ResumeText: "Experience\n- a\n- b\n", CreatedAt: now}

	mk := func(i int, section types.Section) types.Suggestion {
		return types.Suggestion{
			ID:             uuid.NewString(),
			ScanID:         scan.ID,
			Section:        section,
			ItemIndex:      i,
			OriginalText:   "orig",
			SuggestedText:  "new",
			SuggestionType: types.TypeActionVerb,
			Status:         types.StatusPending,
			CreatedAt:      now.Add(time.Duration(i) * time.Microsecond),
		}
	}
	suggestions := []types.Suggestion{
		mk(0, types.SectionExperience),
		mk(1, types.SectionExperience),
		mk(2, types.SectionSkills),
	}
	log := types.QualityMetricLog{
		ScanID: scan.ID, TotalEvaluated: 3, Passed: 2, Failed: 1, PassRate: 66.67, AvgScore: 71,
		ScoreDistribution: [types.ScoreBuckets]int{0, 0, 1, 0, 2},
		FailureBreakdown:  map[string]int{"revise": 1},
		CreatedAt:         now,
	}
	require.NoError(t, s.SaveAnalysis(context.Background(), scan, suggestions, log))
	return scan, suggestions
}

// runStoreContract exercises the behaviour every Store must share
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("scan round trip", func(t *testing.T) {
		scan, _ := seedAnalysis(t, s, "owner-1")
		got, err := s.GetScan(ctx, scan.ID)
		require.NoError(t, err)
		assert.Equal(t, "owner-1", got.OwnerID)
		assert.Equal(t, scan.ResumeText, got.ResumeText)
	})

	t.Run("unknown scan is not found", func(t *testing.T) {
		for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
			_, err := s.GetScan(ctx, id)
			assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
		}
	})

	t.Run("suggestions keep creation order", func(t *testing.T) {
		scan, want := seedAnalysis(t, s, "owner-1")
		got, err := s.ListSuggestions(ctx, scan.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.Equal(t, want[i].Section, got[i].Section)
		}
	})

	t.Run("conditional transition", func(t *testing.T) {
		scan, sugg := seedAnalysis(t, s, "owner-1")
		id := sugg[0].ID

		ok, err := s.TransitionSuggestion(ctx, scan.ID, id, types.StatusPending, types.StatusAccepted)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.TransitionSuggestion(ctx, scan.ID, id, types.StatusPending, types.StatusRejected)
		require.NoError(t, err)
		assert.False(t, ok, "precondition no longer holds")

		got, err := s.GetSuggestion(ctx, scan.ID, id)
		require.NoError(t, err)
		assert.Equal(t, types.StatusAccepted, got.Status)

		ok, err = s.TransitionSuggestion(ctx, uuid.NewString(), id, types.StatusAccepted, types.StatusPending)
		require.NoError(t, err)
		assert.False(t, ok, "scan id must match")

		_, err = s.GetSuggestion(ctx, scan.ID, uuid.NewString())
		assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
	})

	t.Run("bulk transition only touches pending", func(t *testing.T) {
		scan, sugg := seedAnalysis(t, s, "owner-1")
		_, err := s.TransitionSuggestion(ctx, scan.ID, sugg[0].ID, types.StatusPending, types.StatusRejected)
		require.NoError(t, err)

		n, err := s.TransitionPending(ctx, scan.ID, types.SectionExperience, types.StatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		first, err := s.GetSuggestion(ctx, scan.ID, sugg[0].ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusRejected, first.Status)

		n, err = s.TransitionPending(ctx, scan.ID, AllSections, types.StatusRejected)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "only the skills suggestion was still pending")

		sum, err := s.SummarizeSuggestions(ctx, scan.ID)
		require.NoError(t, err)
		assert.Equal(t, types.SuggestionSummary{Total: 3, Accepted: 1, Rejected: 2, Pending: 0}, sum)
	})

	t.Run("concurrent bulk operations are idempotent", func(t *testing.T) {
		scan, _ := seedAnalysis(t, s, "owner-1")
		var wg sync.WaitGroup
		counts := make([]int, 4)
		for i := range counts {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				n, err := s.TransitionPending(ctx, scan.ID, types.SectionExperience, types.StatusAccepted)
				assert.NoError(t, err)
				counts[i] = n
			}(i)
		}
		wg.Wait()

		total := 0
		for _, n := range counts {
			total += n
		}
		assert.Equal(t, 2, total)
	})

	t.Run("quality logs newest first", func(t *testing.T) {
		seedAnalysis(t, s, "owner-2")
		scan, _ := seedAnalysis(t, s, "owner-2")

		logs, err := s.RecentQualityLogs(ctx, 1)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, scan.ID, logs[0].ScanID)
		assert.Equal(t, 3, logs[0].TotalEvaluated)
		assert.Equal(t, [types.ScoreBuckets]int{0, 0, 1, 0, 2}, logs[0].ScoreDistribution)
		assert.Equal(t, 1, logs[0].FailureBreakdown["revise"])
	})
}
