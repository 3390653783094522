package server

import (
	"net/http"
	"strconv"
	"strings"

	"resumescan/internal/diff"
	"resumescan/internal/errors"
	"resumescan/internal/judge"
	"resumescan/internal/pipeline"
	"resumescan/internal/quality"
	"resumescan/internal/resume"
	"resumescan/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxQualityLogs = 1000

var requestValidator = validator.New()

// JudgeRequest scores one suggestion outside of an analysis run
type JudgeRequest struct {
	Original       string        `json:"original" validate:"required"`
	Suggested      string        `json:"suggested" validate:"required"`
	JobDescription string        `json:"jobDescription"`
	Section        types.Section `json:"section" validate:"required"`
}

// DiffRequest compares two texts word by word
type DiffRequest struct {
	Original  string `json:"original"`
	Suggested string `json:"suggested"`
}

// DiffResponse is the word diff of a DiffRequest
type DiffResponse struct {
	Chunks []types.DiffChunk `json:"chunks"`
}

// StatusRequest is the body of a suggestion status update
type StatusRequest struct {
	Status types.SuggestionStatus `json:"status" validate:"required"`
}

// CountResponse reports how many suggestions a bulk operation changed
type CountResponse struct {
	Count int `json:"count"`
}

// AppliedChange is the word diff of one merged suggestion
type AppliedChange struct {
	SuggestionID string            `json:"suggestionId"`
	Section      types.Section     `json:"section"`
	ItemIndex    int               `json:"itemIndex"`
	Chunks       []types.DiffChunk `json:"chunks"`
}

// MergeResponse is the merged resume plus a diff per applied suggestion
type MergeResponse struct {
	diff.MergeResult
	Changes []AppliedChange `json:"changes"`
}

// QualityHealthResponse is the health verdict over the pooled logs
type QualityHealthResponse struct {
	types.QualityHealth
	Window int `json:"window"`
}

func tracer() trace.Tracer {
	return otel.Tracer("resumescan.api")
}

// fail records err on span and writes the mapped error response
func (s *Server) fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.code", errors.CodeOf(err)))
	s.writeError(w, r, err)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer().Start(r.Context(), "api.analyze")
	defer span.End()

	var in pipeline.Input
	if err := parseJSONRequest(r, &in); err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(
		attribute.Int("request.resume_length", len(in.ResumeText)),
		attribute.Int("request.job_length", len(in.JobText)),
	)

	result, err := s.deps.Analyzer.Run(ctx, principalFrom(ctx), in)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("scan.id", result.Scan.ID),
		attribute.String("analysis.quality_flag", string(result.QualityFlag)),
	)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) judgeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer().Start(r.Context(), "api.judge")
	defer span.End()

	var req JudgeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}
	if !req.Section.Valid() {
		s.fail(w, r, span, errors.NewValidationError(errors.ErrCodeValidation, "unknown section: "+string(req.Section), nil))
		return
	}

	result, err := s.deps.Judge.JudgeSuggestion(ctx, judge.Input{
		Original:  req.Original,
		Suggested: req.Suggested,
		JDExcerpt: s.deps.Judge.Excerpt(req.JobDescription),
		Section:   req.Section,
	})
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	span.SetAttributes(attribute.Int("judge.quality_score", result.QualityScore))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) diffHandler(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DiffResponse{Chunks: diff.WordDiff(req.Original, req.Suggested)})
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := s.deps.Lifecycle.GetSuggestionSummary(ctx, principalFrom(ctx), mux.Vars(r)["scanID"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer().Start(r.Context(), "api.update_status")
	defer span.End()

	var req StatusRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, r, span, err)
		return
	}

	vars := mux.Vars(r)
	updated, err := s.deps.Lifecycle.UpdateSuggestionStatus(ctx, principalFrom(ctx), vars["suggestionID"], vars["scanID"], req.Status)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) acceptAllHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	n, err := s.deps.Lifecycle.AcceptAllInSection(ctx, principalFrom(ctx), vars["scanID"], types.Section(vars["section"]))
	s.writeCount(w, r, n, err)
}

func (s *Server) rejectAllHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	n, err := s.deps.Lifecycle.RejectAllInSection(ctx, principalFrom(ctx), vars["scanID"], types.Section(vars["section"]))
	s.writeCount(w, r, n, err)
}

func (s *Server) skipPendingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.deps.Lifecycle.SkipAllPending(ctx, principalFrom(ctx), mux.Vars(r)["scanID"])
	s.writeCount(w, r, n, err)
}

func (s *Server) writeCount(w http.ResponseWriter, r *http.Request, n int, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// mergeHandler applies the scan's accepted suggestions to its stored resume
func (s *Server) mergeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer().Start(r.Context(), "api.merge")
	defer span.End()

	scanID := mux.Vars(r)["scanID"]
	span.SetAttributes(attribute.String("scan.id", scanID))

	scan, err := s.deps.Scans.GetScan(ctx, scanID)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	if scan.OwnerID != principalFrom(ctx) {
		s.fail(w, r, span, errors.NewNotFoundError(errors.ErrCodeNotFound, "scan not found", nil))
		return
	}

	list, err := s.deps.Scans.ListSuggestions(ctx, scanID)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}

	result := diff.Merge(resume.Parse(scan.ResumeText), list)

	applied := make(map[string]bool, len(result.Applied))
	for _, id := range result.Applied {
		applied[id] = true
	}
	changes := make([]AppliedChange, 0, len(result.Applied))
	for _, sg := range list {
		if !applied[sg.ID] {
			continue
		}
		changes = append(changes, AppliedChange{
			SuggestionID: sg.ID,
			Section:      sg.Section,
			ItemIndex:    sg.ItemIndex,
			Chunks:       diff.WordDiff(sg.OriginalText, sg.SuggestedText),
		})
	}

	span.SetAttributes(
		attribute.Int("merge.applied", len(result.Applied)),
		attribute.Int("merge.skipped", len(result.Skipped)),
	)
	s.writeJSON(w, http.StatusOK, MergeResponse{MergeResult: result, Changes: changes})
}

// qualityHealthHandler pools the most recent quality logs; ?limit= overrides the window
func (s *Server) qualityHealthHandler(w http.ResponseWriter, r *http.Request) {
	limit := s.HealthWindow
	if limit <= 0 {
		limit = 20
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxQualityLogs {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeValidation,
				"limit must be an integer between 1 and "+strconv.Itoa(maxQualityLogs), err))
			return
		}
		limit = n
	}

	logs, err := s.deps.Scans.RecentQualityLogs(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QualityHealthResponse{QualityHealth: quality.EvaluateQualityHealth(logs), Window: len(logs)})
}

// validationMessage flattens validator errors into one readable line
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "max":
			parts = append(parts, fe.Field()+" exceeds maximum of "+fe.Param())
		case "min":
			parts = append(parts, fe.Field()+" is below minimum of "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" failed "+fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
