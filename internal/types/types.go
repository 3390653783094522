package types

import "time"

// KeywordCategory classifies an extracted job keyword
type KeywordCategory string

const (
	CategorySkill         KeywordCategory = "skill"
	CategoryTechnology    KeywordCategory = "technology"
	CategoryQualification KeywordCategory = "qualification"
	CategoryExperience    KeywordCategory = "experience"
	CategorySoftSkill     KeywordCategory = "soft_skill"
	CategoryCertification KeywordCategory = "certification"
)

// Importance ranks a keyword within its job posting
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// MatchType records how a keyword was found in the resume
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchVariant MatchType = "variant"
	// MatchFuzzy is part of the wire vocabulary; the matcher never produces it.
	MatchFuzzy MatchType = "fuzzy"
)

// ExtractedKeyword is a keyword pulled out of a job posting
type ExtractedKeyword struct {
	Text       string          `json:"text"`
	Category   KeywordCategory `json:"category"`
	Importance Importance      `json:"importance"`
}

// KeywordMatch is the outcome of matching one keyword against the resume
type KeywordMatch struct {
	Keyword   ExtractedKeyword `json:"keyword"`
	Found     bool             `json:"found"`
	MatchType MatchType        `json:"matchType,omitempty"`
	Context   string           `json:"context,omitempty"`
}

// KeywordAnalysisResult summarises keyword coverage of a resume
type KeywordAnalysisResult struct {
	Matched    []KeywordMatch     `json:"matched"`
	Missing    []ExtractedKeyword `json:"missing"`
	MatchRate  int                `json:"matchRate"`
	AnalyzedAt time.Time          `json:"analyzedAt"`
}

// BulletMetrics holds the metric substrings detected in one bullet
type BulletMetrics struct {
	Numbers     []string `json:"numbers"`
	Percentages []string `json:"percentages"`
	Currency    []string `json:"currency"`
	TimeUnits   []string `json:"timeUnits"`
}

// BulletQuantification is the per-bullet quantification report
type BulletQuantification struct {
	Text       string        `json:"text"`
	HasMetrics bool          `json:"hasMetrics"`
	Metrics    BulletMetrics `json:"metrics"`
}

// CategoryCounts counts bullets containing each metric category
type CategoryCounts struct {
	Numbers     int `json:"numbers"`
	Percentages int `json:"percentages"`
	Currency    int `json:"currency"`
	TimeUnits   int `json:"timeUnits"`
}

// DensityResult aggregates quantification across a bullet list
type DensityResult struct {
	TotalBullets       int            `json:"totalBullets"`
	BulletsWithMetrics int            `json:"bulletsWithMetrics"`
	Density            int            `json:"density"`
	ByCategory         CategoryCounts `json:"byCategory"`
	Label              string         `json:"label"`
}

// CategoryScore is one weighted component of the overall score
type CategoryScore struct {
	Score                 int     `json:"score"`
	Weight                float64 `json:"weight"`
	Reason                string  `json:"reason"`
	QuantificationDensity *int    `json:"quantificationDensity,omitempty"`
}

// ScoreCategories holds the five fixed scoring categories
type ScoreCategories struct {
	KeywordAlignment     CategoryScore `json:"keywordAlignment"`
	ContentRelevance     CategoryScore `json:"contentRelevance"`
	QuantificationImpact CategoryScore `json:"quantificationImpact"`
	FormatStructure      CategoryScore `json:"formatStructure"`
	SkillsCoverage       CategoryScore `json:"skillsCoverage"`
}

// All returns the categories in their canonical order.
func (c ScoreCategories) All() []CategoryScore {
	return []CategoryScore{
		c.KeywordAlignment,
		c.ContentRelevance,
		c.QuantificationImpact,
		c.FormatStructure,
		c.SkillsCoverage,
	}
}

// ScoreBreakdown is the explained compatibility score
type ScoreBreakdown struct {
	Overall    int             `json:"overall"`
	Categories ScoreCategories `json:"categories"`
}

// Section identifies the resume section a suggestion targets
type Section string

const (
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionProjects   Section = "projects"
	SectionSkills     Section = "skills"
	SectionFormat     Section = "format"
)

// Sections lists every section a suggestion may belong to.
var Sections = []Section{SectionExperience, SectionEducation, SectionProjects, SectionSkills, SectionFormat}

// Valid reports whether s is a known suggestion section.
func (s Section) Valid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// SuggestionType identifies the kind of edit being proposed
type SuggestionType string

const (
	TypeBulletRewrite  SuggestionType = "bullet_rewrite"
	TypeSkillMapping   SuggestionType = "skill_mapping"
	TypeActionVerb     SuggestionType = "action_verb"
	TypeQuantification SuggestionType = "quantification"
	TypeSkillExpansion SuggestionType = "skill_expansion"
	TypeFormat         SuggestionType = "format"
	TypeRemoval        SuggestionType = "removal"
)

// SuggestionStatus is the lifecycle state of a suggestion
type SuggestionStatus string

const (
	StatusPending  SuggestionStatus = "pending"
	StatusAccepted SuggestionStatus = "accepted"
	StatusRejected SuggestionStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Suggestion is a section-scoped edit proposal
type Suggestion struct {
	ID             string           `json:"id"`
	ScanID         string           `json:"scanId"`
	Section        Section          `json:"section"`
	ItemIndex      int              `json:"itemIndex"`
	OriginalText   string           `json:"originalText"`
	SuggestedText  string           `json:"suggestedText"`
	SuggestionType SuggestionType   `json:"suggestionType"`
	Reasoning      string           `json:"reasoning"`
	Status         SuggestionStatus `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// StructuralCategory groups structural findings
type StructuralCategory string

const (
	StructuralSectionOrder    StructuralCategory = "section_order"
	StructuralSectionHeading  StructuralCategory = "section_heading"
	StructuralSectionPresence StructuralCategory = "section_presence"
)

// Priority ranks structural findings
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityModerate Priority = "moderate"
)

// StructuralSuggestion is a read-only, whole-document finding
type StructuralSuggestion struct {
	ID                string             `json:"id"`
	Category          StructuralCategory `json:"category"`
	Priority          Priority           `json:"priority"`
	Message           string             `json:"message"`
	CurrentState      string             `json:"currentState"`
	RecommendedAction string             `json:"recommendedAction"`
}

// Recommendation is the judge's advisory verdict
type Recommendation string

const (
	RecommendAccept Recommendation = "accept"
	RecommendRevise Recommendation = "revise"
	RecommendReject Recommendation = "reject"
)

// CriteriaBreakdown holds the four 0-25 rubric scores
type CriteriaBreakdown struct {
	Authenticity  int `json:"authenticity"`
	Clarity       int `json:"clarity"`
	ATSRelevance  int `json:"ats_relevance"`
	Actionability int `json:"actionability"`
}

// JudgeResult is the rubric evaluation of one suggestion
type JudgeResult struct {
	SuggestionID      string            `json:"suggestion_id"`
	QualityScore      int               `json:"quality_score"`
	Passed            bool              `json:"passed"`
	CriteriaBreakdown CriteriaBreakdown `json:"criteria_breakdown"`
	Recommendation    Recommendation    `json:"recommendation"`
	Reasoning         string            `json:"reasoning"`
}

// JudgedSuggestion pairs a suggestion with its judge outcome
type JudgedSuggestion struct {
	Suggestion Suggestion   `json:"suggestion"`
	Judge      *JudgeResult `json:"judge,omitempty"`
	Verified   bool         `json:"verified"`
	Unverified bool         `json:"unverified"`
	Retryable  bool         `json:"retryable,omitempty"`
	JudgeError string       `json:"judgeError,omitempty"`
}

// CriteriaAverages holds mean rubric scores over a run
type CriteriaAverages struct {
	Authenticity  float64 `json:"authenticity"`
	Clarity       float64 `json:"clarity"`
	ATSRelevance  float64 `json:"ats_relevance"`
	Actionability float64 `json:"actionability"`
}

// ScoreBuckets is the number of equal-width score distribution buckets.
const ScoreBuckets = 5

// QualityMetricLog aggregates judge outcomes for one analysis run
type QualityMetricLog struct {
	ScanID            string            `json:"scan_id"`
	TotalEvaluated    int               `json:"total_evaluated"`
	Passed            int               `json:"passed"`
	Failed            int               `json:"failed"`
	PassRate          float64           `json:"pass_rate"`
	AvgScore          float64           `json:"avg_score"`
	ScoreDistribution [ScoreBuckets]int `json:"score_distribution"`
	CriteriaAvg       CriteriaAverages  `json:"criteria_avg"`
	FailureBreakdown  map[string]int    `json:"failure_breakdown"`
	CreatedAt         time.Time         `json:"created_at"`
}

// HealthStatus is the derived state of judge quality
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// QualityHealth is recomputed from one or more QualityMetricLogs
type QualityHealth struct {
	Status   HealthStatus `json:"status"`
	PassRate float64      `json:"pass_rate"`
	AvgScore float64      `json:"avg_score"`
	Alerts   []string     `json:"alerts"`
}

// Scan is the parent analysis run that owns suggestions
type Scan struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	JobTitle   string    `json:"jobTitle,omitempty"`
	ResumeText string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SuggestionSummary counts suggestions per status for a scan
type SuggestionSummary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// DiffOp is the kind of a diff chunk
type DiffOp string

const (
	DiffEqual  DiffOp = "equal"
	DiffInsert DiffOp = "insert"
	DiffDelete DiffOp = "delete"
)

// DiffChunk is one run of words sharing a diff op
type DiffChunk struct {
	Type  DiffOp `json:"type"`
	Value string `json:"value"`
}
