// Package supervisor reconciles the classification output with the
// technical and emotional analyses of a script. It detects conflicts,
// records one decision per conflict, deduplicates the element list, and
// decides whether the breakdown needs human review.
package supervisor

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/slate/internal/elements"
)

// Default thresholds applied when Settings leaves them unset.
const (
	DefaultConfidenceThreshold  = 0.6
	DefaultHumanReviewThreshold = 0.7
)

// Settings configures a Supervisor.
type Settings struct {
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
	HumanReviewThreshold float64 `json:"human_review_threshold"`
}

// Finalize applies defaults to zero thresholds and validates ranges.
func (s *Settings) Finalize() error {
	if s.ConfidenceThreshold == 0 {
		s.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if s.HumanReviewThreshold == 0 {
		s.HumanReviewThreshold = DefaultHumanReviewThreshold
	}
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold %v", ErrInvalidThreshold, s.ConfidenceThreshold)
	}
	if s.HumanReviewThreshold < 0 || s.HumanReviewThreshold > 1 {
		return fmt.Errorf("%w: human_review_threshold %v", ErrInvalidThreshold, s.HumanReviewThreshold)
	}
	return nil
}

// Context is everything one supervision pass reads.
type Context struct {
	Technical            TechnicalValidation `json:"technical_validation"`
	Emotional            EmotionalAnalysis   `json:"emotional_analysis"`
	Elements             []elements.Element  `json:"breakdown_results"`
	ConfidenceThreshold  float64             `json:"confidence_threshold"`
	HumanReviewThreshold float64             `json:"human_review_threshold"`
}

// QualityAssessment is the overall verdict on a supervised breakdown.
type QualityAssessment struct {
	OverallConfidence   float64  `json:"overall_confidence"`
	HumanReviewRequired bool     `json:"human_review_required"`
	CriticalIssues      []string `json:"critical_issues"`
}

// Result is the authoritative output of a supervision pass.
type Result struct {
	FinalElements     []elements.Element `json:"final_elements"`
	QualityAssessment QualityAssessment  `json:"quality_assessment"`
	ConflictsDetected []Conflict         `json:"conflicts_detected"`
	DecisionsMade     []Decision         `json:"decisions_made"`
}

// Supervisor runs supervision passes. It keeps no state between passes
// and is safe for concurrent use.
type Supervisor struct {
	settings Settings
	logger   *slog.Logger
}

// New creates a Supervisor. A nil logger discards output.
func New(settings Settings, logger *slog.Logger) (*Supervisor, error) {
	if err := settings.Finalize(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		settings: settings,
		logger:   logger.With("system", "supervisor"),
	}, nil
}

// Context assembles a supervision context with the supervisor's thresholds.
func (s *Supervisor) Context(tech TechnicalValidation, emo EmotionalAnalysis, els []elements.Element) Context {
	return Context{
		Technical:            tech,
		Emotional:            emo,
		Elements:             els,
		ConfidenceThreshold:  s.settings.ConfidenceThreshold,
		HumanReviewThreshold: s.settings.HumanReviewThreshold,
	}
}

// Supervise detects conflicts, resolves each one, deduplicates the
// surviving elements, and assesses quality, in that order. Identical
// input produces an identical Result.
func (s *Supervisor) Supervise(sc Context) Result {
	conflicts := DetectConflicts(sc)

	decisions := make([]Decision, len(conflicts))
	dropped := make(map[string]bool)
	for i, c := range conflicts {
		decisions[i] = ResolveConflict(c)
		if d := decisions[i]; d.AutoApplied && c.Type == ConflictClassification && len(c.ElementIDs) == 2 {
			dropped[c.ElementIDs[1]] = true
		}
	}

	kept := make([]elements.Element, 0, len(sc.Elements))
	for _, el := range sc.Elements {
		if !dropped[el.ID] {
			kept = append(kept, el)
		}
	}
	final := DeduplicateElements(kept)

	quality := AssessQuality(final, conflicts, decisions, sc)

	s.logger.Info(
		"supervision complete",
		"elements", len(sc.Elements),
		"final_elements", len(final),
		"conflicts", len(conflicts),
		"overall_confidence", quality.OverallConfidence,
		"human_review", quality.HumanReviewRequired,
	)

	return Result{
		FinalElements:     final,
		QualityAssessment: quality,
		ConflictsDetected: conflicts,
		DecisionsMade:     decisions,
	}
}
