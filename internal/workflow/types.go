package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
)

const (
	KeyInput       = "input"
	KeyParsing     = "parsing"
	KeyElements    = "elements"
	KeyTracker     = "evidence_tracker"
	KeyTechnical   = "technical_validation"
	KeyEmotional   = "emotional_analysis"
	KeySupervision = "supervision"
)

// Input is one script to break down.
type Input struct {
	ScriptID uuid.UUID `json:"script_id"`
	Filename string    `json:"filename"`
	Text     string    `json:"-"`
}

// EvidenceResult is the evidence ledger as it stood when supervision
// finished. Export carries the full ledger for archival and is not part of
// the JSON result.
type EvidenceResult struct {
	Summary []evidence.ChainSummary `json:"summary"`
	Reports []evidence.Report       `json:"reports"`
	Export  evidence.Export         `json:"-"`
}

// Result is the final output of a workflow execution.
type Result struct {
	ScriptID    uuid.UUID                      `json:"script_id"`
	Filename    string                         `json:"filename"`
	Parsing     script.Result                  `json:"parsing"`
	Technical   supervisor.TechnicalValidation `json:"technical_validation"`
	Emotional   supervisor.EmotionalAnalysis   `json:"emotional_analysis"`
	Supervision supervisor.Result              `json:"supervision"`
	Catalog     []supervisor.CatalogEntry      `json:"catalog"`
	Continuity  []supervisor.ContinuityNote    `json:"continuity"`
	Evidence    EvidenceResult                 `json:"evidence"`
	CompletedAt time.Time                      `json:"completed_at"`
}

// NeedsReview reports whether the supervisor asked for a human reviewer.
func (r *Result) NeedsReview() bool {
	return r.Supervision.QualityAssessment.HumanReviewRequired
}

// Elements returns the final, deduplicated element list.
func (r *Result) Elements() []elements.Element {
	return r.Supervision.FinalElements
}
