// Package breakdowns stores and serves script breakdowns produced by the
// analysis workflow. A breakdown row summarizes one workflow result; the
// full evidence ledger is archived to blob storage next to it.
package breakdowns

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/workflow"
)

// Breakdown is the stored analysis of one script. A script has at most one
// breakdown; re-analysis replaces it.
type Breakdown struct {
	ID                uuid.UUID       `json:"id"`
	ScriptID          uuid.UUID       `json:"script_id"`
	ScriptTitle       string          `json:"script_title"`
	NeedsReview       bool            `json:"needs_review"`
	OverallConfidence float64         `json:"overall_confidence"`
	ElementCount      int             `json:"element_count"`
	ConflictCount     int             `json:"conflict_count"`
	Result            workflow.Result `json:"result"`
	ExportKey         string          `json:"export_key"`
	AnalyzedAt        time.Time       `json:"analyzed_at"`
	ReviewedBy        *string         `json:"reviewed_by"`
	ReviewedAt        *time.Time      `json:"reviewed_at"`
}

// ReviewCommand records the human who signed off on a breakdown.
type ReviewCommand struct {
	ReviewedBy string `json:"reviewed_by"`
}
