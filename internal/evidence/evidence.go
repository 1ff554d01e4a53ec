// Package evidence keeps the ledger of evidence supporting each production
// element: chains of validated items, their verification, quality reports,
// and retention cleanup.
package evidence

import (
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/slate/internal/elements"
)

// Status is the verification state of a chain.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusDisputed Status = "disputed"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusDisputed, StatusRejected:
		return true
	}
	return false
}

// Method selects how an item is verified.
type Method string

const (
	MethodAutomated Method = "automated"
	MethodManual    Method = "manual"
)

// ItemTypeClassification tags items derived from classifier output.
const ItemTypeClassification = "classification"

// Location places an item in the script. SourceLength is the length of the
// source text and bounds the span check; items without it are rejected.
type Location struct {
	SceneID      string `json:"scene_id"`
	Character    string `json:"character,omitempty"`
	SourceLength int    `json:"source_length"`
}

// Quality holds the per-item quality metrics, each in [0,1].
type Quality struct {
	Clarity      float64 `json:"clarity"`
	Relevance    float64 `json:"relevance"`
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
}

// Mean returns the unweighted mean of the four metrics.
func (q Quality) Mean() float64 {
	return (q.Clarity + q.Relevance + q.Completeness + q.Accuracy) / 4
}

// Verification records the outcome of the latest verification attempt.
type Verification struct {
	Method     Method    `json:"method"`
	Verified   bool      `json:"verified"`
	Confidence float64   `json:"confidence"`
	Notes      string    `json:"notes"`
	VerifiedAt time.Time `json:"verified_at"`
}

// Item is one piece of evidence in a chain. Related holds ids of other
// items and never copies their data.
type Item struct {
	elements.Evidence
	ID           string        `json:"id"`
	ChainID      string        `json:"chain_id"`
	Type         string        `json:"type"`
	Location     Location      `json:"location"`
	Quality      Quality       `json:"quality"`
	Verification *Verification `json:"verification,omitempty"`
	Related      []string      `json:"related_evidence"`
	Warnings     []Violation   `json:"warnings,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (i Item) clone() Item {
	i.Related = slices.Clone(i.Related)
	i.Warnings = slices.Clone(i.Warnings)
	if i.Verification != nil {
		v := *i.Verification
		i.Verification = &v
	}
	return i
}

// Chain is the accumulated evidence for one element. Confidence is the
// weighted mean of its live items and is recomputed on every change.
type Chain struct {
	ID            string    `json:"chain_id"`
	ElementID     string    `json:"element_id"`
	Items         []string  `json:"evidence_items"`
	Confidence    float64   `json:"confidence_score"`
	Status        Status    `json:"verification_status"`
	Reviewers     []string  `json:"reviewers"`
	FinalDecision string    `json:"final_decision,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c Chain) clone() Chain {
	c.Items = slices.Clone(c.Items)
	c.Reviewers = slices.Clone(c.Reviewers)
	return c
}

// ItemFromElement derives an evidence item from a classified element.
// Relevance and accuracy follow the element confidence; clarity drops when
// the excerpt does not name the element and completeness drops when the
// element has no narrative context.
func ItemFromElement(el elements.Element, sourceLength int) Item {
	clarity := 0.6
	if strings.Contains(strings.ToLower(el.Evidence.Excerpt), strings.ToLower(el.Name)) {
		clarity = 0.9
	}

	completeness := 0.7
	if el.Context.Location != "" || el.Context.Character != "" {
		completeness = 1.0
	}

	return Item{
		Evidence: el.Evidence,
		Type:     ItemTypeClassification,
		Location: Location{
			SceneID:      el.SceneID,
			Character:    el.Context.Character,
			SourceLength: sourceLength,
		},
		Quality: Quality{
			Clarity:      clarity,
			Relevance:    el.Confidence,
			Completeness: completeness,
			Accuracy:     el.Confidence,
		},
	}
}
