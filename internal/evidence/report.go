package evidence

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ReportType selects the lens a report applies to every chain.
type ReportType string

const (
	ReportCompleteness ReportType = "completeness"
	ReportQuality      ReportType = "quality"
	ReportConsistency  ReportType = "consistency"
	ReportTraceability ReportType = "traceability"
)

// ParseReportType validates a report type name.
func ParseReportType(s string) (ReportType, error) {
	switch r := ReportType(s); r {
	case ReportCompleteness, ReportQuality, ReportConsistency, ReportTraceability:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReport, s)
}

// Finding types.
const (
	FindingLowConfidence          = "low_confidence"
	FindingInsufficientEvidence   = "insufficient_evidence"
	FindingLowQuality             = "low_quality"
	FindingScatteredEvidence      = "scattered_evidence"
	FindingInconsistentConfidence = "inconsistent_confidence"
	FindingUnverifiedEvidence     = "unverified_evidence"
	FindingMissingCrossReference  = "missing_cross_reference"
)

const (
	lowChainConfidence  = 0.5
	minChainItems       = 2
	lowItemQuality      = 0.5
	maxChainScenes      = 3
	maxConfidenceSpread = 0.4
)

// Finding is one issue a report lens found on a chain or item.
type Finding struct {
	Type      string `json:"type"`
	ChainID   string `json:"chain_id"`
	ElementID string `json:"element_id"`
	ItemID    string `json:"item_id,omitempty"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// Recommendation is an action suggested by finding counts.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// Report is the output of Report.
type Report struct {
	ID                  string           `json:"report_id"`
	Type                ReportType       `json:"type"`
	GeneratedAt         time.Time        `json:"generated_at"`
	ChainCount          int              `json:"chain_count"`
	ItemCount           int              `json:"item_count"`
	OverallQualityScore float64          `json:"overall_quality_score"`
	Findings            []Finding        `json:"findings"`
	Recommendations     []Recommendation `json:"recommendations"`
}

// recommendationRules fire when a finding type occurs more than Over times.
var recommendationRules = []struct {
	Finding string
	Over    int
	Recommendation
}{
	{FindingLowConfidence, 2, Recommendation{"improve_confidence", "high", "several chains fall below the confidence floor; gather stronger evidence or re-run classification"}},
	{FindingInsufficientEvidence, 2, Recommendation{"gather_evidence", "medium", "several elements rest on a single evidence item"}},
	{FindingLowQuality, 3, Recommendation{"improve_quality", "medium", "many items have low quality metrics; review excerpts and rationale"}},
	{FindingScatteredEvidence, 1, Recommendation{"consolidate_evidence", "low", "evidence for some elements spans many scenes; confirm they are the same element"}},
	{FindingInconsistentConfidence, 1, Recommendation{"review_consistency", "medium", "item confidences disagree within chains"}},
	{FindingUnverifiedEvidence, 5, Recommendation{"verify_evidence", "high", "many items have never been verified"}},
	{FindingMissingCrossReference, 5, Recommendation{"add_cross_references", "low", "many items have no related evidence"}},
}

// Report applies one lens to every chain in creation order.
func (t *Tracker) Report(kind ReportType) (Report, error) {
	if _, err := ParseReportType(string(kind)); err != nil {
		return Report{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	r := Report{
		ID:              uuid.NewString(),
		Type:            kind,
		GeneratedAt:     t.now().UTC(),
		ChainCount:      len(t.chainSeq),
		ItemCount:       len(t.items),
		Findings:        []Finding{},
		Recommendations: []Recommendation{},
	}

	var total float64
	for _, id := range t.chainSeq {
		c := t.chains[id].chain
		total += c.Confidence

		items := make([]*Item, len(c.Items))
		for i, itemID := range c.Items {
			items[i] = t.items[itemID]
		}

		switch kind {
		case ReportCompleteness:
			r.Findings = append(r.Findings, completeness(c, items)...)
		case ReportQuality:
			r.Findings = append(r.Findings, quality(c, items)...)
		case ReportConsistency:
			r.Findings = append(r.Findings, consistency(c, items)...)
		case ReportTraceability:
			r.Findings = append(r.Findings, traceability(c, items)...)
		}
	}

	if len(t.chainSeq) > 0 {
		r.OverallQualityScore = total / float64(len(t.chainSeq))
	}
	r.Recommendations = recommend(r.Findings)

	return r, nil
}

func completeness(c Chain, items []*Item) []Finding {
	var out []Finding
	if c.Confidence < lowChainConfidence {
		out = append(out, Finding{
			Type:      FindingLowConfidence,
			ChainID:   c.ID,
			ElementID: c.ElementID,
			Severity:  "high",
			Message:   fmt.Sprintf("chain confidence %.2f is below %.2f", c.Confidence, lowChainConfidence),
		})
	}
	if len(items) < minChainItems {
		out = append(out, Finding{
			Type:      FindingInsufficientEvidence,
			ChainID:   c.ID,
			ElementID: c.ElementID,
			Severity:  "medium",
			Message:   fmt.Sprintf("chain has %d items, want at least %d", len(items), minChainItems),
		})
	}
	return out
}

func quality(c Chain, items []*Item) []Finding {
	var out []Finding
	for _, item := range items {
		if m := item.Quality.Mean(); m < lowItemQuality {
			out = append(out, Finding{
				Type:      FindingLowQuality,
				ChainID:   c.ID,
				ElementID: c.ElementID,
				ItemID:    item.ID,
				Severity:  "medium",
				Message:   fmt.Sprintf("mean quality %.2f is below %.2f", m, lowItemQuality),
			})
		}
	}
	return out
}

func consistency(c Chain, items []*Item) []Finding {
	var out []Finding

	scenes := make(map[string]bool)
	for _, item := range items {
		scenes[item.Location.SceneID] = true
	}
	if len(scenes) > maxChainScenes {
		out = append(out, Finding{
			Type:      FindingScatteredEvidence,
			ChainID:   c.ID,
			ElementID: c.ElementID,
			Severity:  "low",
			Message:   fmt.Sprintf("evidence spans %d scenes", len(scenes)),
		})
	}

	if len(items) > 1 {
		confs := make([]float64, len(items))
		for i, item := range items {
			confs[i] = item.Confidence
		}
		if spread := slices.Max(confs) - slices.Min(confs); spread > maxConfidenceSpread {
			out = append(out, Finding{
				Type:      FindingInconsistentConfidence,
				ChainID:   c.ID,
				ElementID: c.ElementID,
				Severity:  "medium",
				Message:   fmt.Sprintf("item confidences spread %.2f", spread),
			})
		}
	}

	return out
}

func traceability(c Chain, items []*Item) []Finding {
	var out []Finding
	for _, item := range items {
		if item.Verification == nil {
			out = append(out, Finding{
				Type:      FindingUnverifiedEvidence,
				ChainID:   c.ID,
				ElementID: c.ElementID,
				ItemID:    item.ID,
				Severity:  "medium",
				Message:   "item has not been verified",
			})
		}
		if len(item.Related) == 0 {
			out = append(out, Finding{
				Type:      FindingMissingCrossReference,
				ChainID:   c.ID,
				ElementID: c.ElementID,
				ItemID:    item.ID,
				Severity:  "low",
				Message:   "item has no related evidence",
			})
		}
	}
	return out
}

func recommend(findings []Finding) []Recommendation {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Type]++
	}

	out := []Recommendation{}
	for _, rule := range recommendationRules {
		if counts[rule.Finding] > rule.Over {
			out = append(out, rule.Recommendation)
		}
	}
	return out
}
