package supervisor

import "fmt"

// Resolution is the action a decision takes on a conflict.
type Resolution string

const (
	PreferOriginalText Resolution = "prefer_original_text"
	MergeResults       Resolution = "merge_results"
	RequestHumanReview Resolution = "request_human_review"
	Escalate           Resolution = "escalate"
)

// Automatic reports whether the resolution can be applied without a reviewer.
func (r Resolution) Automatic() bool {
	return r == PreferOriginalText || r == MergeResults
}

// AutoApplyFloor is the decision confidence required to apply an
// automatic resolution.
const AutoApplyFloor = 0.6

var severityConfidence = map[Severity]float64{
	SeverityLow:      0.8,
	SeverityMedium:   0.65,
	SeverityHigh:     0.5,
	SeverityCritical: 0.3,
}

// Decision is the supervisor's resolution of one conflict.
type Decision struct {
	ConflictID   string       `json:"conflict_id"`
	Agents       []string     `json:"agents_involved"`
	ConflictType ConflictType `json:"conflict_type"`
	Resolution   Resolution   `json:"resolution"`
	Confidence   float64      `json:"confidence"`
	Reasoning    []string     `json:"reasoning"`
	AutoApplied  bool         `json:"auto_applied"`
}

// ResolveConflict maps a conflict to exactly one decision. Resolutions are
// monotone in severity: low and medium conflicts with corroborating
// evidence resolve automatically, high ones go to a reviewer, and critical
// ones, or conflicts of unknown severity, are escalated.
func ResolveConflict(c Conflict) Decision {
	d := Decision{
		ConflictID:   c.ID,
		Agents:       append([]string{}, c.Agents...),
		ConflictType: c.Type,
		Reasoning:    []string{fmt.Sprintf("%s conflict of %s severity", c.Type, c.Severity)},
	}

	conf, known := severityConfidence[c.Severity]
	if !known {
		d.Resolution = Escalate
		d.Confidence = severityConfidence[SeverityCritical]
		d.Reasoning = append(d.Reasoning, fmt.Sprintf("%v: %q", ErrInvalidSeverity, c.Severity))
		return d
	}
	d.Confidence = conf

	switch {
	case c.Severity == SeverityCritical:
		d.Resolution = Escalate
		d.Reasoning = append(d.Reasoning, "critical conflicts are escalated")
	case c.Severity == SeverityHigh:
		d.Resolution = RequestHumanReview
		d.Reasoning = append(d.Reasoning, "high severity conflicts need a reviewer")
	case !c.Corroborated:
		d.Resolution = RequestHumanReview
		d.Reasoning = append(d.Reasoning, "no corroborating evidence supports an automatic resolution")
	default:
		d.Resolution = automaticResolution(c.Type)
		d.Reasoning = append(d.Reasoning, "corroborating evidence supports "+string(d.Resolution))
	}

	if c.SuggestedResolution != "" {
		d.Reasoning = append(d.Reasoning, "suggested: "+c.SuggestedResolution)
	}

	d.AutoApplied = d.Resolution.Automatic() && d.Confidence >= AutoApplyFloor
	if d.AutoApplied {
		d.Reasoning = append(d.Reasoning, fmt.Sprintf("applied automatically at confidence %.2f", d.Confidence))
	}
	return d
}

func automaticResolution(t ConflictType) Resolution {
	switch t {
	case ConflictInconsistency, ConflictMissing:
		return MergeResults
	}
	return PreferOriginalText
}
