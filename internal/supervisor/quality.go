package supervisor

import (
	"cmp"
	"fmt"
	"math"

	"github.com/JaimeStill/slate/internal/elements"
)

// AssessQuality grades a supervised breakdown. Human review is required
// when the mean element confidence is below the review threshold, when a
// high or critical conflict was not applied automatically, or when a
// collaborator supplied degraded input.
func AssessQuality(final []elements.Element, conflicts []Conflict, decisions []Decision, sc Context) QualityAssessment {
	qa := QualityAssessment{CriticalIssues: []string{}}

	if len(final) > 0 {
		var sum float64
		for _, el := range final {
			sum += el.Confidence
		}
		qa.OverallConfidence = math.Round(sum/float64(len(final))*1000) / 1000
	}

	if qa.OverallConfidence < sc.HumanReviewThreshold {
		qa.HumanReviewRequired = true
		qa.CriticalIssues = append(qa.CriticalIssues, fmt.Sprintf(
			"overall confidence %.2f is below the review threshold %.2f",
			qa.OverallConfidence, sc.HumanReviewThreshold,
		))
	}

	applied := make(map[string]bool, len(decisions))
	for _, d := range decisions {
		applied[d.ConflictID] = d.AutoApplied
	}

	for _, c := range conflicts {
		serious := c.Severity.Rank() >= SeverityHigh.Rank() || c.Severity.Rank() < 0
		if !serious || applied[c.ID] {
			continue
		}
		qa.HumanReviewRequired = true
		qa.CriticalIssues = append(qa.CriticalIssues, fmt.Sprintf("%s (%s): %s", c.ID, c.Severity, c.Description))
	}

	for _, in := range []struct {
		name, source, notes string
		degraded            bool
	}{
		{technicalSource, sc.Technical.Source, sc.Technical.Notes, sc.Technical.Degraded},
		{emotionalSource, sc.Emotional.Source, sc.Emotional.Notes, sc.Emotional.Degraded},
	} {
		if in.source != "" && !in.degraded {
			continue
		}
		qa.HumanReviewRequired = true
		qa.CriticalIssues = append(qa.CriticalIssues, fmt.Sprintf("%s degraded: %s", in.name, cmp.Or(in.notes, "no analysis supplied")))
	}

	return qa
}
