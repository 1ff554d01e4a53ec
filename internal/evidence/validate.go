package evidence

import (
	"fmt"
	"strings"
)

// Severity of a validation rule. Error violations reject the item;
// warnings are recorded on it.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

const (
	MinConfidence      = 0.3
	MinClarity         = 0.5
	MinCrossReferences = 1
	MaxRelated         = 5
)

// Violation is one failed validation rule.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type rule struct {
	name     string
	severity Severity
	check    func(Item) string
}

var itemRules = []rule{
	{"evidence_bounds", SeverityError, checkEvidence},
	{"min_confidence", SeverityError, func(i Item) string {
		if i.Confidence < MinConfidence {
			return fmt.Sprintf("confidence %.2f is below %.2f", i.Confidence, MinConfidence)
		}
		return ""
	}},
	{"required_location", SeverityError, func(i Item) string {
		if strings.TrimSpace(i.Location.SceneID) == "" {
			return "scene id is required"
		}
		return ""
	}},
	{"quality_range", SeverityError, func(i Item) string {
		q := i.Quality
		for _, v := range []float64{q.Clarity, q.Relevance, q.Completeness, q.Accuracy} {
			if v < 0 || v > 1 {
				return fmt.Sprintf("quality metric %.2f is outside [0,1]", v)
			}
		}
		return ""
	}},
	{"min_clarity", SeverityWarning, func(i Item) string {
		if i.Quality.Clarity < MinClarity {
			return fmt.Sprintf("clarity %.2f is below %.2f", i.Quality.Clarity, MinClarity)
		}
		return ""
	}},
}

func checkEvidence(i Item) string {
	if i.Location.SourceLength <= 0 {
		return "source length is required to bound the span"
	}
	if err := i.Evidence.Validate(i.Location.SourceLength); err != nil {
		return err.Error()
	}
	return ""
}

// validate applies the item rules. Warnings are returned even when the
// item is rejected.
func validate(i Item) ([]Violation, error) {
	var errs, warnings []Violation
	for _, r := range itemRules {
		msg := r.check(i)
		if msg == "" {
			continue
		}
		v := Violation{Rule: r.name, Severity: r.severity, Message: msg}
		if r.severity == SeverityError {
			errs = append(errs, v)
		} else {
			warnings = append(warnings, v)
		}
	}
	if len(errs) > 0 {
		return warnings, &ValidationError{Violations: errs}
	}
	return warnings, nil
}

func crossReferenceWarning(related []string) (Violation, bool) {
	if len(related) >= MinCrossReferences {
		return Violation{}, false
	}
	return Violation{
		Rule:     "cross_reference",
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%d related items, want at least %d", len(related), MinCrossReferences),
	}, true
}
