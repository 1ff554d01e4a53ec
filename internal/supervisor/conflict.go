package supervisor

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/slate/internal/elements"
)

// ConflictType classifies a detected conflict.
type ConflictType string

const (
	ConflictClassification ConflictType = "classification_conflict"
	ConflictMissing        ConflictType = "missing_elements"
	ConflictQuality        ConflictType = "quality_issue"
	ConflictInconsistency  ConflictType = "inconsistency"
)

// Severity grades a conflict. Higher severities force human involvement.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (0) to critical (3); unknown values rank -1.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// corroborationFloor is the evidence confidence a conflict needs before it
// can be resolved without a reviewer.
const corroborationFloor = 0.5

// Conflict is one disagreement or quality gap among the analyses.
type Conflict struct {
	ID                  string              `json:"conflict_id"`
	Type                ConflictType        `json:"type"`
	Severity            Severity            `json:"severity"`
	Description         string              `json:"description"`
	Agents              []string            `json:"agents_involved"`
	ElementIDs          []string            `json:"element_ids,omitempty"`
	Scenes              []string            `json:"scenes,omitempty"`
	Evidence            []elements.Evidence `json:"evidence"`
	Corroborated        bool                `json:"corroborated"`
	SuggestedResolution string              `json:"suggested_resolution"`
}

// GapSeverity grades a confidence shortfall.
func GapSeverity(gap float64) Severity {
	switch {
	case gap >= 0.4:
		return SeverityCritical
	case gap >= 0.25:
		return SeverityHigh
	case gap >= 0.1:
		return SeverityMedium
	}
	return SeverityLow
}

// SceneSeverity grades a conflict by how many scenes it touches.
func SceneSeverity(scenes int) Severity {
	switch {
	case scenes >= 6:
		return SeverityCritical
	case scenes >= 4:
		return SeverityHigh
	case scenes >= 2:
		return SeverityMedium
	}
	return SeverityLow
}

// disagreementSeverity grades two agents classifying the same text
// differently: the closer their confidences, the harder the call.
func disagreementSeverity(gap float64) Severity {
	switch {
	case gap >= 0.3:
		return SeverityLow
	case gap >= 0.15:
		return SeverityMedium
	}
	return SeverityHigh
}

// DetectConflicts scans a supervision context in a fixed order: element
// quality, technical inconsistencies, missing elements, cross-agent
// classification disagreements, then degraded collaborator input.
func DetectConflicts(sc Context) []Conflict {
	var out []Conflict
	out = append(out, qualityConflicts(sc)...)
	out = append(out, inconsistencyConflicts(sc.Technical)...)
	out = append(out, missingConflicts(sc.Technical)...)
	out = append(out, classificationConflicts(sc.Elements)...)
	out = append(out, collaboratorConflicts(sc)...)

	for i := range out {
		out[i].ID = fmt.Sprintf("conflict-%03d", i+1)
	}
	return out
}

func qualityConflicts(sc Context) []Conflict {
	var out []Conflict
	for _, el := range sc.Elements {
		if el.Confidence >= sc.ConfidenceThreshold {
			continue
		}
		gap := sc.ConfidenceThreshold - el.Confidence
		out = append(out, Conflict{
			Type:                ConflictQuality,
			Severity:            GapSeverity(gap),
			Description:         fmt.Sprintf("%s %q confidence %.2f is below %.2f", el.Category, el.Name, el.Confidence, sc.ConfidenceThreshold),
			Agents:              []string{el.Provenance.AgentType},
			ElementIDs:          []string{el.ID},
			Scenes:              nonEmpty(el.SceneID),
			Evidence:            []elements.Evidence{el.Evidence},
			Corroborated:        el.Evidence.Confidence >= corroborationFloor,
			SuggestedResolution: "keep the element as written in the script and confirm it during review",
		})
	}
	return out
}

func inconsistencyConflicts(tech TechnicalValidation) []Conflict {
	issues := slices.Concat(tech.CharacterIssues, tech.LocationIssues)
	out := make([]Conflict, 0, len(issues))
	for _, is := range issues {
		out = append(out, Conflict{
			Type:                ConflictInconsistency,
			Severity:            SceneSeverity(len(is.Scenes)),
			Description:         is.Message,
			Agents:              []string{tech.Source},
			Scenes:              slices.Clone(is.Scenes),
			Evidence:            []elements.Evidence{},
			Corroborated:        trusted(tech.Degraded, tech.Confidence),
			SuggestedResolution: fmt.Sprintf("merge the %s spellings %v into one", is.Kind, is.Names),
		})
	}
	return out
}

func missingConflicts(tech TechnicalValidation) []Conflict {
	out := make([]Conflict, 0, len(tech.MissingElements))
	for _, m := range tech.MissingElements {
		out = append(out, Conflict{
			Type:                ConflictMissing,
			Severity:            SceneSeverity(len(m.Scenes)),
			Description:         m.Message,
			Agents:              []string{tech.Source},
			Scenes:              slices.Clone(m.Scenes),
			Evidence:            []elements.Evidence{},
			Corroborated:        trusted(tech.Degraded, tech.Confidence),
			SuggestedResolution: fmt.Sprintf("add %s %q to the breakdown", m.Category, m.Name),
		})
	}
	return out
}

// classificationConflicts pairs elements from different agents whose
// evidence overlaps but whose categories differ. ElementIDs lists the
// stronger element first.
func classificationConflicts(els []elements.Element) []Conflict {
	var out []Conflict
	for i := range els {
		for j := i + 1; j < len(els); j++ {
			a, b := els[i], els[j]
			if a.Provenance.AgentType == b.Provenance.AgentType || a.Category == b.Category {
				continue
			}
			if !a.Evidence.Overlaps(b.Evidence) {
				continue
			}
			if b.Confidence > a.Confidence {
				a, b = b, a
			}
			gap := a.Confidence - b.Confidence
			out = append(out, Conflict{
				Type:     ConflictClassification,
				Severity: disagreementSeverity(gap),
				Description: fmt.Sprintf(
					"%q classified as %s by %s and as %s by %s",
					a.Evidence.Excerpt, a.Category, a.Provenance.AgentType, b.Category, b.Provenance.AgentType,
				),
				Agents:              []string{a.Provenance.AgentType, b.Provenance.AgentType},
				ElementIDs:          []string{a.ID, b.ID},
				Scenes:              nonEmpty(a.SceneID),
				Evidence:            []elements.Evidence{a.Evidence, b.Evidence},
				Corroborated:        a.Evidence.Confidence >= corroborationFloor,
				SuggestedResolution: fmt.Sprintf("keep %s %q, the reading best supported by the script text", a.Category, a.Name),
			})
		}
	}
	return out
}

func collaboratorConflicts(sc Context) []Conflict {
	var out []Conflict
	inputs := []struct {
		agent      string
		degraded   bool
		confidence float64
		notes      string
	}{
		{sc.Technical.Source, sc.Technical.Degraded, sc.Technical.Confidence, sc.Technical.Notes},
		{sc.Emotional.Source, sc.Emotional.Degraded, sc.Emotional.Confidence, sc.Emotional.Notes},
	}
	labels := []string{technicalSource, emotionalSource}

	for i, in := range inputs {
		if in.agent == "" {
			in.agent, in.degraded, in.notes = labels[i], true, "no analysis supplied"
		}
		switch {
		case in.degraded:
			out = append(out, Conflict{
				Type:                ConflictQuality,
				Severity:            SeverityMedium,
				Description:         fmt.Sprintf("%s input is degraded: %s", in.agent, in.notes),
				Agents:              []string{in.agent},
				Evidence:            []elements.Evidence{},
				SuggestedResolution: "review the breakdown without this analysis",
			})
		case in.confidence < sc.ConfidenceThreshold:
			out = append(out, Conflict{
				Type:                ConflictQuality,
				Severity:            GapSeverity(sc.ConfidenceThreshold - in.confidence),
				Description:         fmt.Sprintf("%s confidence %.2f is below %.2f", in.agent, in.confidence, sc.ConfidenceThreshold),
				Agents:              []string{in.agent},
				Evidence:            []elements.Evidence{},
				Corroborated:        in.confidence >= corroborationFloor,
				SuggestedResolution: "treat this analysis as advisory",
			})
		}
	}
	return out
}

func trusted(degraded bool, confidence float64) bool {
	return !degraded && confidence >= corroborationFloor
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
