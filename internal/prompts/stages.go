// Package prompts holds the instructions and response specifications sent
// to the reasoning agent.
package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies the step a prompt serves.
type Stage string

const (
	// StageVerify asks the agent to check one evidence item against its excerpt.
	StageVerify Stage = "verify"
	// StageTone asks the agent to read the emotional tone of each scene.
	StageTone Stage = "tone"
)

var stages = []Stage{
	StageVerify,
	StageTone,
}

// Stages returns the list of known stages.
func Stages() []Stage {
	return slices.Clone(stages)
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
