package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

var payloadLabels = map[Stage]string{
	StageVerify: "Evidence",
	StageTone:   "Scenes",
}

// Compose joins the stage instructions and specification, followed by
// payload rendered as indented JSON when it is non-nil.
func Compose(stage Stage, payload any) (string, error) {
	instructions, err := Instructions(stage)
	if err != nil {
		return "", err
	}

	spec, err := Spec(stage)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	if payload != nil {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", fmt.Errorf("serialize %s payload: %w", stage, err)
		}
		sb.WriteString("\n\n")
		sb.WriteString(payloadLabels[stage])
		sb.WriteString(":\n\n")
		sb.WriteString(string(data))
	}

	return sb.String(), nil
}
