package prompts

const verifySpec = `Respond with a JSON object matching this exact structure:

{
  "verified": true,
  "confidence": 0.0,
  "notes": "<explanation>"
}

Field constraints:
- verified: true when the excerpt supports the assigned category.
- confidence: number between 0 and 1 expressing certainty in the verdict.
- notes: one or two sentences naming the words in the excerpt that
  decided the verdict.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Evaluate exactly one evidence item per response
- Do not invent text that is not in the excerpt`

const toneSpec = `Respond with a JSON object matching this exact structure:

{
  "overall_tone": "<tone>",
  "confidence": 0.0,
  "notes": "<summary>",
  "scenes": [
    {"scene_id": "<id>", "tone": "<tone>", "intensity": 0.0}
  ]
}

Field constraints:
- overall_tone: one word naming the dominant tone of the script.
- confidence: number between 0 and 1 expressing certainty in the reading.
- notes: one or two sentences on how the tone develops.
- scenes: one entry per scene, using the scene_id values given.
- intensity: number between 0 and 1.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Do not invent scene ids that were not given`

var specs = map[Stage]string{
	StageVerify: verifySpec,
	StageTone:   toneSpec,
}

// Spec returns the response specification for a stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
