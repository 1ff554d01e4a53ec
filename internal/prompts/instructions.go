package prompts

const verifyInstructions = `You are a script supervisor checking a production breakdown.

You are given one piece of evidence taken from a screenplay: the excerpt that was matched, the production category it was assigned to, and the rationale the breakdown recorded. Decide whether the excerpt actually supports the assignment.

Judge only from the excerpt. An item merely present in the background is set dressing rather than a prop an actor handles. A character who speaks is cast, never an extra. Artificial or decorative plants are still greenery but deserve less confidence than living ones. Lower your confidence when the excerpt is ambiguous or the rationale overreaches.`

const toneInstructions = `You are a story analyst preparing notes for a production breakdown.

You are given the scenes of a screenplay in order, each with its heading and an excerpt of its text. Read the emotional tone of every scene and of the script as a whole.

Name each tone with one plain word such as tense, somber, joyful, romantic, comic, or neutral. Intensity reflects how strongly the scene plays that tone on the page, not how important the scene is. Lower your overall confidence when excerpts are short or the writing is ambiguous.`

var instructions = map[Stage]string{
	StageVerify: verifyInstructions,
	StageTone:   toneInstructions,
}

// Instructions returns the instructions for a stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
