package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/slate/internal/prompts"
	"github.com/JaimeStill/slate/pkg/formatting"
)

// toneExcerptRunes bounds how much of each scene is sent for tone reading.
const toneExcerptRunes = 600

const agentEmotionalSource = "agent_emotional_analysis"

// Reasoner answers a free-text prompt.
type Reasoner interface {
	Reason(ctx context.Context, prompt string) (string, error)
}

// AgentEmotional reads scene tone by asking a Reasoner. Any failure is
// returned so RunEmotional can substitute a degraded record.
type AgentEmotional struct {
	Reasoner Reasoner
}

type toneScene struct {
	SceneID string `json:"scene_id"`
	Heading string `json:"heading"`
	Excerpt string `json:"excerpt"`
}

type toneAnswer struct {
	OverallTone string      `json:"overall_tone"`
	Confidence  *float64    `json:"confidence"`
	Notes       string      `json:"notes"`
	Scenes      []SceneTone `json:"scenes"`
}

func (a AgentEmotional) Analyze(ctx context.Context, in Input) (EmotionalAnalysis, error) {
	if a.Reasoner == nil {
		return EmotionalAnalysis{}, errors.New("no reasoner configured")
	}
	if len(in.Parsing.Scenes) == 0 {
		return EmotionalAnalysis{}, errors.New("no scenes to read")
	}

	payload := make([]toneScene, 0, len(in.Parsing.Scenes))
	known := make(map[string]bool, len(in.Parsing.Scenes))
	for _, sc := range in.Parsing.Scenes {
		known[sc.ID] = true
		payload = append(payload, toneScene{
			SceneID: sc.ID,
			Heading: sc.Header.Raw,
			Excerpt: excerpt(sc.Content, toneExcerptRunes),
		})
	}

	prompt, err := prompts.Compose(prompts.StageTone, payload)
	if err != nil {
		return EmotionalAnalysis{}, err
	}

	answer, err := a.Reasoner.Reason(ctx, prompt)
	if err != nil {
		return EmotionalAnalysis{}, fmt.Errorf("reason: %w", err)
	}

	parsed, err := formatting.Parse[toneAnswer](answer)
	if err != nil {
		return EmotionalAnalysis{}, fmt.Errorf("parse tone answer: %w", err)
	}
	if parsed.Confidence == nil {
		return EmotionalAnalysis{}, errors.New("tone answer missing confidence")
	}

	scenes := make([]SceneTone, 0, len(parsed.Scenes))
	for _, st := range parsed.Scenes {
		if !known[st.SceneID] {
			continue
		}
		st.Tone = strings.ToLower(strings.TrimSpace(st.Tone))
		st.Intensity = clamp01(st.Intensity)
		scenes = append(scenes, st)
	}

	return EmotionalAnalysis{
		Source:      agentEmotionalSource,
		Confidence:  clamp01(*parsed.Confidence),
		Notes:       parsed.Notes,
		OverallTone: strings.ToLower(strings.TrimSpace(parsed.OverallTone)),
		Scenes:      scenes,
	}, nil
}

func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
