package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/script"
)

// DefaultProviderTimeout bounds a single collaborator call.
const DefaultProviderTimeout = 60 * time.Second

// Inconsistency is a set of spellings the technical analysis believes
// name the same character or location.
type Inconsistency struct {
	Kind    string   `json:"kind"`
	Names   []string `json:"names"`
	Scenes  []string `json:"scenes"`
	Message string   `json:"message"`
}

// MissingElement is an element the technical analysis expected in the
// breakdown but could not find.
type MissingElement struct {
	Name     string            `json:"name"`
	Category elements.Category `json:"category"`
	Scenes   []string          `json:"scenes"`
	Message  string            `json:"message"`
}

// TechnicalValidation is the record produced by a technical analysis. A
// record with an empty Source is treated as absent.
type TechnicalValidation struct {
	Source          string           `json:"source"`
	Degraded        bool             `json:"degraded"`
	Confidence      float64          `json:"confidence"`
	Notes           string           `json:"notes,omitempty"`
	CharacterIssues []Inconsistency  `json:"character_issues"`
	LocationIssues  []Inconsistency  `json:"location_issues"`
	MissingElements []MissingElement `json:"missing_elements"`
	Clearances      []ClearanceAlert `json:"clearances"`
}

// SceneTone is the emotional reading of one scene.
type SceneTone struct {
	SceneID   string  `json:"scene_id"`
	Tone      string  `json:"tone"`
	Intensity float64 `json:"intensity"`
}

// EmotionalAnalysis is the record produced by an emotional-tone analysis.
// A record with an empty Source is treated as absent.
type EmotionalAnalysis struct {
	Source      string      `json:"source"`
	Degraded    bool        `json:"degraded"`
	Confidence  float64     `json:"confidence"`
	Notes       string      `json:"notes,omitempty"`
	OverallTone string      `json:"overall_tone,omitempty"`
	Scenes      []SceneTone `json:"scenes"`
}

// Input is what the analysis collaborators see of a script.
type Input struct {
	Parsing  script.Result
	Elements []elements.Element
}

// TechnicalProvider produces a technical validation record.
type TechnicalProvider interface {
	Validate(ctx context.Context, in Input) (TechnicalValidation, error)
}

// EmotionalProvider produces an emotional analysis record.
type EmotionalProvider interface {
	Analyze(ctx context.Context, in Input) (EmotionalAnalysis, error)
}

// TechnicalFunc adapts a function to TechnicalProvider.
type TechnicalFunc func(ctx context.Context, in Input) (TechnicalValidation, error)

func (f TechnicalFunc) Validate(ctx context.Context, in Input) (TechnicalValidation, error) {
	return f(ctx, in)
}

// EmotionalFunc adapts a function to EmotionalProvider.
type EmotionalFunc func(ctx context.Context, in Input) (EmotionalAnalysis, error)

func (f EmotionalFunc) Analyze(ctx context.Context, in Input) (EmotionalAnalysis, error) {
	return f(ctx, in)
}

const (
	technicalSource = "technical_validation"
	emotionalSource = "emotional_analysis"
)

// DegradedTechnical is the fallback record used when technical analysis fails.
func DegradedTechnical(reason string) TechnicalValidation {
	return TechnicalValidation{
		Source:          technicalSource,
		Degraded:        true,
		Notes:           reason,
		CharacterIssues: []Inconsistency{},
		LocationIssues:  []Inconsistency{},
		MissingElements: []MissingElement{},
		Clearances:      []ClearanceAlert{},
	}
}

// DegradedEmotional is the fallback record used when emotional analysis
// fails or no provider is configured.
func DegradedEmotional(reason string) EmotionalAnalysis {
	return EmotionalAnalysis{
		Source:   emotionalSource,
		Degraded: true,
		Notes:    reason,
		Scenes:   []SceneTone{},
	}
}

// call runs fn and returns when it finishes or ctx ends, whichever is
// first, so a provider that ignores ctx cannot stall the caller.
func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// RunTechnical calls p under timeout. A nil provider, an error, or a
// timeout yields a degraded record instead of an error.
func RunTechnical(ctx context.Context, p TechnicalProvider, in Input, timeout time.Duration) TechnicalValidation {
	if p == nil {
		return DegradedTechnical("technical analysis unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()

	tv, err := call(ctx, func(ctx context.Context) (TechnicalValidation, error) { return p.Validate(ctx, in) })
	if err != nil {
		return DegradedTechnical(fmt.Sprintf("technical analysis failed: %v", err))
	}
	if tv.Source == "" {
		tv.Source = technicalSource
	}
	return tv
}

// RunEmotional calls p under timeout. A nil provider, an error, or a
// timeout yields a degraded record instead of an error.
func RunEmotional(ctx context.Context, p EmotionalProvider, in Input, timeout time.Duration) EmotionalAnalysis {
	if p == nil {
		return DegradedEmotional("emotional analysis unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()

	ea, err := call(ctx, func(ctx context.Context) (EmotionalAnalysis, error) { return p.Analyze(ctx, in) })
	if err != nil {
		return DegradedEmotional(fmt.Sprintf("emotional analysis failed: %v", err))
	}
	if ea.Source == "" {
		ea.Source = emotionalSource
	}
	return ea
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultProviderTimeout
	}
	return d
}
