package supervisor_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
)

func scene(id, location string, dialogue int, characters ...string) script.Scene {
	return script.Scene{
		ID:            id,
		Header:        script.Header{Location: location},
		Characters:    characters,
		DialogueCount: dialogue,
	}
}

func TestRuleTechnicalValidator(t *testing.T) {
	in := supervisor.Input{
		Parsing: script.Result{Scenes: []script.Scene{
			scene("scene-001", "CAFE", 2, "AHMED", "MARIA"),
			scene("scene-002", "Cafe.", 1, "Ahmed"),
			scene("scene-003", "OFFICE", 1, "MARIAH"),
			scene("scene-004", script.UnknownLocation, 0, "BOB"),
			scene("scene-005", "office", 1, "ROB"),
		}},
		Elements: []elements.Element{element("c1", elements.Cast, "AHMED", 0.9)},
	}

	got, err := supervisor.RuleTechnicalValidator{}.Validate(t.Context(), in)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	want := supervisor.TechnicalValidation{
		Source:     "rule_technical_validator",
		Confidence: 0.9,
		Notes:      "2 character, 2 location, 3 missing element issue(s)",
		CharacterIssues: []supervisor.Inconsistency{
			{Kind: "character", Names: []string{"AHMED", "Ahmed"}, Scenes: []string{"scene-001", "scene-002"}},
			{Kind: "character", Names: []string{"MARIA", "MARIAH"}, Scenes: []string{"scene-001", "scene-003"}},
		},
		LocationIssues: []supervisor.Inconsistency{
			{Kind: "location", Names: []string{"CAFE", "Cafe."}, Scenes: []string{"scene-001", "scene-002"}},
			{Kind: "location", Names: []string{"OFFICE", "office"}, Scenes: []string{"scene-003", "scene-005"}},
		},
		MissingElements: []supervisor.MissingElement{
			{Name: "MARIA", Category: elements.Cast, Scenes: []string{"scene-001"}},
			{Name: "MARIAH", Category: elements.Cast, Scenes: []string{"scene-003"}},
			{Name: "ROB", Category: elements.Cast, Scenes: []string{"scene-005"}},
		},
		Clearances: []supervisor.ClearanceAlert{},
	}

	opts := cmp.Options{
		cmpopts.IgnoreFields(supervisor.Inconsistency{}, "Message"),
		cmpopts.IgnoreFields(supervisor.MissingElement{}, "Message"),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("validation mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(got.CharacterIssues[0].Message, `"AHMED", "Ahmed"`) {
		t.Errorf("message = %q", got.CharacterIssues[0].Message)
	}
}

func TestRuleTechnicalValidatorClean(t *testing.T) {
	in := supervisor.Input{
		Parsing: script.Result{Scenes: []script.Scene{
			scene("scene-001", "CAFE", 1, "AHMED"),
			scene("scene-002", "PARK", 1, "AHMED"),
		}},
		Elements: []elements.Element{element("c1", elements.Cast, "Ahmed", 0.9)},
	}

	got, err := supervisor.RuleTechnicalValidator{}.Validate(t.Context(), in)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(got.CharacterIssues)+len(got.LocationIssues)+len(got.MissingElements) != 0 {
		t.Errorf("validation = %+v, want no issues", got)
	}

	sc := supervision(element("c1", elements.Cast, "Ahmed", 0.9))
	sc.Technical = got
	if conflicts := supervisor.DetectConflicts(sc); len(conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none", conflicts)
	}
}

func TestRunTechnical(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		tv := supervisor.RunTechnical(t.Context(), nil, supervisor.Input{}, time.Second)
		if !tv.Degraded || tv.Source == "" {
			t.Errorf("validation = %+v, want degraded", tv)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		p := supervisor.TechnicalFunc(func(ctx context.Context, in supervisor.Input) (supervisor.TechnicalValidation, error) {
			return supervisor.TechnicalValidation{}, errors.New("model offline")
		})
		tv := supervisor.RunTechnical(t.Context(), p, supervisor.Input{}, time.Second)
		if !tv.Degraded || !strings.Contains(tv.Notes, "model offline") {
			t.Errorf("validation = %+v", tv)
		}
	})

	t.Run("source defaulted", func(t *testing.T) {
		p := supervisor.TechnicalFunc(func(ctx context.Context, in supervisor.Input) (supervisor.TechnicalValidation, error) {
			return supervisor.TechnicalValidation{Confidence: 0.8}, nil
		})
		tv := supervisor.RunTechnical(t.Context(), p, supervisor.Input{}, time.Second)
		if tv.Degraded || tv.Source == "" || tv.Confidence != 0.8 {
			t.Errorf("validation = %+v", tv)
		}
	})

	t.Run("rule validator", func(t *testing.T) {
		tv := supervisor.RunTechnical(t.Context(), supervisor.RuleTechnicalValidator{}, supervisor.Input{}, time.Second)
		if tv.Degraded || tv.Source != "rule_technical_validator" {
			t.Errorf("validation = %+v", tv)
		}
	})
}

func TestRunEmotionalTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	stuck := supervisor.EmotionalFunc(func(ctx context.Context, in supervisor.Input) (supervisor.EmotionalAnalysis, error) {
		<-release
		return supervisor.EmotionalAnalysis{Source: "tone", Confidence: 1}, nil
	})

	start := time.Now()
	ea := supervisor.RunEmotional(t.Context(), stuck, supervisor.Input{}, 20*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run took %v despite timeout", elapsed)
	}
	if !ea.Degraded || !strings.Contains(ea.Notes, "deadline") {
		t.Errorf("analysis = %+v, want degraded on timeout", ea)
	}
}

func TestRunEmotional(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		ea := supervisor.RunEmotional(t.Context(), nil, supervisor.Input{}, 0)
		if !ea.Degraded || ea.Notes != "emotional analysis unavailable" {
			t.Errorf("analysis = %+v", ea)
		}
	})

	t.Run("healthy", func(t *testing.T) {
		p := supervisor.EmotionalFunc(func(ctx context.Context, in supervisor.Input) (supervisor.EmotionalAnalysis, error) {
			return healthyEmotional(), nil
		})
		ea := supervisor.RunEmotional(t.Context(), p, supervisor.Input{}, 0)
		if diff := cmp.Diff(healthyEmotional(), ea); diff != "" {
			t.Errorf("analysis mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestScanClearances(t *testing.T) {
	withContent := func(id, content string) script.Scene {
		s := scene(id, "CAFE", 1, "AHMED")
		s.Content = content
		return s
	}

	scenes := []script.Scene{
		withContent("scene-001", "Ahmed checks his iPhone while the radio plays نور العين"),
		withContent("scene-002", "سارة تغني بصوت خافت"),
		withContent("scene-003", "A poster of عمرو دياب hangs behind the counter"),
		withContent("scene-004", "Ahmed reads the iphones manual and a bmwx sticker"),
	}

	got := supervisor.ScanClearances(scenes)

	want := []supervisor.ClearanceAlert{
		{Kind: "brand", Entity: "iPhone", SceneID: "scene-001", Severity: supervisor.SeverityMedium},
		{Kind: "music", Entity: "نور العين", SceneID: "scene-001", Severity: supervisor.SeverityHigh},
		{Kind: "music", Entity: "music", SceneID: "scene-002", Severity: supervisor.SeverityMedium},
		{Kind: "celebrity", Entity: "عمرو دياب", SceneID: "scene-003", Severity: supervisor.SeverityMedium},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(supervisor.ClearanceAlert{}, "Message")); diff != "" {
		t.Errorf("clearances mismatch (-want +got):\n%s", diff)
	}
}

func TestRuleTechnicalValidatorClearances(t *testing.T) {
	s := scene("scene-001", "CAFE", 1, "AHMED")
	s.Content = "AHMED: Pass me the Samsung charger"
	in := supervisor.Input{
		Parsing:  script.Result{Scenes: []script.Scene{s}},
		Elements: []elements.Element{element("c1", elements.Cast, "AHMED", 0.9)},
	}

	got, err := supervisor.RuleTechnicalValidator{}.Validate(t.Context(), in)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(got.Clearances) != 1 || got.Clearances[0].Entity != "Samsung" {
		t.Errorf("clearances = %+v, want one Samsung alert", got.Clearances)
	}
	if !strings.HasSuffix(got.Notes, "; 1 clearance alert(s)") {
		t.Errorf("notes = %q", got.Notes)
	}
}
