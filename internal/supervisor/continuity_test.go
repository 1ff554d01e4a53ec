package supervisor_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/script"
	"github.com/JaimeStill/slate/internal/supervisor"
)

func prop(id, sceneID, name string) elements.Element {
	el := element(id, elements.HandheldProps, name, 0.8)
	el.SceneID = sceneID
	return el
}

func TestContinuity(t *testing.T) {
	scenes := []script.Scene{
		scene("scene-001", "CAFE", 1, "AHMED", "SARA"),
		scene("scene-002", "PARK", 1, "AHMED"),
		scene("scene-003", "Cafe", 1, "SARA"),
		scene("scene-004", "PARK", 1, "Ahmed"),
		scene("scene-005", script.UnknownLocation, 0, "BOB"),
		scene("scene-006", script.UnknownLocation, 0, "BOB"),
	}
	els := []elements.Element{
		prop("p1", "scene-001", "cup"),
		prop("p2", "scene-003", "Cup"),
		prop("p3", "scene-004", "cup"),
		prop("p4", "scene-004", "cup"),
		prop("p5", "scene-002", "letter"),
		element("x", elements.Vehicles, "taxi", 0.8),
	}

	got := supervisor.Continuity(scenes, els)

	want := []supervisor.ContinuityNote{
		{Kind: "prop", Subject: "cup", SceneID: "scene-003", Earlier: []string{"scene-001"}},
		{Kind: "wardrobe", Subject: "SARA", SceneID: "scene-003", Earlier: []string{"scene-001"}},
		{Kind: "prop", Subject: "cup", SceneID: "scene-004", Earlier: []string{"scene-001", "scene-003"}},
		{Kind: "wardrobe", Subject: "Ahmed", SceneID: "scene-004", Earlier: []string{"scene-002"}},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(supervisor.ContinuityNote{}, "Message")); diff != "" {
		t.Errorf("continuity mismatch (-want +got):\n%s", diff)
	}
	if got[0].Message != "cup must match its appearance in scene-001" {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestContinuityEmpty(t *testing.T) {
	got := supervisor.Continuity(nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("continuity = %#v, want empty", got)
	}
}
