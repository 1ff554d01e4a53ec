package prompts_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/slate/internal/prompts"
)

func TestParseStage(t *testing.T) {
	for _, want := range prompts.Stages() {
		if s, err := prompts.ParseStage(string(want)); err != nil || s != want {
			t.Errorf("ParseStage(%s) = %q, %v", want, s, err)
		}
	}
	if _, err := prompts.ParseStage("classify"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("err = %v, want ErrInvalidStage", err)
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	var s prompts.Stage
	if err := json.Unmarshal([]byte(`"verify"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(`"finalize"`), &s); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("err = %v, want ErrInvalidStage", err)
	}
}

func TestCompose(t *testing.T) {
	t.Run("with payload", func(t *testing.T) {
		got, err := prompts.Compose(prompts.StageVerify, map[string]string{"excerpt": "He picks up the cup"})
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}

		instructions, _ := prompts.Instructions(prompts.StageVerify)
		spec, _ := prompts.Spec(prompts.StageVerify)

		if !strings.HasPrefix(got, instructions+"\n\n"+spec) {
			t.Error("prompt does not start with instructions then spec")
		}
		if !strings.Contains(got, `"excerpt": "He picks up the cup"`) {
			t.Error("prompt missing payload")
		}
	})

	t.Run("tone payload label", func(t *testing.T) {
		got, err := prompts.Compose(prompts.StageTone, []map[string]string{{"scene_id": "scene-001"}})
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}
		if !strings.Contains(got, "\n\nScenes:\n\n") {
			t.Error("tone prompt missing scenes block")
		}
		if strings.Contains(got, "Evidence:") {
			t.Error("tone prompt should not carry an evidence block")
		}
	})

	t.Run("without payload", func(t *testing.T) {
		got, err := prompts.Compose(prompts.StageVerify, nil)
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}
		if strings.Contains(got, "Evidence:") {
			t.Error("nil payload should not add an evidence block")
		}
	})

	t.Run("unknown stage", func(t *testing.T) {
		if _, err := prompts.Compose("review", nil); !errors.Is(err, prompts.ErrInvalidStage) {
			t.Errorf("err = %v, want ErrInvalidStage", err)
		}
	})
}
