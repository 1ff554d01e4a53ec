package script_test

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/slate/internal/script"
)

const fountainScript = `Title: The Test
Author: Someone

INT. OFFICE - DAY

Maria enters, carrying a stack of files.

MARIA
Has anyone seen the stapler?

JOHN (V.O.)
Check the drawer.

EXT. PARKING LOT - NIGHT

Rain hammers the parked cars.
`

const fdxScript = `<?xml version="1.0" encoding="UTF-8"?>
<FinalDraft DocumentType="Script" Template="No" Version="5">
<Content>
<Paragraph Type="Scene Heading"><Text>INT. KITCHEN - NIGHT</Text></Paragraph>
<Paragraph Type="Action"><Text>Sarah pours a glass of wine at the counter.</Text></Paragraph>
<Paragraph Type="Character"><Text>SARAH</Text></Paragraph>
<Paragraph Type="Dialogue"><Text>Not again.</Text></Paragraph>
<Paragraph Type="Scene Heading"><Text>EXT. GARDEN - DAY</Text></Paragraph>
<Paragraph Type="Action"><Text>Tom waters the roses &amp; the tulips.</Text></Paragraph>
</Content>
</FinalDraft>`

const arabicScript = `مشهد 1 - داخلي - منزل أحمد - ليل
أحمد: مرحبا يا سارة
سارة: أهلا بك
يجلس أحمد على الكرسي بجوار النافذة

مشهد 2 - خارجي - الحديقة - نهار
سارة: الجو جميل اليوم
`

func newParser() *script.Parser {
	return script.New(nil)
}

func TestParseSingleScene(t *testing.T) {
	text := "SCENE 1 - INT - OFFICE - DAY\nAHMED: Hello"
	res := newParser().Parse(text, "")

	if len(res.Scenes) != 1 {
		t.Fatalf("scene count = %d, want 1", len(res.Scenes))
	}

	s := res.Scenes[0]
	if s.Header.IntExt != script.Interior {
		t.Errorf("int/ext = %q, want INT", s.Header.IntExt)
	}
	if s.Header.Location != "OFFICE" {
		t.Errorf("location = %q, want OFFICE", s.Header.Location)
	}
	if s.Header.TimeOfDay != "DAY" {
		t.Errorf("time = %q, want DAY", s.Header.TimeOfDay)
	}
	if s.Header.Number != "1" {
		t.Errorf("number = %q, want 1", s.Header.Number)
	}
	if diff := cmp.Diff([]string{"AHMED"}, s.Characters); diff != "" {
		t.Errorf("characters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AHMED"}, res.Characters); diff != "" {
		t.Errorf("result characters mismatch (-want +got):\n%s", diff)
	}
	if s.DialogueCount != 1 {
		t.Errorf("dialogue count = %d, want 1", s.DialogueCount)
	}
	if s.ID != "scene-001" {
		t.Errorf("id = %q, want scene-001", s.ID)
	}
	if s.Confidence != 1.0 {
		t.Errorf("scene confidence = %v, want 1.0", s.Confidence)
	}
	if res.Critical() {
		t.Errorf("unexpected critical diagnostics: %+v", res.Errors)
	}
	if math.Abs(res.Confidence-0.627) > 0.001 {
		t.Errorf("overall confidence = %v, want ~0.627", res.Confidence)
	}
}

func TestParseEmpty(t *testing.T) {
	res := newParser().Parse("", "")

	if len(res.Scenes) != 0 {
		t.Errorf("scene count = %d, want 0", len(res.Scenes))
	}
	if res.Confidence >= 0.5 {
		t.Errorf("confidence = %v, want < 0.5", res.Confidence)
	}
	if !res.Critical() {
		t.Fatal("expected a critical error")
	}
	if len(res.Errors) != 1 || res.Errors[0].Type != script.ErrTypeEmptyInput {
		t.Errorf("errors = %+v, want single empty_input", res.Errors)
	}
}

func TestParseRejectedInput(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		wantType string
	}{
		{"whitespace only", "  \n\t\n", "", script.ErrTypeEmptyInput},
		{"invalid utf8", "INT. OFFICE - DAY\n\xff\xfe", "", script.ErrTypeInvalidEncoding},
		{"scanned pdf", "%PDF-1.7\n1 0 obj << /Type /XObject /Subtype /Image >>", "scan.pdf", script.ErrTypeOCRRequired},
		{"raw pdf with text layer", "%PDF-1.4\nBT /F1 12 Tf (INT. OFFICE) Tj ET", "draft.pdf", script.ErrTypeRawPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newParser().Parse(tt.text, tt.filename)
			if len(res.Scenes) != 0 {
				t.Errorf("scene count = %d, want 0", len(res.Scenes))
			}
			if len(res.Errors) != 1 {
				t.Fatalf("error count = %d, want 1", len(res.Errors))
			}
			if res.Errors[0].Type != tt.wantType || res.Errors[0].Severity != script.SeverityCritical {
				t.Errorf("error = %+v, want critical %s", res.Errors[0], tt.wantType)
			}
		})
	}
}

func TestParseNeverEmptyHanded(t *testing.T) {
	inputs := []string{
		"",
		"Just some prose without any headings at all.",
		"INT. OFFICE - DAY",
		"SCENE 3",
		fountainScript,
		fdxScript,
		arabicScript,
		"\xff",
		"CUT TO:\nFADE OUT.",
	}

	for _, in := range inputs {
		res := newParser().Parse(in, "")
		if len(res.Scenes) == 0 && len(res.Errors) == 0 {
			t.Errorf("Parse(%q) returned neither scenes nor errors", in)
		}
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("Parse(%q) confidence = %v out of range", in, res.Confidence)
		}
		for _, s := range res.Scenes {
			if s.Span.Start < 0 || s.Span.End > len(in) || s.Span.Start >= s.Span.End {
				t.Errorf("scene %s span %+v out of bounds", s.ID, s.Span)
				continue
			}
			if in[s.Span.Start:s.Span.End] != s.Content {
				t.Errorf("scene %s content does not match its span", s.ID)
			}
		}
	}
}

func TestParseNoScenes(t *testing.T) {
	res := newParser().Parse("Just some prose without any headings at all.", "")

	if len(res.Scenes) != 0 {
		t.Fatalf("scene count = %d, want 0", len(res.Scenes))
	}
	if !res.Critical() || res.Errors[0].Type != script.ErrTypeNoScenes {
		t.Errorf("errors = %+v, want critical no_scenes", res.Errors)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
}

func TestParseFountain(t *testing.T) {
	res := newParser().Parse(fountainScript, "")

	if res.Format != script.FormatFountain {
		t.Errorf("format = %s, want FOUNTAIN", res.Format)
	}
	if len(res.Scenes) != 2 {
		t.Fatalf("scene count = %d, want 2", len(res.Scenes))
	}

	first := res.Scenes[0]
	if diff := cmp.Diff([]string{"MARIA", "JOHN"}, first.Characters); diff != "" {
		t.Errorf("characters mismatch (-want +got):\n%s", diff)
	}
	if first.DialogueCount != 2 {
		t.Errorf("dialogue count = %d, want 2", first.DialogueCount)
	}
	if first.ActionLines != 1 {
		t.Errorf("action lines = %d, want 1", first.ActionLines)
	}

	second := res.Scenes[1]
	if second.Header.IntExt != script.Exterior || second.Header.Location != "PARKING LOT" || second.Header.TimeOfDay != "NIGHT" {
		t.Errorf("header = %+v, want EXT PARKING LOT NIGHT", second.Header)
	}
	if res.Metadata.HasSceneNumbers {
		t.Error("fountain sample has no scene numbers")
	}
	if diff := cmp.Diff([]string{"OFFICE", "PARKING LOT"}, res.Locations); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFDX(t *testing.T) {
	for _, filename := range []string{"pilot.fdx", ""} {
		t.Run("filename="+filename, func(t *testing.T) {
			res := newParser().Parse(fdxScript, filename)

			if res.Format != script.FormatFDX {
				t.Fatalf("format = %s, want FDX", res.Format)
			}
			if len(res.Scenes) != 2 {
				t.Fatalf("scene count = %d, want 2", len(res.Scenes))
			}

			kitchen := res.Scenes[0]
			if kitchen.Header.Location != "KITCHEN" || kitchen.Header.TimeOfDay != "NIGHT" {
				t.Errorf("header = %+v, want KITCHEN NIGHT", kitchen.Header)
			}
			if diff := cmp.Diff([]string{"SARAH"}, kitchen.Characters); diff != "" {
				t.Errorf("characters mismatch (-want +got):\n%s", diff)
			}
			if kitchen.ActionLines != 1 {
				t.Errorf("action lines = %d, want 1", kitchen.ActionLines)
			}
			if !strings.Contains(kitchen.Content, "Sarah pours") {
				t.Error("scene content should cover its paragraphs")
			}
		})
	}
}

func TestParseArabic(t *testing.T) {
	res := newParser().Parse(arabicScript, "")

	if len(res.Scenes) != 2 {
		t.Fatalf("scene count = %d, want 2", len(res.Scenes))
	}
	if res.Metadata.Language != "ar" {
		t.Errorf("language = %q, want ar", res.Metadata.Language)
	}

	first := res.Scenes[0].Header
	if first.IntExt != script.Interior || first.TimeOfDay != "NIGHT" || first.Location != "منزل أحمد" {
		t.Errorf("header = %+v, want INT / منزل أحمد / NIGHT", first)
	}

	second := res.Scenes[1].Header
	if second.IntExt != script.Exterior || second.TimeOfDay != "DAY" {
		t.Errorf("header = %+v, want EXT / DAY", second)
	}

	if diff := cmp.Diff([]string{"أحمد", "سارة"}, res.Characters); diff != "" {
		t.Errorf("characters mismatch (-want +got):\n%s", diff)
	}
	if res.Scenes[0].ActionLines != 1 {
		t.Errorf("action lines = %d, want 1", res.Scenes[0].ActionLines)
	}
}

func TestParseByteOrderMark(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		scenes   int
		location string
	}{
		{"english", "\ufeffINT. OFFICE - DAY\nAHMED: Good morning", 1, "OFFICE"},
		{"arabic", "\ufeff" + arabicScript, 2, "منزل أحمد"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newParser().Parse(tt.text, "")

			if len(res.Scenes) != tt.scenes {
				t.Fatalf("scene count = %d, want %d; errors = %+v", len(res.Scenes), tt.scenes, res.Errors)
			}
			first := res.Scenes[0]
			if first.Header.Location != tt.location {
				t.Errorf("location = %q, want %q", first.Header.Location, tt.location)
			}
			if first.Span.Start != len("\ufeff") {
				t.Errorf("span start = %d, want the offset after the byte order mark", first.Span.Start)
			}
			if tt.text[first.Span.Start:first.Span.End] != first.Content {
				t.Errorf("span does not index the source text")
			}
		})
	}

	t.Run("mark only", func(t *testing.T) {
		res := newParser().Parse("\ufeff\n", "")
		if len(res.Errors) != 1 || res.Errors[0].Type != script.ErrTypeEmptyInput {
			t.Errorf("errors = %+v, want one empty-input error", res.Errors)
		}
	})
}

func TestParseSlugMarkers(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		scenes int
	}{
		{"prose starting with ext", "INT. OFFICE - DAY\nExt the cat jumps onto the desk.", 1},
		{"prose starting with int", "INT. OFFICE - DAY\nInt his mind the plan was simple.", 1},
		{"mixed case with period", "INT. OFFICE - DAY\nExt. Garden - Night", 2},
		{"all caps without period", "INT OFFICE - DAY\nEXT GARDEN - NIGHT", 2},
		{"numbered mixed case", "INT. OFFICE - DAY\n12 Ext garden - night", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newParser().Parse(tt.text, "")
			if len(res.Scenes) != tt.scenes {
				var locs []string
				for _, s := range res.Scenes {
					locs = append(locs, s.Header.Location)
				}
				t.Errorf("scene count = %d, want %d; locations = %q", len(res.Scenes), tt.scenes, locs)
			}
		})
	}
}

func TestParseCharacterDedup(t *testing.T) {
	text := "INT. HALL - DAY\nAhmed: Hi\nAHMED: Again\nSara: Hello\n\nINT. ROOM - NIGHT\nsara is quiet here tonight\nSARA: Bye"
	res := newParser().Parse(text, "")

	if diff := cmp.Diff([]string{"Ahmed", "Sara"}, res.Characters); diff != "" {
		t.Errorf("characters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ahmed", "Sara"}, res.Scenes[0].Characters); diff != "" {
		t.Errorf("scene characters mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDiagnostics(t *testing.T) {
	t.Run("scene number gap is a warning", func(t *testing.T) {
		text := "SCENE 1 - INT - OFFICE - DAY\nAHMED: Hi\nSCENE 4 - EXT - STREET - NIGHT\nAHMED: Bye"
		res := newParser().Parse(text, "")

		var gap *script.Error
		for i := range res.Errors {
			if res.Errors[i].Type == script.ErrTypeSceneGap {
				gap = &res.Errors[i]
			}
			if res.Errors[i].Severity != script.SeverityWarning {
				t.Errorf("unexpected non-warning diagnostic: %+v", res.Errors[i])
			}
		}
		if gap == nil {
			t.Fatal("expected scene_number_gap warning")
		}
		if gap.SceneID != "scene-002" {
			t.Errorf("gap scene = %q, want scene-002", gap.SceneID)
		}
		if len(res.Scenes) != 2 {
			t.Errorf("scene count = %d, want 2", len(res.Scenes))
		}
	})

	t.Run("unresolved heading parts", func(t *testing.T) {
		res := newParser().Parse("SCENE 2\nAHMED: Hi", "")

		want := map[string]bool{
			script.ErrTypeIntExt:   false,
			script.ErrTypeLocation: false,
		}
		for _, e := range res.Errors {
			if _, ok := want[e.Type]; ok {
				want[e.Type] = true
			}
		}
		for typ, found := range want {
			if !found {
				t.Errorf("missing %s warning", typ)
			}
		}
		s := res.Scenes[0]
		if s.Header.Location != script.UnknownLocation {
			t.Errorf("location = %q, want UNKNOWN", s.Header.Location)
		}
		if s.Confidence != 0.6 {
			t.Errorf("confidence = %v, want 0.6", s.Confidence)
		}
	})

	t.Run("substantial scene without characters", func(t *testing.T) {
		body := strings.Repeat("The wind howls across the empty plain tonight.\n", 6)
		res := newParser().Parse("EXT. PLAIN - NIGHT\n"+body, "")

		found := false
		for _, e := range res.Errors {
			if e.Type == script.ErrTypeNoCharacters {
				found = true
			}
		}
		if !found {
			t.Error("expected no_characters warning")
		}
	})
}

func TestParseDeterministic(t *testing.T) {
	p := newParser()
	a := p.Parse(fountainScript, "")
	b := p.Parse(fountainScript, "")

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("parse not deterministic (-first +second):\n%s", diff)
	}
}

func TestParseMetadata(t *testing.T) {
	text := "SCENE 1 - INT - OFFICE - DAY\nAHMED: Hello"
	res := newParser().Parse(text, "")

	m := res.Metadata
	if m.TotalLines != 2 {
		t.Errorf("lines = %d, want 2", m.TotalLines)
	}
	if m.TotalChars != len(text) {
		t.Errorf("chars = %d, want %d", m.TotalChars, len(text))
	}
	if m.Language != "en" {
		t.Errorf("language = %q, want en", m.Language)
	}
	if !m.HasSceneNumbers || !m.HasCharacterNames {
		t.Errorf("flags = %+v, want both true", m)
	}
	if res.Scenes[0].Eighths != 1 {
		t.Errorf("eighths = %d, want 1", res.Scenes[0].Eighths)
	}
}
