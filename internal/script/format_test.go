package script_test

import (
	"testing"

	"github.com/JaimeStill/slate/internal/script"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		want     script.Format
	}{
		{"fdx extension wins", "INT. OFFICE - DAY", "pilot.FDX", script.FormatFDX},
		{"fountain extension", "INT. OFFICE - DAY", "pilot.fountain", script.FormatFountain},
		{"pdf extension with extracted text", "INT. OFFICE - DAY", "pilot.pdf", script.FormatPDFText},
		{"pdf extension scanned", "%PDF-1.5\n/Subtype /Image", "pilot.pdf", script.FormatPDFOCR},
		{"final draft xml", `<?xml version="1.0"?><FinalDraft Version="5"></FinalDraft>`, "", script.FormatFDX},
		{"celtx xml", `<?xml version="1.0"?><celtx></celtx>`, "export.xml", script.FormatFDX},
		{"fountain title page", "Title: Pilot\n\nINT. OFFICE - DAY", "", script.FormatFountain},
		{"fountain fade in", "FADE IN:\n\nINT. OFFICE - DAY", "draft.txt", script.FormatFountain},
		{"pdf magic with text layer", "%PDF-1.4\nBT (Hello) Tj ET", "", script.FormatPDFText},
		{"plain text", "SCENE 1 - INT - OFFICE - DAY", "", script.FormatTXT},
		{"xml without signature", "<root></root>", "", script.FormatTXT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := script.DetectFormat(tt.text, tt.filename); got != tt.want {
				t.Errorf("DetectFormat = %s, want %s", got, tt.want)
			}
		})
	}
}
