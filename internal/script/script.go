// Package script turns raw screenplay text into structured scenes with
// parsing diagnostics. It understands English and Arabic scene headers,
// Final Draft XML, Fountain, and plain text, and it never fails: problems
// are reported inline on the Result.
package script

// Format identifies the detected source format of a script.
type Format string

// Supported script formats.
const (
	FormatFDX      Format = "FDX"
	FormatFountain Format = "FOUNTAIN"
	FormatPDFText  Format = "PDF_TEXT"
	FormatPDFOCR   Format = "PDF_OCR"
	FormatTXT      Format = "TXT"
)

// Severity grades a parsing diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// IntExt is the interior/exterior marker of a scene header.
type IntExt string

// Interior/exterior values. IntExtUnknown marks an unresolved header.
const (
	IntExtUnknown IntExt = ""
	Interior      IntExt = "INT"
	Exterior      IntExt = "EXT"
	IntExtBoth    IntExt = "INT/EXT"
)

// UnknownLocation is recorded when a header names no location.
const UnknownLocation = "UNKNOWN"

// Span is a half-open byte range into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Header holds the resolved parts of a scene heading.
type Header struct {
	Number    string `json:"number,omitempty"`
	IntExt    IntExt `json:"int_ext"`
	Location  string `json:"location"`
	TimeOfDay string `json:"time_of_day,omitempty"`
	Raw       string `json:"raw"`
}

// Scene is one structural unit of a script. Content is the exact source
// slice covered by Span, so offsets within it map back to the source.
type Scene struct {
	ID            string   `json:"id"`
	Number        int      `json:"number"`
	Header        Header   `json:"header"`
	Content       string   `json:"content"`
	Span          Span     `json:"span"`
	Confidence    float64  `json:"parsing_confidence"`
	Characters    []string `json:"characters"`
	DialogueCount int      `json:"dialogue_count"`
	ActionLines   int      `json:"action_lines"`
	Eighths       int      `json:"page_eighths"`
}

// Error is a parsing diagnostic.
type Error struct {
	Type       string   `json:"type"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
	SceneID    string   `json:"scene_id,omitempty"`
	Span       *Span    `json:"span,omitempty"`
}

// Metadata summarizes the source text.
type Metadata struct {
	TotalLines        int     `json:"total_lines"`
	TotalChars        int     `json:"total_chars"`
	EstimatedPages    float64 `json:"estimated_pages"`
	Language          string  `json:"language"`
	HasSceneNumbers   bool    `json:"has_scene_numbers"`
	HasCharacterNames bool    `json:"has_character_names"`
}

// Result is the complete output of a parse.
type Result struct {
	Format     Format   `json:"format"`
	Scenes     []Scene  `json:"scenes"`
	Characters []string `json:"characters"`
	Locations  []string `json:"locations"`
	Confidence float64  `json:"parsing_confidence"`
	Errors     []Error  `json:"parsing_errors"`
	Metadata   Metadata `json:"metadata"`
}

// Critical reports whether any diagnostic is critical.
func (r *Result) Critical() bool {
	for _, e := range r.Errors {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Scene returns the scene with the given id.
func (r *Result) Scene(id string) (Scene, bool) {
	for _, s := range r.Scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}

// Diagnostic types.
const (
	ErrTypeEmptyInput      = "empty_input"
	ErrTypeInvalidEncoding = "invalid_encoding"
	ErrTypeOCRRequired     = "ocr_required"
	ErrTypeRawPDF          = "unextracted_pdf"
	ErrTypeNoScenes        = "no_scenes"
	ErrTypeIntExt          = "unresolved_int_ext"
	ErrTypeLocation        = "unresolved_location"
	ErrTypeNoCharacters    = "no_characters"
	ErrTypeSceneGap        = "scene_number_gap"
)
