package elements

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Evidence is a source span with the rationale and confidence supporting a
// classification decision. Spans are half-open byte offsets into the source text.
type Evidence struct {
	SpanStart  int     `json:"span_start"`
	SpanEnd    int     `json:"span_end"`
	Excerpt    string  `json:"text_excerpt"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
}

// Validate checks the span against a source of sourceLen bytes and the
// confidence against (0,1].
func (e Evidence) Validate(sourceLen int) error {
	if e.SpanStart < 0 || e.SpanStart >= e.SpanEnd || e.SpanEnd > sourceLen {
		return fmt.Errorf("%w: [%d,%d) of %d", ErrInvalidSpan, e.SpanStart, e.SpanEnd, sourceLen)
	}
	if e.Confidence <= 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: %.3f", ErrInvalidConfidence, e.Confidence)
	}
	if strings.TrimSpace(e.Rationale) == "" {
		return ErrMissingRationale
	}
	return nil
}

// Overlaps reports whether two spans share at least one byte.
func (e Evidence) Overlaps(other Evidence) bool {
	return e.SpanStart < other.SpanEnd && other.SpanStart < e.SpanEnd
}

// Provenance records which analysis produced an element.
type Provenance struct {
	AgentType string    `json:"agent_type"`
	Version   string    `json:"version"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Context carries the narrative placement of an element.
type Context struct {
	Scene     string `json:"scene,omitempty"`
	Character string `json:"character,omitempty"`
	Timing    string `json:"timing,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Element is a production element a crew must plan for. Elements are values;
// stages that need to change one build a new slice.
type Element struct {
	ID           string     `json:"id"`
	Category     Category   `json:"category"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	SceneID      string     `json:"scene_id"`
	Confidence   float64    `json:"confidence"`
	Evidence     Evidence   `json:"evidence"`
	Provenance   Provenance `json:"provenance"`
	Context      Context    `json:"context"`
	Dependencies []string   `json:"dependencies,omitempty"`
}

// Key returns the deduplication identity of the element.
func (e Element) Key() string {
	return Key(e.Category, e.Name)
}

// Key builds the deduplication identity for a category and name: the
// category joined with the lowercased name, punctuation dropped and
// whitespace collapsed.
func Key(c Category, name string) string {
	return string(c) + "|" + NormalizeName(name)
}

// NormalizeName lowercases name, drops punctuation, and collapses whitespace.
func NormalizeName(name string) string {
	var sb strings.Builder
	space := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			space = true
		}
	}
	return sb.String()
}
