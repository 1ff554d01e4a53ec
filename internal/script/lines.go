package script

import (
	"html"
	"regexp"
	"strings"
)

type lineKind int

const (
	kindUnknown lineKind = iota
	kindHeading
	kindCharacter
	kindDialogue
	kindAction
	kindTransition
)

// line is one logical unit fed to the state machine. For plain text it is
// a physical line; for FDX it is a paragraph. start/end index the source.
type line struct {
	text  string
	start int
	end   int
	kind  lineKind
}

func (l line) blank() bool {
	return strings.TrimSpace(l.text) == ""
}

// byteOrderMark is skipped at the start of the source. Offsets still index
// the original text.
const byteOrderMark = "\ufeff"

func splitLines(text string) []line {
	lines := make([]line, 0, strings.Count(text, "\n")+1)
	start := 0
	if strings.HasPrefix(text, byteOrderMark) {
		start = len(byteOrderMark)
	}
	for start <= len(text) {
		idx := strings.IndexByte(text[start:], '\n')
		end := len(text)
		next := len(text) + 1
		if idx >= 0 {
			end = start + idx
			next = end + 1
		}
		body := strings.TrimSuffix(text[start:end], "\r")
		lines = append(lines, line{
			text:  body,
			start: start,
			end:   start + len(body),
		})
		start = next
	}
	return lines
}

var (
	fdxParagraph = regexp.MustCompile(`(?s)<Paragraph\b([^>]*)>(.*?)</Paragraph>`)
	fdxType      = regexp.MustCompile(`\bType="([^"]*)"`)
	fdxText      = regexp.MustCompile(`(?s)<Text\b[^>]*>(.*?)</Text>`)
)

var fdxKinds = map[string]lineKind{
	"scene heading": kindHeading,
	"character":     kindCharacter,
	"dialogue":      kindDialogue,
	"parenthetical": kindDialogue,
	"action":        kindAction,
	"general":       kindAction,
	"transition":    kindTransition,
}

// fdxLines flattens Final Draft paragraphs into lines whose span covers the
// whole paragraph element in the source.
func fdxLines(text string) []line {
	matches := fdxParagraph.FindAllStringSubmatchIndex(text, -1)
	lines := make([]line, 0, len(matches))

	for _, m := range matches {
		attrs := text[m[2]:m[3]]
		body := text[m[4]:m[5]]

		kind := kindUnknown
		if t := fdxType.FindStringSubmatch(attrs); t != nil {
			kind = fdxKinds[strings.ToLower(t[1])]
		}

		var sb strings.Builder
		for _, tm := range fdxText.FindAllStringSubmatch(body, -1) {
			sb.WriteString(tm[1])
		}

		lines = append(lines, line{
			text:  strings.TrimSpace(html.UnescapeString(sb.String())),
			start: m[0],
			end:   m[1],
			kind:  kind,
		})
	}

	return lines
}
