package script

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// headerPattern captures an optional scene number, an optional int/ext
// marker, and the remainder of the heading. accept, when set, can veto a
// match.
type headerPattern struct {
	name   string
	re     *regexp.Regexp
	number int
	intExt int
	rest   int
	accept func(m []string) bool
}

// Patterns are tried in order; the first match wins.
var headerPatterns = []headerPattern{
	{
		name:   "english-scene",
		re:     regexp.MustCompile(`(?i)^\s*scene\s+(\d+[a-z]?)\b\s*[:.\-–—]?\s*(.*)$`),
		number: 1, intExt: -1, rest: 2,
	},
	{
		name:   "english-slug",
		re:     regexp.MustCompile(`(?i)^\s*(?:(\d+[a-z]?)[.)]?\s+)?(int\.?\s*/\s*ext|ext\.?\s*/\s*int|i/e|int|ext)(\.?)(?:\s+|\s*[\-–—]\s*)(.*)$`),
		number: 1, intExt: 2, rest: 4,
		accept: markedSlug,
	},
	{
		name:   "arabic-scene",
		re:     regexp.MustCompile(`^\s*مشهد\s*(?:رقم\s*)?([0-9٠-٩]+)\s*[:.\-–—]?\s*(.*)$`),
		number: 1, intExt: -1, rest: 2,
	},
	{
		name:   "arabic-slug",
		re:     regexp.MustCompile(`^\s*(داخلي\s*/\s*خارجي|خارجي\s*/\s*داخلي|داخلي|خارجي)(?:\s*[\-–—:.]\s*|\s+|$)(.*)$`),
		number: -1, intExt: 1, rest: 2,
	},
}

var tokenSeparator = regexp.MustCompile(`\s+[-|]\s+|\s*[–—|]\s*|\s*-\s*$|^\s*-\s*`)

var intExtWords = map[string]IntExt{
	"INT":           Interior,
	"INTERIOR":      Interior,
	"EXT":           Exterior,
	"EXTERIOR":      Exterior,
	"INT/EXT":       IntExtBoth,
	"EXT/INT":       IntExtBoth,
	"I/E":           IntExtBoth,
	"داخلي":         Interior,
	"داخلى":         Interior,
	"خارجي":         Exterior,
	"خارجى":         Exterior,
	"داخلي/خارجي":   IntExtBoth,
	"خارجي/داخلي":   IntExtBoth,
	"داخلي-خارجي":   IntExtBoth,
	"داخلي و خارجي": IntExtBoth,
}

var timeWords = map[string]string{
	"DAY":           "DAY",
	"NIGHT":         "NIGHT",
	"MORNING":       "MORNING",
	"AFTERNOON":     "AFTERNOON",
	"EVENING":       "EVENING",
	"DAWN":          "DAWN",
	"DUSK":          "DUSK",
	"SUNRISE":       "DAWN",
	"SUNSET":        "DUSK",
	"CONTINUOUS":    "CONTINUOUS",
	"LATER":         "LATER",
	"MOMENTS LATER": "LATER",
	"SAME":          "CONTINUOUS",
	"نهار":          "DAY",
	"نهارا":         "DAY",
	"ليل":           "NIGHT",
	"ليلا":          "NIGHT",
	"صباح":          "MORNING",
	"صباحا":         "MORNING",
	"ظهر":           "AFTERNOON",
	"عصر":           "AFTERNOON",
	"مساء":          "EVENING",
	"مساءا":         "EVENING",
	"فجر":           "DAWN",
	"غروب":          "DUSK",
	"مستمر":         "CONTINUOUS",
}

// matchHeader reports whether text is a scene heading and resolves its parts.
func matchHeader(text string) (Header, bool) {
	for _, p := range headerPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil || (p.accept != nil && !p.accept(m)) {
			continue
		}
		h := Header{Raw: strings.TrimSpace(text)}
		if p.number > 0 {
			h.Number = normalizeDigits(m[p.number])
		}
		if p.intExt > 0 {
			h.IntExt = lookupIntExt(m[p.intExt])
		}
		resolveHeaderTokens(&h, m[p.rest])
		return h, true
	}
	return Header{}, false
}

// markedSlug rejects prose such as "Ext the cat jumps." An unnumbered slug
// needs a period after the marker or an all-caps marker.
func markedSlug(m []string) bool {
	marker := m[2]
	return m[1] != "" || m[3] == "." || strings.Contains(marker, ".") || marker == strings.ToUpper(marker)
}

// forcedHeader resolves a heading paragraph that did not match any pattern,
// as FDX marks headings explicitly.
func forcedHeader(text string) Header {
	if h, ok := matchHeader(text); ok {
		return h
	}
	h := Header{Raw: strings.TrimSpace(text)}
	resolveHeaderTokens(&h, text)
	return h
}

func resolveHeaderTokens(h *Header, rest string) {
	var locations []string

	for _, tok := range tokenSeparator.Split(rest, -1) {
		tok = strings.TrimSpace(strings.Trim(tok, " .:,"))
		if tok == "" {
			continue
		}

		if h.IntExt == IntExtUnknown {
			if v := lookupIntExt(tok); v != IntExtUnknown {
				h.IntExt = v
				continue
			}
			if first, remainder, ok := strings.Cut(tok, " "); ok {
				if v := lookupIntExt(first); v != IntExtUnknown {
					h.IntExt = v
					tok = strings.TrimSpace(remainder)
				}
			}
		}

		if h.TimeOfDay == "" {
			if v := lookupTime(tok); v != "" {
				h.TimeOfDay = v
				continue
			}
			if i := strings.LastIndexByte(tok, ' '); i > 0 {
				if v := lookupTime(tok[i+1:]); v != "" {
					h.TimeOfDay = v
					tok = strings.TrimSpace(strings.Trim(tok[:i], " .,"))
				}
			}
		}

		if tok != "" {
			locations = append(locations, tok)
		}
	}

	h.Location = strings.Join(locations, " - ")
	if h.Location == "" {
		h.Location = UnknownLocation
	}
}

func lookupIntExt(tok string) IntExt {
	key := strings.ToUpper(strings.Trim(tok, " ."))
	key = strings.Join(strings.Fields(strings.ReplaceAll(key, ".", "")), "")
	if v, ok := intExtWords[key]; ok {
		return v
	}
	if v, ok := intExtWords[strings.TrimSpace(tok)]; ok {
		return v
	}
	return IntExtUnknown
}

func lookupTime(tok string) string {
	key := strings.ToUpper(strings.Trim(tok, " .()"))
	if v, ok := timeWords[key]; ok {
		return v
	}
	return timeWords[strings.TrimPrefix(key, "ال")]
}

// normalizeDigits maps Arabic-Indic digits to ASCII and uppercases suffixes.
func normalizeDigits(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r >= '٠' && r <= '٩' {
			return '0' + (r - '٠')
		}
		return r
	}, s))
}

// sceneOrdinal extracts the leading integer of a scene number.
func sceneOrdinal(number string) (int, bool) {
	end := strings.IndexFunc(number, func(r rune) bool { return !unicode.IsDigit(r) })
	if end < 0 {
		end = len(number)
	}
	n, err := strconv.Atoi(number[:end])
	return n, err == nil
}
