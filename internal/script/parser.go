package script

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameRunes       = 30
	minNameRunes       = 2
	maxNameWords       = 3
	minActionRunes     = 10
	substantialRunes   = 200
	linesPerEighth     = 10
	charsPerPage       = 2500
	fullSceneSignal    = 5
	fullCastSignal     = 3
	criticalPenalty    = 0.3
	errorPenalty       = 0.1
	maxPenalty         = 0.6
	sceneCountWeight   = 0.3
	characterWeight    = 0.2
	sceneQualityWeight = 0.5
)

var (
	transitionPattern = regexp.MustCompile(`(?i)^\s*(fade (in|out)|cut to|dissolve to|smash cut|match cut|the end\b|[a-z ]+ to:\s*$|قطع|مزج|إظلام|اظلام|النهاية)`)
	parenthetical     = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

var titlePageKeys = map[string]bool{
	"title":      true,
	"credit":     true,
	"author":     true,
	"authors":    true,
	"source":     true,
	"draft date": true,
	"contact":    true,
	"copyright":  true,
	"notes":      true,
	"revision":   true,
	"written by": true,
	"based on":   true,
	"note":       true,
}

// Parser converts script text into scenes. It holds no per-parse state and
// is safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser. A nil logger discards output.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{logger: logger.With("system", "script")}
}

// Parse parses text, using filename as a format hint. It never fails:
// unusable input yields no scenes and a critical diagnostic.
func (p *Parser) Parse(text, filename string) Result {
	res := Result{
		Format:     DetectFormat(text, filename),
		Scenes:     []Scene{},
		Characters: []string{},
		Locations:  []string{},
		Errors:     []Error{},
	}

	if diag, ok := rejectInput(text, res.Format); ok {
		res.Errors = append(res.Errors, diag)
		res.Metadata = buildMetadata(text, nil, nil)
		res.Confidence = overallConfidence(res.Scenes, res.Characters, res.Errors)
		p.logger.Warn("script rejected", "format", res.Format, "reason", diag.Type)
		return res
	}

	var lines []line
	if res.Format == FormatFDX {
		lines = fdxLines(text)
	}
	if len(lines) == 0 {
		lines = splitLines(text)
	}

	res.Scenes = scan(text, lines)
	res.Characters = collectCharacters(res.Scenes)
	res.Locations = collectLocations(res.Scenes)
	res.Errors = validate(res.Scenes)
	res.Metadata = buildMetadata(text, res.Scenes, res.Characters)
	res.Confidence = overallConfidence(res.Scenes, res.Characters, res.Errors)

	p.logger.Debug(
		"script parsed",
		"format", res.Format,
		"scenes", len(res.Scenes),
		"characters", len(res.Characters),
		"confidence", res.Confidence,
	)

	return res
}

func rejectInput(text string, format Format) (Error, bool) {
	switch {
	case !utf8.ValidString(text):
		return Error{
			Type:       ErrTypeInvalidEncoding,
			Message:    "script text is not valid UTF-8",
			Severity:   SeverityCritical,
			Suggestion: "re-export the script as UTF-8 text",
		}, true
	case strings.TrimSpace(strings.TrimPrefix(text, byteOrderMark)) == "":
		return Error{
			Type:       ErrTypeEmptyInput,
			Message:    "script text is empty",
			Severity:   SeverityCritical,
			Suggestion: "provide script content",
		}, true
	case format == FormatPDFOCR:
		return Error{
			Type:       ErrTypeOCRRequired,
			Message:    "PDF has no text layer",
			Severity:   SeverityCritical,
			Suggestion: "run OCR on the scanned pages before parsing",
		}, true
	case format == FormatPDFText && isRawPDF(text):
		return Error{
			Type:       ErrTypeRawPDF,
			Message:    "PDF content must be extracted to text before parsing",
			Severity:   SeverityCritical,
			Suggestion: "extract the PDF text layer and submit the text",
		}, true
	}
	return Error{}, false
}

type sceneBuilder struct {
	header      Header
	start       int
	end         int
	characters  []string
	seen        map[string]bool
	dialogue    int
	actionLines int
}

func (b *sceneBuilder) addCharacter(name string) {
	key := strings.ToLower(name)
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.characters = append(b.characters, name)
}

func (b *sceneBuilder) build(text string, ordinal int) Scene {
	content := text[b.start:b.end]
	s := Scene{
		ID:            fmt.Sprintf("scene-%03d", ordinal),
		Number:        ordinal,
		Header:        b.header,
		Content:       content,
		Span:          Span{Start: b.start, End: b.end},
		Characters:    b.characters,
		DialogueCount: b.dialogue,
		ActionLines:   b.actionLines,
		Eighths:       max(1, (strings.Count(content, "\n")+linesPerEighth)/linesPerEighth),
	}
	s.Confidence = sceneConfidence(s)
	return s
}

func scan(text string, lines []line) []Scene {
	var (
		scenes     []Scene
		cur        *sceneBuilder
		inDialogue bool
	)

	flush := func() {
		if cur != nil {
			scenes = append(scenes, cur.build(text, len(scenes)+1))
		}
	}

	for i, l := range lines {
		if h, ok := headingOf(l); ok {
			flush()
			cur = &sceneBuilder{
				header:     h,
				start:      l.start,
				end:        l.end,
				characters: []string{},
				seen:       make(map[string]bool),
			}
			inDialogue = false
			continue
		}

		if cur == nil {
			continue
		}

		if l.blank() {
			inDialogue = false
			continue
		}

		cur.end = l.end
		trimmed := strings.TrimSpace(l.text)

		switch l.kind {
		case kindCharacter:
			if name := cleanName(trimmed); name != "" {
				cur.addCharacter(name)
				cur.dialogue++
			}
			continue
		case kindDialogue, kindTransition:
			continue
		case kindAction:
			if utf8.RuneCountInString(trimmed) > minActionRunes {
				cur.actionLines++
			}
			continue
		}

		if name, ok := speaker(trimmed); ok {
			cur.addCharacter(name)
			cur.dialogue++
			inDialogue = false
			continue
		}

		if inDialogue || transitionPattern.MatchString(trimmed) {
			continue
		}

		if isCue(trimmed) && followedByText(lines, i) && precededByBlank(lines, i) {
			cur.addCharacter(cleanName(trimmed))
			cur.dialogue++
			inDialogue = true
			continue
		}

		if utf8.RuneCountInString(trimmed) > minActionRunes && !strings.ContainsAny(trimmed, ":：") {
			cur.actionLines++
		}
	}

	flush()
	return scenes
}

func headingOf(l line) (Header, bool) {
	switch l.kind {
	case kindHeading:
		return forcedHeader(l.text), true
	case kindUnknown:
		return matchHeader(l.text)
	}
	return Header{}, false
}

// speaker recognizes "NAME: line" dialogue and returns the speaker.
func speaker(text string) (string, bool) {
	idx := strings.IndexAny(text, ":：")
	if idx <= 0 {
		return "", false
	}
	name := cleanName(text[:idx])
	if !validName(name) {
		return "", false
	}
	if titlePageKeys[strings.ToLower(name)] || transitionPattern.MatchString(text) {
		return "", false
	}
	return name, true
}

func cleanName(s string) string {
	s = parenthetical.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.Join(strings.Fields(s), " ")
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < minNameRunes || n > maxNameRunes {
		return false
	}
	if len(strings.Fields(name)) > maxNameWords {
		return false
	}
	if !strings.ContainsFunc(name, unicode.IsLetter) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsLower(first)
}

// isCue recognizes an all-caps Fountain-style character cue.
func isCue(text string) bool {
	name := cleanName(text)
	if !validName(name) {
		return false
	}
	if strings.ContainsFunc(name, unicode.IsLower) || !strings.ContainsFunc(name, unicode.IsUpper) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(name)
	return unicode.IsLetter(last) || last == ')' || last == '\''
}

func followedByText(lines []line, i int) bool {
	return i+1 < len(lines) && !lines[i+1].blank()
}

func precededByBlank(lines []line, i int) bool {
	return i == 0 || lines[i-1].blank() || lines[i-1].kind != kindUnknown
}

func collectCharacters(scenes []Scene) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range scenes {
		for _, c := range s.Characters {
			key := strings.ToLower(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

func collectLocations(scenes []Scene) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range scenes {
		loc := s.Header.Location
		key := strings.ToLower(loc)
		if loc == UnknownLocation || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, loc)
	}
	return out
}

func sceneConfidence(s Scene) float64 {
	c := 0.5
	if s.Header.IntExt != IntExtUnknown {
		c += 0.2
	}
	if s.Header.TimeOfDay != "" {
		c += 0.1
	}
	if s.Header.Location != UnknownLocation {
		c += 0.1
	}
	if s.DialogueCount > 0 {
		c += 0.1
	}
	if s.ActionLines > 0 {
		c += 0.1
	}
	return math.Round(min(c, 1.0)*1000) / 1000
}

func overallConfidence(scenes []Scene, characters []string, errs []Error) float64 {
	var penalty float64
	for _, e := range errs {
		switch e.Severity {
		case SeverityCritical:
			penalty += criticalPenalty
		case SeverityError:
			penalty += errorPenalty
		}
	}
	penalty = min(penalty, maxPenalty)

	var quality float64
	if len(scenes) > 0 {
		for _, s := range scenes {
			quality += s.Confidence
		}
		quality /= float64(len(scenes))
	}

	score := sceneCountWeight*min(float64(len(scenes))/fullSceneSignal, 1) +
		characterWeight*min(float64(len(characters))/fullCastSignal, 1) +
		sceneQualityWeight*quality -
		penalty

	return math.Round(clamp(score)*1000) / 1000
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}

func buildMetadata(text string, scenes []Scene, characters []string) Metadata {
	m := Metadata{
		TotalChars:        utf8.RuneCountInString(text),
		HasCharacterNames: len(characters) > 0,
		Language:          detectLanguage(text),
	}
	if text != "" {
		m.TotalLines = strings.Count(text, "\n") + 1
	}
	m.EstimatedPages = math.Round(float64(m.TotalChars)/charsPerPage*10) / 10
	for _, s := range scenes {
		if s.Header.Number != "" {
			m.HasSceneNumbers = true
			break
		}
	}
	return m
}

func detectLanguage(text string) string {
	var arabic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	switch {
	case arabic == 0 && latin == 0:
		return "unknown"
	case arabic > latin:
		return "ar"
	default:
		return "en"
	}
}
