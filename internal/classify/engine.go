// Package classify assigns production categories to script text using a
// prioritized keyword rule table.
package classify

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/script"
)

// EngineVersion is recorded in the provenance of every element the engine emits.
const EngineVersion = "1.0.0"

const (
	agentType       = "classification_engine"
	ruleModel       = "rule-table"
	densityStep     = 0.05
	maxDensityBoost = 0.15
	contextBoost    = 0.15
	maxExcerptBytes = 240
	sentenceStops   = ".!?\n؟"
)

var speakerSuffix = regexp.MustCompile(`^[ \t]*(\([^)\n]*\))?[ \t]*(?:[:：]|\r?\n[ \t]*\S)`)

// Context places classified text within a scene.
type Context struct {
	Characters []string
	Location   string
	TimeOfDay  string
}

// Engine classifies text against a compiled rule table. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	rules      []*compiledRule
	byCategory map[elements.Category]*compiledRule
	logger     *slog.Logger
	now        func() time.Time
}

type compiledRule struct {
	Rule
	latin      *regexp.Regexp
	arabic     *regexp.Regexp
	canon      map[string]string
	context    []*regexp.Regexp
	exclusions []compiledExclusion
}

type compiledExclusion struct {
	pattern  *regexp.Regexp
	keywords map[string]bool
	redirect elements.Category
	penalty  float64
	reason   string
}

type hit struct {
	category   elements.Category
	priority   int
	name       string
	start      int
	end        int
	confidence float64
	rationale  string
	excerpt    string
	character  string
}

func (h hit) overlaps(o hit) bool {
	return h.start < o.end && o.start < h.end
}

// New validates and compiles rules. Every taxonomy category needs exactly
// one rule and priorities must be a permutation of 1..len(rules).
func New(rules []Rule, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := validateRules(rules); err != nil {
		return nil, err
	}

	e := &Engine{
		byCategory: make(map[elements.Category]*compiledRule, len(rules)),
		logger:     logger.With("system", "classify"),
		now:        time.Now,
	}

	for _, r := range rules {
		c, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, c)
		e.byCategory[r.Category] = c
	}

	slices.SortFunc(e.rules, func(a, b *compiledRule) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	return e, nil
}

// MustNew is New for rule tables known to be valid.
func MustNew(rules []Rule, logger *slog.Logger) *Engine {
	e, err := New(rules, logger)
	if err != nil {
		panic(err)
	}
	return e
}

// Rules returns the active rule table in priority order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Rule
	}
	return out
}

// ClassifyElement classifies a single span and returns its strongest
// element. Evidence offsets are relative to span.
func (e *Engine) ClassifyElement(span string, ctx Context, sceneID string) (elements.Element, bool) {
	found := e.ClassifyWithContext(span, 0, sceneID, ctx)
	if len(found) == 0 {
		return elements.Element{}, false
	}
	return found[0], true
}

// ClassifyMultiple classifies every hit in text with no scene context.
func (e *Engine) ClassifyMultiple(text, sceneID string) []elements.Element {
	return e.ClassifyWithContext(text, 0, sceneID, Context{})
}

// ClassifyScene classifies a parsed scene. Evidence offsets index the
// full script text.
func (e *Engine) ClassifyScene(s script.Scene) []elements.Element {
	ctx := Context{
		Characters: s.Characters,
		TimeOfDay:  s.Header.TimeOfDay,
	}
	if s.Header.Location != script.UnknownLocation {
		ctx.Location = s.Header.Location
	}
	return e.ClassifyWithContext(s.Content, s.Span.Start, s.ID, ctx)
}

// ClassifyWithContext scans text, resolves overlapping hits to a single
// category, and deduplicates by (category, name). Evidence spans are
// shifted by offset. Results are ordered by confidence, then priority.
func (e *Engine) ClassifyWithContext(text string, offset int, sceneID string, ctx Context) []elements.Element {
	hits := e.collect(text, ctx)
	accepted := resolve(hits)

	seen := make(map[string]bool, len(accepted))
	kept := make([]hit, 0, len(accepted))
	for _, h := range accepted {
		key := elements.Key(h.category, h.name)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, h)
	}

	slices.SortStableFunc(kept, func(a, b hit) int {
		return cmp.Or(
			cmp.Compare(b.confidence, a.confidence),
			cmp.Compare(a.priority, b.priority),
			cmp.Compare(a.name, b.name),
			cmp.Compare(a.start, b.start),
		)
	})

	now := e.now().UTC()
	out := make([]elements.Element, len(kept))
	for i, h := range kept {
		out[i] = newElement(h, offset, sceneID, ctx, now)
	}

	e.logger.Debug("text classified", "scene", sceneID, "hits", len(hits), "elements", len(out))
	return out
}

func (e *Engine) collect(text string, ctx Context) []hit {
	var hits []hit
	for _, r := range e.rules {
		for _, m := range r.find(text) {
			if h, ok := e.score(r, text, m[0], m[1], ctx); ok {
				hits = append(hits, h)
			}
		}
	}
	return append(hits, e.castHits(text, ctx)...)
}

func (e *Engine) score(r *compiledRule, text string, start, end int, ctx Context) (hit, bool) {
	ws, we := window(text, start, end)
	sentence := text[ws:we]
	name := r.canonical(text[start:end])

	target := r
	conf := r.BaseConfidence
	reasons := []string{fmt.Sprintf("keyword %q matched %s", name, r.Category)}

	if n := len(r.find(sentence)); n > 1 {
		conf += min(densityStep*float64(n-1), maxDensityBoost)
		reasons = append(reasons, fmt.Sprintf("%d %s keywords in the sentence", n, r.Category))
	}

	if cue := r.supporting(sentence); cue != "" {
		conf += contextBoost
		reasons = append(reasons, fmt.Sprintf("supporting context %q", cue))
	}

	for _, ex := range r.exclusions {
		if len(ex.keywords) > 0 && !ex.keywords[name] {
			continue
		}
		cue := ex.pattern.FindString(sentence)
		if cue == "" {
			continue
		}
		if ex.redirect != "" {
			target = e.byCategory[ex.redirect]
			conf = target.BaseConfidence + contextBoost
			reasons = append(reasons[:1], fmt.Sprintf("redirected to %s by %q: %s", target.Category, cue, ex.reason))
			break
		}
		conf -= ex.penalty
		reasons = append(reasons, fmt.Sprintf("penalized by %q: %s", cue, ex.reason))
	}

	if isExtras(target.Category) && speaks(ctx.Characters, name) {
		target = e.byCategory[elements.Cast]
		conf = target.BaseConfidence + contextBoost
		reasons = append(reasons, "speaking characters are cast, not extras")
	}

	conf = round(conf)
	if conf <= 0 || conf < target.Threshold {
		return hit{}, false
	}

	return hit{
		category:   target.Category,
		priority:   target.Priority,
		name:       name,
		start:      start,
		end:        end,
		confidence: conf,
		rationale:  strings.Join(reasons, "; "),
		excerpt:    excerpt(sentence),
		character:  presentCharacter(ctx.Characters, sentence),
	}, true
}

// castHits emits one hit per speaking character found in text, anchored
// on the line where the character speaks when there is one.
func (e *Engine) castHits(text string, ctx Context) []hit {
	cast := e.byCategory[elements.Cast]
	var hits []hit

	for _, name := range ctx.Characters {
		if strings.TrimSpace(name) == "" {
			continue
		}
		locs := namePattern(name).FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}

		loc, spoken := locs[0], false
		for _, l := range locs {
			if atLineStart(text, l[0]) && speakerSuffix.MatchString(text[l[1]:]) {
				loc, spoken = l, true
				break
			}
		}

		ws, we := window(text, loc[0], loc[1])
		conf := cast.BaseConfidence
		reasons := []string{fmt.Sprintf("%s appears %d time(s)", name, len(locs))}
		if len(locs) > 1 {
			conf += min(densityStep*float64(len(locs)-1), maxDensityBoost)
		}
		if spoken {
			conf += contextBoost
			reasons = append(reasons, "has dialogue in the scene")
		} else if cue := cast.supporting(text[ws:we]); cue != "" {
			conf += contextBoost
			reasons = append(reasons, fmt.Sprintf("supporting context %q", cue))
		}

		conf = round(conf)
		if conf < cast.Threshold {
			continue
		}

		hits = append(hits, hit{
			category:   elements.Cast,
			priority:   cast.Priority,
			name:       name,
			start:      loc[0],
			end:        loc[1],
			confidence: conf,
			rationale:  strings.Join(reasons, "; "),
			excerpt:    excerpt(text[ws:we]),
			character:  name,
		})
	}

	return hits
}

// resolve keeps one hit per overlapping span: highest confidence, then
// lowest priority number, then earliest and longest.
func resolve(hits []hit) []hit {
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Or(
			cmp.Compare(b.confidence, a.confidence),
			cmp.Compare(a.priority, b.priority),
			cmp.Compare(a.start, b.start),
			cmp.Compare(b.end-b.start, a.end-a.start),
		)
	})

	var accepted []hit
	for _, h := range hits {
		if slices.ContainsFunc(accepted, h.overlaps) {
			continue
		}
		accepted = append(accepted, h)
	}
	return accepted
}

func newElement(h hit, offset int, sceneID string, ctx Context, now time.Time) elements.Element {
	where := "the text"
	if sceneID != "" {
		where = sceneID
	}
	return elements.Element{
		ID:          uuid.NewString(),
		Category:    h.category,
		Name:        h.name,
		Description: fmt.Sprintf("%s referenced in %s", h.name, where),
		SceneID:     sceneID,
		Confidence:  h.confidence,
		Evidence: elements.Evidence{
			SpanStart:  offset + h.start,
			SpanEnd:    offset + h.end,
			Excerpt:    h.excerpt,
			Rationale:  h.rationale,
			Confidence: h.confidence,
		},
		Provenance: elements.Provenance{
			AgentType: agentType,
			Version:   EngineVersion,
			Model:     ruleModel,
			Timestamp: now,
		},
		Context: elements.Context{
			Scene:     sceneID,
			Character: h.character,
			Timing:    ctx.TimeOfDay,
			Location:  ctx.Location,
		},
	}
}

func (r *compiledRule) find(text string) [][]int {
	var locs [][]int
	if r.latin != nil {
		locs = append(locs, r.latin.FindAllStringIndex(text, -1)...)
	}
	if r.arabic != nil {
		for _, loc := range r.arabic.FindAllStringIndex(text, -1) {
			if arabicBounded(text, loc[0], loc[1]) {
				locs = append(locs, loc)
			}
		}
	}
	return locs
}

var (
	arabicPrefix = regexp.MustCompile(`^[وف]?(?:لل|[بلكس]?(?:ال)?)$`)
	arabicSuffix = regexp.MustCompile(`^(?:ة|ات|ان|ين|ون|ي|ه|ها|هم|هما|هن|ك|كم|نا)?$`)
)

// arabicBounded accepts a keyword match only when the letters attached
// before it form a clitic prefix (و ف ب ل ك س, ال) and the letters attached
// after it form an inflection suffix. نار inside المنارة or نارجيلة fails.
func arabicBounded(text string, start, end int) bool {
	pre := start
	for pre > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:pre])
		if !wordRune(r) {
			break
		}
		pre -= size
	}
	post := end
	for post < len(text) {
		r, size := utf8.DecodeRuneInString(text[post:])
		if !wordRune(r) {
			break
		}
		post += size
	}
	return arabicPrefix.MatchString(stripMarks(text[pre:start])) &&
		arabicSuffix.MatchString(stripMarks(text[end:post]))
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r)
}

// stripMarks drops combining marks such as harakat and shadda.
func stripMarks(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
}

func (r *compiledRule) supporting(sentence string) string {
	for _, re := range r.context {
		if cue := re.FindString(sentence); cue != "" {
			return cue
		}
	}
	return ""
}

// canonical maps matched text back to the keyword that produced it so
// plurals and spacing variants share a name.
func (r *compiledRule) canonical(match string) string {
	m := strings.ToLower(strings.Join(strings.Fields(match), " "))
	if k, ok := r.canon[m]; ok {
		return k
	}
	for _, suffix := range []string{"es", "s"} {
		if base, found := strings.CutSuffix(m, suffix); found {
			if k, ok := r.canon[base]; ok {
				return k
			}
		}
	}
	return m
}

func validateRules(rules []Rule) error {
	all := elements.Categories()
	if len(rules) != len(all) {
		return fmt.Errorf("%w: %d rules for %d categories", ErrInvalidRules, len(rules), len(all))
	}

	categories := make(map[elements.Category]bool, len(rules))
	priorities := make(map[int]bool, len(rules))

	for _, r := range rules {
		if !r.Category.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidRules, r.Category)
		}
		if categories[r.Category] {
			return fmt.Errorf("%w: duplicate rule for %s", ErrInvalidRules, r.Category)
		}
		categories[r.Category] = true

		if r.Priority < 1 || r.Priority > len(rules) || priorities[r.Priority] {
			return fmt.Errorf("%w: %s priority %d is out of range or taken", ErrInvalidRules, r.Category, r.Priority)
		}
		priorities[r.Priority] = true

		if r.BaseConfidence <= 0 || r.BaseConfidence > 1 {
			return fmt.Errorf("%w: %s base confidence %.2f", ErrInvalidRules, r.Category, r.BaseConfidence)
		}
		if r.Threshold < 0 || r.Threshold > 1 {
			return fmt.Errorf("%w: %s threshold %.2f", ErrInvalidRules, r.Category, r.Threshold)
		}

		for _, ex := range r.Exclusions {
			if ex.Redirect != "" && (!ex.Redirect.Valid() || ex.Redirect == r.Category) {
				return fmt.Errorf("%w: %s exclusion redirects to %q", ErrInvalidRules, r.Category, ex.Redirect)
			}
			if ex.Penalty < 0 || ex.Penalty > 1 {
				return fmt.Errorf("%w: %s exclusion penalty %.2f", ErrInvalidRules, r.Category, ex.Penalty)
			}
		}
	}

	return nil
}

func compileRule(r Rule) (*compiledRule, error) {
	c := &compiledRule{
		Rule:  r,
		canon: make(map[string]string, len(r.Keywords)),
	}

	var latin, arabic []string
	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.Join(strings.Fields(kw), " "))
		if kw == "" {
			continue
		}
		c.canon[kw] = kw
		if isASCII(kw) {
			latin = append(latin, kw)
		} else {
			arabic = append(arabic, kw)
		}
	}

	var err error
	if len(latin) > 0 {
		if c.latin, err = regexp.Compile(keywordPattern(latin, true)); err != nil {
			return nil, fmt.Errorf("%w: %s keywords: %v", ErrInvalidRules, r.Category, err)
		}
	}
	if len(arabic) > 0 {
		if c.arabic, err = regexp.Compile(keywordPattern(arabic, false)); err != nil {
			return nil, fmt.Errorf("%w: %s keywords: %v", ErrInvalidRules, r.Category, err)
		}
	}

	for _, p := range r.Context {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s context %q: %v", ErrInvalidRules, r.Category, p, err)
		}
		c.context = append(c.context, re)
	}

	for _, ex := range r.Exclusions {
		re, err := regexp.Compile(ex.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s exclusion %q: %v", ErrInvalidRules, r.Category, ex.Pattern, err)
		}
		ce := compiledExclusion{
			pattern:  re,
			redirect: ex.Redirect,
			penalty:  ex.Penalty,
			reason:   ex.Reason,
		}
		if len(ex.Keywords) > 0 {
			ce.keywords = make(map[string]bool, len(ex.Keywords))
			for _, kw := range ex.Keywords {
				ce.keywords[strings.ToLower(kw)] = true
			}
		}
		c.exclusions = append(c.exclusions, ce)
	}

	return c, nil
}

// keywordPattern builds an alternation that prefers longer keywords.
// Latin keywords are word-bounded and accept a plural suffix; Arabic
// keywords match as substrings and are bounded afterwards by arabicBounded
// so attached articles and affixes still hit.
func keywordPattern(words []string, bounded bool) string {
	sorted := slices.Clone(words)
	slices.SortFunc(sorted, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), cmp.Compare(a, b))
	})

	alts := make([]string, len(sorted))
	for i, w := range sorted {
		alt := strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
		if bounded {
			alt += pluralSuffix(w)
		}
		alts[i] = alt
	}

	if bounded {
		return `(?i)\b(?:` + strings.Join(alts, "|") + `)\b`
	}
	return `(?:` + strings.Join(alts, "|") + `)`
}

func pluralSuffix(w string) string {
	for _, s := range []string{"s", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(w, s) {
			return `(?:es)?`
		}
	}
	return `s?`
}

func namePattern(name string) *regexp.Regexp {
	q := strings.ReplaceAll(regexp.QuoteMeta(strings.TrimSpace(name)), " ", `\s+`)
	if isASCII(name) {
		return regexp.MustCompile(`(?i)\b` + q + `\b`)
	}
	return regexp.MustCompile(`(?i)` + q)
}

// window returns the bounds of the sentence containing [start,end).
func window(text string, start, end int) (int, int) {
	ws := 0
	if i := strings.LastIndexAny(text[:start], sentenceStops); i >= 0 {
		_, size := utf8.DecodeRuneInString(text[i:])
		ws = i + size
	}
	we := len(text)
	if i := strings.IndexAny(text[end:], sentenceStops); i >= 0 {
		we = end + i
	}
	return ws, we
}

func atLineStart(text string, pos int) bool {
	i := strings.LastIndexByte(text[:pos], '\n')
	return strings.TrimSpace(text[i+1:pos]) == ""
}

func excerpt(sentence string) string {
	s := strings.Join(strings.Fields(sentence), " ")
	if len(s) <= maxExcerptBytes {
		return s
	}
	cut := maxExcerptBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isExtras(c elements.Category) bool {
	return c == elements.ExtrasAmbient || c == elements.ExtrasFeatured
}

func speaks(characters []string, name string) bool {
	n := elements.NormalizeName(name)
	return slices.ContainsFunc(characters, func(c string) bool {
		return elements.NormalizeName(c) == n
	})
}

func presentCharacter(characters []string, sentence string) string {
	lower := strings.ToLower(sentence)
	for _, c := range characters {
		if c != "" && strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	return ""
}

func isASCII(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool { return r > unicode.MaxASCII })
}

func round(v float64) float64 {
	return math.Round(max(0, min(1, v))*1000) / 1000
}
