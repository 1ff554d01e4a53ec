package supervisor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/script"
)

const (
	ruleValidatorSource     = "rule_technical_validator"
	ruleValidatorConfidence = 0.9
	minFuzzyNameRunes       = 5
)

// RuleTechnicalValidator is a deterministic TechnicalProvider. It reports
// character names spelled differently across scenes, location spellings
// that differ only by case or punctuation, and speaking characters that
// have no cast element. It also scans scenes for legal clearances.
type RuleTechnicalValidator struct{}

func (RuleTechnicalValidator) Validate(ctx context.Context, in Input) (TechnicalValidation, error) {
	if err := ctx.Err(); err != nil {
		return TechnicalValidation{}, err
	}

	tv := TechnicalValidation{
		Source:          ruleValidatorSource,
		Confidence:      ruleValidatorConfidence,
		CharacterIssues: characterIssues(in.Parsing.Scenes),
		LocationIssues:  locationIssues(in.Parsing.Scenes),
		MissingElements: missingCast(in.Parsing.Scenes, in.Elements),
		Clearances:      ScanClearances(in.Parsing.Scenes),
	}
	tv.Notes = fmt.Sprintf(
		"%d character, %d location, %d missing element issue(s)",
		len(tv.CharacterIssues), len(tv.LocationIssues), len(tv.MissingElements),
	)
	if n := len(tv.Clearances); n > 0 {
		tv.Notes += fmt.Sprintf("; %d clearance alert(s)", n)
	}
	return tv, nil
}

// spelling is one distinct way a name is written and where it appears.
type spelling struct {
	name   string
	key    string
	scenes []string
}

func collect(scenes []script.Scene, names func(script.Scene) []string, key func(string) string) []*spelling {
	var out []*spelling
	index := make(map[string]*spelling)
	for _, s := range scenes {
		for _, n := range names(s) {
			sp, ok := index[n]
			if !ok {
				sp = &spelling{name: n, key: key(n)}
				index[n] = sp
				out = append(out, sp)
			}
			if !slices.Contains(sp.scenes, s.ID) {
				sp.scenes = append(sp.scenes, s.ID)
			}
		}
	}
	return out
}

// group joins spellings that match into connected groups, keeping the
// order of first appearance.
func group(sps []*spelling, match func(a, b *spelling) bool) [][]*spelling {
	parent := make([]int, len(sps))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := range sps {
		for j := i + 1; j < len(sps); j++ {
			if match(sps[i], sps[j]) {
				if ri, rj := find(i), find(j); ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	byRoot := make(map[int][]*spelling)
	var roots []int
	for i, sp := range sps {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], sp)
	}

	var out [][]*spelling
	for _, r := range roots {
		if len(byRoot[r]) > 1 {
			out = append(out, byRoot[r])
		}
	}
	return out
}

func issue(kind string, g []*spelling, order []string) Inconsistency {
	var names, scenes []string
	for _, sp := range g {
		names = append(names, sp.name)
		scenes = append(scenes, sp.scenes...)
	}
	scenes = sortScenes(scenes, order)
	return Inconsistency{
		Kind:    kind,
		Names:   names,
		Scenes:  scenes,
		Message: fmt.Sprintf("%s written as %s across %d scene(s)", kind, quoteAll(names), len(scenes)),
	}
}

func characterIssues(scenes []script.Scene) []Inconsistency {
	sps := collect(scenes, func(s script.Scene) []string { return s.Characters }, squash)
	groups := group(sps, func(a, b *spelling) bool {
		if a.key == b.key {
			return true
		}
		if len([]rune(a.key)) < minFuzzyNameRunes || len([]rune(b.key)) < minFuzzyNameRunes {
			return false
		}
		return fuzzy.LevenshteinDistance(a.key, b.key) == 1
	})

	order := sceneOrder(scenes)
	out := make([]Inconsistency, 0, len(groups))
	for _, g := range groups {
		out = append(out, issue("character", g, order))
	}
	return out
}

func locationIssues(scenes []script.Scene) []Inconsistency {
	sps := collect(scenes, func(s script.Scene) []string {
		if s.Header.Location == "" || s.Header.Location == script.UnknownLocation {
			return nil
		}
		return []string{s.Header.Location}
	}, squash)
	groups := group(sps, func(a, b *spelling) bool { return a.key == b.key })

	order := sceneOrder(scenes)
	out := make([]Inconsistency, 0, len(groups))
	for _, g := range groups {
		out = append(out, issue("location", g, order))
	}
	return out
}

// missingCast reports scenes' speaking characters that no cast element names.
func missingCast(scenes []script.Scene, els []elements.Element) []MissingElement {
	cast := make(map[string]bool)
	for _, el := range els {
		if el.Category == elements.Cast {
			cast[elements.NormalizeName(el.Name)] = true
		}
	}

	sps := collect(scenes, func(s script.Scene) []string {
		if s.DialogueCount == 0 {
			return nil
		}
		return s.Characters
	}, elements.NormalizeName)

	seen := make(map[string]bool)
	out := []MissingElement{}
	for _, sp := range sps {
		if cast[sp.key] || seen[sp.key] {
			continue
		}
		seen[sp.key] = true
		out = append(out, MissingElement{
			Name:     sp.name,
			Category: elements.Cast,
			Scenes:   slices.Clone(sp.scenes),
			Message:  fmt.Sprintf("speaking character %q has no cast element", sp.name),
		})
	}
	return out
}

// squash lowercases s and drops everything but letters and digits.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

func sceneOrder(scenes []script.Scene) []string {
	ids := make([]string, len(scenes))
	for i, s := range scenes {
		ids[i] = s.ID
	}
	return ids
}

func sortScenes(ids, order []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range order {
		if slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	return out
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(q, ", ")
}
