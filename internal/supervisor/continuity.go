package supervisor

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/slate/internal/elements"
	"github.com/JaimeStill/slate/internal/script"
)

// Continuity note kinds.
const (
	ContinuityProp     = "prop"
	ContinuityWardrobe = "wardrobe"
)

// ContinuityNote flags something the script supervisor must keep
// consistent between scenes.
type ContinuityNote struct {
	Kind    string   `json:"kind"`
	Subject string   `json:"subject"`
	SceneID string   `json:"scene_id"`
	Earlier []string `json:"earlier_scenes"`
	Message string   `json:"message"`
}

// Continuity reports handheld props that recur across scenes and
// characters who return to the location of their previous scene. els are
// the per-scene classifier elements, before deduplication collapses
// repeated props into one. Notes are ordered by scene.
func Continuity(scenes []script.Scene, els []elements.Element) []ContinuityNote {
	order := make(map[string]int, len(scenes))
	for i, s := range scenes {
		order[s.ID] = i
	}

	notes := propNotes(order, els)
	notes = append(notes, wardrobeNotes(scenes)...)

	slices.SortStableFunc(notes, func(a, b ContinuityNote) int {
		return cmp.Or(
			cmp.Compare(order[a.SceneID], order[b.SceneID]),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Subject, b.Subject),
		)
	})
	return notes
}

func propNotes(order map[string]int, els []elements.Element) []ContinuityNote {
	appearances := make(map[string][]string)
	names := make(map[string]string)
	for _, el := range els {
		if el.Category != elements.HandheldProps {
			continue
		}
		if _, ok := order[el.SceneID]; !ok {
			continue
		}
		key := el.Key()
		if _, ok := names[key]; !ok {
			names[key] = el.Name
		}
		if !slices.Contains(appearances[key], el.SceneID) {
			appearances[key] = append(appearances[key], el.SceneID)
		}
	}

	notes := []ContinuityNote{}
	for key, ids := range appearances {
		slices.SortFunc(ids, func(a, b string) int { return cmp.Compare(order[a], order[b]) })
		for i := 1; i < len(ids); i++ {
			earlier := slices.Clone(ids[:i])
			notes = append(notes, ContinuityNote{
				Kind:    ContinuityProp,
				Subject: names[key],
				SceneID: ids[i],
				Earlier: earlier,
				Message: fmt.Sprintf("%s must match its appearance in %s", names[key], strings.Join(earlier, ", ")),
			})
		}
	}
	return notes
}

func wardrobeNotes(scenes []script.Scene) []ContinuityNote {
	type visit struct {
		sceneID  string
		location string
	}
	last := make(map[string]visit)

	notes := []ContinuityNote{}
	for _, s := range scenes {
		loc := squash(s.Header.Location)
		for _, c := range s.Characters {
			key := strings.ToLower(c)
			prev, seen := last[key]
			last[key] = visit{sceneID: s.ID, location: loc}
			if !seen || loc == "" || s.Header.Location == script.UnknownLocation || prev.location != loc {
				continue
			}
			notes = append(notes, ContinuityNote{
				Kind:    ContinuityWardrobe,
				Subject: c,
				SceneID: s.ID,
				Earlier: []string{prev.sceneID},
				Message: fmt.Sprintf("%s returns to %s from %s; check wardrobe continuity", c, s.Header.Location, prev.sceneID),
			})
		}
	}
	return notes
}
