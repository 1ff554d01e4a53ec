package script

import (
	"fmt"
	"unicode/utf8"
)

// validate produces structural diagnostics. Scene-number gaps are reported
// as warnings only; numbering is often intentionally sparse after revisions.
func validate(scenes []Scene) []Error {
	errs := []Error{}

	if len(scenes) == 0 {
		return append(errs, Error{
			Type:       ErrTypeNoScenes,
			Message:    "no scene headings found",
			Severity:   SeverityCritical,
			Suggestion: "start each scene with a heading such as \"INT. LOCATION - DAY\" or \"مشهد 1 - داخلي - المكان - نهار\"",
		})
	}

	prev := -1
	for _, s := range scenes {
		span := s.Span

		if s.Header.IntExt == IntExtUnknown {
			errs = append(errs, Error{
				Type:       ErrTypeIntExt,
				Message:    fmt.Sprintf("scene %d heading has no INT/EXT marker", s.Number),
				Severity:   SeverityWarning,
				Suggestion: "add INT. or EXT. to the heading",
				SceneID:    s.ID,
				Span:       &span,
			})
		}

		if s.Header.Location == UnknownLocation {
			errs = append(errs, Error{
				Type:       ErrTypeLocation,
				Message:    fmt.Sprintf("scene %d heading has no location", s.Number),
				Severity:   SeverityWarning,
				Suggestion: "name the location in the heading",
				SceneID:    s.ID,
				Span:       &span,
			})
		}

		if len(s.Characters) == 0 && utf8.RuneCountInString(s.Content) > substantialRunes {
			errs = append(errs, Error{
				Type:     ErrTypeNoCharacters,
				Message:  fmt.Sprintf("scene %d has no identifiable characters", s.Number),
				Severity: SeverityWarning,
				SceneID:  s.ID,
				Span:     &span,
			})
		}

		n, ok := sceneOrdinal(s.Header.Number)
		if !ok {
			continue
		}
		if prev >= 0 && n > prev+1 {
			errs = append(errs, Error{
				Type:     ErrTypeSceneGap,
				Message:  fmt.Sprintf("scene numbers jump from %d to %d", prev, n),
				Severity: SeverityWarning,
				SceneID:  s.ID,
				Span:     &span,
			})
		}
		prev = n
	}

	return errs
}
