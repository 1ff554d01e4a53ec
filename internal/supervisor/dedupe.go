package supervisor

import "github.com/JaimeStill/slate/internal/elements"

// HighConfidence is the confidence above which a surviving element is
// ordered ahead of the rest.
const HighConfidence = 0.8

// DeduplicateElements returns a new list holding one element per
// normalized (category, name) key. The highest-confidence instance wins,
// the first seen on ties. Survivors above HighConfidence come first; each
// group keeps the order in which its keys first appeared. The function is
// idempotent.
func DeduplicateElements(els []elements.Element) []elements.Element {
	winners := make(map[string]int, len(els))
	var order []string

	for i, el := range els {
		key := el.Key()
		w, seen := winners[key]
		if !seen {
			winners[key] = i
			order = append(order, key)
			continue
		}
		if el.Confidence > els[w].Confidence {
			winners[key] = i
		}
	}

	high := make([]elements.Element, 0, len(order))
	var low []elements.Element
	for _, key := range order {
		el := els[winners[key]]
		if el.Confidence > HighConfidence {
			high = append(high, el)
		} else {
			low = append(low, el)
		}
	}
	return append(high, low...)
}
