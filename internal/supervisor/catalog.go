package supervisor

import "github.com/JaimeStill/slate/internal/elements"

// CatalogEntry lists the final elements of one category.
type CatalogEntry struct {
	Category elements.Category `json:"category"`
	Count    int               `json:"count"`
	Elements []string          `json:"elements"`
}

// Catalog groups elements by category in taxonomy order. Categories with
// no elements are omitted.
func Catalog(els []elements.Element) []CatalogEntry {
	byCategory := make(map[elements.Category][]string)
	for _, el := range els {
		byCategory[el.Category] = append(byCategory[el.Category], el.Name)
	}

	out := []CatalogEntry{}
	for _, c := range elements.Categories() {
		names := byCategory[c]
		if len(names) == 0 {
			continue
		}
		out = append(out, CatalogEntry{Category: c, Count: len(names), Elements: names})
	}
	return out
}
