// Package elements defines the production element taxonomy and the value
// objects shared by the parser, classifier, evidence ledger, and supervisor.
package elements

import (
	"encoding/json"
	"slices"
)

// Category is one of the fixed production breakdown categories.
type Category string

// The production breakdown taxonomy.
const (
	Cast             Category = "cast"
	ExtrasAmbient    Category = "extras-ambient"
	ExtrasFeatured   Category = "extras-featured"
	Stunts           Category = "stunts"
	AnimalHandling   Category = "animal-handling"
	HandheldProps    Category = "handheld-props"
	InteractiveProps Category = "interactive-props"
	Wardrobe         Category = "wardrobe"
	MakeupHair       Category = "makeup-hair"
	SpecialMakeup    Category = "special-makeup"
	SetDressing      Category = "set-dressing"
	Greenery         Category = "greenery"
	Vehicles         Category = "vehicles"
	Livestock        Category = "livestock"
	SpecialEquipment Category = "special-equipment"
	PracticalFX      Category = "practical-fx"
	VisualFX         Category = "visual-fx"
	SoundMusic       Category = "sound-music"
	Security         Category = "security"
	AdditionalLabor  Category = "additional-labor"
	Miscellaneous    Category = "miscellaneous"
)

var categories = []Category{
	Cast,
	ExtrasAmbient,
	ExtrasFeatured,
	Stunts,
	AnimalHandling,
	HandheldProps,
	InteractiveProps,
	Wardrobe,
	MakeupHair,
	SpecialMakeup,
	SetDressing,
	Greenery,
	Vehicles,
	Livestock,
	SpecialEquipment,
	PracticalFX,
	VisualFX,
	SoundMusic,
	Security,
	AdditionalLabor,
	Miscellaneous,
}

// Categories returns the taxonomy in breakdown-sheet order.
func Categories() []Category {
	return slices.Clone(categories)
}

// Valid reports whether c is a member of the taxonomy.
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// Index returns the breakdown-sheet position of c, or -1 when unknown.
func (c Category) Index() int {
	return slices.Index(categories, c)
}

// UnmarshalJSON rejects values outside the taxonomy.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCategory validates a string as a taxonomy category.
// Returns ErrInvalidCategory if the value is not recognized.
func ParseCategory(s string) (Category, error) {
	v := Category(s)
	if !v.Valid() {
		return "", ErrInvalidCategory
	}
	return v, nil
}
