package models

import (
	"fmt"
	"strings"
)

// Category is an award tag a submission accrues votes under
type Category string

// The closed set of voting categories
const (
	CategoryOverall  Category = "OVERALL"
	CategoryLights   Category = "LIGHTS"
	CategoryCreative Category = "CREATIVE"
	CategoryAnimated Category = "ANIMATED"
	CategoryDIY      Category = "DIY"
	CategoryClassic  Category = "CLASSIC"
)

var categoryLabels = map[Category]string{
	CategoryOverall:  "Best Overall Display",
	CategoryLights:   "Best Use of Lights",
	CategoryCreative: "Most Creative",
	CategoryAnimated: "Best Animated Display",
	CategoryDIY:      "Best DIY Decorations",
	CategoryClassic:  "Best Classic Christmas",
}

// Categories returns every voting category in display order
func Categories() []Category {
	return []Category{
		CategoryOverall,
		CategoryLights,
		CategoryCreative,
		CategoryAnimated,
		CategoryDIY,
		CategoryClassic,
	}
}

// Valid reports whether c is a member of the category set
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable award name
func (c Category) Label() string {
	return categoryLabels[c]
}

// ParseCategory accepts a category tag (any case) or its exact display label
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if c := Category(strings.ToUpper(s)); c.Valid() {
		return c, nil
	}
	for c, label := range categoryLabels {
		if label == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown voting category %q", s)
}

// NewTally returns a vote map with every category present at zero
func NewTally() map[Category]int {
	tally := make(map[Category]int, len(categoryLabels))
	for c := range categoryLabels {
		tally[c] = 0
	}
	return tally
}
