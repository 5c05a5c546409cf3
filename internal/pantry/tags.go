package pantry

import (
	"slices"
	"strings"
)

// IngredientTags is the recipe page's ordered ingredient list
type IngredientTags []string

// NewIngredientTags builds a tag list from raw input, trimming, dropping blanks and duplicates
func NewIngredientTags(raw []string) IngredientTags {
	tags := make(IngredientTags, 0, len(raw))
	for _, ingredient := range raw {
		tags = tags.Add(ingredient)
	}
	return tags
}

// Add appends the trimmed ingredient unless it is blank or already present
func (t IngredientTags) Add(ingredient string) IngredientTags {
	ingredient = strings.TrimSpace(ingredient)
	if ingredient == "" || slices.Contains(t, ingredient) {
		return t
	}
	return append(t, ingredient)
}

// Remove drops the ingredient matching exactly
func (t IngredientTags) Remove(ingredient string) IngredientTags {
	return slices.DeleteFunc(t, func(tag string) bool { return tag == ingredient })
}
