package generation

import (
	"strings"
)

// SurpriseMe is the sentinel ingredient that asks for a recipe of the model's choosing
const SurpriseMe = "surprise me"

// recipeSystemPrompt is sent as the system message (or leading text part) by every provider
const recipeSystemPrompt = "You are a helpful assistant that generates recipes."

const surprisePrompt = "Generate a surprise recipe with random ingredients."

// recipeFormatPrompt asks for the structured reply that parseRecipe understands
const recipeFormatPrompt = `Return ONLY valid JSON in this exact format:
{
  "title": "Recipe title",
  "ingredients": "one ingredient per line",
  "instructions": "one step per line"
}

Important:
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// itemLabelPrompt is the shared prompt used by all providers for labeling a captured photo
const itemLabelPrompt = `You are looking at a photo of a single food or household item taken in a kitchen.
Name the item the way it would appear on a pantry shopping list.

Rules:
- Reply with the item name only, on a single line
- Use a short generic name (e.g. "canned tomatoes", "olive oil", "paper towels")
- Do not include brand names, quantities, or punctuation
- If you cannot identify an item, reply with an empty line`

// IsSurprise reports whether the ingredient list carries the surprise sentinel
func IsSurprise(ingredients []string) bool {
	for _, ingredient := range ingredients {
		if strings.EqualFold(strings.TrimSpace(ingredient), SurpriseMe) {
			return true
		}
	}
	return false
}

// RecipePrompt builds the user prompt for a recipe request
func RecipePrompt(ingredients []string) string {
	if IsSurprise(ingredients) {
		return surprisePrompt
	}
	return "Generate a recipe using some or all of these ingredients: " +
		strings.Join(ingredients, ", ") +
		". Include a title for the recipe."
}

// recipeRequestText is the full user message: the recipe prompt followed by the JSON contract
func recipeRequestText(ingredients []string) string {
	return RecipePrompt(ingredients) + "\n\n" + recipeFormatPrompt
}
