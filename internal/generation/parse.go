package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// flexText accepts either a JSON string or an array of strings
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexText(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*f = flexText(strings.Join(lines, "\n"))
	return nil
}

type recipeJSON struct {
	Title        string   `json:"title"`
	Ingredients  flexText `json:"ingredients"`
	Instructions flexText `json:"instructions"`
}

// stripCodeFence removes a surrounding markdown code block if present
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseRecipe decodes a model reply. JSON replies are preferred; anything else
// is segmented on the "ingredients:" and "instructions:" markers.
func parseRecipe(text string) *RecipeData {
	if data, err := parseRecipeJSON(text); err == nil {
		return data
	}
	return parseRecipeText(text)
}

// parseRecipeJSON extracts the first JSON object in text
func parseRecipeJSON(text string) (*RecipeData, error) {
	text = stripCodeFence(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var raw recipeJSON
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if raw.Title == "" && raw.Ingredients == "" && raw.Instructions == "" {
		return nil, fmt.Errorf("recipe object has no fields")
	}

	return &RecipeData{
		Title:        strings.TrimSpace(strings.TrimPrefix(raw.Title, "Title: ")),
		Ingredients:  strings.TrimSpace(string(raw.Ingredients)),
		Instructions: strings.TrimSpace(string(raw.Instructions)),
	}, nil
}

// parseRecipeText segments a prose reply. The first non-blank line is the title;
// the lines after the first "ingredients:" line up to the first "instructions:"
// line are the ingredients, and everything after that are the instructions.
// A missing marker leaves its field empty.
func parseRecipeText(text string) *RecipeData {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return &RecipeData{}
	}

	title := strings.TrimSpace(strings.Replace(lines[0], "Title: ", "", 1))
	content := lines[1:]

	ingredientsIdx, instructionsIdx := -1, -1
	for i, line := range content {
		lower := strings.ToLower(line)
		if ingredientsIdx == -1 && strings.Contains(lower, "ingredients:") {
			ingredientsIdx = i
		}
		if instructionsIdx == -1 && strings.Contains(lower, "instructions:") {
			instructionsIdx = i
		}
	}

	var ingredients, instructions string
	if ingredientsIdx != -1 {
		end := len(content)
		if instructionsIdx > ingredientsIdx {
			end = instructionsIdx
		}
		ingredients = joinLines(content[ingredientsIdx+1 : end])
	}
	if instructionsIdx != -1 {
		instructions = joinLines(content[instructionsIdx+1:])
	}

	return &RecipeData{
		Title:        title,
		Ingredients:  ingredients,
		Instructions: instructions,
	}
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// parseLabel reduces a vision reply to a single trimmed line
func parseLabel(text string) string {
	text = stripCodeFence(text)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, `"'.`)
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
