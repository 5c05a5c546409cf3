package generation

import "context"

// RecipeData is a generated recipe before it is saved
type RecipeData struct {
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

// Labeler names the pantry item shown in a photo
type Labeler interface {
	// LabelItem returns a short single-line label, or an error if the model produced none
	LabelItem(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the labeler and releases resources
	Close() error
}

// RecipeGenerator produces a recipe from a list of ingredients
type RecipeGenerator interface {
	// GenerateRecipe makes exactly one model request for the given ingredients
	GenerateRecipe(ctx context.Context, ingredients []string) (*RecipeData, error)
	// Close closes the generator and releases resources
	Close() error
}
