package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Labeler and RecipeGenerator using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini client
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// generate sends the parts and concatenates the text of the first candidate
func (g *Gemini) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// LabelItem asks Gemini to name the item in the photo
func (g *Gemini) LabelItem(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", err
	}

	// genai.ImageData takes the format suffix, not the MIME type
	text, err := g.generate(ctx, genai.ImageData("png", pngData), genai.Text(itemLabelPrompt))
	if err != nil {
		return "", err
	}

	label := parseLabel(text)
	if label == "" {
		return "", fmt.Errorf("no label in gemini response")
	}
	return label, nil
}

// GenerateRecipe asks Gemini for a recipe
func (g *Gemini) GenerateRecipe(ctx context.Context, ingredients []string) (*RecipeData, error) {
	text, err := g.generate(ctx,
		genai.Text(recipeSystemPrompt),
		genai.Text(recipeRequestText(ingredients)),
	)
	if err != nil {
		return nil, err
	}
	return parseRecipe(text), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
