package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAI implements Labeler and RecipeGenerator against any OpenAI-compatible
// chat-completions endpoint
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAI creates a new chat-completions client
func NewOpenAI(apiKey, baseURL, modelName string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is a string, or a list of content parts for vision requests
	Content any `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *chatJSONSchema `json:"json_schema,omitempty"`
}

type chatJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// recipeSchema constrains the reply to the recipe object
var recipeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":        map[string]any{"type": "string"},
		"ingredients":  map[string]any{"type": "string"},
		"instructions": map[string]any{"type": "string"},
	},
	"required":             []string{"title", "ingredients", "instructions"},
	"additionalProperties": false,
}

func (o *OpenAI) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling chat completions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// LabelItem sends the photo as a data URL to a vision-capable model
func (o *OpenAI) LabelItem(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", err
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
	text, err := o.complete(ctx, chatRequest{
		Model:     o.model,
		MaxTokens: 50,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: itemLabelPrompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	label := parseLabel(text)
	if label == "" {
		return "", fmt.Errorf("no label in chat completions response")
	}
	return label, nil
}

// GenerateRecipe requests a schema-constrained recipe object
func (o *OpenAI) GenerateRecipe(ctx context.Context, ingredients []string) (*RecipeData, error) {
	text, err := o.complete(ctx, chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: recipeSystemPrompt},
			{Role: "user", Content: recipeRequestText(ingredients)},
		},
		ResponseFormat: &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &chatJSONSchema{
				Name:   "recipe",
				Strict: true,
				Schema: recipeSchema,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseRecipe(text), nil
}

// Close is a no-op for the HTTP client
func (o *OpenAI) Close() error {
	return nil
}
