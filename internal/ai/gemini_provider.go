package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/amishk599/offerradar/internal/model"
)

// geminiVerdictSchema constrains Gemini to a bare list of verdicts.
var geminiVerdictSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"offer_id":           {Type: genai.TypeString},
			"is_match":           {Type: genai.TypeBoolean},
			"reason":             {Type: genai.TypeString},
			"is_notable_company": {Type: genai.TypeBoolean},
		},
		Required:         []string{"offer_id", "is_match", "reason", "is_notable_company"},
		PropertyOrdering: []string{"offer_id", "is_match", "reason", "is_notable_company"},
	},
}

// GeminiProvider calls the Gemini API through the genai SDK with a response schema.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider for the Gemini Developer API.
func NewGeminiProvider(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Complete sends prompt to Gemini and returns the response text. API errors
// are mapped to *model.HTTPError so 429 and 5xx are retried.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiVerdictSchema,
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &model.HTTPError{StatusCode: apiErr.Code, Err: err}
		}
		return "", fmt.Errorf("gemini request: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty content")
	}
	return text, nil
}
