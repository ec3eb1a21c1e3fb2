package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is used when no model is configured.
const GoogleDefaultModel = "gemini-2.0-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreLLM for Google's Gemini API.
type googleProvider struct {
	client       *genai.Client
	model        string
	tokenCounter *TokenCounter
}

func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Google client: %w", err)
	}

	return &googleProvider{
		client:       client,
		model:        model,
		tokenCounter: NewTokenCounter(),
	}, nil
}

// DoRequest sends a generate-content request and returns the generated
// content with token usage.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.model)

	// Gemini has no separate system role; fold the system instruction
	// into the user content.
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}
	contents := []*genai.Content{genai.NewContentFromText(finalPrompt, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}
	if options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(ClampFloat64(*options.Temperature, 0.0, 2.0)))
	}
	if options.MaxTokens > 0 && options.MaxTokens <= math.MaxInt32 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, contents, config)
	if err != nil {
		return "", 0, 0, p.wrapError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := p.tokenCounter.EstimateTokens(prompt)
	tokensOut := p.tokenCounter.EstimateTokens(content)
	if usage := resp.UsageMetadata; usage != nil {
		if usage.PromptTokenCount > 0 {
			tokensIn = int(usage.PromptTokenCount)
		}
		if usage.CandidatesTokenCount > 0 {
			tokensOut = int(usage.CandidatesTokenCount)
		}
	}

	return content, tokensIn, tokensOut, nil
}

// GetModel returns the configured model name.
func (p *googleProvider) GetModel() string { return p.model }

func (p *googleProvider) wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return classifyContextError("google", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return NewProviderError("google", classifyStatus(apiErr.Code), apiErr.Code, message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}
