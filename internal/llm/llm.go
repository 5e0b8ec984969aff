package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Provider is the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// OpenAIProvider talks to any OpenAI-compatible chat completions API
// (Groq, OpenRouter, OpenAI itself) selected by BaseURL.
type OpenAIProvider struct {
	Model   string
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(model, baseURL, apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a prompt and returns the response text.
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("LLM API key not configured")
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": 0.3,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("LLM API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	return result.Choices[0].Message.Content, nil
}

// GeminiProvider uses the Google Gemini API.
type GeminiProvider struct {
	Model  string
	APIKey string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(model, apiKey string) *GeminiProvider {
	return &GeminiProvider{Model: model, APIKey: apiKey}
}

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.APIKey != ""
}

// Generate sends a prompt to Gemini and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: prompt}},
			Role:  "user",
		},
	}

	maxOut := int32(maxTokens)
	resp, err := client.Models.GenerateContent(ctx, g.Model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: maxOut,
		Temperature:     genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return text, nil
}

// Options selects and configures a provider.
type Options struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	GeminiModel  string
	GeminiAPIKey string
}

// CreateProvider creates an LLM provider based on configuration. Returns nil
// when no provider is usable; callers fall back to deterministic output.
func CreateProvider(opts Options) Provider {
	if strings.ToLower(opts.Provider) == "gemini" {
		p := NewGeminiProvider(opts.GeminiModel, opts.GeminiAPIKey)
		if p.IsConfigured() {
			log.Printf("Using Gemini with model: %s", opts.GeminiModel)
			return p
		}
		log.Println("Gemini API key not set, trying OpenAI-compatible fallback...")
	}

	p := NewOpenAIProvider(opts.Model, opts.BaseURL, opts.APIKey)
	if p.IsConfigured() {
		log.Printf("Using %s with model: %s", p.BaseURL, opts.Model)
		return p
	}

	log.Println("No LLM provider available. Set the configured API key env var.")
	return nil
}
