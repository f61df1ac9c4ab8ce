package author

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finshorts/common"
	"finshorts/config"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Provider generates text from a system preamble and a user prompt.
type Provider interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
	Name() string
}

// NewProvider builds the provider selected by llm.provider.
func NewProvider(cfg config.LLM, secrets config.Secrets) (Provider, error) {
	switch cfg.Provider {
	case "cohere":
		return NewCohereProvider(secrets.CohereAPIKey, cfg.Model, cfg.Temperature), nil
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, secrets.OpenAIAPIKey, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

var errNoKey = errors.New("API key not configured")

// CohereProvider calls the Cohere Chat API.
type CohereProvider struct {
	client      *cohereclient.Client
	model       string
	temperature float64
}

func NewCohereProvider(apiKey, model string, temperature float64) *CohereProvider {
	if apiKey == "" {
		return &CohereProvider{model: model, temperature: temperature}
	}
	// HTTP/1.1 only; the SDK's HTTP/2 connections stall on long generations.
	httpClient := &http.Client{
		Timeout: 120 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereProvider{client: client, model: model, temperature: temperature}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if c.client == nil {
		return "", common.Permanent(fmt.Errorf("cohere: %w", errNoKey))
	}
	req := &cohere.ChatRequest{
		Message:     prompt,
		Temperature: cohere.Float64(c.temperature),
		MaxTokens:   cohere.Int(maxTokens),
	}
	if c.model != "" {
		req.Model = cohere.String(c.model)
	}
	if system != "" {
		req.Preamble = cohere.String(system)
	}
	resp, err := c.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	client      *http.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string, temperature float64) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIProvider{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: temperature,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", common.Permanent(fmt.Errorf("openai: %w", errNoKey))
	}

	messages := []map[string]string{}
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	data, err := json.Marshal(map[string]any{
		"model":       o.Model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": o.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()
	if err := common.CheckResponse("openai", resp); err != nil {
		return "", err
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
		return "", errors.New("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
