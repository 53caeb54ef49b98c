// Package llm holds the clients for the external generative-analysis and
// embedding models. Both are treated as untrusted collaborators: output is
// validated at the boundary and failures carry an explicit retryability.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Generator produces structured JSON output for a prompt
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (json.RawMessage, error)
}

// Embedder turns text into a fixed-length float vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Client talks to an OpenAI-compatible API for both generation and embedding
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	embedDim   int
	httpClient *http.Client
	logger     zerolog.Logger
}

// Options configures a Client
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	EmbedModel string
	EmbedDim   int
	Timeout    time.Duration
}

// NewClient creates a model API client
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		embedModel: opts.EmbedModel,
		embedDim:   opts.EmbedDim,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate invokes the generative model and returns the raw JSON object it
// produced. Schema validation happens in the caller; this layer only
// guarantees the response is JSON at all.
func (c *Client) Generate(ctx context.Context, system, prompt string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, &ModelError{Kind: KindConfig, Message: "model API key is not configured"}
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var parsed chatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Choices) == 0 {
		return nil, &ModelError{Kind: KindTransient, Message: "model returned no choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	content = stripCodeFence(content)

	if !json.Valid([]byte(content)) {
		return nil, &ModelError{Kind: KindSchemaViolation, Message: "model output is not valid JSON"}
	}

	return json.RawMessage(content), nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for one text. The dimensionality is
// checked against the configured fixed size so clusters stay comparable.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.apiKey == "" {
		return nil, &ModelError{Kind: KindConfig, Message: "model API key is not configured"}
	}

	var parsed embedResponse
	if err := c.post(ctx, "/embeddings", embedRequest{Model: c.embedModel, Input: []string{text}}, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, &ModelError{Kind: KindTransient, Message: "embedding response missing vectors"}
	}

	vector := parsed.Data[0].Embedding
	if c.embedDim > 0 && len(vector) != c.embedDim {
		return nil, &ModelError{
			Kind:    KindSchemaViolation,
			Message: fmt.Sprintf("expected %d dimensions, got %d", c.embedDim, len(vector)),
		}
	}
	return vector, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ModelError{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ModelError{Kind: KindTransient, Message: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return &ModelError{Kind: KindConfig, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &ModelError{Kind: KindTransient, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	case resp.StatusCode != http.StatusOK:
		return &ModelError{Kind: KindConfig, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &ModelError{Kind: KindTransient, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// stripCodeFence removes a markdown code fence if the model wrapped its JSON
// in one despite the response format hint.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
