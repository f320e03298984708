package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/devpad-platform/devpad/internal/config"
	"github.com/devpad-platform/devpad/internal/interactions"
)

// CompletionRequest is the prompt handed to the AI provider.
type CompletionRequest struct {
	Prompt string
	Mode   interactions.Mode
	Model  string
}

// CompletionResult carries the provider's response and the billed token
// counts as reported by the provider, not an estimate.
type CompletionResult struct {
	Response     string
	InputTokens  int
	OutputTokens int
}

// Provider is the opaque AI call the gateway orchestrates around.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// System prompts per assistant mode.
var systemPrompts = map[interactions.Mode]string{
	interactions.ModeExplain:  "You are a senior engineer. Explain the given code and answer questions about it concisely.",
	interactions.ModeGenerate: "You are a senior engineer. Generate code satisfying the request. Prefer the conventions visible in the provided files.",
}

// HTTPProvider is a universal OpenAI-compatible chat-completions adapter.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider from assistant config.
func NewHTTPProvider(cfg config.AssistantConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(cfg.ProviderURL, "/"),
		apiKey:     cfg.ProviderKey,
		httpClient: http.DefaultClient,
	}
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
}

type apiResponse struct {
	Choices []struct {
		Message apiMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *HTTPProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("provider URL not configured")
	}

	body, err := json.Marshal(apiRequest{
		Model: req.Model,
		Messages: []apiMessage{
			{Role: "system", Content: systemPrompts[req.Mode]},
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	return &CompletionResult{
		Response:     parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
