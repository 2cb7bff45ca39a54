package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/clauseguard/contractreview/backend/config"
)

// ErrGenerationUnavailable marks a transient generation-backend failure. It is
// retryable with backoff, unlike hard failures.
var ErrGenerationUnavailable = errors.New("generation service unavailable")

// TextGenerator produces contract text. Implementations are selected by
// configuration at construction time.
type TextGenerator interface {
	// FillTemplate replaces {{var_name}} placeholders with the provided
	// values. Unresolved placeholders are rendered as {{UNDEFINED: var_name}}
	// so they stay visible during draft review.
	FillTemplate(ctx context.Context, template string, vars map[string]string) (string, error)

	// GenerateClause produces clause text from a natural-language prompt and
	// an optional contract type. The result is clause text only, no
	// conversational wrapping.
	GenerateClause(ctx context.Context, prompt, contractType string) (string, error)
}

// NewTextGenerator builds the backend named by cfg.Provider.
func NewTextGenerator(cfg *config.GeneratorConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "", "mock":
		return &MockGenerator{}, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("generator provider %q requires an api_key", cfg.Provider)
		}
		return NewOpenAIGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// MockGenerator is the deterministic backend. It never fails, so the rest of
// the pipeline is testable without a live dependency.
type MockGenerator struct{}

func (g *MockGenerator) FillTemplate(_ context.Context, template string, vars map[string]string) (string, error) {
	filled := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := vars[name]; ok {
			return value
		}
		return fmt.Sprintf("{{UNDEFINED: %s}}", name)
	})
	return filled, nil
}

func (g *MockGenerator) GenerateClause(_ context.Context, prompt, contractType string) (string, error) {
	kind := contractType
	if kind == "" {
		kind = "Agreement"
	}
	return fmt.Sprintf("The parties agree, for the purposes of this %s, that %s. This clause shall survive termination of the %s.",
		kind, strings.TrimRight(strings.TrimSpace(prompt), "."), kind), nil
}

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint. Any
// transport error, non-2xx response, or timeout surfaces as
// ErrGenerationUnavailable so callers can schedule a retry.
type OpenAIGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOpenAIGenerator(cfg *config.GeneratorConfig) *OpenAIGenerator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIGenerator{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

const templateSystemPrompt = "You are a legal assistant AI. Populate the contract template with the provided variables. " +
	"Output only the contract text, with no conversational filler, preambles, or explanations. " +
	"The template uses {{variable_name}} syntax for placeholders; leave unknown placeholders as {{UNDEFINED: variable_name}}."

const clauseSystemPrompt = "You are a legal assistant AI. Draft a single contract clause matching the request. " +
	"Output only the clause text, with no conversational filler, headings, or explanations."

func (g *OpenAIGenerator) FillTemplate(ctx context.Context, template string, vars map[string]string) (string, error) {
	var sb strings.Builder
	for name, value := range vars {
		fmt.Fprintf(&sb, "- %s: %s\n", name, value)
	}
	user := fmt.Sprintf("Populate the following contract template:\n\n---\n%s\n---\n\nUse these variables:\n%s", template, sb.String())
	return g.complete(ctx, templateSystemPrompt, user)
}

func (g *OpenAIGenerator) GenerateClause(ctx context.Context, prompt, contractType string) (string, error) {
	user := prompt
	if contractType != "" {
		user = fmt.Sprintf("Contract type: %s\n\n%s", contractType, prompt)
	}
	return g.complete(ctx, clauseSystemPrompt, user)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrGenerationUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrGenerationUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: parsing response: %v", ErrGenerationUnavailable, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrGenerationUnavailable, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
