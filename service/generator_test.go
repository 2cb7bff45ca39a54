package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clauseguard/contractreview/backend/config"
)

func TestNewTextGenerator(t *testing.T) {
	gen, err := NewTextGenerator(&config.GeneratorConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("Failed to build mock generator: %v", err)
	}
	if _, ok := gen.(*MockGenerator); !ok {
		t.Errorf("Expected MockGenerator, got %T", gen)
	}

	// Empty provider falls back to mock
	gen, err = NewTextGenerator(&config.GeneratorConfig{})
	if err != nil {
		t.Fatalf("Failed to build default generator: %v", err)
	}
	if _, ok := gen.(*MockGenerator); !ok {
		t.Errorf("Expected MockGenerator for empty provider, got %T", gen)
	}

	// OpenAI without a key is a config error
	if _, err := NewTextGenerator(&config.GeneratorConfig{Provider: "openai"}); err == nil {
		t.Error("Expected error for openai provider without api_key")
	}

	gen, err = NewTextGenerator(&config.GeneratorConfig{Provider: "openai", APIKey: "k"})
	if err != nil {
		t.Fatalf("Failed to build openai generator: %v", err)
	}
	if _, ok := gen.(*OpenAIGenerator); !ok {
		t.Errorf("Expected OpenAIGenerator, got %T", gen)
	}

	if _, err := NewTextGenerator(&config.GeneratorConfig{Provider: "other"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestMockFillTemplate(t *testing.T) {
	gen := &MockGenerator{}
	template := "This {{ agreement_type }} is between {{party_a}} and {{party_b}}, effective {{effective_date}}."
	vars := map[string]string{
		"agreement_type": "Services Agreement",
		"party_a":        "Acme Corp",
		"party_b":        "Widget LLC",
	}

	result, err := gen.FillTemplate(context.Background(), template, vars)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}

	want := "This Services Agreement is between Acme Corp and Widget LLC, effective {{UNDEFINED: effective_date}}."
	if result != want {
		t.Errorf("Expected %q, got %q", want, result)
	}
}

func TestMockFillTemplateNoPlaceholders(t *testing.T) {
	gen := &MockGenerator{}
	result, err := gen.FillTemplate(context.Background(), "No placeholders here.", nil)
	if err != nil {
		t.Fatalf("FillTemplate failed: %v", err)
	}
	if result != "No placeholders here." {
		t.Errorf("Expected template unchanged, got %q", result)
	}
}

func TestMockGenerateClause(t *testing.T) {
	gen := &MockGenerator{}

	clause, err := gen.GenerateClause(context.Background(), "all disputes go to arbitration in Singapore.", "Master Services Agreement")
	if err != nil {
		t.Fatalf("GenerateClause failed: %v", err)
	}
	if !strings.Contains(clause, "Master Services Agreement") {
		t.Errorf("Expected clause to mention the contract type, got %q", clause)
	}
	if !strings.Contains(clause, "all disputes go to arbitration in Singapore") {
		t.Errorf("Expected clause to incorporate the prompt, got %q", clause)
	}

	// Empty contract type falls back to a generic label
	clause, err = gen.GenerateClause(context.Background(), "payment is due in 30 days", "")
	if err != nil {
		t.Fatalf("GenerateClause failed: %v", err)
	}
	if !strings.Contains(clause, "Agreement") {
		t.Errorf("Expected generic label, got %q", clause)
	}
}

func openAITestServer(t *testing.T, handler http.HandlerFunc) (*OpenAIGenerator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gen := NewOpenAIGenerator(&config.GeneratorConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		Model:          "gpt-4o-mini",
		TimeoutSeconds: 5,
	})
	return gen, srv
}

func TestOpenAIGenerateClause(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	gen, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  The clause text.  "}},
			},
		})
	})

	clause, err := gen.GenerateClause(context.Background(), "limit liability to fees paid", "SaaS Agreement")
	if err != nil {
		t.Fatalf("GenerateClause failed: %v", err)
	}
	if clause != "The clause text." {
		t.Errorf("Expected trimmed completion, got %q", clause)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("Expected configured model, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("Expected system+user messages, got %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "SaaS Agreement") {
		t.Errorf("Expected contract type in user message, got %q", gotReq.Messages[1].Content)
	}
}

func TestOpenAIServerError(t *testing.T) {
	gen, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusInternalServerError)
	})

	_, err := gen.GenerateClause(context.Background(), "anything", "")
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("Expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	gen, _ := openAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := gen.FillTemplate(context.Background(), "{{a}}", nil)
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("Expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestOpenAIUnreachable(t *testing.T) {
	gen := NewOpenAIGenerator(&config.GeneratorConfig{
		APIKey:         "test-key",
		BaseURL:        "http://127.0.0.1:1",
		Model:          "gpt-4o-mini",
		TimeoutSeconds: 1,
	})

	_, err := gen.GenerateClause(context.Background(), "anything", "")
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("Expected ErrGenerationUnavailable, got %v", err)
	}
}
