package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/glosa/internal/model"
)

func TestBuildReviewPrompt(t *testing.T) {
	prompt := BuildReviewPrompt("Metodologia", "Este projeto trata de rotina.")

	for _, want := range []string{
		`para o capítulo "Metodologia"`,
		"Melhorias de redação técnica",
		`"suggestions": [`,
		`"originalText"`,
		"Texto para análise:\nEste projeto trata de rotina.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestNewReviewRequest(t *testing.T) {
	req := NewReviewRequest("Conclusão", "texto")

	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("Expected one user message, got %+v", req.Messages)
	}
	if req.DocumentContent != "texto" {
		t.Errorf("Expected document content, got %q", req.DocumentContent)
	}
}

func TestWithSystem(t *testing.T) {
	msgs := withSystem([]Message{{Role: "user", Content: "oi"}})
	if len(msgs) != 2 || msgs[0].Role != "system" {
		t.Errorf("Expected system message prepended, got %+v", msgs)
	}

	custom := []Message{{Role: "system", Content: "x"}, {Role: "user", Content: "oi"}}
	if got := withSystem(custom); len(got) != 2 || got[0].Content != "x" {
		t.Errorf("Expected existing system message kept, got %+v", got)
	}

	system, rest := splitSystem(custom)
	if system != "x" || len(rest) != 1 {
		t.Errorf("Unexpected split: %q %+v", system, rest)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		config   Config
		wantName string
		wantErr  bool
	}{
		{Config{Provider: ""}, "", false},
		{Config{Provider: "OpenAI", APIKey: "k"}, "openai", false},
		{Config{Provider: "claude", APIKey: "k"}, "anthropic", false},
		{Config{Provider: "ollama", BaseURL: "http://localhost:11434"}, "ollama", false},
		{Config{Provider: "function", BaseURL: "http://localhost/functions/v1/chat-copilot"}, "function", false},
		{Config{Provider: "openai"}, "", true},
		{Config{Provider: "gemini"}, "", true},
	}

	for _, tt := range tests {
		provider, err := NewProvider(tt.config)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewProvider(%q) error = %v, wantErr %v", tt.config.Provider, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if tt.wantName == "" {
			if provider != nil {
				t.Errorf("Expected nil provider for %q", tt.config.Provider)
			}
			continue
		}
		if provider.Name() != tt.wantName {
			t.Errorf("Expected %s, got %s", tt.wantName, provider.Name())
		}
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:   "openai",
		Model:      "gpt-4o-mini",
		APIKey:     "k",
		Timeout:    10,
		MaxTokens:  100,
		HTTPSProxy: "http://proxy:3128",
	})

	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" || cfg.APIKey != "k" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.Timeout != 10 || cfg.MaxTokens != 100 || cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("Unexpected limits: %+v", cfg)
	}
}
