package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/glosa/internal/util"
)

// Provider defines the interface for review providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Review sends a chapter for review and returns the raw answer
	Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReviewRequest contains the input for a chapter review
type ReviewRequest struct {
	// Messages is the conversation sent to the model, normally a single
	// user turn built by BuildReviewPrompt
	Messages []Message

	// DocumentContent is the plain chapter text, sent alongside the
	// messages to providers that accept it
	DocumentContent string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ReviewResponse contains the model's answer
type ReviewResponse struct {
	// Text is the free-form answer, expected to embed a suggestions object
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds review provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "function", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic, bearer token for the function endpoint
	APIKey string

	// BaseURL for custom endpoints (Ollama host, function URL)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 2000,
	}
}

// SystemPrompt frames the reviewer for providers with a system role
const SystemPrompt = "Você é um consultor especialista em relatórios de projetos de inovação da Lei do Bem (Lei 11.196/2005). Responda sempre em português e siga exatamente o formato JSON solicitado."

// BuildReviewPrompt constructs the review instructions for a chapter
func BuildReviewPrompt(chapterTitle, content string) string {
	return fmt.Sprintf(`Analise o seguinte texto de um relatório de projeto de inovação (Lei do Bem) para o capítulo "%s".

Identifique:
1. Melhorias de redação técnica
2. Clareza e objetividade
3. Adequação à linguagem de P&D

Para cada sugestão, retorne um JSON com o formato:
{
  "suggestions": [
    {
      "originalText": "texto original problemático",
      "suggestedText": "texto sugerido melhorado",
      "reason": "motivo da sugestão"
    }
  ]
}

Texto para análise:
%s`, chapterTitle, content)
}

// NewReviewRequest builds the request for one chapter
func NewReviewRequest(chapterTitle, content string) ReviewRequest {
	return ReviewRequest{
		Messages: []Message{
			{Role: "user", Content: BuildReviewPrompt(chapterTitle, content)},
		},
		DocumentContent: content,
	}
}

// withSystem prepends the system prompt unless the request already has one
func withSystem(msgs []Message) []Message {
	if len(msgs) > 0 && msgs[0].Role == "system" {
		return msgs
	}
	return append([]Message{{Role: "system", Content: SystemPrompt}}, msgs...)
}

// splitSystem separates a leading system message for APIs that take it
// as a parameter
func splitSystem(msgs []Message) (string, []Message) {
	if len(msgs) > 0 && msgs[0].Role == "system" {
		return msgs[0].Content, msgs[1:]
	}
	return SystemPrompt, msgs
}

func resolveModel(req ReviewRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

func resolveMaxTokens(req ReviewRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 2000
}

// newHTTPClient builds the client for providers that speak HTTP directly.
// A zero Timeout in config falls back to def.
func newHTTPClient(config Config, def time.Duration) *http.Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = def
	}
	return util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
