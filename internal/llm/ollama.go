package llm

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	client  *ollama.Client
	baseURL string
	config  Config
}

// NewOllamaProvider creates a new Ollama provider. Without a BaseURL the
// client follows OLLAMA_HOST.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.BaseURL == "" {
		client, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		return &OllamaProvider{client: client, baseURL: "$OLLAMA_HOST", config: config}, nil
	}

	base, err := url.Parse(strings.TrimSuffix(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama base URL: %w", err)
	}

	// Local models can be slow to load
	httpClient := newHTTPClient(config, 120*time.Second)

	return &OllamaProvider{
		client:  ollama.NewClient(base, httpClient),
		baseURL: base.String(),
		config:  config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks if Ollama is running by listing its models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.List(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (%s): %v\n", p.baseURL, err)
		return false
	}
	return true
}

// Review sends the chapter through Ollama's chat endpoint
func (p *OllamaProvider) Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	model := resolveModel(req, p.config, "")
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	msgs := withSystem(req.Messages)
	chatMsgs := make([]ollama.Message, len(msgs))
	for i, m := range msgs {
		chatMsgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    model,
		Messages: chatMsgs,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": 0.3,
			"num_predict": resolveMaxTokens(req, p.config),
		},
	}

	var (
		text   strings.Builder
		tokens int
		used   = model
	)
	err := p.client.Chat(ctx, chatReq, func(res ollama.ChatResponse) error {
		text.WriteString(res.Message.Content)
		if res.Done {
			tokens = res.PromptEvalCount + res.EvalCount
			used = firstNonEmpty(res.Model, model)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	answer := strings.TrimSpace(text.String())
	if tokens == 0 {
		// Rough estimate: 1 token per 4 bytes
		tokens = (len(req.DocumentContent) + len(answer)) / 4
	}

	return &ReviewResponse{
		Text:       answer,
		Model:      used,
		TokensUsed: tokens,
	}, nil
}
