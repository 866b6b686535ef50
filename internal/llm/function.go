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
)

// FunctionProvider calls a backend function that fronts the model. The
// function receives the chat messages plus the document text and answers
// with {"response": "..."} or {"message": "..."}.
type FunctionProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
	config     Config
}

type functionRequest struct {
	Messages        []Message `json:"messages"`
	DocumentContent string    `json:"documentContent"`
	Model           string    `json:"model,omitempty"`
}

type functionResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
	Error    string `json:"error"`
}

// NewFunctionProvider creates a provider for the function at config.BaseURL
func NewFunctionProvider(config Config) (*FunctionProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("function URL is required (llm.base_url or GLOSA_FUNCTION_URL)")
	}

	return &FunctionProvider{
		url:        config.BaseURL,
		apiKey:     config.APIKey,
		httpClient: newHTTPClient(config, 60*time.Second),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *FunctionProvider) Name() string {
	return "function"
}

// IsAvailable reports whether the function endpoint answers at all.
// Any HTTP response counts; only transport errors mean unavailable.
func (p *FunctionProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Review posts the messages and document to the function
func (p *FunctionProvider) Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	body, err := json.Marshal(functionRequest{
		Messages:        req.Messages,
		DocumentContent: req.DocumentContent,
		Model:           resolveModel(req, p.config, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp functionResponse
	decodeErr := json.Unmarshal(respBody, &resp)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		if decodeErr == nil && resp.Error != "" {
			return nil, fmt.Errorf("function error (%d): %s", httpResp.StatusCode, resp.Error)
		}
		return nil, fmt.Errorf("function error (%d): %s", httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", decodeErr)
	}

	return &ReviewResponse{
		Text:  firstNonEmpty(resp.Response, resp.Message),
		Model: p.config.Model,
	}, nil
}
