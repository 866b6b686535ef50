package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/glosa/internal/cache"
	"github.com/ppiankov/glosa/internal/worker"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *ReviewResponse
	err       error
	calls     atomic.Int32
	lastReq   ReviewRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error) {
	m.calls.Add(1)
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewReviewer_Disabled(t *testing.T) {
	reviewer, err := NewReviewer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if reviewer.IsEnabled() {
		t.Error("Expected reviewer to be disabled")
	}
	if reviewer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
	if reviewer.IsAvailable(context.Background()) {
		t.Error("Expected disabled reviewer to be unavailable")
	}

	_, err = reviewer.Review(context.Background(), "Metodologia", "texto")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestNewReviewer_UnknownProvider(t *testing.T) {
	if _, err := NewReviewer(Config{Provider: "gemini"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestReviewer_Review(t *testing.T) {
	mock := &MockProvider{
		name:      "mock",
		available: true,
		response:  &ReviewResponse{Text: `{"suggestions": []}`, Model: "m", TokensUsed: 10},
	}
	reviewer := NewReviewerWithProvider(mock, Config{Model: "m", MaxTokens: 500})

	text, err := reviewer.Review(context.Background(), "Metodologia", "texto do capítulo")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if text != `{"suggestions": []}` {
		t.Errorf("Unexpected text: %q", text)
	}
	if mock.lastReq.DocumentContent != "texto do capítulo" {
		t.Errorf("Expected document content to be forwarded, got %q", mock.lastReq.DocumentContent)
	}
	if mock.lastReq.MaxTokens != 500 {
		t.Errorf("Expected max tokens 500, got %d", mock.lastReq.MaxTokens)
	}
	if !reviewer.IsAvailable(context.Background()) {
		t.Error("Expected reviewer to be available")
	}
}

func TestReviewer_ProviderError(t *testing.T) {
	mock := &MockProvider{name: "mock", err: errors.New("API error")}
	reviewer := NewReviewerWithProvider(mock, Config{})

	if _, err := reviewer.Review(context.Background(), "Metodologia", "texto"); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestReviewer_CachesAnswers(t *testing.T) {
	mock := &MockProvider{name: "mock", response: &ReviewResponse{Text: "resposta"}}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	reviewer := NewReviewerWithProvider(mock, Config{Model: "m"}, WithCache(c, 0))

	for i := 0; i < 3; i++ {
		text, err := reviewer.Review(context.Background(), "Metodologia", "mesmo texto")
		if err != nil {
			t.Fatalf("Review %d failed: %v", i, err)
		}
		if text != "resposta" {
			t.Errorf("Unexpected text: %q", text)
		}
	}
	if got := mock.calls.Load(); got != 1 {
		t.Errorf("Expected 1 provider call, got %d", got)
	}

	_, _ = reviewer.Review(context.Background(), "Metodologia", "texto alterado")
	if got := mock.calls.Load(); got != 2 {
		t.Errorf("Expected changed text to miss the cache, got %d calls", got)
	}
}

func TestReviewer_DoesNotCacheEmptyAnswers(t *testing.T) {
	mock := &MockProvider{name: "mock", response: &ReviewResponse{Text: ""}}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	reviewer := NewReviewerWithProvider(mock, Config{}, WithCache(c, 0))

	_, _ = reviewer.Review(context.Background(), "Metodologia", "texto")
	_, _ = reviewer.Review(context.Background(), "Metodologia", "texto")

	if got := mock.calls.Load(); got != 2 {
		t.Errorf("Expected empty answers to skip the cache, got %d calls", got)
	}
}

func TestReviewer_RateLimited(t *testing.T) {
	mock := &MockProvider{name: "mock", response: &ReviewResponse{Text: "ok"}}
	limiter := worker.NewLimiter(0.01, 1)
	reviewer := NewReviewerWithProvider(mock, Config{}, WithLimiter(limiter))

	if _, err := reviewer.Review(context.Background(), "Metodologia", "um"); err != nil {
		t.Fatalf("First review failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := reviewer.Review(ctx, "Metodologia", "dois"); err == nil {
		t.Error("Expected the second call to wait past the deadline")
	}
	if got := mock.calls.Load(); got != 1 {
		t.Errorf("Expected 1 provider call, got %d", got)
	}
}
