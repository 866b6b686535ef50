package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/glosa/internal/cache"
	"github.com/ppiankov/glosa/internal/worker"
)

// ErrDisabled is returned when no review provider is configured
var ErrDisabled = errors.New("review provider not configured")

// Reviewer sends chapters to a provider, pacing calls and caching answers
// for unchanged text
type Reviewer struct {
	provider Provider
	config   Config
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	logger   *slog.Logger
}

// ReviewerOption configures a Reviewer
type ReviewerOption func(*Reviewer)

// WithCache caches answers in c for ttl (zero uses the cache default)
func WithCache(c cache.Cache, ttl time.Duration) ReviewerOption {
	return func(r *Reviewer) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithLimiter paces provider calls through l, keyed by provider name
func WithLimiter(l *worker.Limiter) ReviewerOption {
	return func(r *Reviewer) {
		r.limiter = l
	}
}

// WithReviewLogger sets the logger
func WithReviewLogger(l *slog.Logger) ReviewerOption {
	return func(r *Reviewer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReviewer creates a reviewer from configuration. With no provider
// configured the reviewer is disabled rather than an error.
func NewReviewer(config Config, opts ...ReviewerOption) (*Reviewer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return NewReviewerWithProvider(provider, config, opts...), nil
}

// NewReviewerWithProvider wraps an existing provider
func NewReviewerWithProvider(provider Provider, config Config, opts ...ReviewerOption) *Reviewer {
	r := &Reviewer{
		provider: provider,
		config:   config,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsEnabled returns true if a provider is configured
func (r *Reviewer) IsEnabled() bool {
	return r.provider != nil
}

// ProviderName returns the name of the configured provider
func (r *Reviewer) ProviderName() string {
	if r.provider == nil {
		return ""
	}
	return r.provider.Name()
}

// Model returns the configured model name
func (r *Reviewer) Model() string {
	return r.config.Model
}

// IsAvailable checks whether the provider can be reached
func (r *Reviewer) IsAvailable(ctx context.Context) bool {
	return r.provider != nil && r.provider.IsAvailable(ctx)
}

// Review asks the provider about a chapter and returns the raw answer
func (r *Reviewer) Review(ctx context.Context, chapterLabel, plainText string) (string, error) {
	if r.provider == nil {
		return "", ErrDisabled
	}

	name := r.provider.Name()
	key := cache.CacheKey(name, r.config.Model, chapterLabel, plainText)

	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			r.logger.Debug("review cache hit", "provider", name, "chapter", chapterLabel)
			return string(cached), nil
		}
	}

	if r.limiter != nil && !r.limiter.Allow(name) {
		r.logger.Debug("waiting for rate limit", "provider", name)
		if err := r.limiter.Wait(ctx, name); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	req := NewReviewRequest(chapterLabel, plainText)
	req.MaxTokens = r.config.MaxTokens

	resp, err := r.provider.Review(ctx, req)
	if err != nil {
		return "", err
	}

	r.logger.Info("review completed",
		"provider", name,
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if r.cache != nil && resp.Text != "" {
		if err := r.cache.Set(key, []byte(resp.Text), r.cacheTTL); err != nil {
			r.logger.Warn("review cache write failed", "error", err)
		}
	}

	return resp.Text, nil
}
