// Package pipeline audits chapter files end to end: load, scan, optionally
// ask the review service for improvements, score and render.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/glosa/internal/audit"
	"github.com/ppiankov/glosa/internal/cache"
	"github.com/ppiankov/glosa/internal/llm"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/review"
	"github.com/ppiankov/glosa/internal/worker"
)

// chapterID is the id of the single chapter a file audit works on
const chapterID = "chapter"

// Pipeline audits chapter files. It implements worker.Auditor.
type Pipeline struct {
	loader   *Loader
	rules    []model.ForbiddenTermRule
	reviewer *llm.Reviewer // nil when the review pass is disabled
	observer review.Observer
	config   *model.Config
	logger   *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithReviewer enables the review pass
func WithReviewer(r *llm.Reviewer) Option {
	return func(p *Pipeline) {
		p.reviewer = r
	}
}

// WithObserver reports review outcomes to o
func WithObserver(o review.Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline with the given configuration and rules
func NewPipeline(cfg *model.Config, rules []model.ForbiddenTermRule, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader: NewLoader(time.Duration(cfg.LLM.Timeout)*time.Second, 2_000_000,
			cfg.LLM.HTTPProxy, cfg.LLM.HTTPSProxy, cfg.LLM.NoProxy),
		rules:  rules,
		config: cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewReviewer builds the configured reviewer with its response cache and
// rate limiter. It returns nil, nil when no provider is configured.
func NewReviewer(cfg *model.Config, logger *slog.Logger) (*llm.Reviewer, error) {
	if cfg.LLM.Provider == "" {
		return nil, nil
	}

	opts := []llm.ReviewerOption{
		llm.WithLimiter(newLimiter(cfg.Review)),
		llm.WithReviewLogger(logger),
	}
	if c := cache.FromConfig(cfg.Cache); c != nil {
		opts = append(opts, llm.WithCache(c, time.Duration(cfg.Cache.DiskTTLHours)*time.Hour))
	}

	r, err := llm.NewReviewer(llm.ConfigFromModel(cfg.LLM), opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// newLimiter paces review calls per provider
func newLimiter(cfg model.ReviewConfig) *worker.Limiter {
	l := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	for name, limit := range cfg.ProviderLimits {
		l.SetRate(name, limit.RequestsPerSecond, limit.Burst)
	}
	return l
}

// Load reads a chapter file or URL without auditing it
func (p *Pipeline) Load(ctx context.Context, location string) (*Source, error) {
	return p.loader.Load(ctx, location)
}

// AuditFile audits one chapter file or URL
func (p *Pipeline) AuditFile(ctx context.Context, path string) (*model.AuditReport, error) {
	src, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return p.AuditSource(ctx, src)
}

// AuditSource audits already loaded chapter content
func (p *Pipeline) AuditSource(ctx context.Context, src *Source) (*model.AuditReport, error) {
	session := p.newSession(src)

	var summary *model.AnalysisSummary
	if p.reviewer != nil && p.reviewer.IsEnabled() {
		summary = p.analyze(ctx, session, src.Title)
	}

	report := session.Report()
	report.SourcePath = src.Location
	report.Analysis = summary

	p.logger.Info("chapter audited",
		"chapter", report.Chapter,
		"source", src.Location,
		"suggestions", len(report.Suggestions),
		"index", report.Score.Index)

	return &report, nil
}

// newSession opens an editing session over a single loaded chapter
func (p *Pipeline) newSession(src *Source) *audit.Session {
	return audit.NewSession(p.rules, []model.Chapter{{
		ID:      chapterID,
		Title:   src.Title,
		Order:   1,
		Content: src.Content,
	}}, audit.Options{
		CharacterLimit: p.config.Audit.CharacterLimit,
		ApplyOnAccept:  p.config.Audit.ApplyOnAccept,
		Logger:         p.logger,
	})
}

// analyze runs one review pass. A failed review never fails the audit;
// the error is recorded in the summary.
func (p *Pipeline) analyze(ctx context.Context, session *audit.Session, title string) *model.AnalysisSummary {
	opts := []review.Option{
		review.WithMinContentLength(p.config.Review.MinContentLength),
		review.WithLogger(p.logger),
	}
	if p.observer != nil {
		opts = append(opts, review.WithObserver(p.observer))
	}
	coordinator := review.NewCoordinator(p.reviewer, session, opts...)

	recorder := &review.Recorder{}
	items, err := coordinator.RequestAnalysis(review.WithNotifier(ctx, recorder), chapterID, session.PlainText(), title)

	summary := &model.AnalysisSummary{
		Enabled:      true,
		Provider:     p.reviewer.ProviderName(),
		Model:        p.reviewer.Model(),
		Improvements: len(items),
		Notices:      recorder.Notices(),
	}
	if err != nil {
		summary.Error = err.Error()
		p.logger.Warn("review pass failed", "chapter", title, "error", err)
	}
	return summary
}
