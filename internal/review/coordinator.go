// Package review coordinates requests to the external review service and
// turns its answers into improvement suggestions.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/glosa/internal/model"
)

// DefaultMinContentLength is the shortest text, in characters after
// trimming, worth sending for review
const DefaultMinContentLength = 50

// Reviewer asks the review service about a chapter and returns its raw
// answer
type Reviewer interface {
	Review(ctx context.Context, chapterLabel, plainText string) (string, error)
}

// Target receives review results. ReplaceImprovements reports false when
// chapterID is no longer the chapter being edited.
type Target interface {
	ActiveChapter() string
	ReplaceImprovements(chapterID string, items []model.Suggestion) bool
}

// Outcome classifies how a request ended
type Outcome string

const (
	OutcomeSuggestions  Outcome = "suggestions"
	OutcomeEmpty        Outcome = "empty"
	OutcomeInsufficient Outcome = "insufficient_content"
	OutcomeFailed       Outcome = "failed"
	OutcomeSuperseded   Outcome = "superseded"
	OutcomeInactive     Outcome = "inactive_chapter"
)

// Observer is told how every request ended and how long the review call
// took
type Observer func(outcome Outcome, elapsed time.Duration)

// ErrorKind classifies an AnalysisError
type ErrorKind string

const (
	InsufficientContent ErrorKind = "insufficient_content"
	TransportFailure    ErrorKind = "transport_failure"
	Superseded          ErrorKind = "superseded"
	InactiveChapter     ErrorKind = "inactive_chapter"
)

// AnalysisError is returned by RequestAnalysis when no results were applied
type AnalysisError struct {
	Kind ErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("analysis: %s", e.Kind)
	}
	return fmt.Sprintf("analysis: %s: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an AnalysisError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == kind
}

// Coordinator drives review requests for a Target.
//
// Calls may overlap. Every call is numbered and tagged with its chapter;
// only the most recently issued call may apply its results, and only while
// its chapter is still active. Older answers are discarded.
type Coordinator struct {
	reviewer  Reviewer
	target    Target
	minLength int
	notifier  Notifier
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time

	generation atomic.Uint64
	inFlight   atomic.Int64
	applyMu    sync.Mutex // held across the staleness check and the write
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithMinContentLength sets the minimum trimmed length of reviewed text
func WithMinContentLength(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.minLength = n
		}
	}
}

// WithDefaultNotifier sets the notifier that receives every notice
func WithDefaultNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithObserver registers an outcome hook
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, used for suggestion IDs and timings
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a coordinator that sends text to reviewer and
// installs results in target
func NewCoordinator(reviewer Reviewer, target Target, opts ...Option) *Coordinator {
	c := &Coordinator{
		reviewer:  reviewer,
		target:    target,
		minLength: DefaultMinContentLength,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAnalyzing reports whether any request is waiting on the review service
func (c *Coordinator) IsAnalyzing() bool {
	return c.inFlight.Load() > 0
}

// RequestAnalysis reviews plainText, the content of chapterID, and on
// success replaces the target's improvements with the result. Text shorter
// than the minimum length and chapters other than the active one are
// rejected without calling the service.
// A malformed answer counts as zero suggestions.
func (c *Coordinator) RequestAnalysis(ctx context.Context, chapterID, plainText, chapterLabel string) ([]model.Suggestion, error) {
	if active := c.target.ActiveChapter(); active != chapterID {
		c.observe(OutcomeInactive, 0)
		return nil, &AnalysisError{Kind: InactiveChapter, Err: fmt.Errorf("chapter %s is not active (active: %s)", chapterID, active)}
	}
	if utf8.RuneCountInString(strings.TrimSpace(plainText)) < c.minLength {
		c.notify(ctx, model.Notice{Level: model.NoticeInfo, Message: MsgInsufficientContent})
		c.observe(OutcomeInsufficient, 0)
		return nil, &AnalysisError{Kind: InsufficientContent}
	}

	gen := c.generation.Add(1)
	c.inFlight.Add(1)
	defer c.inFlight.Add(-1)

	logger := c.logger.With("chapter", chapterID, "generation", gen)
	logger.Debug("review requested", "characters", utf8.RuneCountInString(plainText))

	start := c.now()
	raw, err := c.reviewer.Review(ctx, chapterLabel, plainText)
	elapsed := c.now().Sub(start)

	if c.stale(gen) {
		logger.Info("discarding superseded review", "error", err)
		c.observe(OutcomeSuperseded, elapsed)
		return nil, &AnalysisError{Kind: Superseded, Err: err}
	}

	if err != nil {
		logger.Error("review failed", "error", err)
		c.notify(ctx, model.Notice{Level: model.NoticeError, Message: MsgAnalysisFailed})
		c.observe(OutcomeFailed, elapsed)
		return nil, &AnalysisError{Kind: TransportFailure, Err: err}
	}

	items, err := ParseSuggestions(raw, c.now())
	if err != nil {
		logger.Warn("review response not understood", "error", err, "response_bytes", len(raw))
		items = []model.Suggestion{}
	}

	if err := c.commit(gen, chapterID, items); err != nil {
		logger.Info("discarding review", "reason", err)
		c.observe(OutcomeSuperseded, elapsed)
		return nil, &AnalysisError{Kind: Superseded, Err: err}
	}

	logger.Debug("review applied", "improvements", len(items), "elapsed", elapsed)
	c.notify(ctx, foundNotice(len(items)))
	if len(items) == 0 {
		c.observe(OutcomeEmpty, elapsed)
	} else {
		c.observe(OutcomeSuggestions, elapsed)
	}
	return items, nil
}

// commit installs items unless a newer request was issued or chapterID
// lost focus meanwhile
func (c *Coordinator) commit(gen uint64, chapterID string, items []model.Suggestion) error {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.stale(gen) {
		return errors.New("newer request issued")
	}
	if !c.target.ReplaceImprovements(chapterID, items) {
		return fmt.Errorf("chapter %s is no longer active", chapterID)
	}
	return nil
}

// stale reports whether a newer request was issued after gen
func (c *Coordinator) stale(gen uint64) bool {
	return c.generation.Load() != gen
}

func (c *Coordinator) notify(ctx context.Context, n model.Notice) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
	if scoped := notifierFrom(ctx); scoped != nil {
		scoped.Notify(n)
	}
}

func (c *Coordinator) observe(o Outcome, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(o, elapsed)
	}
}
