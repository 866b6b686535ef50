package audit

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ppiankov/glosa/internal/extract"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/score"
)

var (
	// ErrUnknownChapter is returned for a chapter id the session does not hold
	ErrUnknownChapter = errors.New("unknown chapter")
	// ErrUnknownSuggestion is returned for a suggestion id not in the store
	ErrUnknownSuggestion = errors.New("unknown suggestion")
	// ErrNotPending is returned when a decision is made twice
	ErrNotPending = errors.New("suggestion already resolved")
	// ErrInvalidStatus is returned for an unknown project status
	ErrInvalidStatus = errors.New("invalid project status")
	// ErrNotApplied is returned when an accepted term no longer occurs in
	// the chapter text
	ErrNotApplied = errors.New("term not found in chapter text")
)

// Options configures a Session
type Options struct {
	CharacterLimit int  // Zero disables the limit
	ApplyOnAccept  bool // Accepting a term alert rewrites the chapter
	Logger         *slog.Logger
}

// Session is the editing state of one report: its chapters, the active
// chapter and the suggestions raised against it. It is safe for concurrent
// use.
type Session struct {
	mu       sync.Mutex
	chapters []model.Chapter
	active   int
	status   model.ProjectStatus

	scanner *extract.TermScanner
	store   *Store
	scorer  *score.Scorer
	opts    Options
	logger  *slog.Logger
}

// NewSession creates a session over chapters, ordered by Order, with the
// first chapter active. DefaultChapters is used when chapters is empty.
func NewSession(rules []model.ForbiddenTermRule, chapters []model.Chapter, opts Options) *Session {
	if len(chapters) == 0 {
		chapters = model.DefaultChapters()
	}
	chapters = slices.Clone(chapters)
	slices.SortStableFunc(chapters, func(a, b model.Chapter) int {
		return a.Order - b.Order
	})

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		chapters: chapters,
		status:   model.ProjectEditing,
		scanner:  extract.NewTermScanner(rules),
		store:    NewStore(),
		scorer:   score.NewScorer(),
		opts:     opts,
		logger:   logger,
	}
	s.rescan()
	return s
}

// Rules returns the forbidden-term rules in effect
func (s *Session) Rules() []model.ForbiddenTermRule {
	return s.scanner.Rules()
}

// Chapters returns the chapters in report order
func (s *Session) Chapters() []model.Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.chapters)
}

// Chapter returns the chapter with the given id
func (s *Session) Chapter(id string) (model.Chapter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.chapters[i], true
	}
	return model.Chapter{}, false
}

// ActiveChapter returns the id of the chapter being edited
func (s *Session) ActiveChapter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapters[s.active].ID
}

// SelectChapter makes id the active chapter. Suggestions of the previous
// chapter are discarded and the new one is scanned.
func (s *Session) SelectChapter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownChapter, id)
	}
	if i == s.active {
		return nil
	}

	s.active = i
	s.store.Clear()
	s.rescan()
	s.logger.Debug("chapter selected", "chapter", id, "term_alerts", s.store.Len())
	return nil
}

// SetContent replaces the rich-text content of a chapter. Editing the
// active chapter rescans it and reconciles the term alerts.
func (s *Session) SetContent(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownChapter, id)
	}
	s.chapters[i].Content = content
	if i == s.active {
		s.rescan()
	}
	return nil
}

// PlainText returns the plain-text projection of the active chapter
func (s *Session) PlainText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return extract.PlainText(s.chapters[s.active].Content)
}

// Accept resolves a suggestion as accepted. With ApplyOnAccept a term
// alert also rewrites every occurrence of its term in the chapter text; the
// alerts are reconciled on the next edit. When no occurrence is left to
// rewrite the alert stays pending and ErrNotApplied is returned.
func (s *Session) Accept(id string) (model.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.store.Get(id)
	if !ok {
		return model.Suggestion{}, fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
	}

	if s.opts.ApplyOnAccept && sg.Kind == model.KindTermAlert && sg.Status == model.StatusPending {
		ch := &s.chapters[s.active]
		content, n := ApplyReplacement(ch.Content, sg)
		if n == 0 {
			s.logger.Warn("accepted term not found", "id", id, "term", sg.OriginalText)
			return sg, fmt.Errorf("%w: %q", ErrNotApplied, sg.OriginalText)
		}
		ch.Content = content
		s.logger.Debug("replacement applied", "id", id, "term", sg.OriginalText, "occurrences", n)
	}
	return s.resolve(id, model.StatusAccepted)
}

// Reject resolves a suggestion as rejected
func (s *Session) Reject(id string) (model.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(id, model.StatusRejected)
}

// Suggestions returns every suggestion for the active chapter
func (s *Session) Suggestions() []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// Pending returns the suggestions still awaiting a decision
func (s *Session) Pending() []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Pending()
}

// ByKind returns the suggestions of one kind
func (s *Session) ByKind(kind model.SuggestionKind) []model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ByKind(kind)
}

// ReplaceImprovements installs review results for chapterID. Results for a
// chapter that is no longer active are dropped and false is returned.
func (s *Session) ReplaceImprovements(chapterID string, items []model.Suggestion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chapters[s.active].ID != chapterID {
		s.logger.Debug("dropping improvements for inactive chapter", "chapter", chapterID)
		return false
	}
	s.store.ReplaceImprovements(items)
	return true
}

// CharacterCount returns the plain-text length of the active chapter
func (s *Session) CharacterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return extract.CharacterCount(s.chapters[s.active].Content)
}

// OverLimit reports whether the active chapter exceeds the character limit
func (s *Session) OverLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overLimit(extract.CharacterCount(s.chapters[s.active].Content))
}

// Score calculates the compliance score of the active chapter
func (s *Session) Score() model.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scorer.Calculate(s.store.All(), extract.CharacterCount(s.chapters[s.active].Content), s.opts.CharacterLimit)
}

// Fix previews the effect of applying every pending term alert to the
// active chapter. The chapter is not modified.
func (s *Session) Fix() ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.chapters[s.active].Content
	return Diff(before, ApplyAll(before, s.store.All()))
}

// ProjectStatus returns the review state of the report
func (s *Session) ProjectStatus() model.ProjectStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetProjectStatus moves the report to status
func (s *Session) SetProjectStatus(status model.ProjectStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}

// Report snapshots the audit of the active chapter
func (s *Session) Report() model.AuditReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	chars := extract.CharacterCount(s.chapters[s.active].Content)
	return model.AuditReport{
		Chapter:        s.chapters[s.active].Title,
		AuditedAt:      time.Now().UTC(),
		Characters:     chars,
		CharacterLimit: s.opts.CharacterLimit,
		OverLimit:      s.overLimit(chars),
		Suggestions:    s.store.All(),
		Score:          s.scorer.Calculate(s.store.All(), chars, s.opts.CharacterLimit),
	}
}

// rescan reconciles term alerts with the active chapter. Caller holds mu.
func (s *Session) rescan() {
	text := extract.PlainText(s.chapters[s.active].Content)
	s.store.ReconcileTermAlerts(s.scanner.ScanAll(text))
}

func (s *Session) resolve(id string, status model.SuggestionStatus) (model.Suggestion, error) {
	sg, ok := s.store.Get(id)
	if !ok {
		return model.Suggestion{}, fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
	}
	if !s.store.SetStatus(id, status) {
		return sg, fmt.Errorf("%w: %s is %s", ErrNotPending, id, sg.Status)
	}
	sg.Status = status
	return sg, nil
}

func (s *Session) overLimit(chars int) bool {
	return s.opts.CharacterLimit > 0 && chars > s.opts.CharacterLimit
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.chapters, func(c model.Chapter) bool {
		return c.ID == id
	})
}
