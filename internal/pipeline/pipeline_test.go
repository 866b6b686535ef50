package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/glosa/internal/llm"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/review"
	"github.com/ppiankov/glosa/internal/rules"
	"github.com/ppiankov/glosa/internal/worker"
)

const chapterHTML = `<h1>Metodologia</h1>
<p>Este projeto trata de pesquisa básica e rotina. O método experimental combina prototipagem e testes controlados.</p>`

// stubProvider implements llm.Provider for testing
type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Review(ctx context.Context, req llm.ReviewRequest) (*llm.ReviewResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ReviewResponse{Text: s.text, Model: "stub-1"}, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func writeChapter(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAuditFile_TermAlerts(t *testing.T) {
	path := writeChapter(t, "metodologia.html", chapterHTML)
	p := NewPipeline(model.DefaultConfig(), rules.Default())

	report, err := p.AuditFile(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Chapter != "Metodologia" {
		t.Errorf("Expected chapter title Metodologia, got %q", report.Chapter)
	}
	if report.SourcePath != path {
		t.Errorf("Expected source path %s, got %s", path, report.SourcePath)
	}
	if len(report.Suggestions) != 2 {
		t.Fatalf("Expected 2 term alerts, got %d", len(report.Suggestions))
	}
	if report.Suggestions[0].OriginalText != "pesquisa básica" || report.Suggestions[1].OriginalText != "rotina" {
		t.Errorf("Unexpected alerts: %+v", report.Suggestions)
	}
	if report.Score.Index != 85 {
		t.Errorf("Expected index 85 with nothing resolved, got %d", report.Score.Index)
	}
	if report.Analysis != nil {
		t.Error("Expected no analysis summary without a reviewer")
	}
	if report.CharacterLimit != 4000 || report.OverLimit {
		t.Errorf("Unexpected limit data: %d %v", report.CharacterLimit, report.OverLimit)
	}
}

func TestAuditFile_Missing(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), rules.Default())
	if _, err := p.AuditFile(context.Background(), filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestAuditFile_WithReview(t *testing.T) {
	provider := &stubProvider{text: "Segue a análise:\n```json\n" +
		`{"suggestions":[{"originalText":"combina","suggestedText":"integra","reason":"Mais preciso"}]}` +
		"\n```"}
	reviewer := llm.NewReviewerWithProvider(provider, llm.Config{Provider: "stub", Model: "stub-1"})

	var mu sync.Mutex
	var outcomes []review.Outcome
	observer := func(o review.Outcome, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, o)
	}

	path := writeChapter(t, "metodologia.html", chapterHTML)
	p := NewPipeline(model.DefaultConfig(), rules.Default(), WithReviewer(reviewer), WithObserver(observer))

	report, err := p.AuditFile(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(report.Suggestions) != 3 {
		t.Fatalf("Expected 2 alerts and 1 improvement, got %d", len(report.Suggestions))
	}

	a := report.Analysis
	if a == nil || !a.Enabled {
		t.Fatal("Expected an analysis summary")
	}
	if a.Provider != "stub" || a.Model != "stub-1" || a.Improvements != 1 || a.Error != "" {
		t.Errorf("Unexpected summary: %+v", a)
	}
	if len(a.Notices) != 1 || a.Notices[0].Message != "1 sugestão(ões) encontrada(s)" {
		t.Errorf("Unexpected notices: %+v", a.Notices)
	}
	if len(outcomes) != 1 || outcomes[0] != review.OutcomeSuggestions {
		t.Errorf("Unexpected outcomes: %v", outcomes)
	}
}

func TestAuditFile_ReviewFailureKeepsAudit(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	reviewer := llm.NewReviewerWithProvider(provider, llm.Config{Provider: "stub"})

	path := writeChapter(t, "metodologia.html", chapterHTML)
	p := NewPipeline(model.DefaultConfig(), rules.Default(), WithReviewer(reviewer))

	report, err := p.AuditFile(context.Background(), path)
	if err != nil {
		t.Fatalf("Review failure must not fail the audit, got %v", err)
	}
	if len(report.Suggestions) != 2 {
		t.Errorf("Expected the term alerts to survive, got %d", len(report.Suggestions))
	}
	if report.Analysis == nil || report.Analysis.Error == "" {
		t.Fatal("Expected the error to be recorded")
	}
	if n := report.Analysis.Notices; len(n) != 1 || n[0].Level != model.NoticeError {
		t.Errorf("Expected an error notice, got %+v", n)
	}
}

func TestAuditFile_ShortChapterSkipsReview(t *testing.T) {
	provider := &stubProvider{err: errors.New("must not be called")}
	reviewer := llm.NewReviewerWithProvider(provider, llm.Config{Provider: "stub"})

	path := writeChapter(t, "curto.txt", "Uma rotina.")
	p := NewPipeline(model.DefaultConfig(), rules.Default(), WithReviewer(reviewer))

	report, err := p.AuditFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if n := report.Analysis.Notices; len(n) != 1 || n[0].Message != review.MsgInsufficientContent {
		t.Errorf("Expected insufficient content notice, got %+v", n)
	}
}

func TestPipeline_BatchAuditor(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.html", "b.md", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<p>manutenção</p>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var auditor worker.Auditor = NewPipeline(model.DefaultConfig(), rules.Default())
	results, err := worker.NewBatchProcessor(auditor, 2).ProcessPath(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("%s: %v", r.Path, r.Error)
			continue
		}
		if len(r.Report.Suggestions) != 1 {
			t.Errorf("%s: expected 1 alert, got %d", r.Path, len(r.Report.Suggestions))
		}
	}
}

func TestNewReviewer_Disabled(t *testing.T) {
	r, err := NewReviewer(model.DefaultConfig(), nil)
	if err != nil || r != nil {
		t.Errorf("Expected no reviewer without a provider, got %v, %v", r, err)
	}
}

func TestNewReviewer_Unknown(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "nope"
	cfg.Cache.Enabled = false
	if _, err := NewReviewer(cfg, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNewLimiter_ProviderOverrides(t *testing.T) {
	limiter := newLimiter(model.ReviewConfig{
		RequestsPerSecond: 0.01,
		Burst:             1,
		ProviderLimits: map[string]model.RateLimit{
			"ollama": {RequestsPerSecond: 0},
		},
	})

	for i := 0; i < 10; i++ {
		if !limiter.Allow("ollama") {
			t.Fatalf("Expected ollama to be unlimited, request %d refused", i)
		}
	}
	if !limiter.Allow("openai") {
		t.Error("Expected the first openai request to pass")
	}
	if limiter.Allow("openai") {
		t.Error("Expected the default pace to apply to openai")
	}
}
