package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLoader() *Loader {
	return NewLoader(5*time.Second, 1<<20, "", "", "")
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metodologia.html")
	content := "<h1>Metodologia</h1><p>Uma rotina de testes.</p>"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := newTestLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if src.Title != "Metodologia" {
		t.Errorf("Expected title from <h1>, got %q", src.Title)
	}
	if src.Content != content || src.Location != path {
		t.Errorf("Unexpected source: %+v", src)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newTestLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestChapterTitle(t *testing.T) {
	tests := []struct {
		content  string
		location string
		want     string
	}{
		{"<html><head><title>Relatório</title></head><body><h1>Objetivos  do\nProjeto</h1></body></html>", "x.html", "Objetivos do Projeto"},
		{"<html><head><title>Relatório</title></head><body><p>sem título</p></body></html>", "x.html", "Relatório"},
		{"# Conclusão\n\nTexto.", "capitulo.md", "Conclusão"},
		{"Texto simples.", "/tmp/resultados_esperados.txt", "resultados esperados"},
		{"Texto simples.", "https://docs.example.com/projetos/indicadores-de-inovacao.html", "indicadores de inovacao"},
		{"Texto simples.", "https://docs.example.com/", "docs.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := chapterTitle(tt.content, tt.location); got != tt.want {
				t.Errorf("chapterTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<h1>Metodologia</h1><p>OK</p>")
	}))
	defer server.Close()

	src, err := newTestLoader().Load(context.Background(), server.URL+"/metodologia")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if src.Content != "<h1>Metodologia</h1><p>OK</p>" {
		t.Errorf("Unexpected content: %s", src.Content)
	}
	if src.Title != "Metodologia" {
		t.Errorf("Unexpected title: %s", src.Title)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "<p>OK</p>")
	}))
	defer server.Close()

	src, err := newTestLoader().FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if src.Content != "<p>OK</p>" {
		t.Errorf("Unexpected content: %s", src.Content)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestLoader().FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if _, err := newTestLoader().FetchWithRetry(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_TruncatesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	loader := NewLoader(5*time.Second, 4, "", "", "")
	src, err := loader.Load(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if src.Content != "0123" {
		t.Errorf("Expected body truncated to 4 bytes, got %q", src.Content)
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &statusError{code: 503, status: "503 Service Unavailable"}, true},
		{"500", &statusError{code: 500, status: "500 Internal Server Error"}, true},
		{"429", &statusError{code: 429, status: "429 Too Many Requests"}, true},
		{"404", &statusError{code: 404, status: "404 Not Found"}, false},
		{"403", &statusError{code: 403, status: "403 Forbidden"}, false},
		{"transport", fmt.Errorf("fetch: connection refused"), true},
		{"request", fmt.Errorf("create request: invalid URL"), false},
		{"body", fmt.Errorf("read body: unexpected EOF"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
