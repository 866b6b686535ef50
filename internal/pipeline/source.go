package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/glosa/internal/util"
)

// Source is a chapter loaded from disk or over HTTP
type Source struct {
	Location string // Path or final URL
	Title    string
	Content  string
}

// Loader reads chapter content from local files or http(s) URLs
type Loader struct {
	httpClient *http.Client
	maxBytes   int64
	retries    int
}

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

// NewLoader creates a loader. Remote chapters are fetched through the
// configured proxies and truncated at maxBytes.
func NewLoader(timeout time.Duration, maxBytes int64, httpProxy, httpsProxy, noProxy string) *Loader {
	client := util.NewHTTPClient(timeout, httpProxy, httpsProxy, noProxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}
	return &Loader{
		httpClient: client,
		maxBytes:   maxBytes,
		retries:    3,
	}
}

// Load reads a chapter from location
func (l *Loader) Load(ctx context.Context, location string) (*Source, error) {
	if isRemote(location) {
		return l.FetchWithRetry(ctx, location)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read chapter: %w", err)
	}
	content := string(data)
	return &Source{
		Location: location,
		Title:    chapterTitle(content, location),
		Content:  content,
	}, nil
}

// FetchWithRetry fetches a remote chapter, retrying transient failures with
// exponential backoff
func (l *Loader) FetchWithRetry(ctx context.Context, rawURL string) (*Source, error) {
	var lastErr error
	for attempt := 0; attempt < l.retries; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(1<<(attempt-1)) * time.Second)
		}
		src, err := l.fetch(ctx, rawURL)
		if err == nil {
			return src, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,text/markdown,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	content := string(body)
	return &Source{
		Location: finalURL,
		Title:    chapterTitle(content, finalURL),
		Content:  content,
	}, nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

// isRetryableFetchError reports whether err is worth another attempt:
// transport failures, 429 and 5xx
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return strings.HasPrefix(err.Error(), "fetch: ")
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// chapterTitle uses the first <h1> (or <title>) of HTML content or a
// leading Markdown heading, falling back to the de-slugified file name
func chapterTitle(content, location string) string {
	if title := headingText(content); title != "" {
		return title
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
		break
	}
	return subjectFromLocation(location)
}

func headingText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var capture string
	var title, buf strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(title.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "h1" || (tag == "title" && title.Len() == 0) {
				capture = tag
				buf.Reset()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if capture != "" && string(name) == capture {
				text := strings.Join(strings.Fields(buf.String()), " ")
				if capture == "h1" && text != "" {
					return text
				}
				if title.Len() == 0 {
					title.WriteString(text)
				}
				capture = ""
			}
		case html.TextToken:
			if capture != "" {
				buf.Write(z.Text())
			}
		}
	}
}

func subjectFromLocation(location string) string {
	name := location
	if isRemote(location) {
		if parsed, err := url.Parse(location); err == nil {
			name = strings.Trim(parsed.Path, "/")
			if name == "" {
				return parsed.Host
			}
		}
	}
	name = filepath.Base(name)
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
