package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/glosa/internal/model"
)

// ErrMalformedResponse means the review text held no usable suggestions
// object. Callers treat it as zero suggestions.
var ErrMalformedResponse = errors.New("malformed review response")

// DefaultReason is used for improvements returned without a reason
const DefaultReason = "Melhoria sugerida pela IA"

type responsePayload struct {
	Suggestions []responseEntry `json:"suggestions"`
}

type responseEntry struct {
	OriginalText  string `json:"originalText"`
	SuggestedText string `json:"suggestedText"`
	Reason        string `json:"reason"`
}

// ParseSuggestions extracts improvements from free-form review text. The
// text may wrap the JSON object in prose or a code fence. The first
// balanced object holding a "suggestions" key wins; failing that, the span
// from the first '{' to the last '}' is tried.
//
// Improvements get IDs derived from now and their index, and a zero-length
// placeholder range: offsets are not resolved against the chapter text.
func ParseSuggestions(raw string, now time.Time) ([]model.Suggestion, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	if s == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if inner, ok := stripCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}

	payload, err := findPayload(s)
	if err != nil {
		return nil, err
	}

	stamp := now.UnixMilli()
	out := make([]model.Suggestion, 0, len(payload.Suggestions))
	for i, e := range payload.Suggestions {
		reason := e.Reason
		if reason == "" {
			reason = DefaultReason
		}
		out = append(out, model.Suggestion{
			ID:            fmt.Sprintf("ai-%d-%d", stamp, i),
			Kind:          model.KindImprovement,
			OriginalText:  e.OriginalText,
			SuggestedText: e.SuggestedText,
			Range:         model.Range{},
			Status:        model.StatusPending,
			Reason:        reason,
		})
	}
	return out, nil
}

func findPayload(s string) (responsePayload, error) {
	var lastErr error

	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		candidate, ok := balancedObject(s, i)
		if !ok || !strings.Contains(candidate, `"suggestions"`) {
			continue
		}
		p, err := decodePayload(candidate)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}

	// Greedy fallback for objects the balanced scan could not close
	first, last := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if first >= 0 && last > first {
		candidate := s[first : last+1]
		if strings.Contains(candidate, `"suggestions"`) {
			p, err := decodePayload(candidate)
			if err == nil {
				return p, nil
			}
			lastErr = err
		}
	}

	if lastErr != nil {
		return responsePayload{}, fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
	}
	return responsePayload{}, fmt.Errorf("%w: no suggestions object found", ErrMalformedResponse)
}

func decodePayload(candidate string) (responsePayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return responsePayload{}, err
	}
	raw, ok := fields["suggestions"]
	if !ok {
		return responsePayload{}, errors.New(`missing "suggestions" key`)
	}

	var p responsePayload
	if string(raw) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p.Suggestions); err != nil {
		return responsePayload{}, fmt.Errorf("decode suggestions: %w", err)
	}
	return p, nil
}

// stripCodeFence unwraps s when it starts with a ``` or ~~~ fenced block,
// with or without a language tag
func stripCodeFence(s string) (string, bool) {
	for _, fence := range []string{"```", "~~~"} {
		if !strings.HasPrefix(s, fence) {
			continue
		}
		rest := s[len(fence):]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return "", false
		}
		rest = rest[nl+1:]
		if end := strings.Index(rest, fence); end >= 0 {
			return rest[:end], true
		}
		return rest, true
	}
	return "", false
}

// balancedObject returns the JSON object opening at s[start], skipping
// braces inside strings
func balancedObject(s string, start int) (string, bool) {
	depth := 0
	inString, escape := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
