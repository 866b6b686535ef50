package extract

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"unicode"

	"github.com/ppiankov/glosa/internal/model"
)

// TermScanner finds forbidden terms in chapter text
type TermScanner struct {
	rules []compiledRule
}

type compiledRule struct {
	rule   model.ForbiddenTermRule
	folded []rune // lower-cased term
}

// NewTermScanner creates a scanner for the given rules.
// Rules with a blank term are ignored.
func NewTermScanner(rules []model.ForbiddenTermRule) *TermScanner {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		term := strings.TrimSpace(r.Term)
		if term == "" {
			continue
		}
		folded := foldRunes(term)
		compiled = append(compiled, compiledRule{rule: r, folded: folded})
	}
	return &TermScanner{rules: compiled}
}

// Rules returns the rules the scanner matches against
func (s *TermScanner) Rules() []model.ForbiddenTermRule {
	out := make([]model.ForbiddenTermRule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.rule
	}
	return out
}

// Scan yields a term alert for every case-insensitive occurrence of a rule
// term in text. Occurrences of the same term never overlap; occurrences of
// different terms may. Alerts come in rule order, then by offset.
//
// The sequence is a pure function of text: iterating it twice yields the
// same alerts with the same IDs.
func (s *TermScanner) Scan(text string) iter.Seq[model.Suggestion] {
	return func(yield func(model.Suggestion) bool) {
		original := []rune(text)
		folded := foldRunes(text)

		for _, r := range s.rules {
			n := len(r.folded)
			start := 0
			for start+n <= len(folded) {
				idx := indexRunes(folded[start:], r.folded)
				if idx < 0 {
					break
				}
				pos := start + idx
				if !yield(r.alert(original[pos:pos+n], pos)) {
					return
				}
				start = pos + n
			}
		}
	}
}

// ScanAll collects Scan into a slice
func (s *TermScanner) ScanAll(text string) []model.Suggestion {
	return slices.Collect(s.Scan(text))
}

// TermAlertID derives the stable identifier of a match from the term and
// its start offset
func TermAlertID(term string, start int) string {
	return fmt.Sprintf("term-%s-%d", string(foldRunes(strings.TrimSpace(term))), start)
}

func (r compiledRule) alert(span []rune, pos int) model.Suggestion {
	return model.Suggestion{
		ID:            TermAlertID(r.rule.Term, pos),
		Kind:          model.KindTermAlert,
		OriginalText:  string(span),
		SuggestedText: r.rule.Suggestion,
		Range:         model.Range{Start: pos, End: pos + len(span)},
		Status:        model.StatusPending,
		Reason:        r.rule.Reason,
		Reference:     r.rule.Reference,
	}
}

// foldRunes lower-cases rune by rune so offsets in the result line up with
// offsets in the input
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(haystack); i++ {
		if haystack[i] != needle[0] {
			continue
		}
		if slices.Equal(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}
