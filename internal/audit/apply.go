package audit

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/net/html"

	"github.com/ppiankov/glosa/internal/extract"
	"github.com/ppiankov/glosa/internal/model"
)

// ApplyReplacement rewrites every case-insensitive occurrence of the
// suggestion's original text in the visible text of content and returns
// the result with the number of occurrences replaced. Tags, attributes and
// script or style bodies are left as they are. An occurrence split by
// inline markup is written into the text node it starts in and removed
// from the nodes after it. The suggested text is HTML-escaped.
func ApplyReplacement(content string, sg model.Suggestion) (string, int) {
	if strings.TrimSpace(sg.OriginalText) == "" {
		return content, 0
	}

	tokens, runs := textRuns(content)
	needle := foldRunes(sg.OriginalText)
	replacement := []rune(sg.SuggestedText)

	count := 0
	for _, run := range runs {
		count += replaceInRun(tokens, run, needle, replacement)
	}
	if count == 0 {
		return content, 0
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, tok := range tokens {
		if tok.changed {
			b.WriteString(html.EscapeString(string(tok.text)))
		} else {
			b.WriteString(tok.raw)
		}
	}
	return b.String(), count
}

// ApplyAll applies every pending term alert to content, one replacement per
// distinct term
func ApplyAll(content string, suggestions []model.Suggestion) string {
	done := make(map[string]bool)
	for _, sg := range suggestions {
		if sg.Kind != model.KindTermAlert || sg.Status != model.StatusPending {
			continue
		}
		key := strings.ToLower(sg.OriginalText)
		if done[key] {
			continue
		}
		done[key] = true
		content, _ = ApplyReplacement(content, sg)
	}
	return content
}

type htmlToken struct {
	raw     string
	text    []rune // decoded text of a visible text node
	changed bool
}

// textRuns splits content into tokens and groups the visible text nodes
// into runs. A run ends at a block boundary, so matches never cross
// paragraphs.
func textRuns(content string) ([]htmlToken, [][]int) {
	z := html.NewTokenizer(strings.NewReader(content))

	var (
		tokens  []htmlToken
		runs    [][]int
		current []int
		hidden  int
	)
	endRun := func() {
		if len(current) > 0 {
			runs = append(runs, current)
			current = nil
		}
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// TagName lower-cases the tokenizer buffer in place; copy first
		tok := htmlToken{raw: string(z.Raw())}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case extract.IsHiddenTag(tag):
				endRun()
				if tt == html.StartTagToken {
					hidden++
				} else if tt == html.EndTagToken && hidden > 0 {
					hidden--
				}
			case extract.IsBlockTag(tag):
				endRun()
			}
		case html.TextToken:
			if hidden == 0 {
				tok.text = []rune(html.UnescapeString(tok.raw))
				current = append(current, len(tokens))
			}
		}
		tokens = append(tokens, tok)
	}
	endRun()
	return tokens, runs
}

// replaceInRun replaces the occurrences of needle in the concatenated text
// of run and returns how many it replaced
func replaceInRun(tokens []htmlToken, run []int, needle, replacement []rune) int {
	var (
		original []rune
		owner    []int // position in run of each rune
	)
	for i, idx := range run {
		for _, r := range tokens[idx].text {
			original = append(original, r)
			owner = append(owner, i)
		}
	}
	folded := foldRunes(string(original))

	n := len(needle)
	var matches []int
	for start := 0; start+n <= len(folded); {
		idx := indexRunes(folded[start:], needle)
		if idx < 0 {
			break
		}
		matches = append(matches, start+idx)
		start += idx + n
	}
	if len(matches) == 0 {
		return 0
	}

	rebuilt := make([][]rune, len(run))
	touched := make([]bool, len(run))
	for pos, next := 0, 0; pos < len(original); {
		if next < len(matches) && pos == matches[next] {
			rebuilt[owner[pos]] = append(rebuilt[owner[pos]], replacement...)
			for _, o := range owner[pos : pos+n] {
				touched[o] = true
			}
			pos += n
			next++
			continue
		}
		rebuilt[owner[pos]] = append(rebuilt[owner[pos]], original[pos])
		pos++
	}

	for i, idx := range run {
		if touched[i] {
			tokens[idx].text = rebuilt[i]
			tokens[idx].changed = true
		}
	}
	return len(matches)
}

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
		if haystack[i] == needle[0] && slices.Equal(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}

// ChangeSet describes the effect of applying suggestions to a chapter
type ChangeSet struct {
	Before    string `json:"before"`
	After     string `json:"after"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	pretty    string
}

// Changed reports whether applying suggestions altered the content
func (c ChangeSet) Changed() bool {
	return c.Before != c.After
}

// Pretty returns a terminal-coloured rendering of the diff
func (c ChangeSet) Pretty() string {
	return c.pretty
}

// Diff computes the change set between two versions of a chapter
func Diff(before, after string) ChangeSet {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	cs := ChangeSet{
		Before: before,
		After:  after,
		Patch:  dmp.PatchToText(dmp.PatchMake(before, diffs)),
		pretty: dmp.DiffPrettyText(diffs),
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			cs.Additions += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			cs.Deletions += utf8.RuneCountInString(d.Text)
		}
	}

	return cs
}
