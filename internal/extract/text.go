package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// blockTags separate paragraphs in the plain-text projection
var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "pre": true, "div": true, "ul": true, "ol": true,
}

// skipTags never contribute visible text
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

// PlainText projects rich-text chapter content onto the plain text the
// scanner and the review service work with. Markup is dropped, entities
// are decoded, block boundaries become a blank line and <br> a newline,
// matching what the editor reports as the document text.
// Content without markup is returned unchanged apart from entity decoding.
func PlainText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))

	var buf strings.Builder
	skipDepth := 0
	pendingBreak := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; either way we keep what we have
			return buf.String()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if tag == "br" {
				buf.WriteString("\n")
				pendingBreak = false
				continue
			}
			if blockTags[tag] && buf.Len() > 0 {
				pendingBreak = true
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[tag] && buf.Len() > 0 {
				pendingBreak = true
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := string(z.Text())
			if text == "" {
				continue
			}
			if pendingBreak {
				// Formatting whitespace between blocks is not content
				if strings.TrimSpace(text) == "" {
					continue
				}
				buf.WriteString("\n\n")
				pendingBreak = false
			}
			buf.WriteString(text)
		}
	}
}

// IsBlockTag reports whether tag breaks the text flow of PlainText
func IsBlockTag(tag string) bool {
	return blockTags[tag] || tag == "br"
}

// IsHiddenTag reports whether the text inside tag is left out of PlainText
func IsHiddenTag(tag string) bool {
	return skipTags[tag]
}

// CharacterCount returns the number of characters in the plain-text
// projection of content
func CharacterCount(content string) int {
	return utf8.RuneCountInString(PlainText(content))
}
