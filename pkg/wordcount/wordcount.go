package wordcount

import (
	"bufio"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// TextMode selects how rendered content is turned into countable text.
type TextMode string

const (
	// TextModeRaw counts tokens over the rendered HTML exactly as delivered,
	// so tag and attribute names are counted too.
	TextModeRaw TextMode = "raw"
	// TextModeText strips markup and counts visible text only.
	TextModeText TextMode = "text"
	// TextModeArticle runs readability first and counts the main article text.
	TextModeArticle TextMode = "article"
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// articleBase resolves relative links inside content fragments.
var articleBase = &url.URL{Scheme: "https", Host: "localhost", Path: "/"}

// ParseTextMode converts a flag value to a TextMode. Empty means raw.
func ParseTextMode(s string) (TextMode, error) {
	switch TextMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TextModeRaw:
		return TextModeRaw, nil
	case TextModeText:
		return TextModeText, nil
	case TextModeArticle:
		return TextModeArticle, nil
	}
	return "", fmt.Errorf("unknown text mode %q (want raw, text or article)", s)
}

// Count returns the number of word-like tokens in text. No match counts as 0.
func Count(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// CountContent extracts text from rendered content using mode and counts it.
func CountContent(rendered string, mode TextMode) int {
	return Count(Extract(rendered, mode))
}

// Extract turns rendered HTML into text according to mode.
// Extraction problems fall back to the raw input.
func Extract(rendered string, mode TextMode) string {
	switch mode {
	case TextModeText:
		if text, err := visibleText(rendered); err == nil {
			return text
		}
	case TextModeArticle:
		if text, err := articleText(rendered); err == nil {
			return text
		}
		if text, err := visibleText(rendered); err == nil {
			return text
		}
	}
	return rendered
}

func visibleText(rendered string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script,style,noscript").Remove()
	return normalizeText(doc.Text()), nil
}

func articleText(rendered string) (string, error) {
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rendered), articleBase)
	if err != nil {
		return "", fmt.Errorf("readability failed: %w", err)
	}
	text := normalizeText(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("readability found no article text")
	}
	return text, nil
}

// normalizeText trims each line and joins the non-empty ones with single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
