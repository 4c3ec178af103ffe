// Package processor turns raw page markup and generated text into clean prose.
package processor

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// Article is the main content readability found in a page.
type Article struct {
	Title       string
	SiteName    string
	Byline      string
	Excerpt     string
	TextContent string
	Length      int
}

type ContentProcessor struct {
	strict *bluemonday.Policy
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{strict: bluemonday.StrictPolicy()}
}

// Process runs readability over a full page. pageURL may be empty.
func (cp *ContentProcessor) Process(rawHTML, pageURL string) (*Article, error) {
	var base *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
		}
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err != nil {
		return nil, fmt.Errorf("failed to process with readability: %w", err)
	}

	text := article.TextContent
	if strings.TrimSpace(text) == "" && article.Content != "" {
		text = cp.textFromHTML(article.Content)
	}

	return &Article{
		Title:       strings.TrimSpace(article.Title),
		SiteName:    strings.TrimSpace(article.SiteName),
		Byline:      strings.TrimSpace(article.Byline),
		Excerpt:     strings.TrimSpace(article.Excerpt),
		TextContent: cp.CleanNewlines(text),
		Length:      article.Length,
	}, nil
}

// ArticleText returns the cleaned main text of a page. It is the generic
// extractor's description fallback between <main> and the whole body.
func (cp *ContentProcessor) ArticleText(rawHTML, pageURL string) (string, error) {
	article, err := cp.Process(rawHTML, pageURL)
	if err != nil {
		return "", err
	}
	if article.TextContent == "" {
		return "", fmt.Errorf("no readable content in page")
	}
	return article.TextContent, nil
}

// StripMarkup removes every tag from s and decodes the entities the policy
// leaves escaped. Generated résumé and letter text goes through here before
// it is stored or written to disk.
func (cp *ContentProcessor) StripMarkup(s string) string {
	text := html.UnescapeString(cp.strict.Sanitize(s))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

func (cp *ContentProcessor) textFromHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text()
}

// WrapText breaks each paragraph at lineWidth columns. Non-positive widths
// leave the text untouched.
func (cp *ContentProcessor) WrapText(text string, lineWidth int) string {
	if lineWidth <= 0 {
		return text
	}

	paragraphs := strings.Split(text, "\n\n")
	wrapped := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		var lines []string
		for _, line := range strings.Split(paragraph, "\n") {
			lines = append(lines, wrapLine(line, lineWidth)...)
		}
		wrapped = append(wrapped, strings.Join(lines, "\n"))
	}
	return strings.Join(wrapped, "\n\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var out []string
	current := words[0]
	for _, word := range words[1:] {
		if len([]rune(current))+1+len([]rune(word)) <= width {
			current += " " + word
			continue
		}
		out = append(out, current)
		current = word
	}
	return append(out, current)
}

// CleanNewlines joins lines that were broken mid-sentence and collapses runs
// of spaces. Paragraph breaks (blank lines) and list items are kept.
func (cp *ContentProcessor) CleanNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		var lines []string
		for _, line := range strings.Split(paragraph, "\n") {
			line = strings.Join(strings.Fields(line), " ")
			if line == "" {
				continue
			}
			if n := len(lines); n > 0 && !endsSentence(lines[n-1]) && !startsSentence(line) {
				lines[n-1] += " " + line
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

func endsSentence(line string) bool {
	return strings.ContainsAny(line[len(line)-1:], ".!?:;")
}

func startsSentence(line string) bool {
	c := line[0]
	if c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
		return true
	}
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return true
		}
	}
	return false
}
