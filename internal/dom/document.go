// Package dom exposes a read-only view of a rendered page to the extractors.
package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Element is a single located node.
type Element interface {
	// Text returns the trimmed text content of the node and its descendants.
	Text() string
	// Attr returns the raw attribute value.
	Attr(name string) (string, bool)
}

// Document is the accessor the matcher runs against. Implementations must not
// mutate the underlying page.
type Document interface {
	// Lookup returns the first element matching selector. The error is non-nil
	// only when the selector cannot be compiled.
	Lookup(selector string) (Element, bool, error)
	Title() string
	VisibleText() string
	HTML() string
}

var invisibleSelectors = "script, style, noscript, template"

type goqueryDocument struct {
	doc  *goquery.Document
	html string
}

type goqueryElement struct {
	sel *goquery.Selection
}

// Parse builds a Document from serialized HTML.
func Parse(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &goqueryDocument{doc: doc, html: html}, nil
}

func (d *goqueryDocument) Lookup(selector string) (Element, bool, error) {
	// goquery swallows compile errors and returns an empty selection, so the
	// selector is compiled here to tell "invalid" apart from "absent".
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	sel := d.doc.FindMatcher(matcher).First()
	if sel.Length() == 0 {
		return nil, false, nil
	}
	return goqueryElement{sel: sel}, true, nil
}

func (d *goqueryDocument) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

func (d *goqueryDocument) VisibleText() string {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		body = d.doc.Selection
	}

	clone := body.Clone()
	clone.Find(invisibleSelectors).Remove()
	return strings.TrimSpace(clone.Text())
}

func (d *goqueryDocument) HTML() string {
	return d.html
}

func (e goqueryElement) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

func (e goqueryElement) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}
