// Package markup turns a document body into the line sequence the section and
// table extractors share.
//
// HTML bodies are cleaned with goquery (noise removal, styled-heading promotion),
// passed through a bluemonday allow-list, and flattened with golang.org/x/net/html.
// Plain-text bodies are split on newlines.
package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Line is one rendered line of a document. Rank is 1-6 for lines produced by
// heading markup (h1-h6) and 0 otherwise.
type Line struct {
	Text string
	Rank int
}

// Options controls HTML preparation.
type Options struct {
	PromoteStyledHeadings bool
}

// Content is a prepared document body.
type Content struct {
	IsHTML bool
	Doc    *goquery.Document // nil for plain text
	Lines  []Line
}

// HasHeadings reports whether any line came from heading markup.
func (c *Content) HasHeadings() bool {
	for _, l := range c.Lines {
		if l.Rank > 0 {
			return true
		}
	}
	return false
}

// Preparer converts bodies into Content. It is safe for concurrent use.
type Preparer struct {
	sanitizer *sanitizer
}

// NewPreparer builds a Preparer for opts.
func NewPreparer(opts Options) *Preparer {
	return &Preparer{sanitizer: newSanitizer(opts.PromoteStyledHeadings)}
}

// Prepare parses body. An HTML body that cannot be parsed is treated as plain text.
func (p *Preparer) Prepare(body string, isHTML bool) *Content {
	if isHTML {
		if doc, err := p.sanitizer.sanitize(body); err == nil {
			return &Content{IsHTML: true, Doc: doc, Lines: flatten(doc.Nodes[0])}
		}
	}
	return &Content{Lines: TextLines(body)}
}

// TextLines splits a plain-text body into lines, dropping carriage returns and the
// empty element after a trailing newline.
func TextLines(body string) []Line {
	if body == "" {
		return nil
	}
	body = strings.TrimSuffix(body, "\n")
	raw := strings.Split(body, "\n")
	lines := make([]Line, len(raw))
	for i, l := range raw {
		lines[i] = Line{Text: strings.TrimSuffix(l, "\r")}
	}
	return lines
}
