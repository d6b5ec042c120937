package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"edgar_extract/pkg/models"
)

var renderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders the extracted documents as one readable page: a heading per
// document, its section tree as nested headings, then its tables.
func Markdown(res *models.FilingResult) []byte {
	var b bytes.Buffer

	title := res.FormType
	if res.Filing != nil && res.Filing.Metadata.CompanyName != "" {
		title = res.Filing.Metadata.CompanyName + " " + title
	}
	fmt.Fprintf(&b, "# %s\n\n", inline(strings.TrimSpace(title)))

	for _, d := range res.Documents {
		if d.Status != models.StatusProcessed {
			continue
		}
		fmt.Fprintf(&b, "## Document %d: %s\n\n", d.Document.Index, inline(d.Document.TypeTag))
		if d.Sections != nil {
			writeBody(&b, d.Sections.Body)
			for _, c := range d.Sections.Children {
				c.Walk(func(s *models.Section) {
					fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", min(6, s.Level+2)), inline(s.Title))
					writeBody(&b, s.Body)
				})
			}
		}
		for i := range d.Tables {
			writeTable(&b, &d.Tables[i])
		}
	}
	return b.Bytes()
}

func writeBody(b *bytes.Buffer, body string) {
	for _, para := range strings.Split(strings.TrimSpace(body), "\n") {
		if para = strings.TrimSpace(para); para != "" {
			b.WriteString(escapeLine(para))
			b.WriteString("\n\n")
		}
	}
}

// escapeLine keeps a body line from being read as a heading, list, rule or table.
func escapeLine(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	switch s[0] {
	case '#', '-', '+', '*', '=', '>', '_':
		return `\` + s
	}
	return s
}

func inline(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", `\|`)
}

func writeTable(b *bytes.Buffer, t *models.Table) {
	if len(t.Rows) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", inline(t.TitleOr(fmt.Sprintf("Table %d", t.Index))))
	row := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(inline(c))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	row(t.Rows[0])
	b.WriteString("|")
	for range t.Rows[0] {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range t.Rows[1:] {
		row(r)
	}
	b.WriteString("\n")
}

// ValidateMarkdown reports whether goldmark parses the input into a document
// with at least one block.
func ValidateMarkdown(input []byte) bool {
	doc := renderer.Parser().Parse(text.NewReader(input))
	return doc != nil && doc.HasChildren()
}

// RenderHTML converts markdown to a standalone HTML page.
func RenderHTML(markdown []byte, title string) ([]byte, error) {
	var body bytes.Buffer
	if err := renderer.Convert(markdown, &body); err != nil {
		return nil, err
	}
	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
