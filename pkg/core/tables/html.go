package tables

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/models"
)

// htmlTables reads every <table> in document order until limit tables are kept.
// A table that fails to parse is reported and skipped.
func (e *Extractor) htmlTables(doc *goquery.Document, limit int) ([]models.Table, []*ParseError) {
	var (
		found []models.Table
		errs  []*ParseError
	)
	doc.Find("table").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if limit > 0 && len(found) >= limit {
			return false
		}
		t, err := guard(func() (*models.Table, error) { return e.htmlTable(sel) })
		if err != nil {
			errs = append(errs, &ParseError{Kind: models.TableKindHTML, Position: i, Err: err})
			return true
		}
		if t != nil {
			found = append(found, *t)
		}
		return true
	})
	return found, errs
}

// htmlTable converts one table element. It returns nil for tables that fail the
// size rules.
func (e *Extractor) htmlTable(sel *goquery.Selection) (*models.Table, error) {
	node := sel.Nodes[0]
	grid := newVirtualGrid(e.opts.MaxCells)
	for r, tr := range tableRowNodes(node) {
		if err := grid.addRow(r, rowCells(tr, e.opts.NormalizeNumbers)); err != nil {
			return nil, err
		}
	}

	rows := rectangularize(grid.rows())
	if e.opts.CompactEmpty {
		rows = compact(rows)
	}
	if !e.keep(rows, e.opts.MinRows) {
		return nil, nil
	}

	return &models.Table{
		Kind:  models.TableKindHTML,
		Title: e.htmlTitle(sel),
		Rows:  rows,
	}, nil
}

// keep applies the discard rules shared by both paths.
func (e *Extractor) keep(rows [][]string, minRows int) bool {
	if len(rows) == 0 || len(rows) < minRows {
		return false
	}
	return widestRow(rows) >= e.opts.MinColumns
}

// htmlTitle takes the <caption>, or else the nearest short, non-tabular text among
// the preceding siblings. When the table is wrapped (a div per table is common in
// EDGAR HTML) the search continues from the wrapper.
func (e *Extractor) htmlTitle(sel *goquery.Selection) *string {
	if caption := strings.TrimSpace(sel.ChildrenFiltered("caption").First().Text()); caption != "" {
		caption = strings.Join(strings.Fields(caption), " ")
		return &caption
	}

	examined := 0
	for node := sel.Nodes[0]; node != nil && examined < e.opts.TitleLookback; node = node.Parent {
		for sib := node.PrevSibling; sib != nil && examined < e.opts.TitleLookback; sib = sib.PrevSibling {
			text := siblingText(sib)
			if text == "" {
				continue
			}
			examined++
			if containsTable(sib) || tabularText(text) {
				continue
			}
			if utf8.RuneCountInString(text) < e.opts.MaxTitleLength {
				return &text
			}
		}
		if stopClimb(node.Parent) {
			break
		}
	}
	return nil
}

func siblingText(n *html.Node) string {
	switch n.Type {
	case html.TextNode, html.ElementNode:
		return markup.CellText(n)
	}
	return ""
}

func containsTable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.Table {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if containsTable(c) {
			return true
		}
	}
	return false
}

// stopClimb reports whether the title search must not continue past parent.
func stopClimb(parent *html.Node) bool {
	if parent == nil || parent.Type != html.ElementNode {
		return true
	}
	switch parent.DataAtom {
	case atom.Body, atom.Html, atom.Td, atom.Th, atom.Tr, atom.Table:
		return true
	}
	return false
}

// tabularText reports whether a line reads like table data rather than a caption:
// mostly numeric tokens, or cell separators.
func tabularText(text string) bool {
	if strings.Contains(text, markup.CellSeparator) || strings.Count(text, "|") >= 2 {
		return true
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	numeric := 0
	for _, f := range fields {
		if numericToken(f) {
			numeric++
		}
	}
	return numeric*2 > len(fields)
}

func numericToken(f string) bool {
	digits := 0
	for _, r := range f {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune("$€£()%,.-—", r):
		default:
			return false
		}
	}
	return digits > 0 || f == "—" || f == "-"
}
