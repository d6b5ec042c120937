package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CellSeparator joins the cell texts of a table row when the row is flattened to a line.
const CellSeparator = " | "

var blockElements = map[atom.Atom]bool{
	atom.Html: true, atom.Body: true, atom.P: true, atom.Div: true, atom.Table: true,
	atom.Thead: true, atom.Tbody: true, atom.Tfoot: true, atom.Caption: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Blockquote: true, atom.Center: true, atom.Hr: true, atom.Section: true,
	atom.Article: true, atom.Header: true, atom.Footer: true, atom.Address: true, atom.Form: true,
}

// flattener walks a parsed document and emits one Line per rendered block.
type flattener struct {
	lines []Line
	cur   strings.Builder
	rank  int
}

func flatten(root *html.Node) []Line {
	f := &flattener{}
	f.walk(root)
	f.flush()
	return f.lines
}

func (f *flattener) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		f.writeInline(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f.walk(c)
		}
		return
	}

	switch {
	case n.DataAtom == atom.Br:
		f.flush()
	case headingRank(n) > 0:
		f.flush()
		f.rank = headingRank(n)
		f.children(n)
		f.flush()
		f.rank = 0
	case n.DataAtom == atom.Tr:
		f.flush()
		if row := rowText(n); row != "" {
			f.lines = append(f.lines, Line{Text: row})
		}
	case n.DataAtom == atom.Pre:
		f.flush()
		f.writePre(textContent(n))
	case blockElements[n.DataAtom]:
		f.flush()
		f.children(n)
		f.flush()
	default:
		f.children(n)
	}
}

func (f *flattener) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c)
	}
}

func (f *flattener) writeInline(text string) {
	collapsed := collapseSpace(text)
	if collapsed == "" {
		return
	}
	if f.cur.Len() == 0 {
		collapsed = strings.TrimLeft(collapsed, " ")
	}
	f.cur.WriteString(collapsed)
}

// writePre keeps preformatted lines verbatim, blank lines included, so text tables
// inside <pre> keep their column alignment.
func (f *flattener) writePre(text string) {
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(strings.ReplaceAll(l, "\u00a0", " "), " \t\r")
		f.lines = append(f.lines, Line{Text: l})
	}
}

func (f *flattener) flush() {
	text := strings.TrimSpace(f.cur.String())
	f.cur.Reset()
	if text == "" {
		return
	}
	f.lines = append(f.lines, Line{Text: text, Rank: f.rank})
}

// rowText renders a table row as its non-empty cell texts joined by CellSeparator.
func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if t := CellText(c); t != "" {
			cells = append(cells, t)
		}
	}
	return strings.Join(cells, CellSeparator)
}

// CellText returns the whitespace-collapsed text of a node and its descendants.
func CellText(n *html.Node) string {
	return strings.TrimSpace(collapseSpace(textContent(n)))
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace maps every whitespace run (including non-breaking spaces) to one space.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v', '\u00a0', '\u2002', '\u2003', '\u2009', '\u200b':
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func headingRank(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}
