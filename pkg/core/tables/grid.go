package tables

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"edgar_extract/pkg/core/markup"
)

// maxSpan bounds a single colspan/rowspan attribute.
const maxSpan = 1000

// gridCell is one td/th before placement.
type gridCell struct {
	Text    string
	ColSpan int
	RowSpan int
}

// virtualGrid places cells on a row/column grid so spanned cells keep later cells
// aligned. Slots covered by a span are left empty; only the origin slot holds text.
type virtualGrid struct {
	cells    [][]string
	taken    [][]bool
	maxCells int
	used     int
}

func newVirtualGrid(maxCells int) *virtualGrid {
	return &virtualGrid{maxCells: maxCells}
}

func (g *virtualGrid) ensure(r, c int) error {
	for len(g.cells) <= r {
		g.cells = append(g.cells, nil)
		g.taken = append(g.taken, nil)
	}
	for len(g.cells[r]) <= c {
		g.used++
		if g.maxCells > 0 && g.used > g.maxCells {
			return fmt.Errorf("table grid exceeds %d cells", g.maxCells)
		}
		g.cells[r] = append(g.cells[r], "")
		g.taken[r] = append(g.taken[r], false)
	}
	return nil
}

func (g *virtualGrid) occupied(r, c int) bool {
	return r < len(g.taken) && c < len(g.taken[r]) && g.taken[r][c]
}

// addRow places one source row at grid row r.
func (g *virtualGrid) addRow(r int, row []gridCell) error {
	if err := g.ensure(r, 0); err != nil {
		return err
	}
	col := 0
	for _, cell := range row {
		for g.occupied(r, col) {
			col++
		}
		for dr := 0; dr < cell.RowSpan; dr++ {
			for dc := 0; dc < cell.ColSpan; dc++ {
				if err := g.ensure(r+dr, col+dc); err != nil {
					return err
				}
				g.taken[r+dr][col+dc] = true
				if dr == 0 && dc == 0 {
					g.cells[r+dr][col+dc] = cell.Text
				}
			}
		}
		col += cell.ColSpan
	}
	return nil
}

// rows returns the placed grid. Rows created only by a trailing rowspan are kept.
func (g *virtualGrid) rows() [][]string {
	return g.cells
}

// tableRowNodes returns the table's own rows, including those of thead/tbody/tfoot,
// but not rows of nested tables.
func tableRowNodes(table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			rows = append(rows, c)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.DataAtom == atom.Tr {
					rows = append(rows, tr)
				}
			}
		}
	}
	return rows
}

// rowCells reads the td/th children of a row.
func rowCells(tr *html.Node, normalize bool) []gridCell {
	var cells []gridCell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		text := cleanCellText(markup.CellText(c), normalize)
		cells = append(cells, gridCell{
			Text:    text,
			ColSpan: spanAttr(c, "colspan"),
			RowSpan: spanAttr(c, "rowspan"),
		})
	}
	return cells
}

func spanAttr(n *html.Node, key string) int {
	for _, a := range n.Attr {
		if a.Key != key {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(a.Val))
		if err != nil || v < 1 {
			return 1
		}
		if v > maxSpan {
			return maxSpan
		}
		return v
	}
	return 1
}

// cleanCellText normalizes one HTML cell. With normalize set, the lone currency,
// percent and closing-paren cells EDGAR emits beside figures are blanked and
// accounting figures are converted.
func cleanCellText(text string, normalize bool) string {
	text = strings.TrimSpace(text)
	if !normalize {
		return text
	}
	switch text {
	case "$", "%", ")", "€", "£":
		return ""
	}
	return normalizeNumber(text)
}

// normalizeNumber converts accounting-format numbers to plain ones.
// "(1,234)" -> "-1234", "$ 1,234.5" -> "1234.5"; anything else is returned as-is.
func normalizeNumber(text string) string {
	original := text

	hasDigit := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return original
	}

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}

	text = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "").Replace(text)
	text = strings.TrimSpace(text)

	for _, r := range text {
		if !((r >= '0' && r <= '9') || r == '.' || r == '-') {
			return original
		}
	}
	if text == "" || text == "-" || text == "." {
		return original
	}
	if negative && !strings.HasPrefix(text, "-") {
		text = "-" + text
	}
	return text
}

// rectangularize pads every row to the widest row's length.
func rectangularize(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}

// compact drops rows and columns whose cells are all empty. Input must be rectangular.
func compact(rows [][]string) [][]string {
	var kept [][]string
	for _, r := range rows {
		for _, c := range r {
			if c != "" {
				kept = append(kept, r)
				break
			}
		}
	}
	if len(kept) == 0 {
		return nil
	}

	width := len(kept[0])
	var cols []int
	for c := 0; c < width; c++ {
		for _, r := range kept {
			if r[c] != "" {
				cols = append(cols, c)
				break
			}
		}
	}
	if len(cols) == width {
		return kept
	}
	out := make([][]string, len(kept))
	for i, r := range kept {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = r[c]
		}
		out[i] = row
	}
	return out
}

// widestRow returns the largest count of non-empty cells in any row.
func widestRow(rows [][]string) int {
	widest := 0
	for _, r := range rows {
		n := 0
		for _, c := range r {
			if c != "" {
				n++
			}
		}
		if n > widest {
			widest = n
		}
	}
	return widest
}
