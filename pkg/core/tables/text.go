package tables

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/models"
)

var (
	// Runs of dashes, equals or underscores with optional '+' joints and spacing.
	ruleLine        = regexp.MustCompile(`^[\s\-=_+|:]*$`)
	whitespaceSplit = regexp.MustCompile(`\s{2,}|\t+`)
)

// textTable is a text-path table with the line it starts at, for ordering.
type textTable struct {
	start int
	table models.Table
}

// textTables finds tables in a line sequence: legacy <TABLE> blocks when enabled,
// then runs of pattern-matching lines outside those blocks.
func (e *Extractor) textTables(lines []markup.Line, legacy bool) ([]models.Table, []*ParseError) {
	var (
		found []textTable
		errs  []*ParseError
	)
	consumed := make([]bool, len(lines))

	if legacy {
		for _, b := range legacyBlocks(lines) {
			for i := b.start; i <= b.end; i++ {
				consumed[i] = true
			}
			t, err := guard(func() (*models.Table, error) { return e.legacyTable(lines, b), nil })
			if err != nil {
				errs = append(errs, &ParseError{Kind: models.TableKindText, Position: b.start, Err: err})
				continue
			}
			if t != nil {
				found = append(found, textTable{start: b.start, table: *t})
			}
		}
	}

	for i := 0; i < len(lines); {
		delim, ok := e.match(lines, consumed, i)
		if !ok {
			i++
			continue
		}
		run, last, data := e.collectRun(lines, consumed, i)
		if data >= e.opts.MinRunLines {
			start := i
			t, err := guard(func() (*models.Table, error) { return e.runTable(lines, run, start, delim), nil })
			if err != nil {
				errs = append(errs, &ParseError{Kind: models.TableKindText, Position: start, Err: err})
			} else if t != nil {
				found = append(found, textTable{start: start, table: *t})
			}
		}
		i = last + 1
	}

	sort.SliceStable(found, func(a, b int) bool { return found[a].start < found[b].start })
	out := make([]models.Table, len(found))
	for i, f := range found {
		out[i] = f.table
	}
	return out, errs
}

// match returns the delimiter of the first pattern matching line i.
func (e *Extractor) match(lines []markup.Line, consumed []bool, i int) (Delimiter, bool) {
	if consumed[i] {
		return "", false
	}
	for _, p := range e.patterns {
		if p.re.MatchString(lines[i].Text) {
			return p.delim, true
		}
	}
	return "", false
}

// collectRun gathers the matching lines of a run that starts at start. Up to
// MaxBlankGap blank lines may separate two matching lines, and rule lines keep
// the run going. It returns the line indexes of the run, the last index it covers
// and how many of its lines are pattern-matching data lines; rule lines are not
// counted.
func (e *Extractor) collectRun(lines []markup.Line, consumed []bool, start int) ([]int, int, int) {
	run := []int{start}
	last := start
	blanks := 0
	data := 0
	if !ruleLine.MatchString(lines[start].Text) {
		data++
	}
	for j := start + 1; j < len(lines); j++ {
		if consumed[j] {
			break
		}
		text := lines[j].Text
		if strings.TrimSpace(text) == "" {
			blanks++
			if blanks > e.opts.MaxBlankGap {
				break
			}
			continue
		}
		_, matched := e.match(lines, consumed, j)
		rule := ruleLine.MatchString(text)
		if !matched && !rule {
			break
		}
		if matched && !rule {
			data++
		}
		run = append(run, j)
		last = j
		blanks = 0
	}
	return run, last, data
}

// runTable splits a run into rows. The delimiter is fixed by the run's first line.
// The first data row sets the column count: longer rows have their surplus merged
// into the last cell, shorter rows are padded. Rule lines produce no row.
func (e *Extractor) runTable(lines []markup.Line, run []int, start int, delim Delimiter) *models.Table {
	var rows [][]string
	width := 0
	for _, idx := range run {
		text := lines[idx].Text
		if ruleLine.MatchString(text) {
			continue
		}
		cells := splitCells(text, delim)
		if len(cells) == 0 {
			continue
		}
		if width == 0 {
			width = len(cells)
		} else if len(cells) > width {
			merged := strings.Join(cells[width-1:], " ")
			cells = append(cells[:width-1:width-1], merged)
		}
		rows = append(rows, cells)
	}

	rows = rectangularize(rows)
	if e.opts.CompactEmpty {
		rows = compact(rows)
	}
	if !e.keep(rows, 1) {
		return nil
	}
	return &models.Table{
		Kind:  models.TableKindText,
		Title: e.textTitle(lines, start),
		Rows:  rows,
	}
}

func splitCells(line string, delim Delimiter) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var parts []string
	if delim == DelimiterPipe {
		line = strings.TrimPrefix(line, "|")
		line = strings.TrimSuffix(line, "|")
		parts = strings.Split(line, "|")
	} else {
		parts = whitespaceSplit.Split(line, -1)
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// textTitle looks back from the run's first line for a short line that is neither
// blank, a rule, nor itself table-like.
func (e *Extractor) textTitle(lines []markup.Line, start int) *string {
	examined := 0
	for i := start - 1; i >= 0 && examined < e.opts.TitleLookback; i-- {
		text := strings.Join(strings.Fields(lines[i].Text), " ")
		if text == "" {
			continue
		}
		examined++
		if ruleLine.MatchString(text) || tabularText(text) || e.matchesAny(lines[i].Text) {
			continue
		}
		if utf8.RuneCountInString(text) < e.opts.MaxTitleLength {
			return &text
		}
	}
	return nil
}

func (e *Extractor) matchesAny(line string) bool {
	for _, p := range e.patterns {
		if p.re.MatchString(line) {
			return true
		}
	}
	return false
}

// =============================================================================
// LEGACY SGML TABLES
// =============================================================================

// legacyBlock is an inclusive line range from <TABLE> to </TABLE>.
type legacyBlock struct {
	start, end int
}

func legacyBlocks(lines []markup.Line) []legacyBlock {
	var blocks []legacyBlock
	open := -1
	for i, l := range lines {
		tag := strings.ToUpper(strings.TrimSpace(l.Text))
		switch {
		case strings.HasPrefix(tag, "<TABLE>"):
			open = i
		case strings.HasPrefix(tag, "</TABLE>") && open >= 0:
			blocks = append(blocks, legacyBlock{start: open, end: i})
			open = -1
		}
	}
	return blocks
}

// legacyTable reads a pre-HTML table. The first <CAPTION> line is the title and the
// remaining caption lines are header rows; <S> and <C> lines only mark column starts.
func (e *Extractor) legacyTable(lines []markup.Line, b legacyBlock) *models.Table {
	var (
		title     *string
		rows      [][]string
		inCaption bool
	)
	for i := b.start + 1; i < b.end; i++ {
		raw := lines[i].Text
		trimmed := strings.TrimSpace(raw)
		upper := strings.ToUpper(trimmed)
		switch {
		case upper == "":
			continue
		case strings.HasPrefix(upper, "<CAPTION>"):
			inCaption = true
			trimmed = strings.TrimSpace(trimmed[len("<CAPTION>"):])
			if trimmed == "" {
				continue
			}
		case strings.HasPrefix(upper, "</CAPTION>"):
			inCaption = false
			continue
		case strings.HasPrefix(upper, "<S>") || strings.HasPrefix(upper, "<C>"):
			inCaption = false
			continue
		case strings.HasPrefix(upper, "<FN>") || strings.HasPrefix(upper, "</FN>") || strings.HasPrefix(upper, "<PAGE>"):
			continue
		}
		if ruleLine.MatchString(trimmed) {
			continue
		}
		if inCaption && title == nil && !tabularText(trimmed) {
			text := strings.Join(strings.Fields(trimmed), " ")
			title = &text
			continue
		}
		rows = append(rows, splitCells(trimmed, DelimiterWhitespace))
	}

	rows = rectangularize(rows)
	if e.opts.CompactEmpty {
		rows = compact(rows)
	}
	if !e.keep(rows, 1) {
		return nil
	}
	if title == nil {
		title = e.textTitle(lines, b.start)
	}
	return &models.Table{Kind: models.TableKindText, Title: title, Rows: rows}
}
