package tables

import (
	"fmt"
	"regexp"
)

// Delimiter is the column-splitting rule of a text table.
type Delimiter string

const (
	DelimiterPipe       Delimiter = "pipe"       // cells separated by '|'
	DelimiterWhitespace Delimiter = "whitespace" // cells separated by 2+ spaces or tabs
)

// LinePattern marks a plain-text line as part of a table.
type LinePattern struct {
	Pattern   string    `yaml:"pattern" json:"pattern"`
	Delimiter Delimiter `yaml:"delimiter" json:"delimiter"`
}

// DefaultPatterns are tried in order; the first match decides a line's delimiter.
func DefaultPatterns() []LinePattern {
	return []LinePattern{
		{Pattern: `^\s*[-+=]{3,}\s+[-+=]{3,}`, Delimiter: DelimiterWhitespace},
		{Pattern: `^\s*\|\s+.*\s+\|\s*$`, Delimiter: DelimiterPipe},
		{Pattern: `^\s*\w+\s+\d+\s+\d+\s+\d+\s+\d+`, Delimiter: DelimiterWhitespace},
		{Pattern: `^\s*[A-Za-z(][^|]*?\S(?:\s{2,}|\t+)\(?\$?\s*\(?[\d,]+(?:\.\d+)?\)?%?\s*$`, Delimiter: DelimiterWhitespace},
	}
}

// Options bounds and tunes table extraction.
type Options struct {
	MaxTables        int // per document; 0 means no cap
	MinRows          int // HTML tables with fewer rows are discarded
	MinColumns       int // tables whose widest row is narrower are discarded
	TitleLookback    int // preceding nodes/lines inspected for a title
	MaxTitleLength   int // a title candidate must be shorter than this, in runes
	MinRunLines      int // consecutive matching lines that make a text table
	MaxBlankGap      int // blank lines tolerated inside a text run
	MaxCells         int // grid size guard for pathological spans
	Patterns         []LinePattern
	LegacyBlocks     bool // read <TABLE>...</TABLE> blocks of SGML text filings
	CompactEmpty     bool // drop rows and columns whose cells are all empty
	NormalizeNumbers bool // "(1,234)" -> "-1234" in HTML cells
}

// DefaultOptions mirrors the standard extraction policy.
func DefaultOptions() Options {
	return Options{
		MaxTables:      100,
		MinRows:        2,
		MinColumns:     2,
		TitleLookback:  3,
		MaxTitleLength: 120,
		MinRunLines:    3,
		MaxBlankGap:    1,
		MaxCells:       250000,
		Patterns:       DefaultPatterns(),
		LegacyBlocks:   true,
		CompactEmpty:   true,
	}
}

type compiledPattern struct {
	re    *regexp.Regexp
	delim Delimiter
}

func compilePatterns(patterns []LinePattern) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("text table pattern %d: %w", i, err)
		}
		delim := p.Delimiter
		switch delim {
		case "":
			delim = DelimiterWhitespace
		case DelimiterPipe, DelimiterWhitespace:
		default:
			return nil, fmt.Errorf("text table pattern %d: unknown delimiter %q", i, p.Delimiter)
		}
		out = append(out, compiledPattern{re: re, delim: delim})
	}
	return out, nil
}
