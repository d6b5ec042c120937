// Package tables recovers tables from EDGAR document bodies.
//
// HTML bodies are read structurally: every <table> element becomes a grid with
// colspan/rowspan expanded. Plain-text bodies, and HTML bodies that yield no tables,
// are scanned for runs of lines matching the configured line patterns and for the
// <TABLE> blocks of pre-2001 SGML filings. Every kept table is scored against the
// filing-type profile and the list is stable-sorted by score.
package tables

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/core/profile"
	"edgar_extract/pkg/models"
)

// ParseError reports one table that could not be read. The table is dropped and the
// rest of the document is still processed.
type ParseError struct {
	Kind     models.TableKind
	Position int // ordinal of the <table> element, or the first line of the text block
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s table at %d: %v", e.Kind, e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extractor is safe for concurrent use.
type Extractor struct {
	opts     Options
	patterns []compiledPattern
	preparer *markup.Preparer
}

// NewExtractor validates opts and compiles the line patterns.
func NewExtractor(opts Options) (*Extractor, error) {
	if opts.MinRows < 1 {
		opts.MinRows = 1
	}
	if opts.MinColumns < 1 {
		opts.MinColumns = 1
	}
	if opts.MinRunLines < 1 {
		opts.MinRunLines = 1
	}
	if opts.MaxBlankGap < 0 {
		opts.MaxBlankGap = 0
	}
	if opts.MaxTitleLength <= 0 {
		opts.MaxTitleLength = DefaultOptions().MaxTitleLength
	}
	patterns, err := compilePatterns(opts.Patterns)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		opts:     opts,
		patterns: patterns,
		preparer: markup.NewPreparer(markup.Options{}),
	}, nil
}

// MustNewExtractor panics on invalid options.
func MustNewExtractor(opts Options) *Extractor {
	e, err := NewExtractor(opts)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract parses body and returns its tables, best match first.
func (e *Extractor) Extract(body string, isHTML bool, p *models.FilingTypeProfile) ([]models.Table, []*ParseError) {
	return e.ExtractContent(e.preparer.Prepare(body, isHTML), p)
}

// ExtractContent works on already prepared content.
func (e *Extractor) ExtractContent(c *markup.Content, p *models.FilingTypeProfile) ([]models.Table, []*ParseError) {
	var (
		found []models.Table
		errs  []*ParseError
	)
	if c.IsHTML && c.Doc != nil {
		found, errs = e.htmlTables(c.Doc, e.opts.MaxTables)
	}
	if len(found) == 0 {
		var textErrs []*ParseError
		found, textErrs = e.textTables(c.Lines, e.opts.LegacyBlocks && !c.IsHTML)
		errs = append(errs, textErrs...)
	}
	if e.opts.MaxTables > 0 && len(found) > e.opts.MaxTables {
		found = found[:e.opts.MaxTables]
	}

	keywords := scoringKeywords(p)
	for i := range found {
		found[i].Index = i
		found[i].Score, found[i].MatchedKeywords = score(&found[i], keywords)
	}
	sort.SliceStable(found, func(a, b int) bool { return found[a].Score > found[b].Score })
	return found, errs
}

// guard converts a panic inside one table's parse into an error.
func guard(fn func() (*models.Table, error)) (t *models.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("parse panic: %v", r)
		}
	}()
	return fn()
}

// =============================================================================
// SCORING
// =============================================================================

type keyword struct {
	raw  string
	norm string
}

func scoringKeywords(p *models.FilingTypeProfile) []keyword {
	if p == nil {
		return nil
	}
	seen := make(map[string]bool, len(p.TableKeywords))
	var out []keyword
	for _, kw := range p.TableKeywords {
		norm := fold(profile.NormalizeKeyword(kw))
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, keyword{raw: kw, norm: norm})
	}
	return out
}

// score counts the keywords found in the title or the first two rows.
func score(t *models.Table, keywords []keyword) (int, []string) {
	if len(keywords) == 0 {
		return 0, nil
	}
	var sb strings.Builder
	if t.Title != nil {
		sb.WriteString(*t.Title)
	}
	for i := 0; i < len(t.Rows) && i < 2; i++ {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(t.Rows[i], " "))
	}
	haystack := fold(sb.String())

	var matched []string
	for _, kw := range keywords {
		if strings.Contains(haystack, kw.norm) {
			matched = append(matched, kw.raw)
		}
	}
	return len(matched), matched
}

// fold lowercases s and reduces every run of non-alphanumerics to one space, so
// "Stockholders' Equity" and "stockholders_equity" compare equal.
func fold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		space = true
	}
	return sb.String()
}
