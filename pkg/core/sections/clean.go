package sections

import (
	"regexp"
	"strings"

	"edgar_extract/pkg/core/markup"
)

// DefaultBoilerplate lists navigation lines EDGAR filers repeat on every page.
// Entries match whole lines only, case-insensitively.
var DefaultBoilerplate = []string{
	"Table of Contents",
	"[Table of Contents]",
	"Back to Top",
	"[Back to Top]",
	"Back to Contents",
	"Return to Top",
	"Return to Table of Contents",
	"Click here to view",
}

// pageMarker matches lines that carry nothing but a page marker.
var pageMarker = regexp.MustCompile(`(?i)^\s*(?:<PAGE>\s*\d*|(?:Page\s*)?\d{1,3}|-\s*\d{1,3}\s*-|[A-Z]-\d{1,3})\s*$`)

// cleaner removes whole boilerplate lines before sections are assigned.
type cleaner struct {
	denylist    map[string]bool
	pageMarkers bool
}

func newCleaner(boilerplate []string, pageMarkers bool) *cleaner {
	deny := make(map[string]bool, len(boilerplate))
	for _, b := range boilerplate {
		if key := denyKey(b); key != "" {
			deny[key] = true
		}
	}
	return &cleaner{denylist: deny, pageMarkers: pageMarkers}
}

func denyKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// clean drops lines that equal a denylist entry or are bare page markers. Lines that
// only contain a denylisted phrase are kept.
func (c *cleaner) clean(lines []markup.Line) []markup.Line {
	out := make([]markup.Line, 0, len(lines))
	for _, l := range lines {
		if c.denylist[denyKey(l.Text)] {
			continue
		}
		if c.pageMarkers && pageMarker.MatchString(l.Text) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// JoinLines renders lines as newline-terminated text. This is the "cleaned text"
// a section tree reproduces.
func JoinLines(lines []markup.Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
