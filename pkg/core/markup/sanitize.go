package markup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
)

var (
	fontSizePattern = regexp.MustCompile(`font-size:\s*(\d+)(?:\.\d*)?pt`)
	pageNumberText  = regexp.MustCompile(`^(?:Page\s*)?\d{1,3}$|^-\s*\d{1,3}\s*-$|^[A-Z]-\d{1,3}$`)

	sectionHeaderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Item\s+\d`),
		regexp.MustCompile(`(?i)^PART\s+[IVX]+\b`),
		regexp.MustCompile(`(?i)^Note\s+\d`),
		regexp.MustCompile(`(?i)^CONSOLIDATED\s+`),
		regexp.MustCompile(`(?i)^FINANCIAL\s+STATEMENTS`),
		regexp.MustCompile(`(?i)^BALANCE\s+SHEETS?`),
		regexp.MustCompile(`(?i)^STATEMENTS?\s+OF`),
	}
)

// blockSelector lists the elements the flattener renders as their own line.
const blockSelector = "p, div, section, article, br, hr, pre, blockquote, ul, ol, li, dl, dt, dd, table, center, h1, h2, h3, h4, h5, h6"

// maxPromotedHeading bounds the text length of a paragraph promoted to a heading.
const maxPromotedHeading = 200

// newPolicy keeps the structure the extractors read (blocks, headings, tables and
// their spans) and strips everything else, including inline XBRL wrappers.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "div", "span", "br", "hr", "b", "strong", "i", "em", "u", "sup", "sub",
		"center", "font", "pre", "blockquote", "ul", "ol", "li", "dl", "dt", "dd",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption",
	)
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.SkipElementsContent("head", "title", "script", "style", "noscript")
	return p
}

// sanitizer prepares EDGAR HTML for flattening.
type sanitizer struct {
	policy  *bluemonday.Policy
	promote bool
}

func newSanitizer(promote bool) *sanitizer {
	return &sanitizer{policy: newPolicy(), promote: promote}
}

// sanitize parses body, removes noise, optionally promotes styled headings, and
// re-parses the allow-listed result.
func (s *sanitizer) sanitize(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	removeNoise(doc)
	if s.promote {
		promoteStyledHeadings(doc)
	}

	cleaned, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(s.policy.Sanitize(cleaned)))
}

// removeNoise drops elements that carry no filing text: scripts, hidden blocks
// (iXBRL headers live there) and standalone page-number blocks. Only a leaf p or
// div whose whole rendered line is a page marker is removed; inline elements and
// blocks inside paragraphs, lists or tables are left alone.
func removeNoise(doc *goquery.Document) {
	doc.Find("script, style").Remove()
	doc.Find("[hidden], [style*='display:none'], [style*='display: none']").Remove()

	doc.Find("p, div").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("p, li, dd, td, th, table").Length() > 0 {
			return
		}
		if sel.Find(blockSelector).Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if len(text) < 20 && pageNumberText.MatchString(text) {
			sel.Remove()
		}
	})
}

// promoteStyledHeadings turns the styled paragraphs EDGAR filers use instead of
// heading tags into h2/h3 elements.
func promoteStyledHeadings(doc *goquery.Document) {
	// Bold paragraphs: 14pt+ -> h2, 12pt+ -> h3.
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		style := strings.ToLower(sel.AttrOr("style", ""))
		if !isBold(style) || !promotable(sel) {
			return
		}
		switch {
		case fontSizeAtLeast(style, 14):
			rename(sel, atom.H2)
		case fontSizeAtLeast(style, 12):
			rename(sel, atom.H3)
		}
	})

	// Large bold spans promote their paragraph.
	doc.Find("span").Each(func(_ int, sel *goquery.Selection) {
		style := strings.ToLower(sel.AttrOr("style", ""))
		if !isBold(style) || !fontSizeAtLeast(style, 14) {
			return
		}
		parent := sel.Parent()
		if goquery.NodeName(parent) == "p" && promotable(parent) {
			rename(parent, atom.H2)
		}
	})

	// <b>/<strong> that read like "Item 7." or "PART II".
	doc.Find("b, strong").Each(func(_ int, sel *goquery.Selection) {
		if !looksLikeSectionHeader(strings.TrimSpace(sel.Text())) {
			return
		}
		parent := sel.Parent()
		name := goquery.NodeName(parent)
		if (name == "p" || name == "div") && promotable(parent) {
			rename(parent, atom.H2)
		}
	})
}

func isBold(style string) bool {
	compact := strings.ReplaceAll(style, " ", "")
	return strings.Contains(compact, "font-weight:bold") || strings.Contains(compact, "font-weight:700")
}

func fontSizeAtLeast(style string, minPt int) bool {
	m := fontSizePattern.FindStringSubmatch(style)
	if len(m) < 2 {
		return false
	}
	size, err := strconv.Atoi(m[1])
	return err == nil && size >= minPt
}

func looksLikeSectionHeader(text string) bool {
	for _, re := range sectionHeaderPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// promotable reports whether sel is a short block outside any table.
func promotable(sel *goquery.Selection) bool {
	if sel.Closest("table").Length() > 0 {
		return false
	}
	text := strings.TrimSpace(sel.Text())
	return text != "" && len(text) <= maxPromotedHeading
}

func rename(sel *goquery.Selection, a atom.Atom) {
	for _, n := range sel.Nodes {
		n.DataAtom = a
		n.Data = a.String()
	}
}
