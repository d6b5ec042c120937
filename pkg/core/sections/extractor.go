// Package sections builds the hierarchical section tree of one EDGAR document.
//
// Detection is layered: heading markup first, then "Item N." or profile anchors,
// then a single flat section. The first layer that produces a result is used for
// the whole document, and every layer assigns each cleaned line to exactly one node,
// so Section.Text() on the root reproduces the cleaned document text.
package sections

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/models"
)

// sectionNamespace seeds deterministic section IDs.
var sectionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("edgar_extract/sections"))

// Options controls cleaning before sections are assigned.
type Options struct {
	Boilerplate           []string
	StripPageMarkers      bool
	PromoteStyledHeadings bool
}

// DefaultOptions returns the standard cleaning rules.
func DefaultOptions() Options {
	return Options{
		Boilerplate:           append([]string(nil), DefaultBoilerplate...),
		StripPageMarkers:      true,
		PromoteStyledHeadings: true,
	}
}

// Extractor runs the strategy layers. It holds no per-document state and is safe
// for concurrent use.
type Extractor struct {
	strategies []Strategy
	cleaner    *cleaner
	preparer   *markup.Preparer
}

// NewExtractor builds an Extractor with the standard layers.
func NewExtractor(opts Options) *Extractor {
	return NewExtractorWithStrategies(opts, Structural{}, Pattern{}, Flat{})
}

// NewExtractorWithStrategies builds an Extractor with custom layers. Flat is appended
// when the list does not end with it, so extraction always yields a tree.
func NewExtractorWithStrategies(opts Options, strategies ...Strategy) *Extractor {
	if len(strategies) == 0 || strategies[len(strategies)-1].Name() != (Flat{}).Name() {
		strategies = append(strategies, Flat{})
	}
	return &Extractor{
		strategies: strategies,
		cleaner:    newCleaner(opts.Boilerplate, opts.StripPageMarkers),
		preparer:   markup.NewPreparer(markup.Options{PromoteStyledHeadings: opts.PromoteStyledHeadings}),
	}
}

// Extract builds the section tree for one document body.
func (e *Extractor) Extract(body string, isHTML bool, profile *models.FilingTypeProfile, typeTag string) *models.Section {
	root, _ := e.ExtractContent(e.preparer.Prepare(body, isHTML), profile, typeTag, 0)
	return root
}

// ExtractContent builds the tree from already prepared content and reports which
// layer produced it. docIndex scopes the section IDs.
func (e *Extractor) ExtractContent(c *markup.Content, profile *models.FilingTypeProfile, typeTag string, docIndex int) (*models.Section, string) {
	in := &Input{
		Lines:   e.Clean(c.Lines),
		IsHTML:  c.IsHTML,
		Profile: profile,
		TypeTag: typeTag,
	}

	for _, s := range e.strategies {
		if root := s.Attempt(in); root != nil {
			assignIDs(root, docIndex)
			return root, s.Name()
		}
	}
	// Unreachable with Flat last; kept for custom strategy lists.
	root := Flat{}.Attempt(in)
	assignIDs(root, docIndex)
	return root, Flat{}.Name()
}

// Clean applies the whole-line boilerplate rules.
func (e *Extractor) Clean(lines []markup.Line) []markup.Line {
	return e.cleaner.clean(lines)
}

// CleanedText returns the text a section tree for c must reproduce.
func (e *Extractor) CleanedText(c *markup.Content) string {
	return JoinLines(e.Clean(c.Lines))
}

// assignIDs derives a stable UUIDv5 for every node from the document index and the
// node's child-index path, so re-running extraction yields identical IDs.
func assignIDs(root *models.Section, docIndex int) {
	var walk func(n *models.Section, path string)
	walk = func(n *models.Section, path string) {
		n.ID = uuid.NewSHA1(sectionNamespace, []byte(strconv.Itoa(docIndex)+":"+path)).String()
		for i, c := range n.Children {
			walk(c, path+"/"+strconv.Itoa(i))
		}
	}
	walk(root, "")
}

// Titles lists the titles of a tree in pre-order, indented by level. Used for logs.
func Titles(root *models.Section) []string {
	var out []string
	root.Walk(func(n *models.Section) {
		out = append(out, strings.Repeat("  ", n.Level)+n.Title)
	})
	return out
}
