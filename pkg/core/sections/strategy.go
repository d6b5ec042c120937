package sections

import (
	"regexp"
	"strings"
	"unicode"

	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/models"
)

// Input is what every strategy sees: cleaned lines plus classification context.
type Input struct {
	Lines   []markup.Line
	IsHTML  bool
	Profile *models.FilingTypeProfile // nil when unclassified
	TypeTag string
}

// Strategy is one section-detection layer. Attempt returns nil when the layer
// cannot structure the document, and the next layer is tried.
type Strategy interface {
	Name() string
	Attempt(in *Input) *models.Section
}

// heading marks a line that opens a section.
type heading struct {
	line  int
	rank  int
	title string
}

// buildTree assigns every line to exactly one node. Lines before the first heading
// form the root body; each heading owns the lines up to the next heading. Nesting
// follows rank: a heading's parent is the nearest preceding heading of lower rank.
func buildTree(in *Input, heads []heading) *models.Section {
	root := &models.Section{Title: rootTitle(in), Level: 0}
	end := len(in.Lines)
	if len(heads) > 0 {
		end = heads[0].line
	}
	root.Body = JoinLines(in.Lines[:end])

	type frame struct {
		node *models.Section
		rank int
	}
	stack := []frame{{node: root, rank: 0}}

	for i, h := range heads {
		for len(stack) > 1 && stack[len(stack)-1].rank >= h.rank {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node

		bodyEnd := len(in.Lines)
		if i+1 < len(heads) {
			bodyEnd = heads[i+1].line
		}
		node := &models.Section{
			Title:   h.title,
			Heading: in.Lines[h.line].Text + "\n",
			Level:   parent.Level + 1,
			Body:    JoinLines(in.Lines[h.line+1 : bodyEnd]),
		}
		parent.Children = append(parent.Children, node)
		stack = append(stack, frame{node: node, rank: h.rank})
	}
	return root
}

func rootTitle(in *Input) string {
	if in.TypeTag != "" {
		return in.TypeTag
	}
	return models.UnknownType
}

// =============================================================================
// STRUCTURAL - HTML heading markup
// =============================================================================

// Structural builds the hierarchy from h1-h6 lines. It needs at least two headings.
type Structural struct{}

func (Structural) Name() string { return "structural" }

func (Structural) Attempt(in *Input) *models.Section {
	if !in.IsHTML {
		return nil
	}
	var heads []heading
	for i, l := range in.Lines {
		if l.Rank == 0 {
			continue
		}
		title := normalizeTitle(l.Text)
		if title == "" {
			continue
		}
		heads = append(heads, heading{line: i, rank: l.Rank, title: title})
	}
	if len(heads) < 2 {
		return nil
	}
	return buildTree(in, heads)
}

// =============================================================================
// PATTERN - "Item N." or profile anchors
// =============================================================================

var itemAnchor = regexp.MustCompile(`(?i)^\s*item\s+\d+[a-z]?\b\.?`)

// Pattern starts a level-1 section at every anchor line. Item-style anchors are
// used for item-numbered forms and for unclassified documents; other profiles use
// their declared anchor phrases.
type Pattern struct{}

func (Pattern) Name() string { return "pattern" }

func (Pattern) Attempt(in *Input) *models.Section {
	match := anchorMatcher(in.Profile)
	if match == nil {
		return nil
	}

	tenK := in.Profile != nil && in.Profile.Name == "10-K"
	var heads []heading
	for i, l := range in.Lines {
		if !match(l.Text) {
			continue
		}
		title := normalizeTitle(l.Text)
		if tenK {
			title = withItemCaption(title)
		}
		heads = append(heads, heading{line: i, rank: 1, title: title})
	}
	if len(heads) == 0 {
		return nil
	}
	return buildTree(in, heads)
}

func anchorMatcher(p *models.FilingTypeProfile) func(string) bool {
	if p == nil || p.ItemAnchors {
		return itemAnchor.MatchString
	}
	if len(p.SectionAnchors) == 0 {
		return nil
	}
	anchors := make([]string, 0, len(p.SectionAnchors))
	for _, a := range p.SectionAnchors {
		if a = strings.ToLower(strings.Join(strings.Fields(a), " ")); a != "" {
			anchors = append(anchors, a)
		}
	}
	return func(line string) bool {
		norm := strings.ToLower(strings.Join(strings.Fields(line), " "))
		for _, a := range anchors {
			if !strings.HasPrefix(norm, a) {
				continue
			}
			if len(norm) == len(a) {
				return true
			}
			if next := rune(norm[len(a)]); !unicode.IsLetter(next) && !unicode.IsDigit(next) {
				return true
			}
		}
		return false
	}
}

// =============================================================================
// FLAT - whole document as one section
// =============================================================================

// Flat never fails: the whole document becomes the root.
type Flat struct{}

func (Flat) Name() string { return "flat" }

func (Flat) Attempt(in *Input) *models.Section {
	return buildTree(in, nil)
}
