package sections

import (
	"testing"

	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/core/profile"
	"edgar_extract/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registry = profile.MustNewRegistry(profile.Defaults())

const structuredHTML = `<html><body>
<p>Cover page text.</p>
<h1>PART I</h1>
<h2>Item 1. Business</h2>
<p>We design devices.</p>
<h3>Products</h3>
<p>Phones and laptops.</p>
<h2>Item 1A. Risk Factors</h2>
<p>Competition is intense.</p>
<p>Table of Contents</p>
<h1>PART II</h1>
<p>Market information.</p>
</body></html>`

const textTenK = `UNITED STATES SECURITIES AND EXCHANGE COMMISSION
FORM 10-K

ITEM 1.
We design devices.
Table of Contents
ITEM 1A. RISK FACTORS
Competition is intense, see Table of Contents for details.
- 3 -
Item 7.
Revenue grew.
`

func TestExtract_StructuralHierarchy(t *testing.T) {
	e := NewExtractor(DefaultOptions())
	root := e.Extract(structuredHTML, true, registry.Classify("10-K"), "10-K")

	require.NotNil(t, root)
	assert.Equal(t, "10-K", root.Title)
	assert.Equal(t, 0, root.Level)
	assert.Equal(t, "Cover page text.\n", root.Body)

	require.Len(t, root.Children, 2)
	part1, part2 := root.Children[0], root.Children[1]
	assert.Equal(t, "PART I", part1.Title)
	assert.Equal(t, 1, part1.Level)
	assert.Equal(t, "", part1.Body)
	assert.Equal(t, "PART II", part2.Title)
	assert.Equal(t, "Market information.\n", part2.Body)

	require.Len(t, part1.Children, 2)
	item1 := part1.Children[0]
	assert.Equal(t, "Item 1. Business", item1.Title)
	assert.Equal(t, 2, item1.Level)
	assert.Equal(t, "We design devices.\n", item1.Body)
	require.Len(t, item1.Children, 1)
	assert.Equal(t, "Products", item1.Children[0].Title)
	assert.Equal(t, 3, item1.Children[0].Level)

	risk := part1.Children[1]
	assert.Equal(t, "Competition is intense.\n", risk.Body, "whole-line boilerplate is removed")
}

func TestExtract_SingleHeadingFallsThroughToPattern(t *testing.T) {
	body := `<h2>Annual Report</h2><p>Item 1. Business</p><p>Text one.</p><p>Item 2. Properties</p><p>Text two.</p>`

	e := NewExtractor(DefaultOptions())
	c := markup.NewPreparer(markup.Options{}).Prepare(body, true)
	root, layer := e.ExtractContent(c, registry.Classify("10-K"), "10-K", 1)

	assert.Equal(t, "pattern", layer)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Annual Report\n", root.Body)
	assert.Equal(t, "Item 1. Business", root.Children[0].Title)
	assert.Equal(t, "Text one.\n", root.Children[0].Body)
	assert.Equal(t, "Item 2. Properties", root.Children[1].Title)
}

func TestExtract_PatternItems(t *testing.T) {
	e := NewExtractor(DefaultOptions())
	root := e.Extract(textTenK, false, registry.Classify("10-K"), "10-K")

	require.Len(t, root.Children, 3)
	for _, c := range root.Children {
		assert.Equal(t, 1, c.Level)
		assert.Empty(t, c.Children)
	}
	assert.Equal(t, "UNITED STATES SECURITIES AND EXCHANGE COMMISSION\nFORM 10-K\n\n", root.Body)

	assert.Equal(t, "ITEM 1. Business", root.Children[0].Title)
	assert.Equal(t, "ITEM 1.\n", root.Children[0].Heading)
	assert.Equal(t, "We design devices.\n", root.Children[0].Body)

	assert.Equal(t, "ITEM 1A. RISK FACTORS", root.Children[1].Title)
	assert.Equal(t, "Competition is intense, see Table of Contents for details.\n", root.Children[1].Body,
		"lines that merely contain a denylisted phrase are kept; page markers are dropped")

	assert.Equal(t, "Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations", root.Children[2].Title)
}

func TestExtract_ProfileAnchors(t *testing.T) {
	body := "Cover\nPROSPECTUS SUMMARY\nOverview text\nRisk Factors\nRisks text\nRISK FACTORS SUMMARIZED elsewhere\nUse of Proceeds\nProceeds text\nUse of Proceedsx should not match\n"

	e := NewExtractor(DefaultOptions())
	root := e.Extract(body, false, registry.Classify("S-1"), "S-1")

	var titles []string
	for _, c := range root.Children {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"PROSPECTUS SUMMARY", "Risk Factors", "RISK FACTORS SUMMARIZED elsewhere", "Use of Proceeds"}, titles)
}

func TestExtract_FlatFallback(t *testing.T) {
	body := "EMPLOYMENT AGREEMENT\n\nThis agreement is made between the parties.\n"

	e := NewExtractor(DefaultOptions())
	c := markup.NewPreparer(markup.Options{}).Prepare(body, false)
	root, layer := e.ExtractContent(c, nil, "EX-10.1", 2)

	assert.Equal(t, "flat", layer)
	assert.Equal(t, "EX-10.1", root.Title)
	assert.Equal(t, 0, root.Level)
	assert.Empty(t, root.Children)
	assert.Equal(t, body, root.Body)
}

func TestExtract_EmptyBodyStillYieldsRoot(t *testing.T) {
	e := NewExtractor(DefaultOptions())
	root := e.Extract("", false, nil, "GRAPHIC")

	require.NotNil(t, root)
	assert.Equal(t, "GRAPHIC", root.Title)
	assert.Equal(t, "", root.Body)
	assert.NotEmpty(t, root.ID)
}

func TestExtract_UnknownTypeTitle(t *testing.T) {
	root := NewExtractor(DefaultOptions()).Extract("text", false, nil, "")
	assert.Equal(t, models.UnknownType, root.Title)
}

func TestExtract_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		isHTML  bool
		profile string
		tag     string
	}{
		{"structural html", structuredHTML, true, "10-K", "10-K"},
		{"item text", textTenK, false, "10-K", "10-K"},
		{"anchors", "A\nRISK FACTORS\nB\nUSE OF PROCEEDS\nC\n", false, "S-1", "S-1"},
		{"flat", "one\ntwo\n\nthree", false, "", "EX-99"},
		{"pre html", "<pre>\nItem 1.  x\n\nItem 2.  y\n</pre>", true, "10-Q", "10-Q"},
	}

	e := NewExtractor(DefaultOptions())
	preparer := markup.NewPreparer(markup.Options{PromoteStyledHeadings: true})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p *models.FilingTypeProfile
			if tt.profile != "" {
				p = registry.Classify(tt.profile)
			}
			c := preparer.Prepare(tt.body, tt.isHTML)
			root, _ := e.ExtractContent(c, p, tt.tag, 1)

			assert.Equal(t, e.CleanedText(c), root.Text())
			if len(root.Children) == 0 {
				assert.Equal(t, e.CleanedText(c), root.Body)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor(DefaultOptions())
	p := registry.Classify("10-K")

	first := e.Extract(structuredHTML, true, p, "10-K")
	second := e.Extract(structuredHTML, true, p, "10-K")
	assert.Equal(t, first, second)

	seen := map[string]bool{}
	first.Walk(func(s *models.Section) {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	})
}

func TestClean(t *testing.T) {
	c := newCleaner([]string{"Table of Contents", "  Back   to Top "}, true)

	in := []markup.Line{
		{Text: "Intro"},
		{Text: "  TABLE OF CONTENTS  "},
		{Text: "Back to top"},
		{Text: "See Table of Contents"},
		{Text: "Page 4"},
		{Text: "<PAGE> 12"},
		{Text: "F-7"},
		{Text: "2023"},
		{Text: ""},
		{Text: "End"},
	}
	var got []string
	for _, l := range c.clean(in) {
		got = append(got, l.Text)
	}
	assert.Equal(t, []string{"Intro", "See Table of Contents", "2023", "", "End"}, got)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Item 7.   Management's   Discussion  ", "Item 7. Management's Discussion"},
		{"Item 8. Financial Statements ........ 45", "Item 8. Financial Statements"},
		{"Risk Factors [Back to Top]", "Risk Factors"},
		{"[Table of Contents] Properties", "Properties"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeTitle(tt.in), tt.in)
	}
}
