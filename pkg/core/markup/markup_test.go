package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestPrepare_HTMLHeadingsAndBlocks(t *testing.T) {
	body := `<html><head><title>ignored</title><style>p{}</style></head><body>
<h1>Annual Report</h1>
<p>Intro   paragraph
spanning lines.</p>
<h2>Item 1. Business</h2>
<div>We make <b>things</b>.</div>
<script>alert(1)</script>
</body></html>`

	c := NewPreparer(Options{}).Prepare(body, true)
	require.True(t, c.IsHTML)
	require.NotNil(t, c.Doc)

	assert.Equal(t, []Line{
		{Text: "Annual Report", Rank: 1},
		{Text: "Intro paragraph spanning lines."},
		{Text: "Item 1. Business", Rank: 2},
		{Text: "We make things."},
	}, c.Lines)
	assert.True(t, c.HasHeadings())
}

func TestPrepare_TableRowsBecomeLines(t *testing.T) {
	body := `<table><tr><td>Revenue</td><td></td><td>$ 100</td></tr><tr><th>Cost</th><th>(40)</th></tr></table>`

	c := NewPreparer(Options{}).Prepare(body, true)
	assert.Equal(t, []string{"Revenue | $ 100", "Cost | (40)"}, texts(c.Lines))
}

func TestPrepare_RemovesNoise(t *testing.T) {
	body := `<div style="display:none"><ix:header>hidden facts</ix:header></div>
<p>Real text with <ix:nonFraction name="us-gaap:Revenues">1,234</ix:nonFraction> inline.</p>
<p>- 12 -</p>
<table><tr><td><p>2023</p></td><td><p>12</p></td></tr></table>`

	c := NewPreparer(Options{}).Prepare(body, true)
	assert.Equal(t, []string{"Real text with 1,234 inline.", "2023 | 12"}, texts(c.Lines))
}

func TestPrepare_KeepsInlineNumbers(t *testing.T) {
	body := `<h2>Item 1. Business</h2>
<p><span>We operate </span><span>42</span><span> stores in </span><span>7</span><span> states.</span></p>
<div><div>- 3 -</div></div>
<ul><li>12</li></ul>`

	c := NewPreparer(Options{}).Prepare(body, true)
	assert.Equal(t, []string{"Item 1. Business", "We operate 42 stores in 7 states.", "12"}, texts(c.Lines))
}

func TestPrepare_PromoteStyledHeadings(t *testing.T) {
	body := `<p style="font-weight:bold; font-size:14pt">Risk Factors</p>
<p>Body one.</p>
<p style="font-weight: bold; font-size: 12pt">Market Risk</p>
<p><b>Item 7.</b> Management's Discussion</p>
<p style="font-size:14pt">Not bold</p>`

	off := NewPreparer(Options{}).Prepare(body, true)
	assert.False(t, off.HasHeadings())

	on := NewPreparer(Options{PromoteStyledHeadings: true}).Prepare(body, true)
	assert.Equal(t, []Line{
		{Text: "Risk Factors", Rank: 2},
		{Text: "Body one."},
		{Text: "Market Risk", Rank: 3},
		{Text: "Item 7. Management's Discussion", Rank: 2},
		{Text: "Not bold"},
	}, on.Lines)
}

func TestPrepare_PreKeepsAlignment(t *testing.T) {
	body := "<pre>\nName      2023    2022\n\nSales      100      90\n</pre>"

	c := NewPreparer(Options{}).Prepare(body, true)
	assert.Equal(t, []string{"Name      2023    2022", "", "Sales      100      90"}, texts(c.Lines))
}

func TestPrepare_PlainText(t *testing.T) {
	c := NewPreparer(Options{}).Prepare("line one\r\n  indented\r\n\r\nlast\n", false)
	assert.False(t, c.IsHTML)
	assert.Nil(t, c.Doc)
	assert.Equal(t, []string{"line one", "  indented", "", "last"}, texts(c.Lines))
}

func TestTextLines_Empty(t *testing.T) {
	assert.Nil(t, TextLines(""))
	assert.Equal(t, []string{""}, texts(TextLines("\n")))
}
