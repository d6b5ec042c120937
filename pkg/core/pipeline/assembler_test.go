package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"edgar_extract/pkg/core/container"
	"edgar_extract/pkg/core/profile"
	"edgar_extract/pkg/core/sections"
	"edgar_extract/pkg/core/tables"
	"edgar_extract/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenKWithExhibit = `<SEC-DOCUMENT>0000320193-23-000106.txt : 20231103
<SEC-HEADER>0000320193-23-000106.hdr.sgml : 20231103
ACCESSION NUMBER:		0000320193-23-000106
CONFORMED SUBMISSION TYPE:	10-K
COMPANY CONFORMED NAME:			Apple Inc.
CENTRAL INDEX KEY:			0000320193
</SEC-HEADER>
<DOCUMENT>
<TYPE>10-K
<SEQUENCE>1
<FILENAME>aapl-20230930.htm
<TEXT>
<html><body>
<h2>Item 1. Business</h2>
<p>The Company designs smartphones.</p>
<h2>Item 8. Financial Statements</h2>
<p>CONSOLIDATED BALANCE SHEETS</p>
<table>
<tr><td>Total assets</td><td>352,583</td></tr>
<tr><td>Total liabilities</td><td>290,437</td></tr>
</table>
</body></html>
</TEXT>
</DOCUMENT>
<DOCUMENT>
<TYPE>EX-10.1
<SEQUENCE>2
<FILENAME>exhibit101.htm
<TEXT>
EMPLOYMENT AGREEMENT
This agreement is made between the parties.
</TEXT>
</DOCUMENT>
</SEC-DOCUMENT>
`

var registry = profile.MustNewRegistry(profile.Defaults())

func testPolicy(processAll bool) Policy {
	p := DefaultPolicy()
	p.ProcessAllDocuments = processAll
	p.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return p
}

func newAssembler(t *testing.T, p Policy) *Assembler {
	t.Helper()
	a, err := NewAssembler(registry, p)
	require.NoError(t, err)
	return a
}

// panicStrategy stands in for an extractor bug.
type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic" }

func (panicStrategy) Attempt(*sections.Input) *models.Section { panic("boom") }

func TestProcess_RecognizedOnly(t *testing.T) {
	a := newAssembler(t, testPolicy(false))

	res, err := a.Process(Source{ID: "AAPL/10-K/0000320193-23-000106.txt", Ticker: "AAPL", Text: tenKWithExhibit})
	require.NoError(t, err)

	assert.Equal(t, models.FilingOK, res.Status)
	assert.Equal(t, "10-K", res.FormType)
	assert.Equal(t, "10-K", res.Profile)
	assert.Equal(t, "Apple Inc.", res.Filing.Metadata.CompanyName)
	assert.Equal(t, "AAPL", res.Filing.Ticker)

	s := res.Summary
	assert.True(t, s.Finalized)
	assert.Equal(t, 2, s.DocumentsSeen)
	assert.Equal(t, 1, s.DocumentsProcessed)
	assert.Equal(t, 1, s.DocumentsSkipped)
	assert.Equal(t, 0, s.DocumentsFailed)
	assert.Empty(t, s.Errors)
	require.Len(t, s.Skips, 1)
	assert.Equal(t, models.SkipNote{DocumentIndex: 2, TypeTag: "EX-10.1", Reason: models.SkipUnrecognizedType}, s.Skips[0])

	require.Len(t, res.Documents, 2, "skipped documents stay in the output")
	main, exhibit := res.Documents[0], res.Documents[1]

	assert.Equal(t, models.StateDone, main.State)
	assert.Equal(t, models.StatusProcessed, main.Status)
	assert.True(t, main.Document.IsHTML)
	require.NotNil(t, main.Sections)
	require.Len(t, main.Sections.Children, 2)
	assert.Equal(t, "Item 1. Business", main.Sections.Children[0].Title)
	require.Len(t, main.Tables, 1)
	assert.Equal(t, "CONSOLIDATED BALANCE SHEETS", main.Tables[0].TitleOr(""))
	assert.Equal(t, 2, main.Tables[0].Score)
	assert.Equal(t, 3, s.SectionsExtracted)
	assert.Equal(t, 1, s.TablesExtracted)

	assert.Equal(t, models.StateDone, exhibit.State)
	assert.Equal(t, models.StatusSkipped, exhibit.Status)
	assert.Nil(t, exhibit.Sections)
	assert.Empty(t, exhibit.Profile)
}

func TestProcess_ProcessAll(t *testing.T) {
	a := newAssembler(t, testPolicy(true))

	res, err := a.Process(Source{ID: "f.txt", Text: tenKWithExhibit})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Summary.DocumentsProcessed)
	assert.Equal(t, 0, res.Summary.DocumentsSkipped)
	assert.Empty(t, res.Summary.Skips)

	exhibit := res.Documents[1]
	assert.Equal(t, models.StatusProcessed, exhibit.Status)
	assert.False(t, exhibit.Document.IsHTML)
	require.NotNil(t, exhibit.Sections)
	assert.Equal(t, "EX-10.1", exhibit.Sections.Title)
	assert.Equal(t, "EMPLOYMENT AGREEMENT\nThis agreement is made between the parties.\n", exhibit.Sections.Body)
	assert.Equal(t, 4, res.Summary.SectionsExtracted)
}

func TestProcess_Idempotent(t *testing.T) {
	a := newAssembler(t, testPolicy(true))

	first, err := a.Process(Source{ID: "f.txt", Text: tenKWithExhibit})
	require.NoError(t, err)
	second, err := a.Process(Source{ID: "f.txt", Text: tenKWithExhibit})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProcess_MalformedContainer(t *testing.T) {
	a := newAssembler(t, testPolicy(false))

	res, err := a.Process(Source{ID: "bad.txt", Text: "no document markers here\n"})

	require.Error(t, err)
	var malformed *container.MalformedContainerError
	assert.True(t, errors.As(err, &malformed))
	require.NotNil(t, res)
	assert.Equal(t, models.FilingFailed, res.Status)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Documents)
	assert.NotNil(t, res.Documents)
	assert.True(t, res.Summary.Finalized)
}

func TestProcess_TruncatedDocumentIsRecoverable(t *testing.T) {
	raw := "<DOCUMENT>\n<TYPE>8-K\n<TEXT>\nItem 2.02 Results of Operations\nRevenue rose.\n"

	res, err := newAssembler(t, testPolicy(false)).Process(Source{ID: "t.txt", Text: raw})
	require.NoError(t, err)

	require.Len(t, res.Documents, 1)
	assert.True(t, res.Documents[0].Document.Truncated)
	assert.Equal(t, models.StatusProcessed, res.Documents[0].Status)
	require.Len(t, res.Summary.Errors, 1)
	assert.Equal(t, models.ErrTruncatedDocument, res.Summary.Errors[0].Kind)
	assert.Equal(t, 1, res.Summary.Errors[0].DocumentIndex)
	assert.Equal(t, "8-K", res.FormType, "form type falls back to the first document")
}

func TestProcess_DocumentLimit(t *testing.T) {
	p := testPolicy(true)
	p.MaxDocuments = 1

	res, err := newAssembler(t, p).Process(Source{ID: "f.txt", Text: tenKWithExhibit})
	require.NoError(t, err)

	require.Len(t, res.Documents, 2)
	assert.Equal(t, models.StatusProcessed, res.Documents[0].Status)
	assert.Equal(t, models.StatusSkipped, res.Documents[1].Status)
	require.Len(t, res.Summary.Skips, 1)
	assert.Equal(t, models.SkipDocumentLimit, res.Summary.Skips[0].Reason)
}

func TestProcess_ExtractorPanicFailsOnlyTheDocument(t *testing.T) {
	p := testPolicy(true)
	a := newAssembler(t, p)
	a.SetSectionExtractor(sections.NewExtractorWithStrategies(p.Sections, panicStrategy{}))

	res, err := a.Process(Source{ID: "f.txt", Text: tenKWithExhibit})
	require.NoError(t, err)

	assert.Equal(t, models.FilingOK, res.Status)
	assert.Equal(t, 2, res.Summary.DocumentsFailed)
	assert.Equal(t, 0, res.Summary.DocumentsProcessed)
	require.Len(t, res.Summary.Errors, 2)
	for i, d := range res.Documents {
		assert.Equal(t, models.StatusFailed, d.Status)
		assert.Equal(t, models.StateDone, d.State)
		assert.Nil(t, d.Sections)
		assert.Contains(t, d.Error, "boom")
		assert.Equal(t, models.ErrExtractor, res.Summary.Errors[i].Kind)
	}
}

func TestProcess_HTMLDetectorOverride(t *testing.T) {
	a := newAssembler(t, testPolicy(false))
	a.SetHTMLDetector(func(string) bool { return false })

	res, err := a.Process(Source{ID: "f.txt", Text: tenKWithExhibit})
	require.NoError(t, err)
	assert.False(t, res.Documents[0].Document.IsHTML)
}

func TestNewAssembler_Errors(t *testing.T) {
	_, err := NewAssembler(nil, DefaultPolicy())
	assert.Error(t, err)

	p := DefaultPolicy()
	p.Tables = tables.Options{Patterns: []tables.LinePattern{{Pattern: "["}}}
	_, err = NewAssembler(registry, p)
	assert.Error(t, err)

	p = DefaultPolicy()
	p.MaxDocuments = -1
	_, err = NewAssembler(registry, p)
	assert.Error(t, err)
}
