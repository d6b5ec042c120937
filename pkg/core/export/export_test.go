package export

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"edgar_extract/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *models.FilingResult {
	title := "Balance Sheet: 2023"
	tenK := &models.Document{Index: 1, TypeTag: "10-K", IsHTML: true}
	exhibit := &models.Document{Index: 2, TypeTag: "EX-21"}
	return &models.FilingResult{
		Filing: &models.Filing{
			Source:    "AAPL/10-K/f.txt",
			Ticker:    "AAPL",
			Encoding:  models.EncodingInfo{Name: "utf-8", Confidence: 1},
			Metadata:  models.FilingMetadata{CompanyName: "Apple Inc.", CIK: "0000320193", FormType: "10-K"},
			Documents: []*models.Document{tenK, exhibit},
		},
		FormType: "10-K",
		Profile:  "10-K",
		Status:   models.FilingOK,
		Documents: []*models.DocumentResult{
			{
				Document: tenK, State: models.StateDone, Status: models.StatusProcessed, Profile: "10-K",
				Sections: &models.Section{ID: "root", Title: "10-K", Body: "Intro\n", Children: []*models.Section{
					{ID: "item1", Title: "Item 1. Business", Heading: "Item 1. Business\n", Level: 1, Body: "We sell | things.\n"},
				}},
				Tables: []models.Table{
					{Index: 1, Kind: models.TableKindHTML, Title: &title, Rows: [][]string{{"Assets", "100"}, {"Liabilities", "50"}}},
					{Index: 2, Kind: models.TableKindText, Rows: [][]string{{"a", "b"}, {"c", "d"}}},
				},
			},
			{Document: exhibit, State: models.StateDone, Status: models.StatusSkipped},
		},
		Summary: models.ProcessingSummary{
			DocumentsSeen: 2, DocumentsProcessed: 1, DocumentsSkipped: 1,
			SectionsExtracted: 2, TablesExtracted: 2,
			Errors: []models.RecoverableError{}, Skips: []models.SkipNote{{DocumentIndex: 2, TypeTag: "EX-21", Reason: models.SkipUnrecognizedType}},
			Finalized: true,
		},
	}
}

func quietWriter(html bool) *Writer {
	opts := DefaultOptions()
	opts.HTML = html
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWriter(opts)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "f_parsed")

	m, err := quietWriter(true).Write(dir, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"metadata.json",
		"sections.html",
		"sections.md",
		filepath.Join("sections", "all_sections.json"),
		filepath.Join("sections", "section_item1.json"),
		filepath.Join("sections", "section_root.json"),
		"summary.json",
		filepath.Join("tables", "Balance_Sheet__2023_1.csv"),
		filepath.Join("text_tables", "text_table_1.csv"),
	}, m.Files)

	assert.Equal(t, "Assets,100\nLiabilities,50\n", readFile(t, filepath.Join(dir, "tables", "Balance_Sheet__2023_1.csv")))

	var md Metadata
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "metadata.json"))), &md))
	assert.Equal(t, "AAPL", md.Ticker)
	assert.Equal(t, "Apple Inc.", md.CompanyName)
	assert.Equal(t, "0000320193", md.CIK)
	assert.Equal(t, "utf-8", md.Encoding.Name)
	assert.Equal(t, []string{"10-K"}, md.DocumentTypes)
	assert.Equal(t, 2, md.DocumentCount)
	assert.Equal(t, 2, md.TablesCount)

	var flat []FlatSection
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "sections", "all_sections.json"))), &flat))
	require.Len(t, flat, 2)
	assert.Equal(t, "root", flat[1].ParentID)
	assert.Equal(t, 1, flat[1].DocumentIndex)
	assert.Equal(t, "10-K", flat[1].DocumentType)

	var summary models.ProcessingSummary
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "summary.json"))), &summary))
	assert.Equal(t, 1, summary.DocumentsSkipped)

	page := readFile(t, filepath.Join(dir, "sections.html"))
	assert.Contains(t, page, "<title>Apple Inc.</title>")
	assert.Contains(t, page, "<h3>Item 1. Business</h3>")
	assert.Contains(t, page, "<table>")
}

func TestWrite_FailedFiling(t *testing.T) {
	res := &models.FilingResult{
		Filing:    &models.Filing{Source: "bad.txt", Documents: []*models.Document{}},
		Documents: []*models.DocumentResult{},
		Status:    models.FilingFailed,
		Error:     "no <DOCUMENT> markers",
	}
	res.Summary.Finalize()

	dir := t.TempDir()
	m, err := quietWriter(false).Write(dir, res)
	require.NoError(t, err)
	assert.Contains(t, m.Files, "metadata.json")
	assert.Contains(t, readFile(t, filepath.Join(dir, "metadata.json")), `"status": "failed"`)
	assert.Equal(t, "[]\n", readFile(t, filepath.Join(dir, "sections", "all_sections.json")))
}

func TestMarkdown(t *testing.T) {
	out := string(Markdown(sampleResult()))

	assert.Contains(t, out, "# Apple Inc. 10-K\n\n## Document 1: 10-K\n\nIntro\n\n### Item 1. Business\n\n")
	assert.Contains(t, out, `We sell \| things.`)
	assert.Contains(t, out, "**Balance Sheet: 2023**\n\n| Assets | 100 |\n| --- | --- |\n| Liabilities | 50 |\n")
	assert.Contains(t, out, "**Table 2**")
	assert.NotContains(t, out, "EX-21", "skipped documents are not rendered")
	assert.True(t, ValidateMarkdown([]byte(out)))
	assert.False(t, ValidateMarkdown(nil))
}

func TestEscapeLine(t *testing.T) {
	assert.Equal(t, `\- 5 -`, escapeLine("- 5 -"))
	assert.Equal(t, `\# of shares`, escapeLine("# of shares"))
	assert.Equal(t, "Revenue rose", escapeLine("Revenue rose"))
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"CONSOLIDATED BALANCE SHEETS", 50, "CONSOLIDATED_BALANCE_SHEETS"},
		{"Cash-flow_2023 (restated)", 50, "Cash-flow_2023__restated_"},
		{"Société Générale", 50, "Société_Générale"},
		{"abcdefgh", 5, "abcde"},
		{"", 50, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanFilename(tt.in, tt.max), tt.in)
	}
}
