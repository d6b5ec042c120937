package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"edgar_extract/pkg/core/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefault_IsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	p := s.Policy(nil)
	assert.False(t, p.ProcessAllDocuments)
	assert.Equal(t, tables.DefaultOptions().MaxTables, p.Tables.MaxTables)
	assert.Len(t, p.Tables.Patterns, len(tables.DefaultPatterns()))
	assert.True(t, p.Sections.StripPageMarkers)
	assert.NotNil(t, p.Logger)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", `
parser:
  process_all_documents: true
  max_tables_per_document: 7
batch:
  max_workers: 2
tickers:
  apple: AAPL
`)
	s, err := Load(path)
	require.NoError(t, err)

	assert.True(t, s.Parser.ProcessAllDocuments)
	assert.Equal(t, 7, s.Parser.MaxTablesPerDocument)
	assert.Equal(t, 2, s.Batch.MaxWorkers)
	assert.Equal(t, "*.txt", s.Batch.Pattern, "unset keys keep defaults")
	assert.Equal(t, tables.DefaultOptions().MinRows, s.Parser.MinTableRows)
	assert.Equal(t, "AAPL", s.Tickers["apple"])
	assert.NotNil(t, s.Profiles)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "parser: [unclosed\n")
	_, err = Load(path)
	assert.Error(t, err)

	_, _, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	s := Default()
	s.Parser.MinTableRows = 0
	s.Batch.MaxWorkers = 0
	s.Logging.Level = "loud"
	s.Tracker.Driver = "mysql"
	s.Parser.TextTablePatterns = []tables.LinePattern{{Pattern: "("}}

	err := s.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "min_table_rows")
	assert.Contains(t, msg, "max_workers")
	assert.Contains(t, msg, "invalid log level: loud")
	assert.Contains(t, msg, "mysql")
	assert.Contains(t, msg, "text_table_patterns")
}

func TestRegistry_Overrides(t *testing.T) {
	on := true
	s := Default()
	s.Profiles = map[string]ProfileSettings{
		"10-K":   {ExtraTableKeywords: []string{"segment_information"}},
		"8-K":    {Label: "Current report (custom)"},
		"10-K/A": {TypeTags: []string{"10-K/A"}, TableKeywords: []string{"explanatory_note"}, ItemAnchors: &on},
	}

	reg, err := s.Registry()
	require.NoError(t, err)

	tenK, ok := reg.Get("10-K")
	require.True(t, ok)
	assert.Contains(t, tenK.TableKeywords, "segment_information")
	assert.Contains(t, tenK.TableKeywords, "balance_sheets", "extra keywords append")

	eightK, _ := reg.Get("8-K")
	assert.Equal(t, "Current report (custom)", eightK.Label)
	assert.NotEmpty(t, eightK.TableKeywords)

	amend := reg.Classify("10-K/A")
	require.NotNil(t, amend)
	assert.Equal(t, "10-K/A", amend.Name, "an exact registration beats the base form")
	assert.True(t, amend.ItemAnchors)
	assert.Equal(t, "10-K", reg.Classify("10-K405").Name)

	// Built-in profiles are untouched by the merge.
	reg2, err := Default().Registry()
	require.NoError(t, err)
	base, _ := reg2.Get("10-K")
	assert.NotContains(t, base.TableKeywords, "segment_information")
}

func TestRegistry_ConflictingTags(t *testing.T) {
	s := Default()
	s.Profiles = map[string]ProfileSettings{"annual": {TypeTags: []string{"10-K"}}}
	_, err := s.Registry()
	assert.Error(t, err)
	assert.Error(t, s.Validate())
}

func TestLoadOverrides_LenientFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"strict json", `{"profiles": {"8-K": {"label": "Event"}}}`},
		{"trailing comma", `{"profiles": {"8-K": {"label": "Event",},},}`},
		{"hjson", "{\n  # comment\n  profiles: {\n    8-K: {\n      label: Event\n    }\n  }\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			require.NoError(t, s.LoadOverrides(writeFile(t, dir, "o.json", tt.body)))
			require.Contains(t, s.Profiles, "8-K")
			assert.Equal(t, "Event", s.Profiles["8-K"].Label)
		})
	}
}

func TestTickerFor(t *testing.T) {
	s := Default()
	s.Tickers = map[string]string{"apple": "AAPL"}
	s.Parser.DefaultTicker = "UNKNOWN"

	assert.Equal(t, "AAPL", s.TickerFor(filepath.Join("data", "apple", "10-K", "f.txt")))
	assert.Equal(t, "MSFT", s.TickerFor(filepath.Join("data", "MSFT", "10-K", "f.txt")))
	assert.Equal(t, "UNKNOWN", s.TickerFor("f.txt"))
	assert.Equal(t, "UNKNOWN", s.TickerFor(filepath.Join("10-K", "f.txt")))
}

func TestFromFlags_Precedence(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", `
parser:
  max_tables_per_document: 7
batch:
  max_workers: 2
logging:
  level: warn
`)
	t.Setenv("EDGAR_WORKERS", "5")
	t.Setenv("EDGAR_LOGLEVEL", "error")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--loglevel", "debug", "--process-all"}))

	s, used, err := FromFlags(fs)
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, 7, s.Parser.MaxTablesPerDocument, "file beats built-in default")
	assert.Equal(t, 5, s.Batch.MaxWorkers, "env beats file")
	assert.Equal(t, "debug", s.Logging.Level, "flag beats env")
	assert.True(t, s.Parser.ProcessAllDocuments)
}

func TestFromFlags_InvalidValue(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers", "0"}))

	_, _, err := FromFlags(fs)
	assert.Error(t, err)
}
