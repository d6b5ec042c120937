// Package config loads the extractor settings: a YAML file merged over built-in
// defaults, optional HJSON/JSON profile overrides, then environment and flags.
// The result is compiled once into an immutable profile registry and a pipeline
// policy.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"edgar_extract/pkg/core/sections"
	"edgar_extract/pkg/core/tables"
)

const (
	DefaultLogLevel   = "info"
	DefaultMaxWorkers = 4
	DefaultFilePath   = "edgar_extract.yaml"

	TrackerNone     = ""
	TrackerSQLite   = "sqlite"
	TrackerPostgres = "postgres"
)

// Settings is the full configuration file.
type Settings struct {
	Parser   ParserSettings             `yaml:"parser"`
	Batch    BatchSettings              `yaml:"batch"`
	Output   OutputSettings             `yaml:"output"`
	Tracker  TrackerSettings            `yaml:"tracker"`
	Logging  LoggingSettings            `yaml:"logging"`
	Tickers  map[string]string          `yaml:"tickers"` // directory name -> ticker
	Profiles map[string]ProfileSettings `yaml:"profiles"`
}

// ParserSettings feed the pipeline policy.
type ParserSettings struct {
	ProcessAllDocuments   bool                 `yaml:"process_all_documents"`
	MaxTablesPerDocument  int                  `yaml:"max_tables_per_document"`
	MaxDocumentsPerFiling int                  `yaml:"max_documents_per_filing"`
	TitleLookback         int                  `yaml:"title_lookback"`
	MinTableRows          int                  `yaml:"min_table_rows"`
	MinTableColumns       int                  `yaml:"min_table_columns"`
	MaxBlankGap           int                  `yaml:"max_blank_gap"`
	Boilerplate           []string             `yaml:"boilerplate"`
	StripPageMarkers      bool                 `yaml:"strip_page_markers"`
	PromoteStyledHeadings bool                 `yaml:"promote_styled_headings"`
	LegacyTableBlocks     bool                 `yaml:"legacy_table_blocks"`
	NormalizeNumbers      bool                 `yaml:"normalize_numbers"`
	TextTablePatterns     []tables.LinePattern `yaml:"text_table_patterns"`
	DefaultTicker         string               `yaml:"default_ticker"`
}

// BatchSettings control directory runs.
type BatchSettings struct {
	MaxWorkers int    `yaml:"max_workers"`
	SkipParsed bool   `yaml:"skip_parsed"`
	Pattern    string `yaml:"pattern"` // file glob, matched against base names
}

// OutputSettings control the export writer.
type OutputSettings struct {
	Dir      string `yaml:"dir"`
	Markdown bool   `yaml:"markdown"`
	HTML     bool   `yaml:"html"`
}

// TrackerSettings select the parse-status catalog.
type TrackerSettings struct {
	Driver string `yaml:"driver"` // "", "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // sqlite file path or postgres URL; DATABASE_URL when empty
}

// LoggingSettings configure the slog handler of the binaries.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// ProfileSettings override or add one filing-type profile. Non-empty lists replace
// the built-in values; ExtraTableKeywords are appended to them.
type ProfileSettings struct {
	Label              string   `yaml:"label" json:"label"`
	TypeTags           []string `yaml:"type_tags" json:"type_tags"`
	TableKeywords      []string `yaml:"table_keywords" json:"table_keywords"`
	ExtraTableKeywords []string `yaml:"extra_table_keywords" json:"extra_table_keywords"`
	SectionAnchors     []string `yaml:"section_anchors" json:"section_anchors"`
	ItemAnchors        *bool    `yaml:"item_anchors" json:"item_anchors"`
}

// Default returns the built-in settings.
func Default() *Settings {
	td := tables.DefaultOptions()
	return &Settings{
		Parser: ParserSettings{
			MaxTablesPerDocument:  td.MaxTables,
			TitleLookback:         td.TitleLookback,
			MinTableRows:          td.MinRows,
			MinTableColumns:       td.MinColumns,
			MaxBlankGap:           td.MaxBlankGap,
			Boilerplate:           append([]string(nil), sections.DefaultBoilerplate...),
			StripPageMarkers:      true,
			PromoteStyledHeadings: true,
			LegacyTableBlocks:     true,
			TextTablePatterns:     tables.DefaultPatterns(),
		},
		Batch: BatchSettings{
			MaxWorkers: DefaultMaxWorkers,
			Pattern:    "*.txt",
		},
		Output: OutputSettings{
			Dir:      "output",
			Markdown: true,
		},
		Logging: LoggingSettings{
			Level:  DefaultLogLevel,
			Format: "text",
		},
		Tickers:  map[string]string{},
		Profiles: map[string]ProfileSettings{},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.Tickers == nil {
		s.Tickers = map[string]string{}
	}
	if s.Profiles == nil {
		s.Profiles = map[string]ProfileSettings{}
	}
	return s, nil
}

// Locate returns the first existing config file among explicit, the working
// directory default and the user config directory, or "" when none exists.
func Locate(explicit string) string {
	candidates := []string{explicit, DefaultFilePath}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "edgar_extract", "config.yaml"))
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// LoadOrDefault loads the located file, or returns defaults when there is none.
// An explicit path that does not exist is an error.
func LoadOrDefault(explicit string) (*Settings, string, error) {
	path := Locate(explicit)
	if path == "" {
		if explicit != "" {
			return nil, "", fmt.Errorf("config file %s not found", explicit)
		}
		return Default(), "", nil
	}
	s, err := Load(path)
	return s, path, err
}

// Validate reports every invalid value at once.
func (s *Settings) Validate() error {
	var errs []error
	p := s.Parser
	if p.MaxTablesPerDocument < 0 {
		errs = append(errs, errors.New("parser.max_tables_per_document must be >= 0"))
	}
	if p.MaxDocumentsPerFiling < 0 {
		errs = append(errs, errors.New("parser.max_documents_per_filing must be >= 0"))
	}
	if p.TitleLookback < 0 {
		errs = append(errs, errors.New("parser.title_lookback must be >= 0"))
	}
	if p.MinTableRows < 1 {
		errs = append(errs, errors.New("parser.min_table_rows must be >= 1"))
	}
	if p.MinTableColumns < 1 {
		errs = append(errs, errors.New("parser.min_table_columns must be >= 1"))
	}
	if p.MaxBlankGap < 0 {
		errs = append(errs, errors.New("parser.max_blank_gap must be >= 0"))
	}
	if _, err := tables.NewExtractor(s.tableOptions()); err != nil {
		errs = append(errs, fmt.Errorf("parser.text_table_patterns: %w", err))
	}

	if s.Batch.MaxWorkers < 1 {
		errs = append(errs, errors.New("batch.max_workers must be >= 1"))
	}
	if _, err := filepath.Match(s.Batch.Pattern, "x.txt"); err != nil {
		errs = append(errs, fmt.Errorf("batch.pattern: %w", err))
	}

	switch s.Tracker.Driver {
	case TrackerNone, TrackerSQLite, TrackerPostgres:
	default:
		errs = append(errs, fmt.Errorf("tracker.driver %q must be one of: sqlite, postgres", s.Tracker.Driver))
	}

	if _, ok := logLevels[strings.ToLower(s.Logging.Level)]; !ok {
		errs = append(errs, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", s.Logging.Level))
	}
	switch s.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", s.Logging.Format))
	}

	if _, err := s.Registry(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TickerFor resolves the ticker of a filing at path when none was given
// explicitly. Filings are laid out as TICKER/FORM/file.txt, so the grandparent
// directory is looked up in the ticker map first and otherwise used as the ticker
// itself; DefaultTicker applies when the path has no usable grandparent.
func (s *Settings) TickerFor(path string) string {
	grand := filepath.Base(filepath.Dir(filepath.Dir(path)))
	if t, ok := s.Tickers[grand]; ok && t != "" {
		return t
	}
	if grand != "" && grand != "." && grand != string(filepath.Separator) && !strings.HasPrefix(grand, ".") {
		return grand
	}
	return s.Parser.DefaultTicker
}
