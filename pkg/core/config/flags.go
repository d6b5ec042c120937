package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. EDGAR_MAX_TABLES.
const EnvPrefix = "EDGAR"

// DefineFlags registers the shared extractor flags on fs with the built-in defaults.
func DefineFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "YAML config file (default: ./"+DefaultFilePath+" or the user config dir)")
	fs.String("overrides", "", "JSON/Hjson profile override file")

	fs.Bool("process-all", d.Parser.ProcessAllDocuments, "Extract documents with unrecognized types too")
	fs.Int("max-tables", d.Parser.MaxTablesPerDocument, "Maximum tables kept per document (0 = unlimited)")
	fs.Int("max-documents", d.Parser.MaxDocumentsPerFiling, "Maximum documents extracted per filing (0 = unlimited)")
	fs.Int("title-lookback", d.Parser.TitleLookback, "Preceding blocks searched for a table title")
	fs.Bool("normalize-numbers", d.Parser.NormalizeNumbers, "Convert accounting numbers in table cells")
	fs.String("default-ticker", d.Parser.DefaultTicker, "Ticker used when none can be derived")

	fs.Int("workers", d.Batch.MaxWorkers, "Concurrent filings in batch mode")
	fs.Bool("skip-parsed", d.Batch.SkipParsed, "Skip filings the tracker has already parsed")
	fs.String("pattern", d.Batch.Pattern, "File name glob for batch mode")

	fs.String("output", d.Output.Dir, "Output directory")
	fs.Bool("markdown", d.Output.Markdown, "Write sections.md")
	fs.Bool("html", d.Output.HTML, "Write sections.html rendered from sections.md")

	fs.String("tracker", d.Tracker.Driver, "Parse tracker: sqlite or postgres (empty disables)")
	fs.String("dsn", d.Tracker.DSN, "Tracker DSN: sqlite path or postgres URL (DATABASE_URL when empty)")

	fs.String("loglevel", d.Logging.Level, "Log level (debug, info, warn, error)")
	fs.String("logformat", d.Logging.Format, "Log format (text, json)")
}

// FromFlags resolves the settings after fs has been parsed. Precedence, highest
// first: changed flags, EDGAR_* environment variables, the config file, built-in
// defaults. The returned path is the config file used, "" when none.
func FromFlags(fs *pflag.FlagSet) (*Settings, string, error) {
	v := newViper()
	bindFlags(v, fs)

	s, path, err := LoadOrDefault(v.GetString("config"))
	if err != nil {
		return nil, "", err
	}
	setDefaults(v, s)
	populateFromViper(v, s)

	if o := v.GetString("overrides"); o != "" {
		if err := s.LoadOverrides(o); err != nil {
			return nil, "", err
		}
	}
	if err := s.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return s, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setDefaults makes the file-loaded values the fallback below env and flags.
func setDefaults(v *viper.Viper, s *Settings) {
	v.SetDefault("process-all", s.Parser.ProcessAllDocuments)
	v.SetDefault("max-tables", s.Parser.MaxTablesPerDocument)
	v.SetDefault("max-documents", s.Parser.MaxDocumentsPerFiling)
	v.SetDefault("title-lookback", s.Parser.TitleLookback)
	v.SetDefault("normalize-numbers", s.Parser.NormalizeNumbers)
	v.SetDefault("default-ticker", s.Parser.DefaultTicker)
	v.SetDefault("workers", s.Batch.MaxWorkers)
	v.SetDefault("skip-parsed", s.Batch.SkipParsed)
	v.SetDefault("pattern", s.Batch.Pattern)
	v.SetDefault("output", s.Output.Dir)
	v.SetDefault("markdown", s.Output.Markdown)
	v.SetDefault("html", s.Output.HTML)
	v.SetDefault("tracker", s.Tracker.Driver)
	v.SetDefault("dsn", s.Tracker.DSN)
	v.SetDefault("loglevel", s.Logging.Level)
	v.SetDefault("logformat", s.Logging.Format)
}

func populateFromViper(v *viper.Viper, s *Settings) {
	s.Parser.ProcessAllDocuments = v.GetBool("process-all")
	s.Parser.MaxTablesPerDocument = v.GetInt("max-tables")
	s.Parser.MaxDocumentsPerFiling = v.GetInt("max-documents")
	s.Parser.TitleLookback = v.GetInt("title-lookback")
	s.Parser.NormalizeNumbers = v.GetBool("normalize-numbers")
	s.Parser.DefaultTicker = v.GetString("default-ticker")
	s.Batch.MaxWorkers = v.GetInt("workers")
	s.Batch.SkipParsed = v.GetBool("skip-parsed")
	s.Batch.Pattern = v.GetString("pattern")
	s.Output.Dir = v.GetString("output")
	s.Output.Markdown = v.GetBool("markdown")
	s.Output.HTML = v.GetBool("html")
	s.Tracker.Driver = v.GetString("tracker")
	s.Tracker.DSN = v.GetString("dsn")
	s.Logging.Level = v.GetString("loglevel")
	s.Logging.Format = v.GetString("logformat")
}

// Usage returns a pflag usage func listing the flags and their environment names.
func Usage(fs *pflag.FlagSet, name, summary string, examples ...string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n\n%s\n\nOptions:\n", name, summary)
		fs.PrintDefaults()
		if len(examples) > 0 {
			fmt.Fprintf(os.Stderr, "\nExamples:\n")
			for _, e := range examples {
				fmt.Fprintf(os.Stderr, "  %s %s\n", name, e)
			}
		}
		fmt.Fprintf(os.Stderr, "\nEvery option can also be set as %s_<NAME>, e.g. %s_MAX_TABLES=20.\n", EnvPrefix, EnvPrefix)
	}
}
