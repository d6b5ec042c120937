package config

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"edgar_extract/pkg/core/pipeline"
	"edgar_extract/pkg/core/profile"
	"edgar_extract/pkg/core/sections"
	"edgar_extract/pkg/core/tables"
	"edgar_extract/pkg/models"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel maps the configured level name, defaulting to info.
func (s *Settings) SlogLevel() slog.Level {
	if l, ok := logLevels[strings.ToLower(s.Logging.Level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// NewLogger builds the binaries' logger writing to w.
func (s *Settings) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.SlogLevel()}
	if s.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (s *Settings) tableOptions() tables.Options {
	o := tables.DefaultOptions()
	p := s.Parser
	o.MaxTables = p.MaxTablesPerDocument
	o.MinRows = p.MinTableRows
	o.MinColumns = p.MinTableColumns
	o.TitleLookback = p.TitleLookback
	o.MaxBlankGap = p.MaxBlankGap
	o.LegacyBlocks = p.LegacyTableBlocks
	o.NormalizeNumbers = p.NormalizeNumbers
	o.Patterns = append([]tables.LinePattern(nil), p.TextTablePatterns...)
	return o
}

func (s *Settings) sectionOptions() sections.Options {
	return sections.Options{
		Boilerplate:           append([]string(nil), s.Parser.Boilerplate...),
		StripPageMarkers:      s.Parser.StripPageMarkers,
		PromoteStyledHeadings: s.Parser.PromoteStyledHeadings,
	}
}

// Policy compiles the parser settings into a pipeline policy.
func (s *Settings) Policy(logger *slog.Logger) pipeline.Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return pipeline.Policy{
		ProcessAllDocuments: s.Parser.ProcessAllDocuments,
		MaxDocuments:        s.Parser.MaxDocumentsPerFiling,
		Sections:            s.sectionOptions(),
		Tables:              s.tableOptions(),
		Logger:              logger,
	}
}

// Registry merges the profile overrides into the built-in profiles and builds the
// immutable registry. Overrides are applied in name order.
func (s *Settings) Registry() (*profile.Registry, error) {
	base := profile.Defaults()
	index := make(map[string]int, len(base))
	for i, p := range base {
		index[p.Name] = i
	}

	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o := s.Profiles[name]
		if i, ok := index[name]; ok {
			base[i] = mergeProfile(base[i], o)
			continue
		}
		p := mergeProfile(models.FilingTypeProfile{Name: name}, o)
		if len(p.TypeTags) == 0 && strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("profile override with empty name and no type tags")
		}
		index[name] = len(base)
		base = append(base, p)
	}

	reg, err := profile.NewRegistry(base)
	if err != nil {
		return nil, fmt.Errorf("build profile registry: %w", err)
	}
	return reg, nil
}

func mergeProfile(p models.FilingTypeProfile, o ProfileSettings) models.FilingTypeProfile {
	if o.Label != "" {
		p.Label = o.Label
	}
	if len(o.TypeTags) > 0 {
		p.TypeTags = append([]string(nil), o.TypeTags...)
	}
	if len(o.TableKeywords) > 0 {
		p.TableKeywords = append([]string(nil), o.TableKeywords...)
	}
	if len(o.ExtraTableKeywords) > 0 {
		p.TableKeywords = append(append([]string(nil), p.TableKeywords...), o.ExtraTableKeywords...)
	}
	if len(o.SectionAnchors) > 0 {
		p.SectionAnchors = append([]string(nil), o.SectionAnchors...)
	}
	if o.ItemAnchors != nil {
		p.ItemAnchors = *o.ItemAnchors
	}
	return p
}

// NewAssembler builds the registry and an assembler from the settings.
func (s *Settings) NewAssembler(logger *slog.Logger) (*pipeline.Assembler, error) {
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}
	return pipeline.NewAssembler(reg, s.Policy(logger))
}
