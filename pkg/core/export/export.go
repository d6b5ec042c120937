// Package export writes a FilingResult to an output directory:
//
//	metadata.json         filing header, ticker, encoding and counts
//	summary.json          the processing summary
//	sections/             all_sections.json plus one section_<id>.json per node
//	tables/               HTML tables as CSV
//	text_tables/          text tables as CSV
//	sections.md|.html     optional readable rendering
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"unicode"

	"edgar_extract/pkg/models"
)

// MaxFilenameLength caps the sanitized part of table file names.
const MaxFilenameLength = 50

// Options select the optional outputs.
type Options struct {
	Markdown     bool // sections.md
	HTML         bool // sections.html rendered from the markdown
	SectionFiles bool // one JSON file per section next to all_sections.json
	Logger       *slog.Logger
}

// DefaultOptions writes everything but the HTML rendering.
func DefaultOptions() Options {
	return Options{Markdown: true, SectionFiles: true, Logger: slog.Default()}
}

// Writer writes results to disk. It has no mutable state and may be shared.
type Writer struct {
	opts   Options
	logger *slog.Logger
}

// NewWriter builds a Writer.
func NewWriter(opts Options) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{opts: opts, logger: logger.With("component", "export")}
}

// Manifest lists the files written, relative to the output directory.
type Manifest struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// Metadata is the content of metadata.json.
type Metadata struct {
	Source   string              `json:"source"`
	Ticker   string              `json:"ticker,omitempty"`
	Encoding models.EncodingInfo `json:"detected_encoding"`
	models.FilingMetadata
	Profile       string              `json:"profile,omitempty"`
	Status        models.FilingStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
	DocumentCount int                 `json:"document_count"`
	DocumentTypes []string            `json:"document_types"` // extracted documents only
	TablesCount   int                 `json:"tables_count"`
	SectionsCount int                 `json:"sections_count"`
}

// FlatSection is one section node in all_sections.json.
type FlatSection struct {
	ID            string `json:"id"`
	ParentID      string `json:"parent_id,omitempty"`
	DocumentIndex int    `json:"document_index"`
	DocumentType  string `json:"document_type"`
	Level         int    `json:"level"`
	Title         string `json:"title"`
	Heading       string `json:"heading,omitempty"`
	Body          string `json:"body"`
}

// MetadataOf builds metadata.json for res.
func MetadataOf(res *models.FilingResult) Metadata {
	md := Metadata{
		Status:        res.Status,
		Error:         res.Error,
		Profile:       res.Profile,
		DocumentTypes: []string{},
		TablesCount:   res.Summary.TablesExtracted,
		SectionsCount: res.Summary.SectionsExtracted,
	}
	if f := res.Filing; f != nil {
		md.Source, md.Ticker, md.Encoding = f.Source, f.Ticker, f.Encoding
		md.FilingMetadata = f.Metadata
		md.DocumentCount = len(f.Documents)
	}
	if md.FormType == "" {
		md.FormType = res.FormType
	}
	for _, d := range res.Documents {
		if d.Status == models.StatusProcessed {
			md.DocumentTypes = append(md.DocumentTypes, d.Document.TypeTag)
		}
	}
	return md
}

// FlattenSections lists every section of every extracted document in pre-order.
func FlattenSections(res *models.FilingResult) []FlatSection {
	out := []FlatSection{}
	for _, d := range res.Documents {
		if d.Sections == nil {
			continue
		}
		var walk func(s *models.Section, parent string)
		walk = func(s *models.Section, parent string) {
			out = append(out, FlatSection{
				ID:            s.ID,
				ParentID:      parent,
				DocumentIndex: d.Document.Index,
				DocumentType:  d.Document.TypeTag,
				Level:         s.Level,
				Title:         s.Title,
				Heading:       s.Heading,
				Body:          s.Body,
			})
			for _, c := range s.Children {
				walk(c, s.ID)
			}
		}
		walk(d.Sections, "")
	}
	return out
}

// Write writes res under dir, creating it as needed.
func (w *Writer) Write(dir string, res *models.FilingResult) (*Manifest, error) {
	m := &Manifest{Dir: dir}
	for _, sub := range []string{"", "tables", "text_tables", "sections"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := w.json(m, "metadata.json", MetadataOf(res)); err != nil {
		return nil, err
	}
	if err := w.json(m, "summary.json", res.Summary); err != nil {
		return nil, err
	}

	flat := FlattenSections(res)
	if err := w.json(m, filepath.Join("sections", "all_sections.json"), flat); err != nil {
		return nil, err
	}
	if w.opts.SectionFiles {
		for _, s := range flat {
			if err := w.json(m, filepath.Join("sections", "section_"+s.ID+".json"), s); err != nil {
				return nil, err
			}
		}
	}

	if err := w.tables(m, res); err != nil {
		return nil, err
	}

	if w.opts.Markdown || w.opts.HTML {
		md := Markdown(res)
		if !ValidateMarkdown(md) {
			w.logger.Warn("markdown rendering did not parse", "dir", dir)
		}
		if w.opts.Markdown {
			if err := w.file(m, "sections.md", md); err != nil {
				return nil, err
			}
		}
		if w.opts.HTML {
			page, err := RenderHTML(md, MetadataOf(res).CompanyName)
			if err != nil {
				return nil, fmt.Errorf("render html: %w", err)
			}
			if err := w.file(m, "sections.html", page); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(m.Files)
	w.logger.Debug("filing written", "dir", dir, "files", len(m.Files))
	return m, nil
}

// tables writes one CSV per table. File numbers run across documents per directory.
func (w *Writer) tables(m *Manifest, res *models.FilingResult) error {
	counters := map[models.TableKind]int{}
	for _, d := range res.Documents {
		for i := range d.Tables {
			t := &d.Tables[i]
			sub, fallback := "tables", "table"
			if t.Kind == models.TableKindText {
				sub, fallback = "text_tables", "text_table"
			}
			counters[t.Kind]++
			name := CleanFilename(t.TitleOr(""), MaxFilenameLength)
			if name == "" {
				name = fallback
			}
			rel := filepath.Join(sub, fmt.Sprintf("%s_%d.csv", name, counters[t.Kind]))
			if err := writeCSV(filepath.Join(m.Dir, rel), t.Rows); err != nil {
				return fmt.Errorf("write %s: %w", rel, err)
			}
			m.Files = append(m.Files, rel)
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) json(m *Manifest, rel string, v any) error {
	if err := WriteJSON(filepath.Join(m.Dir, rel), v); err != nil {
		return err
	}
	m.Files = append(m.Files, rel)
	return nil
}

func (w *Writer) file(m *Manifest, rel string, data []byte) error {
	if err := os.WriteFile(filepath.Join(m.Dir, rel), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	m.Files = append(m.Files, rel)
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// CleanFilename keeps letters, digits, '-' and '_', replaces everything else with
// '_' and truncates to max runes.
func CleanFilename(name string, max int) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if len(out) == max {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
