// Package models holds the data types produced by the EDGAR extraction pipeline.
package models

// FilingMetadata is the filing-level header parsed from the outer SEC-HEADER block.
// Dates are normalized to YYYY-MM-DD when the header carries YYYYMMDD.
type FilingMetadata struct {
	AccessionNumber   string `json:"accession_number,omitempty"`
	PeriodOfReport    string `json:"period_of_report,omitempty"`
	FiledAsOfDate     string `json:"filed_as_of_date,omitempty"`
	DateAsOfChange    string `json:"date_as_of_change,omitempty"`
	EffectivenessDate string `json:"effectiveness_date,omitempty"`
	CompanyName       string `json:"company_name,omitempty"`
	CIK               string `json:"cik,omitempty"`
	SIC               string `json:"sic,omitempty"`
	IRSNumber         string `json:"irs_number,omitempty"`
	FiscalYearEnd     string `json:"fiscal_year_end,omitempty"`
	FormType          string `json:"form_type,omitempty"`
	Act               string `json:"act,omitempty"`
	FileNumber        string `json:"file_number,omitempty"`
	FilmNumber        string `json:"film_number,omitempty"`
}

// EncodingInfo describes how the raw filing bytes were decoded.
type EncodingInfo struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
}

// Filing is one EDGAR full-text submission.
type Filing struct {
	Source    string         `json:"source"`
	Ticker    string         `json:"ticker,omitempty"` // "" when unknown
	Metadata  FilingMetadata `json:"metadata"`
	Encoding  EncodingInfo   `json:"encoding"`
	Documents []*Document    `json:"documents"`
}

// Document is one <DOCUMENT> block of a filing, in source order.
type Document struct {
	Index            int          `json:"index"`    // 1-based encounter order
	TypeTag          string       `json:"type"`     // raw <TYPE>, "UNKNOWN" when absent
	Sequence         int          `json:"sequence"` // declared <SEQUENCE>, or Index when absent
	SequenceDeclared bool         `json:"sequence_declared"`
	Filename         string       `json:"filename,omitempty"`
	Description      string       `json:"description,omitempty"`
	CIK              string       `json:"cik,omitempty"`
	Body             string       `json:"-"`
	IsHTML           bool         `json:"is_html"`
	Truncated        bool         `json:"truncated,omitempty"`
	Encoding         EncodingInfo `json:"encoding"`

	Profile *FilingTypeProfile `json:"-"` // nil when unclassified
}

// UnknownType is the type tag assigned to documents without a <TYPE> line.
const UnknownType = "UNKNOWN"

// FilingTypeProfile describes one recognized filing type.
type FilingTypeProfile struct {
	Name           string   `json:"name" yaml:"name"`
	Label          string   `json:"label,omitempty" yaml:"label"`
	TypeTags       []string `json:"type_tags" yaml:"type_tags"`
	TableKeywords  []string `json:"table_keywords,omitempty" yaml:"table_keywords"`
	SectionAnchors []string `json:"section_anchors,omitempty" yaml:"section_anchors"`
	ItemAnchors    bool     `json:"item_anchors,omitempty" yaml:"item_anchors"` // "Item N." headings (10-K/10-Q family)
}
