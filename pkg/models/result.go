package models

// DocumentState is the lifecycle position of a document inside one run.
type DocumentState string

const (
	StatePending    DocumentState = "pending"
	StateClassified DocumentState = "classified"
	StateExtracted  DocumentState = "extracted"
	StateDone       DocumentState = "done"
)

// DocumentStatus is the outcome recorded for every document, including skipped ones.
type DocumentStatus string

const (
	StatusProcessed DocumentStatus = "processed"
	StatusSkipped   DocumentStatus = "skipped"
	StatusFailed    DocumentStatus = "failed"
)

// ErrorKind classifies recoverable, per-document errors.
type ErrorKind string

const (
	ErrTruncatedDocument ErrorKind = "truncated_document"
	ErrTableParse        ErrorKind = "table_parse_failed"
	ErrExtractor         ErrorKind = "extractor_failed"
)

// SkipReason explains why a document was not extracted.
type SkipReason string

const (
	SkipUnrecognizedType SkipReason = "unrecognized_type"
	SkipDocumentLimit    SkipReason = "document_limit"
)

// RecoverableError is a non-fatal problem tied to one document.
type RecoverableError struct {
	DocumentIndex int       `json:"document_index"`
	Kind          ErrorKind `json:"kind"`
	Message       string    `json:"message"`
}

// SkipNote records a document that went straight to done without extraction.
type SkipNote struct {
	DocumentIndex int        `json:"document_index"`
	TypeTag       string     `json:"type"`
	Reason        SkipReason `json:"reason"`
}

// ProcessingSummary aggregates counts and errors for one filing.
type ProcessingSummary struct {
	DocumentsSeen      int                `json:"documents_seen"`
	DocumentsProcessed int                `json:"documents_processed"`
	DocumentsSkipped   int                `json:"documents_skipped"`
	DocumentsFailed    int                `json:"documents_failed"`
	TablesExtracted    int                `json:"tables_extracted"`
	SectionsExtracted  int                `json:"sections_extracted"`
	Errors             []RecoverableError `json:"errors"`
	Skips              []SkipNote         `json:"skips"`
	Finalized          bool               `json:"finalized"`
}

// AddError appends a recoverable error.
func (s *ProcessingSummary) AddError(docIndex int, kind ErrorKind, msg string) {
	s.Errors = append(s.Errors, RecoverableError{DocumentIndex: docIndex, Kind: kind, Message: msg})
}

// AddSkip appends a skip note and counts the document as skipped.
func (s *ProcessingSummary) AddSkip(doc *Document, reason SkipReason) {
	s.Skips = append(s.Skips, SkipNote{DocumentIndex: doc.Index, TypeTag: doc.TypeTag, Reason: reason})
	s.DocumentsSkipped++
}

// Finalize marks the summary complete. Nil slices become empty so the JSON shape is stable.
func (s *ProcessingSummary) Finalize() {
	if s.Errors == nil {
		s.Errors = []RecoverableError{}
	}
	if s.Skips == nil {
		s.Skips = []SkipNote{}
	}
	s.Finalized = true
}

// DocumentResult is the per-document output. One exists for every document.
type DocumentResult struct {
	Document *Document      `json:"document"`
	State    DocumentState  `json:"state"`
	Status   DocumentStatus `json:"status"`
	Profile  string         `json:"profile,omitempty"`
	Sections *Section       `json:"sections,omitempty"`
	Tables   []Table        `json:"tables,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// FilingStatus is the overall result of one filing.
type FilingStatus string

const (
	FilingOK     FilingStatus = "ok"
	FilingFailed FilingStatus = "failed"
)

// FilingResult is what the assembler hands to output writers.
type FilingResult struct {
	Filing    *Filing           `json:"filing"`
	FormType  string            `json:"form_type,omitempty"`
	Profile   string            `json:"profile,omitempty"`
	Documents []*DocumentResult `json:"documents"`
	Summary   ProcessingSummary `json:"summary"`
	Status    FilingStatus      `json:"status"`
	Error     string            `json:"error,omitempty"`
}
