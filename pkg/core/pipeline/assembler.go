// Package pipeline assembles a filing: it splits the container, classifies every
// document, runs the section and table extractors under the document policy, and
// accumulates a ProcessingSummary.
//
// Documents are processed one at a time in source order. A document-level failure
// is recorded in the summary and never stops the remaining documents; only a
// container with no document markers fails the whole filing.
package pipeline

import (
	"fmt"
	"log/slog"

	"edgar_extract/pkg/core/container"
	"edgar_extract/pkg/core/markup"
	"edgar_extract/pkg/core/profile"
	"edgar_extract/pkg/core/sections"
	"edgar_extract/pkg/core/tables"
	"edgar_extract/pkg/models"
)

// Source is one decoded filing.
type Source struct {
	ID       string // path or other identifier, copied to Filing.Source
	Ticker   string // "" when unknown
	Text     string
	Encoding models.EncodingInfo
}

// Policy is the immutable per-filing configuration.
type Policy struct {
	ProcessAllDocuments bool // false: only documents with a recognized type are extracted
	MaxDocuments        int  // 0 means no limit
	Sections            sections.Options
	Tables              tables.Options
	Logger              *slog.Logger
}

// DefaultPolicy extracts recognized documents only.
func DefaultPolicy() Policy {
	return Policy{
		Sections: sections.DefaultOptions(),
		Tables:   tables.DefaultOptions(),
		Logger:   slog.Default(),
	}
}

// HTMLDetector decides whether a document body is primarily HTML.
type HTMLDetector func(body string) bool

// Assembler runs the extraction pipeline. It holds only read-only state after
// construction and may be shared by concurrent workers.
type Assembler struct {
	registry *profile.Registry
	policy   Policy
	preparer *markup.Preparer
	sections *sections.Extractor
	tables   *tables.Extractor
	detect   HTMLDetector
	logger   *slog.Logger
}

// NewAssembler builds an Assembler over a constructed registry.
func NewAssembler(registry *profile.Registry, policy Policy) (*Assembler, error) {
	if registry == nil {
		return nil, fmt.Errorf("assembler: nil profile registry")
	}
	if policy.MaxDocuments < 0 {
		return nil, fmt.Errorf("assembler: max documents must be >= 0, got %d", policy.MaxDocuments)
	}
	te, err := tables.NewExtractor(policy.Tables)
	if err != nil {
		return nil, fmt.Errorf("assembler: %w", err)
	}
	logger := policy.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		registry: registry,
		policy:   policy,
		preparer: markup.NewPreparer(markup.Options{PromoteStyledHeadings: policy.Sections.PromoteStyledHeadings}),
		sections: sections.NewExtractor(policy.Sections),
		tables:   te,
		detect:   container.LooksLikeHTML,
		logger:   logger.With("component", "assembler"),
	}, nil
}

// SetHTMLDetector replaces the default HTML guess, e.g. with a flag from an
// upstream decoder. Call before sharing the assembler.
func (a *Assembler) SetHTMLDetector(d HTMLDetector) {
	if d != nil {
		a.detect = d
	}
}

// SetSectionExtractor replaces the section extractor (custom strategy layers).
// Call before sharing the assembler.
func (a *Assembler) SetSectionExtractor(e *sections.Extractor) {
	if e != nil {
		a.sections = e
	}
}

// Registry returns the profile registry the assembler classifies with.
func (a *Assembler) Registry() *profile.Registry { return a.registry }

// Policy returns the policy the assembler was built with.
func (a *Assembler) Policy() Policy { return a.policy }

// Process extracts one filing. The result is always non-nil. The error is non-nil
// only when the container is malformed; the result then has Status failed.
func (a *Assembler) Process(src Source) (*models.FilingResult, error) {
	log := a.logger.With("source", src.ID)

	filing := &models.Filing{
		Source:   src.ID,
		Ticker:   src.Ticker,
		Encoding: src.Encoding,
	}
	result := &models.FilingResult{
		Filing:    filing,
		Documents: []*models.DocumentResult{},
		Status:    models.FilingOK,
	}

	docs, err := container.Split(src.Text)
	if err != nil {
		log.Error("filing rejected", "error", err)
		filing.Documents = []*models.Document{}
		result.Status = models.FilingFailed
		result.Error = err.Error()
		result.Summary.Finalize()
		return result, fmt.Errorf("split %s: %w", src.ID, err)
	}

	filing.Metadata = container.ParseHeader(src.Text)
	filing.Documents = docs
	fillMetadataFallbacks(&filing.Metadata, docs)

	result.FormType = filing.Metadata.FormType
	if p := a.registry.Classify(result.FormType); p != nil {
		result.Profile = p.Name
	}

	for i, doc := range docs {
		result.Documents = append(result.Documents, a.processDocument(i, doc, src.Encoding, &result.Summary, log))
	}
	result.Summary.Finalize()

	log.Info("filing processed",
		"form_type", result.FormType,
		"documents", result.Summary.DocumentsSeen,
		"processed", result.Summary.DocumentsProcessed,
		"skipped", result.Summary.DocumentsSkipped,
		"failed", result.Summary.DocumentsFailed,
		"sections", result.Summary.SectionsExtracted,
		"tables", result.Summary.TablesExtracted,
	)
	return result, nil
}

// processDocument drives one document through pending -> classified -> extracted -> done.
func (a *Assembler) processDocument(pos int, doc *models.Document, enc models.EncodingInfo, summary *models.ProcessingSummary, log *slog.Logger) *models.DocumentResult {
	doc.Encoding = enc
	doc.IsHTML = a.detect(doc.Body)
	res := &models.DocumentResult{Document: doc, State: models.StatePending}
	summary.DocumentsSeen++

	if doc.Truncated {
		summary.AddError(doc.Index, models.ErrTruncatedDocument,
			fmt.Sprintf("document %d (%s) has no closing marker", doc.Index, doc.TypeTag))
		log.Warn("truncated document", "index", doc.Index, "type", doc.TypeTag)
	}

	if a.policy.MaxDocuments > 0 && pos >= a.policy.MaxDocuments {
		res.State, res.Status = models.StateDone, models.StatusSkipped
		summary.AddSkip(doc, models.SkipDocumentLimit)
		return res
	}

	doc.Profile = a.registry.Classify(doc.TypeTag)
	res.State = models.StateClassified
	if doc.Profile != nil {
		res.Profile = doc.Profile.Name
	}

	if doc.Profile == nil && !a.policy.ProcessAllDocuments {
		res.State, res.Status = models.StateDone, models.StatusSkipped
		summary.AddSkip(doc, models.SkipUnrecognizedType)
		log.Debug("skipping unrecognized document", "index", doc.Index, "type", doc.TypeTag)
		return res
	}

	a.extract(doc, res, summary, log)
	return res
}

// extract runs both extractors. A panic in either marks the document failed.
func (a *Assembler) extract(doc *models.Document, res *models.DocumentResult, summary *models.ProcessingSummary, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("extraction of document %d (%s) failed: %v", doc.Index, doc.TypeTag, r)
			res.State, res.Status = models.StateDone, models.StatusFailed
			res.Sections, res.Tables = nil, nil
			res.Error = msg
			summary.AddError(doc.Index, models.ErrExtractor, msg)
			summary.DocumentsFailed++
			log.Error("document failed", "index", doc.Index, "type", doc.TypeTag, "panic", r)
		}
	}()

	content := a.preparer.Prepare(doc.Body, doc.IsHTML)
	root, layer := a.sections.ExtractContent(content, doc.Profile, doc.TypeTag, doc.Index)
	found, tableErrs := a.tables.ExtractContent(content, doc.Profile)
	for _, te := range tableErrs {
		summary.AddError(doc.Index, models.ErrTableParse, te.Error())
		log.Warn("table dropped", "index", doc.Index, "error", te)
	}
	res.State = models.StateExtracted
	res.Sections = root
	res.Tables = found

	summary.SectionsExtracted += root.Count()
	summary.TablesExtracted += len(found)
	summary.DocumentsProcessed++
	res.State, res.Status = models.StateDone, models.StatusProcessed

	log.Debug("document extracted",
		"index", doc.Index,
		"type", doc.TypeTag,
		"html", doc.IsHTML,
		"layer", layer,
		"sections", root.Count(),
		"tables", len(found),
	)
}

// fillMetadataFallbacks takes the CIK and form type from the documents when the
// outer header does not carry them.
func fillMetadataFallbacks(md *models.FilingMetadata, docs []*models.Document) {
	if md.CIK == "" {
		for _, d := range docs {
			if d.CIK != "" {
				md.CIK = d.CIK
				break
			}
		}
	}
	if md.FormType == "" && len(docs) > 0 && docs[0].TypeTag != models.UnknownType {
		md.FormType = docs[0].TypeTag
	}
}
