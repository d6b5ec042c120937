// Package store keeps the filing tracker: a catalog of filing files with their
// parse status, so batch runs can skip filings that were already parsed and whose
// content has not changed since.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"edgar_extract/pkg/models"
)

// Parse statuses recorded by MarkParsed.
const (
	StatusSuccess = "success"
	StatusPartial = "partial" // parsed, but with recoverable errors or failed documents
	StatusFailed  = "failed"
)

// ErrUnknownFiling is returned when a path has not been cataloged.
var ErrUnknownFiling = errors.New("filing not cataloged")

// Filing is one tracked filing file.
type Filing struct {
	Path        string `json:"path"`
	Ticker      string `json:"ticker,omitempty"`
	FormType    string `json:"form_type,omitempty"`
	Accession   string `json:"accession_number,omitempty"`
	FilingDate  string `json:"filing_date,omitempty"`
	ContentHash string `json:"content_hash"`
	Parsed      bool   `json:"parsed"`
	ParseStatus string `json:"parse_status,omitempty"`
	ParsedAt    string `json:"parsed_at,omitempty"`
	Documents   int    `json:"documents"`
	Sections    int    `json:"sections"`
	Tables      int    `json:"tables"`
	Error       string `json:"error,omitempty"`
}

// Outcome is what a parse run reports back to the tracker.
type Outcome struct {
	Status     string
	FormType   string
	Accession  string
	FilingDate string
	Documents  int
	Sections   int
	Tables     int
	Error      string
}

// OutcomeOf summarizes a filing result for MarkParsed.
func OutcomeOf(res *models.FilingResult) Outcome {
	o := Outcome{
		Status:    StatusSuccess,
		FormType:  res.FormType,
		Documents: res.Summary.DocumentsSeen,
		Sections:  res.Summary.SectionsExtracted,
		Tables:    res.Summary.TablesExtracted,
		Error:     res.Error,
	}
	if res.Filing != nil {
		o.Accession = res.Filing.Metadata.AccessionNumber
		o.FilingDate = res.Filing.Metadata.FiledAsOfDate
	}
	switch {
	case res.Status == models.FilingFailed:
		o.Status = StatusFailed
	case len(res.Summary.Errors) > 0 || res.Summary.DocumentsFailed > 0:
		o.Status = StatusPartial
	}
	return o
}

// Stats summarizes the catalog.
type Stats struct {
	Total           int            `json:"total_filings"`
	Parsed          int            `json:"parsed_filings"`
	Unparsed        int            `json:"unparsed_filings"`
	ByTicker        map[string]int `json:"filings_by_ticker"`
	ByFormType      map[string]int `json:"filings_by_type"`
	ByParseStatus   map[string]int `json:"parse_status"`
	FirstFilingDate string         `json:"first_filing_date,omitempty"`
	LastFilingDate  string         `json:"last_filing_date,omitempty"`
}

// Tracker is the parse-status catalog. Implementations are safe for concurrent use.
type Tracker interface {
	// Catalog adds or refreshes a filing. A changed content hash resets it to unparsed.
	Catalog(ctx context.Context, path, ticker, formType, contentHash string) error
	// IsParsed reports whether path was parsed with exactly this content hash.
	IsParsed(ctx context.Context, path, contentHash string) (bool, error)
	MarkParsed(ctx context.Context, path string, o Outcome) error
	MarkUnparsed(ctx context.Context, path string) error
	Get(ctx context.Context, path string) (*Filing, error)
	// Unparsed lists unparsed filings by path, optionally for one ticker.
	Unparsed(ctx context.Context, ticker string) ([]Filing, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects the tracker for driver and creates its schema.
func Open(ctx context.Context, driver, dsn string) (Tracker, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown tracker driver %q", driver)
	}
}

// ContentHash is the hex MD5 of r.
func ContentHash(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile is ContentHash over the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ContentHash(f)
}

// HashBytes is ContentHash over b.
func HashBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
