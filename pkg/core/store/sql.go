package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS filings (
	path         TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL DEFAULT '',
	form_type    TEXT NOT NULL DEFAULT '',
	accession    TEXT NOT NULL DEFAULT '',
	filing_date  TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	parsed       BOOLEAN NOT NULL DEFAULT FALSE,
	parse_status TEXT NOT NULL DEFAULT '',
	parsed_at    TEXT NOT NULL DEFAULT '',
	documents    INTEGER NOT NULL DEFAULT 0,
	sections     INTEGER NOT NULL DEFAULT 0,
	tables       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT ''
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_filings_lookup ON filings (ticker, form_type, filing_date)`,
	`CREATE INDEX IF NOT EXISTS idx_filings_parsed ON filings (parsed)`,
	`CREATE INDEX IF NOT EXISTS idx_filings_accession ON filings (accession)`,
}

const filingColumns = `path, ticker, form_type, accession, filing_date, content_hash,
	parsed, parse_status, parsed_at, documents, sections, tables, error`

// sqlTracker implements Tracker over database/sql. Queries are written with ?
// placeholders and rebound per dialect.
type sqlTracker struct {
	db     *sql.DB
	rebind func(string) string
	now    func() time.Time
	close  func()
}

func newSQLTracker(ctx context.Context, db *sql.DB, rebind func(string) string) (*sqlTracker, error) {
	t := &sqlTracker{db: db, rebind: rebind, now: time.Now}
	if err := t.migrate(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *sqlTracker) migrate(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create filings table: %w", err)
	}
	for _, stmt := range indexes {
		if _, err := t.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (t *sqlTracker) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.db.ExecContext(ctx, t.rebind(query), args...)
}

func (t *sqlTracker) Catalog(ctx context.Context, path, ticker, formType, contentHash string) error {
	_, err := t.exec(ctx, `
		INSERT INTO filings (path, ticker, form_type, content_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			ticker = excluded.ticker,
			form_type = CASE WHEN excluded.form_type = '' THEN filings.form_type ELSE excluded.form_type END,
			parsed = CASE WHEN filings.content_hash = excluded.content_hash THEN filings.parsed ELSE FALSE END,
			content_hash = excluded.content_hash`,
		path, ticker, formType, contentHash)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}
	return nil
}

func (t *sqlTracker) IsParsed(ctx context.Context, path, contentHash string) (bool, error) {
	var parsed bool
	var hash string
	err := t.db.QueryRowContext(ctx, t.rebind(`SELECT parsed, content_hash FROM filings WHERE path = ?`), path).
		Scan(&parsed, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", path, err)
	}
	return parsed && hash == contentHash, nil
}

func (t *sqlTracker) MarkParsed(ctx context.Context, path string, o Outcome) error {
	res, err := t.exec(ctx, `
		UPDATE filings SET
			parsed = ?, parse_status = ?, parsed_at = ?,
			form_type = CASE WHEN ? = '' THEN form_type ELSE ? END,
			accession = ?, filing_date = ?,
			documents = ?, sections = ?, tables = ?, error = ?
		WHERE path = ?`,
		true, o.Status, t.now().UTC().Format(time.RFC3339),
		o.FormType, o.FormType,
		o.Accession, o.FilingDate,
		o.Documents, o.Sections, o.Tables, o.Error,
		path)
	return affected(res, err, "mark parsed", path)
}

func (t *sqlTracker) MarkUnparsed(ctx context.Context, path string) error {
	res, err := t.exec(ctx, `UPDATE filings SET parsed = ?, parse_status = '', parsed_at = '' WHERE path = ?`, false, path)
	return affected(res, err, "mark unparsed", path)
}

func affected(res sql.Result, err error, op, path string) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, path, ErrUnknownFiling)
	}
	return nil
}

func (t *sqlTracker) Get(ctx context.Context, path string) (*Filing, error) {
	row := t.db.QueryRowContext(ctx, t.rebind(`SELECT `+filingColumns+` FROM filings WHERE path = ?`), path)
	f, err := scanFiling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", path, ErrUnknownFiling)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return f, nil
}

func (t *sqlTracker) Unparsed(ctx context.Context, ticker string) ([]Filing, error) {
	query := `SELECT ` + filingColumns + ` FROM filings WHERE parsed = ?`
	args := []any{false}
	if ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, ticker)
	}
	query += ` ORDER BY path`

	rows, err := t.db.QueryContext(ctx, t.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list unparsed: %w", err)
	}
	defer rows.Close()

	out := []Filing{}
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, fmt.Errorf("list unparsed: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFiling(s scanner) (*Filing, error) {
	var f Filing
	err := s.Scan(&f.Path, &f.Ticker, &f.FormType, &f.Accession, &f.FilingDate, &f.ContentHash,
		&f.Parsed, &f.ParseStatus, &f.ParsedAt, &f.Documents, &f.Sections, &f.Tables, &f.Error)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (t *sqlTracker) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	var err error

	if st.ByTicker, err = t.countBy(ctx, `SELECT ticker, COUNT(*) FROM filings GROUP BY ticker`); err != nil {
		return nil, err
	}
	if st.ByFormType, err = t.countBy(ctx, `SELECT form_type, COUNT(*) FROM filings GROUP BY form_type`); err != nil {
		return nil, err
	}
	if st.ByParseStatus, err = t.countBy(ctx, `SELECT parse_status, COUNT(*) FROM filings WHERE parsed = ? GROUP BY parse_status`, true); err != nil {
		return nil, err
	}
	byParsed, err := t.countBy(ctx, `SELECT CASE WHEN parsed THEN 'parsed' ELSE 'unparsed' END, COUNT(*) FROM filings GROUP BY parsed`)
	if err != nil {
		return nil, err
	}
	st.Parsed, st.Unparsed = byParsed["parsed"], byParsed["unparsed"]
	st.Total = st.Parsed + st.Unparsed

	var first, last sql.NullString
	err = t.db.QueryRowContext(ctx, `SELECT MIN(filing_date), MAX(filing_date) FROM filings WHERE filing_date <> ''`).
		Scan(&first, &last)
	if err != nil {
		return nil, fmt.Errorf("filing date range: %w", err)
	}
	st.FirstFilingDate, st.LastFilingDate = first.String, last.String
	return st, nil
}

// countBy runs a two-column (key, count) query. Empty keys are reported as "unknown".
func (t *sqlTracker) countBy(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := t.db.QueryContext(ctx, t.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		if key == "" {
			key = "unknown"
		}
		out[key] += n
	}
	return out, rows.Err()
}

func (t *sqlTracker) Close() error {
	err := t.db.Close()
	if t.close != nil {
		t.close()
	}
	return err
}

// keepQuestionMarks is the SQLite rebind.
func keepQuestionMarks(q string) string { return q }

// dollarPlaceholders rewrites ? to $1, $2, ... for Postgres. Queries here never
// contain a literal question mark.
func dollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
