package models

// TableKind records which extraction path produced a table.
type TableKind string

const (
	TableKindHTML TableKind = "html"
	TableKindText TableKind = "text"
)

// Table is a rectangular grid of cell strings recovered from a document.
type Table struct {
	Index           int        `json:"index"` // discovery order within the document
	Kind            TableKind  `json:"kind"`
	Title           *string    `json:"title"`
	Rows            [][]string `json:"rows"`
	Score           int        `json:"score"`
	MatchedKeywords []string   `json:"matched_keywords,omitempty"`
}

// Columns returns the width of the table.
func (t *Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// TitleOr returns the title, or fallback when the table has none.
func (t *Table) TitleOr(fallback string) string {
	if t.Title == nil {
		return fallback
	}
	return *t.Title
}
