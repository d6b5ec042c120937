package models

import "strings"

// Section is a node of a document's section tree.
//
// Heading is the cleaned heading line exactly as it appeared (empty for the root)
// and Body is the cleaned text up to the next heading of any level. Both keep
// their trailing newlines, so Text() on the root rebuilds the cleaned document.
type Section struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Heading  string     `json:"heading,omitempty"`
	Level    int        `json:"level"`
	Body     string     `json:"body"`
	Children []*Section `json:"children,omitempty"`
}

// Walk visits s and its descendants in pre-order.
func (s *Section) Walk(fn func(*Section)) {
	if s == nil {
		return
	}
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the tree rooted at s.
func (s *Section) Count() int {
	n := 0
	s.Walk(func(*Section) { n++ })
	return n
}

// Leaves returns the nodes without children, in tree order.
func (s *Section) Leaves() []*Section {
	var out []*Section
	s.Walk(func(n *Section) {
		if len(n.Children) == 0 {
			out = append(out, n)
		}
	})
	return out
}

// Text concatenates heading and body of every node in pre-order.
func (s *Section) Text() string {
	var sb strings.Builder
	s.Walk(func(n *Section) {
		sb.WriteString(n.Heading)
		sb.WriteString(n.Body)
	})
	return sb.String()
}
