// Package container splits an EDGAR full-text submission into its <DOCUMENT> blocks
// and reads the outer SEC header.
//
// A submission looks like:
//
//	<SEC-HEADER> ... </SEC-HEADER>
//	<DOCUMENT>
//	<TYPE>10-K
//	<SEQUENCE>1
//	<FILENAME>form10k.htm
//	<TEXT>
//	...
//	</TEXT>
//	</DOCUMENT>
package container

import (
	"fmt"
	"strconv"
	"strings"

	"edgar_extract/pkg/models"
)

const (
	openMarker  = "<DOCUMENT>"
	closeMarker = "</DOCUMENT>"
	textOpen    = "<TEXT>"
	textClose   = "</TEXT>"
)

// MalformedContainerError is returned when the input has no document markers at all.
// It is the only fatal splitter condition.
type MalformedContainerError struct {
	Reason string
}

func (e *MalformedContainerError) Error() string {
	return fmt.Sprintf("malformed container: %s", e.Reason)
}

// block is the byte range between an open marker line and its close marker line.
type block struct {
	start, end int
	truncated  bool
}

// Split scans raw for <DOCUMENT> pairs and returns one Document per pair, in source order.
//
// A missing <TYPE> yields "UNKNOWN"; a missing or non-numeric <SEQUENCE> yields the
// encounter index. An open marker that is never closed is closed at the next open
// marker or at EOF, and the document is flagged Truncated. Empty bodies are kept.
func Split(raw string) ([]*models.Document, error) {
	blocks := scanBlocks(raw)
	if len(blocks) == 0 {
		return nil, &MalformedContainerError{Reason: "no <DOCUMENT> markers found"}
	}

	docs := make([]*models.Document, 0, len(blocks))
	for i, b := range blocks {
		doc := parseBlock(raw[b.start:b.end], i+1)
		doc.Truncated = b.truncated
		docs = append(docs, doc)
	}
	return docs, nil
}

// CountMarkers reports how many open markers raw contains.
func CountMarkers(raw string) int {
	return len(scanBlocks(raw))
}

// FirstMarkerOffset returns the byte offset of the first open marker line, or -1.
func FirstMarkerOffset(raw string) int {
	off := -1
	eachLine(raw, func(start, end, _ int) bool {
		if hasTagPrefix(raw[start:end], openMarker) {
			off = start
			return false
		}
		return true
	})
	return off
}

func scanBlocks(raw string) []block {
	var blocks []block
	open := -1

	eachLine(raw, func(start, end, next int) bool {
		line := raw[start:end]
		switch {
		case hasTagPrefix(line, openMarker):
			if open >= 0 {
				// Documents never nest: a second open closes the first.
				blocks = append(blocks, block{start: open, end: start, truncated: true})
			}
			open = next
		case hasTagPrefix(line, closeMarker):
			if open >= 0 {
				blocks = append(blocks, block{start: open, end: start})
				open = -1
			}
		}
		return true
	})

	if open >= 0 {
		blocks = append(blocks, block{start: open, end: len(raw), truncated: true})
	}
	return blocks
}

// parseBlock reads the header tags of one document and slices out its body.
func parseBlock(content string, index int) *models.Document {
	doc := &models.Document{
		Index:    index,
		TypeTag:  models.UnknownType,
		Sequence: index,
	}

	bodyStart := -1
	headerEnd := 0
	inHeader := true

	eachLine(content, func(start, end, next int) bool {
		line := content[start:end]
		trimmed := strings.TrimSpace(line)

		if hasTagPrefix(line, textOpen) {
			pos := start + len(line) - len(strings.TrimLeft(line, " \t")) + len(textOpen)
			if strings.TrimSpace(content[pos:end]) == "" {
				pos = next
			}
			bodyStart = pos
			return false
		}

		if !inHeader {
			return true
		}
		switch {
		case hasTagPrefix(line, "<TYPE>"):
			if v := tagValue(trimmed, "<TYPE>"); v != "" {
				doc.TypeTag = v
			}
		case hasTagPrefix(line, "<SEQUENCE>"):
			if n, err := strconv.Atoi(tagValue(trimmed, "<SEQUENCE>")); err == nil {
				doc.Sequence = n
				doc.SequenceDeclared = true
			}
		case hasTagPrefix(line, "<FILENAME>"):
			doc.Filename = tagValue(trimmed, "<FILENAME>")
		case hasTagPrefix(line, "<DESCRIPTION>"):
			doc.Description = tagValue(trimmed, "<DESCRIPTION>")
		case trimmed == "":
			// blank lines between header tags
		default:
			inHeader = false
			return true
		}
		headerEnd = next
		return true
	})

	if bodyStart >= 0 {
		body := content[bodyStart:]
		if i := indexFold(body, textClose); i >= 0 {
			body = body[:i]
		}
		doc.Body = body
	} else {
		doc.Body = content[headerEnd:]
	}

	doc.CIK = DocumentCIK(content)
	return doc
}

// eachLine calls fn with the [start,end) range of every line, excluding the newline
// and a trailing carriage return, plus the offset where the following line starts.
// Iteration stops when fn returns false.
func eachLine(s string, fn func(start, end, next int) bool) {
	start := 0
	for start <= len(s) {
		nl := strings.IndexByte(s[start:], '\n')
		end, next := len(s), len(s)
		if nl >= 0 {
			end = start + nl
			next = end + 1
		}
		lineEnd := end
		if lineEnd > start && s[lineEnd-1] == '\r' {
			lineEnd--
		}
		if !fn(start, lineEnd, next) {
			return
		}
		if nl < 0 {
			return
		}
		start = next
	}
}

// hasTagPrefix reports whether line, ignoring leading whitespace and case, starts with tag.
func hasTagPrefix(line, tag string) bool {
	line = strings.TrimLeft(line, " \t")
	if len(line) < len(tag) {
		return false
	}
	return strings.EqualFold(line[:len(tag)], tag)
}

func tagValue(trimmed, tag string) string {
	return strings.TrimSpace(trimmed[len(tag):])
}

// indexFold is a case-insensitive strings.Index for ASCII needles. Bytes of s are
// folded one at a time, so offsets stay valid in non-ASCII text.
func indexFold(s, needle string) int {
	n := len(needle)
	if n == 0 {
		return 0
	}
	first := upperASCII(needle[0])
	for i := 0; i+n <= len(s); i++ {
		if upperASCII(s[i]) != first {
			continue
		}
		j := 1
		for j < n && upperASCII(s[i+j]) == upperASCII(needle[j]) {
			j++
		}
		if j == n {
			return i
		}
	}
	return -1
}

func upperASCII(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
