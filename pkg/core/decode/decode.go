// Package decode turns raw filing bytes into text and reports which encoding was
// used and how sure the guess was.
//
// Order: byte order mark or declared charset, full UTF-8 validation, a <meta>
// charset in the first KB, then Windows-1252. ISO-8859-1 is the last resort; it
// accepts any byte sequence.
package decode

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"edgar_extract/pkg/models"
)

// Confidence levels reported in models.EncodingInfo.
const (
	ConfidenceCertain  = 1.0 // BOM, declared charset, or valid UTF-8
	ConfidenceDeclared = 0.8 // <meta> charset
	ConfidenceGuess    = 0.5 // Windows-1252 default
	ConfidenceFallback = 0.0 // ISO-8859-1 after a decoder error
)

const (
	nameUTF8   = "utf-8"
	nameLatin1 = "iso-8859-1"
)

// Bytes decodes raw. contentType is an optional MIME type whose charset parameter
// is trusted, e.g. from an HTTP request.
func Bytes(raw []byte, contentType string) (string, models.EncodingInfo) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)

	switch {
	case certain && !(name == nameUTF8 && !utf8.Valid(raw)):
		if s, ok := decodeWith(enc, raw); ok {
			return s, models.EncodingInfo{Name: name, Confidence: ConfidenceCertain}
		}
	case utf8.Valid(raw):
		return strings.TrimPrefix(string(raw), "\ufeff"), models.EncodingInfo{Name: nameUTF8, Confidence: ConfidenceCertain}
	}

	conf := ConfidenceGuess
	if name != nameUTF8 && name != "windows-1252" {
		conf = ConfidenceDeclared
	} else {
		enc, name = charmap.Windows1252, "windows-1252"
	}
	if s, ok := decodeWith(enc, raw); ok {
		return s, models.EncodingInfo{Name: name, Confidence: conf}
	}
	s, _ := decodeWith(charmap.ISO8859_1, raw)
	return s, models.EncodingInfo{Name: nameLatin1, Confidence: ConfidenceFallback}
}

// File reads and decodes the file at path.
func File(path string) (string, models.EncodingInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", models.EncodingInfo{}, fmt.Errorf("read %s: %w", path, err)
	}
	text, info := Bytes(raw, "")
	return text, info, nil
}

func decodeWith(enc encoding.Encoding, raw []byte) (string, bool) {
	if enc == nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return strings.TrimPrefix(string(out), "\ufeff"), true
}
