package container

import "regexp"

// htmlMarkers are elements that only appear in real HTML bodies. Legacy SGML text
// filings use <TABLE>, <CAPTION>, <S> and <C> and <PAGE>, which are not listed.
var htmlMarkers = regexp.MustCompile(`(?i)<(?:html|body|div|p|br|font|tr|td|th|span|h[1-6])[\s>/]`)

// htmlScanLimit bounds how much of a body is inspected.
const htmlScanLimit = 64 * 1024

// LooksLikeHTML is the default guess for whether a document body is primarily HTML.
func LooksLikeHTML(body string) bool {
	if len(body) > htmlScanLimit {
		body = body[:htmlScanLimit]
	}
	return htmlMarkers.MatchString(body)
}
