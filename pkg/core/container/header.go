package container

import (
	"regexp"
	"strings"

	"edgar_extract/pkg/models"
)

// maxHeaderScan bounds the header search when a submission has no document markers.
const maxHeaderScan = 2000

// Header field patterns as they appear in the SEC-HEADER block.
var (
	headerAccession     = regexp.MustCompile(`(?m)ACCESSION NUMBER:\s+(\S+)`)
	headerPeriod        = regexp.MustCompile(`(?m)CONFORMED PERIOD OF REPORT:\s+(\S+)`)
	headerFiled         = regexp.MustCompile(`(?m)FILED AS OF DATE:\s+(\S+)`)
	headerChanged       = regexp.MustCompile(`(?m)DATE AS OF CHANGE:\s+(\S+)`)
	headerEffective     = regexp.MustCompile(`(?m)EFFECTIVENESS DATE:\s+(\S+)`)
	headerCompany       = regexp.MustCompile(`(?m)COMPANY CONFORMED NAME:\s+(.+?)\s*$`)
	headerCIK           = regexp.MustCompile(`(?m)CENTRAL INDEX KEY:\s+(\d+)`)
	headerSIC           = regexp.MustCompile(`(?m)STANDARD INDUSTRIAL CLASSIFICATION:\s+(.+?)\s*$`)
	headerIRS           = regexp.MustCompile(`(?m)IRS NUMBER:\s+(\S+)`)
	headerFiscalYearEnd = regexp.MustCompile(`(?m)FISCAL YEAR END:\s+(\S+)`)
	headerFormType      = regexp.MustCompile(`(?m)FORM TYPE:\s+(\S.*?)\s*$`)
	headerSubmission    = regexp.MustCompile(`(?m)CONFORMED SUBMISSION TYPE:\s+(\S.*?)\s*$`)
	headerAct           = regexp.MustCompile(`(?m)\bACT:\s+(.+?)\s*$`)
	headerFileNumber    = regexp.MustCompile(`(?m)FILE NUMBER:\s+(\S+)`)
	headerFilmNumber    = regexp.MustCompile(`(?m)FILM NUMBER:\s+(\S+)`)
)

// Document-level CIK patterns, tried in order.
var cikPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<CIK>(\d+)</CIK>`),
	regexp.MustCompile(`CENTRAL INDEX KEY:\s+(\d+)`),
	regexp.MustCompile(`CIK=(\d+)`),
	regexp.MustCompile(`CIK:\s*(\d+)`),
}

// cikScanLimit keeps the CIK search near the top of a document.
const cikScanLimit = 4000

// ParseHeader extracts filing metadata from the region before the first <DOCUMENT>.
func ParseHeader(raw string) models.FilingMetadata {
	region := raw
	if off := FirstMarkerOffset(raw); off >= 0 {
		region = raw[:off]
	} else if len(region) > maxHeaderScan {
		region = region[:maxHeaderScan]
	}

	meta := models.FilingMetadata{
		AccessionNumber:   firstMatch(headerAccession, region),
		PeriodOfReport:    normalizeDate(firstMatch(headerPeriod, region)),
		FiledAsOfDate:     normalizeDate(firstMatch(headerFiled, region)),
		DateAsOfChange:    normalizeDate(firstMatch(headerChanged, region)),
		EffectivenessDate: normalizeDate(firstMatch(headerEffective, region)),
		CompanyName:       firstMatch(headerCompany, region),
		CIK:               firstMatch(headerCIK, region),
		SIC:               firstMatch(headerSIC, region),
		IRSNumber:         firstMatch(headerIRS, region),
		FiscalYearEnd:     firstMatch(headerFiscalYearEnd, region),
		FormType:          firstMatch(headerSubmission, region),
		Act:               firstMatch(headerAct, region),
		FileNumber:        firstMatch(headerFileNumber, region),
		FilmNumber:        firstMatch(headerFilmNumber, region),
	}
	if meta.FormType == "" {
		meta.FormType = firstMatch(headerFormType, region)
	}
	return meta
}

// DocumentCIK looks for a CIK near the top of one document block.
func DocumentCIK(block string) string {
	if len(block) > cikScanLimit {
		block = block[:cikScanLimit]
	}
	for _, re := range cikPatterns {
		if v := firstMatch(re, block); v != "" {
			return v
		}
	}
	return ""
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// normalizeDate turns YYYYMMDD into YYYY-MM-DD and leaves anything else alone.
func normalizeDate(v string) string {
	if len(v) != 8 {
		return v
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
	}
	return v[:4] + "-" + v[4:6] + "-" + v[6:]
}
