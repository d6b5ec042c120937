package sections

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTitleLength caps section titles, in runes.
const maxTitleLength = 200

var (
	// Dot leaders and the page number of a table-of-contents style line.
	titleLeader = regexp.MustCompile(`\s*(?:\.{3,}|…+|_{3,}|·{3,})\s*\d*\s*$`)
	// Navigation links repeated next to headings.
	titleNav = regexp.MustCompile(`(?i)\[(?:back to |return to )?(?:top|table of contents|contents|index)\]`)
	// "Item 7." / "ITEM 7A" / "Item 1.01" with nothing after it.
	bareItem = regexp.MustCompile(`(?i)^item\s+(\d+[a-z]?)\.?$`)
)

// tenKItemTitles are the canonical Form 10-K item captions.
var tenKItemTitles = map[string]string{
	"1":  "Business",
	"1A": "Risk Factors",
	"1B": "Unresolved Staff Comments",
	"1C": "Cybersecurity",
	"2":  "Properties",
	"3":  "Legal Proceedings",
	"4":  "Mine Safety Disclosures",
	"5":  "Market for Registrant's Common Equity, Related Stockholder Matters and Issuer Purchases of Equity Securities",
	"6":  "[Reserved]",
	"7":  "Management's Discussion and Analysis of Financial Condition and Results of Operations",
	"7A": "Quantitative and Qualitative Disclosures About Market Risk",
	"8":  "Financial Statements and Supplementary Data",
	"9":  "Changes in and Disagreements with Accountants on Accounting and Financial Disclosure",
	"9A": "Controls and Procedures",
	"9B": "Other Information",
	"9C": "Disclosure Regarding Foreign Jurisdictions that Prevent Inspections",
	"10": "Directors, Executive Officers and Corporate Governance",
	"11": "Executive Compensation",
	"12": "Security Ownership of Certain Beneficial Owners and Management and Related Stockholder Matters",
	"13": "Certain Relationships and Related Transactions, and Director Independence",
	"14": "Principal Accountant Fees and Services",
	"15": "Exhibits and Financial Statement Schedules",
	"16": "Form 10-K Summary",
}

// normalizeTitle collapses whitespace and strips navigation artifacts and dot leaders.
func normalizeTitle(line string) string {
	title := titleNav.ReplaceAllString(line, " ")
	title = strings.Join(strings.Fields(title), " ")
	title = titleLeader.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleLength {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxTitleLength]))
	}
	return title
}

// withItemCaption appends the canonical 10-K caption to a bare "Item N." title.
func withItemCaption(title string) string {
	m := bareItem.FindStringSubmatch(title)
	if m == nil {
		return title
	}
	caption, ok := tenKItemTitles[strings.ToUpper(m[1])]
	if !ok {
		return title
	}
	return strings.TrimSuffix(title, ".") + ". " + caption
}
