package contract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// sectionHeading marks the start of a numbered contract section: an integer,
// a period, and a capitalized word on a new line.
var sectionHeading = regexp.MustCompile(`\n\s*\d+\.?\s+[A-Z]`)

// clauseKeywords maps each clause type to the lowercase keywords that tag a
// section. Ordering matters for deterministic output, so the types are
// scanned through clauseScanOrder below.
var clauseKeywords = map[ClauseType][]string{
	ClauseLiability:         {"liability", "indemnif", "damages", "limitation of liability"},
	ClauseIP:                {"intellectual property", "ip rights", "ownership", "proprietary"},
	ClausePayment:           {"payment", "fees", "compensation", "invoice"},
	ClauseTermination:       {"termination", "cancellation", "end of agreement"},
	ClauseConfidentiality:   {"confidential", "proprietary information", "non-disclosure"},
	ClauseDataProtection:    {"data protection", "privacy", "gdpr", "personal data"},
	ClauseDisputeResolution: {"dispute", "arbitration", "governing law", "jurisdiction"},
	ClauseWarranty:          {"warrant", "representation", "guarantee"},
}

var clauseScanOrder = []ClauseType{
	ClauseLiability,
	ClauseIP,
	ClausePayment,
	ClauseTermination,
	ClauseConfidentiality,
	ClauseDataProtection,
	ClauseDisputeResolution,
	ClauseWarranty,
}

// contractTypeKeywords identifies the overall contract type from its text.
var contractTypeKeywords = []struct {
	Type     string
	Keywords []string
}{
	{"NDA", []string{"non-disclosure", "nondisclosure", "confidentiality agreement"}},
	{"MSA", []string{"master service agreement", "msa"}},
	{"SaaS", []string{"software as a service", "saas", "subscription agreement"}},
	{"Employment", []string{"employment agreement", "offer letter", "employment contract"}},
	{"SOW", []string{"statement of work", "sow", "work order"}},
	{"Consulting", []string{"consulting agreement", "consultant agreement"}},
	{"Vendor", []string{"vendor agreement", "purchase agreement"}},
}

var (
	partyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`between\s+([A-Z][A-Za-z\s,\.]+?)\s+(?:and|&)`),
		regexp.MustCompile(`party:\s*([A-Z][A-Za-z\s,\.]+?)(?:\n|$)`),
		regexp.MustCompile(`(?:entered into by|by and between)\s+([A-Z][A-Za-z\s,\.]+)`),
	}
	effectiveDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)effective\s+(?:date|as of)\s+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)dated\s+as of\s+(\w+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)entered into\s+(?:on|this)\s+(\w+\s+\d{1,2},?\s+\d{4})`),
	}
	termLengthPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)term\s+of\s+(\d+\s+(?:year|month|day)s?)`),
		regexp.MustCompile(`(?i)for\s+a\s+period\s+of\s+(\d+\s+(?:year|month|day)s?)`),
		regexp.MustCompile(`(?i)shall\s+remain\s+in\s+effect\s+for\s+(\d+\s+(?:year|month|day)s?)`),
	}
)

const (
	clausePreviewChars = 500
	maxParties         = 10
	wordsPerPage       = 250

	// NotSpecified is the sentinel for fields the segmenter could not find.
	NotSpecified = "Not specified"
)

// Segment splits raw contract text into structured data. It is a pure text
// transform: malformed input yields empty or sentinel fields, never an error.
func Segment(fullText string) ParseResult {
	words := len(strings.Fields(fullText))
	return ParseResult{
		ContractType:   ClassifyType(fullText),
		Parties:        extractParties(fullText),
		EffectiveDate:  firstMatch(effectiveDatePatterns, fullText),
		TermLength:     firstMatch(termLengthPatterns, fullText),
		Clauses:        SegmentClauses(fullText),
		WordCount:      words,
		EstimatedPages: words / wordsPerPage,
	}
}

// SegmentClauses splits text into sections and tags each by clause type.
// A section matching several keyword groups is emitted once per group; the
// duplication is deliberate (high recall beats precision here, and downstream
// scoring treats each type independently).
func SegmentClauses(fullText string) []Clause {
	sections := sectionHeading.Split(fullText, -1)

	var clauses []Clause
	for i, section := range sections {
		sectionLower := strings.ToLower(section)
		trimmed := strings.TrimSpace(section)

		for _, clauseType := range clauseScanOrder {
			for _, keyword := range clauseKeywords[clauseType] {
				if strings.Contains(sectionLower, keyword) {
					clauses = append(clauses, Clause{
						ID:       fmt.Sprintf("%s_%d", strings.ToLower(string(clauseType)), i),
						Type:     clauseType,
						Text:     preview(trimmed),
						FullText: trimmed,
						Section:  i,
					})
					break
				}
			}
		}
	}
	return clauses
}

// ClassifyType returns the contract type from the first keyword match,
// defaulting to OTHER.
func ClassifyType(text string) string {
	textLower := strings.ToLower(text)
	for _, entry := range contractTypeKeywords {
		for _, keyword := range entry.Keywords {
			if strings.Contains(textLower, keyword) {
				return entry.Type
			}
		}
	}
	return "OTHER"
}

func extractParties(text string) []string {
	seen := make(map[string]struct{})
	var parties []string
	for _, pattern := range partyPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(match[1])
			if len(name) <= 3 {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			parties = append(parties, name)
			if len(parties) == maxParties {
				return parties
			}
		}
	}
	return parties
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}
	return NotSpecified
}

func preview(s string) string {
	if len(s) <= clausePreviewChars {
		return s
	}
	cut := clausePreviewChars
	// Back up to a rune boundary so the cut never splits a multi-byte rune.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
