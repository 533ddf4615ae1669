// Package answer extracts the four-part structured answer from raw model
// output.
package answer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

// ParseError reports that one or more mandatory sections could not be
// extracted from the raw text.
type ParseError struct {
	Missing []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("missing mandatory answer sections: %s", strings.Join(e.Missing, ", "))
}

const (
	labelHukm        = "hukm"
	labelEvidence    = "evidence"
	labelExplanation = "explanation"
	labelAdvice      = "advice"
)

// sectionLabel matches a recognized label followed by a colon, in any
// casing, anywhere in the text. Western and fullwidth colons both count
// since models emit either.
var sectionLabel = regexp.MustCompile(`(?i)\b(hukm|evidence|explanation|advice)\b[ \t]*[:：]`)

// Parse extracts the labelled sections from raw generated text. Sections
// are matched by label, not position, so any ordering or casing is
// accepted. Missing HUKM or EXPLANATION is a *ParseError; missing
// EVIDENCE or ADVICE only degrades confidence to LOW. The parser is
// total: it never panics and never invents content for absent sections.
func Parse(raw string) (fatwa.StructuredAnswer, error) {
	sections := splitSections(raw)

	hukm := strings.TrimSpace(sections[labelHukm])
	explanation := strings.TrimSpace(sections[labelExplanation])
	advice := strings.TrimSpace(sections[labelAdvice])
	evidence := splitCitations(sections[labelEvidence])

	var missing []string
	if hukm == "" {
		missing = append(missing, strings.ToUpper(labelHukm))
	}
	if explanation == "" {
		missing = append(missing, strings.ToUpper(labelExplanation))
	}
	if len(missing) > 0 {
		return fatwa.StructuredAnswer{}, &ParseError{Missing: missing}
	}

	confidence := fatwa.ConfidenceLow
	if nonTrivial(hukm) && nonTrivial(explanation) && nonTrivial(advice) &&
		nonTrivial(strings.Join(evidence, " ")) {
		confidence = fatwa.ConfidenceHigh
	}

	return fatwa.StructuredAnswer{
		Hukm:        hukm,
		Evidence:    evidence,
		Explanation: explanation,
		Advice:      advice,
		Confidence:  confidence,
	}, nil
}

// splitSections assigns to each recognized label the text between its
// colon and the next recognized label (or end of text). The first
// occurrence of a repeated label wins.
func splitSections(raw string) map[string]string {
	matches := sectionLabel.FindAllStringSubmatchIndex(raw, -1)
	sections := make(map[string]string, 4)
	for i, match := range matches {
		label := strings.ToLower(raw[match[2]:match[3]])
		if _, seen := sections[label]; seen {
			continue
		}
		bodyStart := match[1]
		bodyEnd := len(raw)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		sections[label] = raw[bodyStart:bodyEnd]
	}
	return sections
}

// splitCitations breaks the evidence body into individual citation
// strings, one per line, stripping list bullets.
func splitCitations(body string) []string {
	var citations []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line != "" {
			citations = append(citations, line)
		}
	}
	return citations
}

// nonTrivial reports whether text carries more than three words.
func nonTrivial(text string) bool {
	return len(strings.Fields(text)) > 3
}
