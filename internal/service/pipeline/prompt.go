package pipeline

import (
	"fmt"
	"strings"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

var languageNames = map[string]string{
	"fr": "French",
	"en": "English",
	"wo": "Wolof",
}

const strictInstruction = `You MUST use exactly the section labels HUKM:, EVIDENCE:, EXPLANATION: and ADVICE:, each starting its own line, with no other sections and no text before the first label.`

// composePrompt builds the guided generation prompt embedding the
// jurisprudence school, the retrieved passages, the accumulated question
// context and the four-section output instruction. strict appends the
// reinforced label instruction used after a parse failure.
func composePrompt(session *fatwa.Session, passages []fatwa.PassageRecord, jurisprudence string, strict bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "System: You are an Islamic scholar of the %s school of jurisprudence.\n", jurisprudence)

	language, ok := languageNames[session.Language]
	if !ok {
		language = languageNames["fr"]
	}
	fmt.Fprintf(&b, "Answer in %s.\n\n", language)

	if len(passages) > 0 {
		b.WriteString("Reference passages:\n")
		for i, p := range passages {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			fmt.Fprintf(&b, "[%s] %s", p.SourceID, p.Text)
		}
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", session.OriginalQuestion)
	for _, c := range session.Clarifications {
		fmt.Fprintf(&b, "Clarification (%s): %s\n", c.Question, c.Answer)
	}

	b.WriteString("\nProvide a structured ruling with the four labelled sections HUKM, EVIDENCE, EXPLANATION and ADVICE.\n")
	if strict {
		b.WriteString(strictInstruction)
		b.WriteString("\n")
	}
	return b.String()
}

const guardrailPromptFormat = `Is this question related to Islam, worship, ethics, or Muslim life? Question: %q. Answer YES or NO only.`
