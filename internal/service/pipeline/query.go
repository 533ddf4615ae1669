package pipeline

import (
	"fmt"
	"strings"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

// BuildQuery deterministically synthesizes the retrieval query from the
// session's original question and every clarification answer, collapsed
// to single spaces and tagged with the session locale. Pure: the same
// session state always yields the same string.
func BuildQuery(session *fatwa.Session) string {
	parts := make([]string, 0, len(session.Clarifications)+1)
	parts = append(parts, session.OriginalQuestion)
	for _, c := range session.Clarifications {
		parts = append(parts, c.Answer)
	}
	return fmt.Sprintf("[%s] %s", session.Language, collapseWhitespace(strings.Join(parts, " ")))
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
