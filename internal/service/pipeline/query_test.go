package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

func TestBuildQueryConcatenatesQuestionAndAnswers(t *testing.T) {
	session := &fatwa.Session{
		Language:         "fr",
		OriginalQuestion: "Puis-je prier assis ?",
		Clarifications: []fatwa.Clarification{
			{Topic: "timeframe", Question: "Quand ?", Answer: "pendant le ramadan"},
			{Topic: "situation", Question: "Où ?", Answer: "en voyage"},
		},
	}

	got := BuildQuery(session)
	assert.Equal(t, "[fr] Puis-je prier assis ? pendant le ramadan en voyage", got)
}

func TestBuildQueryCollapsesWhitespace(t *testing.T) {
	session := &fatwa.Session{
		Language:         "en",
		OriginalQuestion: "  May   I \n pray seated?  ",
		Clarifications: []fatwa.Clarification{
			{Answer: " while \t traveling "},
		},
	}

	got := BuildQuery(session)
	assert.Equal(t, "[en] May I pray seated? while traveling", got)
}

func TestBuildQueryIsPure(t *testing.T) {
	session := &fatwa.Session{
		Language:         "wo",
		OriginalQuestion: "Ndax mën naa julli toog?",
		Clarifications: []fatwa.Clarification{
			{Answer: "ci weeru koor"},
		},
	}

	first := BuildQuery(session)
	second := BuildQuery(session)
	assert.Equal(t, first, second)
}
