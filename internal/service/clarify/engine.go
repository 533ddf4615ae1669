// Package clarify decides whether a session's question carries enough
// context to retrieve meaningfully, and produces the next clarifying
// question when it does not.
package clarify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xamsadine/backend/internal/analysis/topic"
	"github.com/xamsadine/backend/internal/model/fatwa"
	"github.com/xamsadine/backend/internal/service/generation"
)

// Outcome is the engine's verdict for one evaluation.
type Outcome struct {
	Ready    bool
	Topic    string
	Question string
}

// Config controls the engine's behavior.
type Config struct {
	MaxClarifications int
}

// Engine evaluates session state. It is a pure function of the session:
// slot coverage comes from lexical analysis, optionally double-checked by
// a constrained model classification that fails open to READY so a model
// outage can never trap the user in the clarification loop.
type Engine struct {
	maxClarifications int
	classifier        generation.Generator
	log               *zap.Logger
}

// NewEngine creates the engine. classifier may be nil, in which case the
// lexical heuristic decides alone.
func NewEngine(cfg Config, classifier generation.Generator, log *zap.Logger) *Engine {
	maxClarifications := cfg.MaxClarifications
	if maxClarifications <= 0 {
		maxClarifications = 3
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		maxClarifications: maxClarifications,
		classifier:        classifier,
		log:               log,
	}
}

// Evaluate inspects the session and either declares it ready for
// retrieval or emits at most one clarifying question. A slot that was
// already asked about is never asked again, and once the clarification
// bound is reached the engine always returns READY.
func (e *Engine) Evaluate(ctx context.Context, session *fatwa.Session) Outcome {
	if len(session.Clarifications) >= e.maxClarifications {
		return Outcome{Ready: true}
	}

	missing := e.missingSlots(session)
	if len(missing) == 0 {
		return Outcome{Ready: true}
	}

	if e.classifier != nil && e.classifiedReady(ctx, session) {
		return Outcome{Ready: true}
	}

	slot := missing[0]
	return Outcome{
		Topic:    string(slot),
		Question: topic.Question(slot, session.Language),
	}
}

// missingSlots runs the lexical heuristic over the question plus every
// clarification answer, then drops slots already covered by an earlier
// system question.
func (e *Engine) missingSlots(session *fatwa.Session) []topic.Slot {
	var accumulated strings.Builder
	accumulated.WriteString(session.OriginalQuestion)
	for _, c := range session.Clarifications {
		accumulated.WriteString(" ")
		accumulated.WriteString(c.Answer)
	}

	asked := session.AskedTopics()
	var missing []topic.Slot
	for _, slot := range topic.Missing(accumulated.String()) {
		if asked[string(slot)] {
			continue
		}
		missing = append(missing, slot)
	}
	return missing
}

const classifierPromptFormat = `You check whether a question about Islamic practice is specific enough to search reference texts for.
Question: %q
Additional context: %q
Answer with the single word READY if the question is specific enough, or ASK if it still needs clarification. No other text.`

// classifiedReady asks the model for a READY/ASK verdict. Any failure,
// timeout or unparseable reply is treated as READY (fail open).
func (e *Engine) classifiedReady(ctx context.Context, session *fatwa.Session) bool {
	answers := make([]string, 0, len(session.Clarifications))
	for _, c := range session.Clarifications {
		answers = append(answers, c.Answer)
	}
	prompt := fmt.Sprintf(classifierPromptFormat, session.OriginalQuestion, strings.Join(answers, " | "))

	raw, err := e.classifier.Generate(ctx, prompt)
	if err != nil {
		e.log.Warn("clarification classifier failed, proceeding to retrieval", zap.Error(err))
		return true
	}

	verdict := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(verdict, "READY"):
		return true
	case strings.Contains(verdict, "ASK"):
		return false
	default:
		e.log.Warn("clarification classifier returned unrecognized verdict", zap.String("verdict", verdict))
		return true
	}
}
