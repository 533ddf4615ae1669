package fatwa

import "time"

// State identifies where a session sits in the answer pipeline.
type State string

const (
	StateCollecting State = "collecting"
	StateRetrieving State = "retrieving"
	StateGenerating State = "generating"
	StateParsing    State = "parsing"
	StateAnswered   State = "answered"
	StateFailed     State = "failed"
)

// Terminal reports whether the state ends the current turn cycle.
func (s State) Terminal() bool {
	return s == StateAnswered || s == StateFailed
}

// Clarification is one system question and the user's answer to it.
// Topic records which information slot the question targeted so the
// same slot is never asked twice.
type Clarification struct {
	Topic    string `json:"topic"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Message persists individual turns for audit/debug.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"` // "user" or "system"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session captures one guided question-answering conversation.
//
// All mutation happens under the pipeline's per-session lock; the struct
// itself carries no synchronization.
type Session struct {
	ID               string          `json:"id"`
	State            State           `json:"state"`
	Language         string          `json:"language"`
	OriginalQuestion string          `json:"originalQuestion"`
	Clarifications   []Clarification `json:"clarifications"`
	Messages         []Message       `json:"messages"`

	// PendingTopic/PendingQuestion hold the clarifying question the system
	// asked last turn; the next user message answers it.
	PendingTopic    string `json:"pendingTopic,omitempty"`
	PendingQuestion string `json:"pendingQuestion,omitempty"`

	// RetrievedPassages holds the most recent retrieval result set,
	// replaced wholesale on every retrieval.
	RetrievedPassages []PassageRecord   `json:"retrievedPassages,omitempty"`
	DraftAnswer       *StructuredAnswer `json:"draftAnswer,omitempty"`

	RetrievalRetries  int    `json:"retrievalRetries"`
	GenerationRetries int    `json:"generationRetries"`
	StrictRetryUsed   bool   `json:"strictRetryUsed"`
	ErrorCode         string `json:"errorCode,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordQuestion sets the original question exactly once; later calls
// are no-ops so follow-up turns can never overwrite it.
func (s *Session) RecordQuestion(text string) {
	if s.OriginalQuestion == "" {
		s.OriginalQuestion = text
	}
}

// AppendMessage adds a turn to the append-only message log.
func (s *Session) AppendMessage(id, sender, content string, at time.Time) {
	s.Messages = append(s.Messages, Message{
		ID:        id,
		SessionID: s.ID,
		Sender:    sender,
		Content:   content,
		CreatedAt: at,
	})
}

// ResolveClarification pairs the pending system question with the user's
// answer. It is a no-op when no question is outstanding.
func (s *Session) ResolveClarification(answer string) {
	if s.PendingQuestion == "" {
		return
	}
	s.Clarifications = append(s.Clarifications, Clarification{
		Topic:    s.PendingTopic,
		Question: s.PendingQuestion,
		Answer:   answer,
	})
	s.PendingTopic = ""
	s.PendingQuestion = ""
}

// AskedTopics lists the slots already covered by earlier clarifications.
func (s *Session) AskedTopics() map[string]bool {
	asked := make(map[string]bool, len(s.Clarifications)+1)
	for _, c := range s.Clarifications {
		asked[c.Topic] = true
	}
	if s.PendingTopic != "" {
		asked[s.PendingTopic] = true
	}
	return asked
}

// ResetStageCounters clears per-stage retry bookkeeping when a new
// retrieval/generation cycle begins.
func (s *Session) ResetStageCounters() {
	s.RetrievalRetries = 0
	s.GenerationRetries = 0
	s.StrictRetryUsed = false
}

// Clone returns a deep copy so stores can hand out sessions without
// sharing backing slices with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Clarifications = append([]Clarification(nil), s.Clarifications...)
	out.Messages = append([]Message(nil), s.Messages...)
	out.RetrievedPassages = append([]PassageRecord(nil), s.RetrievedPassages...)
	if s.DraftAnswer != nil {
		answer := *s.DraftAnswer
		answer.Evidence = append([]string(nil), s.DraftAnswer.Evidence...)
		out.DraftAnswer = &answer
	}
	return &out
}
