// Package pipeline drives a session through clarification, retrieval,
// generation and parsing, applying the retry/timeout/fallback policy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xamsadine/backend/internal/model/fatwa"
	"github.com/xamsadine/backend/internal/service/answer"
	"github.com/xamsadine/backend/internal/service/clarify"
	"github.com/xamsadine/backend/internal/service/generation"
	"github.com/xamsadine/backend/internal/service/retrieval"
)

// ReplyKind tells the caller what the payload of a turn reply is.
type ReplyKind string

const (
	ReplyClarification ReplyKind = "clarification"
	ReplyAnswer        ReplyKind = "answer"
	ReplyError         ReplyKind = "error"
	ReplyRefused       ReplyKind = "refused"
)

// Reply is the outbound half of one turn.
type Reply struct {
	SessionID string                  `json:"sessionId"`
	Kind      ReplyKind               `json:"kind"`
	Question  string                  `json:"question,omitempty"`
	Answer    *fatwa.StructuredAnswer `json:"answer,omitempty"`
	Code      Code                    `json:"code,omitempty"`
	Message   string                  `json:"message,omitempty"`
}

// Options carries the deployment-level pipeline configuration.
type Options struct {
	MaxClarifications  int
	RetrievalK         int
	RetrievalRetryMax  int
	GenerationRetryMax int
	TurnDeadline       time.Duration
	DefaultLanguage    string
	Jurisprudence      string
	Filters            retrieval.Filters
	GuardrailEnabled   bool
	MaxConcurrentTurns int

	// RetryBackoffInitial seeds the exponential backoff between retry
	// attempts. Tests shrink it to keep runs fast.
	RetryBackoffInitial time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxClarifications <= 0 {
		o.MaxClarifications = 3
	}
	if o.RetrievalK <= 0 {
		o.RetrievalK = 12
	}
	if o.RetrievalRetryMax <= 0 {
		o.RetrievalRetryMax = 2
	}
	if o.GenerationRetryMax <= 0 {
		o.GenerationRetryMax = 1
	}
	if o.TurnDeadline <= 0 {
		o.TurnDeadline = 30 * time.Second
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = "fr"
	}
	if o.Jurisprudence == "" {
		o.Jurisprudence = "maliki"
	}
	if o.MaxConcurrentTurns <= 0 {
		o.MaxConcurrentTurns = 16
	}
	if o.RetryBackoffInitial <= 0 {
		o.RetryBackoffInitial = 250 * time.Millisecond
	}
	return o
}

var supportedLanguages = map[string]bool{"fr": true, "en": true, "wo": true}

const refusalMessage = "XamSaDine is dedicated to Islamic guidance only. Please ask a question related to Islam, worship, ethics, or Muslim life."

// Orchestrator owns all session state mutation. One turn per session id
// runs at a time; distinct sessions proceed in parallel up to the
// configured concurrency budget.
type Orchestrator struct {
	store     fatwa.SessionStore
	retriever retrieval.Retriever
	generator generation.Generator
	clarifier *clarify.Engine
	opts      Options
	log       *zap.Logger

	sem   chan struct{}
	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is refcounted so the registry entry can be dropped once the
// last turn holding or waiting on it releases.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New wires the pipeline. generator may be nil, in which case sessions
// can still be clarified but generation fails with a backend error.
func New(store fatwa.SessionStore, retriever retrieval.Retriever, generator generation.Generator, clarifier *clarify.Engine, opts Options, log *zap.Logger) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if clarifier == nil {
		return nil, errors.New("clarification engine is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Orchestrator{
		store:     store,
		retriever: retriever,
		generator: generator,
		clarifier: clarifier,
		opts:      opts,
		log:       log,
		sem:       make(chan struct{}, opts.MaxConcurrentTurns),
		locks:     make(map[string]*sessionLock),
	}, nil
}

// CreateSession provisions a new conversation. The language is set once
// here and is immutable afterwards; unsupported codes fall back to the
// deployment default.
func (o *Orchestrator) CreateSession(ctx context.Context, language string) (*fatwa.Session, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if !supportedLanguages[language] {
		language = o.opts.DefaultLanguage
	}

	now := time.Now().UTC()
	session := &fatwa.Session{
		ID:        uuid.NewString(),
		State:     fatwa.StateCollecting,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}
	return session, nil
}

// GetSession returns the stored session for audit views.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*fatwa.Session, error) {
	return o.store.Get(ctx, sessionID)
}

// SubmitMessage runs one turn of the pipeline for an inbound user
// message. Domain failures come back as an ERROR reply with a code; the
// returned error is reserved for aborted turns (cancellation) and store
// faults.
func (o *Orchestrator) SubmitMessage(ctx context.Context, sessionID, text string) (Reply, error) {
	select {
	case o.sem <- struct{}{}:
		defer func() { <-o.sem }()
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	lock := o.acquireLock(sessionID)
	defer o.releaseLock(sessionID, lock)

	session, err := o.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, fatwa.ErrSessionNotFound) {
			return Reply{
				SessionID: sessionID,
				Kind:      ReplyError,
				Code:      CodeSessionNotFound,
				Message:   userMessages[CodeSessionNotFound],
			}, nil
		}
		return Reply{}, fmt.Errorf("load session: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.TurnDeadline)
	defer cancel()

	now := time.Now().UTC()
	// A terminal session restarts the cycle from COLLECTING with its
	// question, clarifications and message log preserved.
	if session.State.Terminal() {
		session.State = fatwa.StateCollecting
		session.ErrorCode = ""
		session.ResetStageCounters()
	}

	firstTurn := session.OriginalQuestion == ""
	session.AppendMessage(uuid.NewString(), "user", text, now)
	session.UpdatedAt = now

	// The guardrail runs before the message can become the session's
	// question: a refused turn leaves OriginalQuestion unset, so the next
	// message starts over as a fresh first turn.
	if firstTurn && !o.inScope(ctx, text) {
		session.AppendMessage(uuid.NewString(), "system", refusalMessage, time.Now().UTC())
		if err := o.persist(ctx, session); err != nil {
			return Reply{}, err
		}
		return Reply{SessionID: session.ID, Kind: ReplyRefused, Message: refusalMessage}, nil
	}

	session.RecordQuestion(text)
	if !firstTurn {
		session.ResolveClarification(text)
	}

	return o.advance(ctx, session)
}

// advance walks the state machine until the turn suspends on a
// clarifying question or reaches a terminal state.
func (o *Orchestrator) advance(ctx context.Context, session *fatwa.Session) (Reply, error) {
	var raw string

	for {
		switch session.State {
		case fatwa.StateCollecting:
			outcome := o.clarifier.Evaluate(ctx, session)
			if !outcome.Ready {
				session.PendingTopic = outcome.Topic
				session.PendingQuestion = outcome.Question
				session.AppendMessage(uuid.NewString(), "system", outcome.Question, time.Now().UTC())
				if err := o.persist(ctx, session); err != nil {
					return Reply{}, err
				}
				return Reply{
					SessionID: session.ID,
					Kind:      ReplyClarification,
					Question:  outcome.Question,
				}, nil
			}
			session.State = fatwa.StateRetrieving
			session.ResetStageCounters()

		case fatwa.StateRetrieving:
			passages, err := o.retrieve(ctx, session)
			if err != nil {
				code := CodeRetrievalExhausted
				var cfgErr *retrieval.ConfigError
				if errors.As(err, &cfgErr) {
					code = CodeConfigError
				}
				return o.fail(ctx, session, code, err)
			}
			session.RetrievedPassages = passages
			session.State = fatwa.StateGenerating
			session.ResetStageCounters()

		case fatwa.StateGenerating:
			var err error
			raw, err = o.generate(ctx, session)
			if err != nil {
				return o.fail(ctx, session, CodeGenerationExhausted, err)
			}
			session.State = fatwa.StateParsing

		case fatwa.StateParsing:
			structured, err := answer.Parse(raw)
			if err != nil {
				var parseErr *answer.ParseError
				if errors.As(err, &parseErr) && !session.StrictRetryUsed {
					o.log.Info("answer parse failed, regenerating with strict labels",
						zap.String("session", session.ID),
						zap.Strings("missing", parseErr.Missing))
					session.StrictRetryUsed = true
					session.State = fatwa.StateGenerating
					continue
				}
				return o.fail(ctx, session, CodeMalformedAnswer, err)
			}
			session.DraftAnswer = &structured
			session.State = fatwa.StateAnswered

		case fatwa.StateAnswered:
			if err := o.persist(ctx, session); err != nil {
				return Reply{}, err
			}
			return Reply{
				SessionID: session.ID,
				Kind:      ReplyAnswer,
				Answer:    session.DraftAnswer,
			}, nil

		default:
			return Reply{}, fmt.Errorf("unexpected session state %q", session.State)
		}
	}
}

// retrieve runs the retrieval stage under its share of the turn budget,
// retrying transient failures with exponential backoff.
func (o *Orchestrator) retrieve(ctx context.Context, session *fatwa.Session) ([]fatwa.PassageRecord, error) {
	query := BuildQuery(session)
	stageCtx, cancel := context.WithTimeout(ctx, o.opts.TurnDeadline/3)
	defer cancel()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.opts.RetryBackoffInitial

	operation := func() ([]fatwa.PassageRecord, error) {
		passages, err := o.retriever.Search(stageCtx, query, o.opts.RetrievalK, o.opts.Filters)
		if err != nil {
			var cfgErr *retrieval.ConfigError
			if errors.As(err, &cfgErr) {
				return nil, backoff.Permanent(err)
			}
			session.RetrievalRetries++
			o.log.Warn("retrieval attempt failed",
				zap.String("session", session.ID),
				zap.Int("attempt", session.RetrievalRetries),
				zap.Error(err))
			return nil, err
		}
		return passages, nil
	}

	return backoff.Retry(stageCtx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(o.opts.RetrievalRetryMax)))
}

// generate runs the generation stage. The regeneration triggered by a
// parse failure is a single strict-prompt attempt; first-pass generation
// gets the configured retry budget.
func (o *Orchestrator) generate(ctx context.Context, session *fatwa.Session) (string, error) {
	prompt := composePrompt(session, session.RetrievedPassages, o.opts.Jurisprudence, session.StrictRetryUsed)
	stageCtx, cancel := context.WithTimeout(ctx, 2*o.opts.TurnDeadline/3)
	defer cancel()

	if session.StrictRetryUsed {
		return o.generateOnce(stageCtx, prompt)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = o.opts.RetryBackoffInitial

	operation := func() (string, error) {
		raw, err := o.generateOnce(stageCtx, prompt)
		if err != nil {
			session.GenerationRetries++
			o.log.Warn("generation attempt failed",
				zap.String("session", session.ID),
				zap.Int("attempt", session.GenerationRetries),
				zap.Error(err))
			return "", err
		}
		return raw, nil
	}

	return backoff.Retry(stageCtx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(o.opts.GenerationRetryMax)))
}

func (o *Orchestrator) generateOnce(ctx context.Context, prompt string) (string, error) {
	if o.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", generation.ErrBackend)
	}
	return o.generator.Generate(ctx, prompt)
}

// inScope applies the topical guardrail on the first turn. Any model
// failure fails open (allow) so the guardrail can never block users.
func (o *Orchestrator) inScope(ctx context.Context, question string) bool {
	if !o.opts.GuardrailEnabled || o.generator == nil {
		return true
	}
	raw, err := o.generator.Generate(ctx, fmt.Sprintf(guardrailPromptFormat, question))
	if err != nil {
		o.log.Warn("guardrail check failed, allowing question", zap.Error(err))
		return true
	}
	verdict := strings.ToUpper(raw)
	if strings.Contains(verdict, "YES") {
		return true
	}
	return !strings.Contains(verdict, "NO")
}

// fail records the terminal error on the session. An aborted turn
// (caller cancellation) is the one path that does not persist: the
// session keeps its last stable state instead of a half-finished one.
func (o *Orchestrator) fail(ctx context.Context, session *fatwa.Session, code Code, cause error) (Reply, error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return Reply{}, ctx.Err()
	}

	failure := &Error{Code: code, Err: cause}
	session.State = fatwa.StateFailed
	session.ErrorCode = string(code)
	o.log.Warn("turn failed",
		zap.String("session", session.ID),
		zap.Error(failure))
	if err := o.persist(ctx, session); err != nil {
		return Reply{}, err
	}
	return Reply{
		SessionID: session.ID,
		Kind:      ReplyError,
		Code:      code,
		Message:   userMessages[code],
	}, nil
}

// persist writes the session even when the turn budget has elapsed.
func (o *Orchestrator) persist(ctx context.Context, session *fatwa.Session) error {
	session.UpdatedAt = time.Now().UTC()
	if err := o.store.Put(context.WithoutCancel(ctx), session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (o *Orchestrator) acquireLock(sessionID string) *sessionLock {
	o.mu.Lock()
	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		o.locks[sessionID] = lock
	}
	lock.refs++
	o.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (o *Orchestrator) releaseLock(sessionID string, lock *sessionLock) {
	lock.mu.Unlock()

	o.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(o.locks, sessionID)
	}
	o.mu.Unlock()
}
