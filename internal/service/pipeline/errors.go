package pipeline

import "fmt"

// Code classifies every failure the pipeline can surface to a caller.
type Code string

const (
	CodeConfigError         Code = "CONFIG_ERROR"
	CodeRetrievalExhausted  Code = "RETRIEVAL_EXHAUSTED"
	CodeGenerationExhausted Code = "GENERATION_EXHAUSTED"
	CodeMalformedAnswer     Code = "MALFORMED_ANSWER"
	CodeSessionNotFound     Code = "SESSION_NOT_FOUND"
)

// userMessages map terminal error codes onto the reply text shown to the
// user. Raw model text is never surfaced.
var userMessages = map[Code]string{
	CodeRetrievalExhausted:  "The reference library is unreachable right now. Please try again later.",
	CodeGenerationExhausted: "The answer could not be generated right now. Please try again later.",
	CodeMalformedAnswer:     "The answer could not be structured correctly. Please rephrase your question.",
	CodeSessionNotFound:     "Unknown session. Please start a new conversation.",
	CodeConfigError:         "The service is misconfigured. Please contact the operator.",
}

// Error wraps an upstream failure with its pipeline error code.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }
