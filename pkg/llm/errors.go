package llm

import "fmt"

// ExhaustedError is returned by a provider transport once every retry
// attempt has failed. It carries the last underlying failure.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("llm: request failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// ResponseShapeError marks a successful provider response whose body does
// not contain the expected payload. It is never retried: the transport
// worked, the content is wrong.
type ResponseShapeError struct {
	Provider string
	Reason   string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("%s: invalid response shape: %s", e.Provider, e.Reason)
}

// SelectionParseError marks a model-selection reply that was not a JSON
// array of IDs. It is a deliberate soft failure: the gateway logs it and
// degrades to an empty selection instead of surfacing an error.
type SelectionParseError struct {
	Reply string
	Err   error
}

func (e *SelectionParseError) Error() string {
	return fmt.Sprintf("llm: parse selection reply: %v", e.Err)
}

func (e *SelectionParseError) Unwrap() error { return e.Err }
