package vturesults

import "errors"

type FailureKind string

const (
	FailureTokenNotFound    FailureKind = "token-not-found"
	FailureRetriesExhausted FailureKind = "retries-exhausted"
	FailureTransportError   FailureKind = "transport-error"
)

// Failure is the structured descriptor handed to callers when a scrape
// does not produce a result body.
type Failure struct {
	Kind    FailureKind
	Message string
}

// ClassifyFailure maps a Scrape error onto the failure taxonomy.
// Anything that is neither a missing token nor an exhausted retry
// budget is a transport problem (network, timeout, TLS).
func ClassifyFailure(err error) Failure {
	var exhausted *RetriesExhaustedError
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return Failure{Kind: FailureTokenNotFound, Message: err.Error()}
	case errors.As(err, &exhausted):
		return Failure{Kind: FailureRetriesExhausted, Message: err.Error()}
	default:
		return Failure{Kind: FailureTransportError, Message: err.Error()}
	}
}
