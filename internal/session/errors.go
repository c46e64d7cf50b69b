package session

import "errors"

// Precondition violations are explicit error values the caller checks; the
// UI is expected to disable the triggering action first, so these are a
// last-resort defensive surface.
var (
	ErrNoActiveCase          = errors.New("no active case metadata")
	ErrNoActiveSession       = errors.New("no active session")
	ErrMaxTurnsReached       = errors.New("maximum question turns reached")
	ErrInsufficientTurns     = errors.New("not enough turns to submit framework")
	ErrFrameworkNotSubmitted = errors.New("framework not submitted")
	ErrEmptyResponse         = errors.New("ai collaborator returned empty response")
	ErrAIRequestFailed       = errors.New("ai request failed")
	ErrSubmissionInFlight    = errors.New("question submission already in flight")
	ErrEmptyQuestion         = errors.New("question text is empty")
	ErrEmptyFramework        = errors.New("framework text is empty")
)
