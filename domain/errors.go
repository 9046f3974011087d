package domain

import "errors"

var (
	// ErrNoSafeItems means every candidate was removed by hard filters
	// (allergens, dietary rules, exclusions). Not a failure: callers
	// render it as an explicit empty result.
	ErrNoSafeItems = errors.New("no safe items after filtering")

	// ErrSessionTerminal is returned when a round is requested for a
	// completed or abandoned session.
	ErrSessionTerminal = errors.New("session is in a terminal state")

	ErrSessionNotFound = errors.New("session not found")
	ErrProfileNotFound = errors.New("taste profile not found")
	ErrItemNotFound    = errors.New("item not found")

	// ErrProfileConflict is returned after the single read-merge retry
	// of a profile write also conflicts. Retryable by the caller;
	// feedback is never silently dropped.
	ErrProfileConflict = errors.New("profile version conflict")
)
