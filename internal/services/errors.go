// Package services implements the business logic of the matching engine:
// interactive match suggestions, match agreement, and the automatic
// cross-matching sweep. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrItemNotFound indicates that the requested part or request does not
	// exist or is not accessible to the current user.
	ErrItemNotFound = errors.New("item not found")

	// ErrRankingFailed covers every failure mode of the external ranking
	// call: timeout, non-2xx, or an unparsable/invalid-schema response.
	// The interactive path degrades this to an empty suggestion list.
	ErrRankingFailed = errors.New("ranking failed")

	// ErrMatchNotFound indicates that the requested match does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNotParticipant is returned when a user attempts to act on a match
	// they are not a party to.
	ErrNotParticipant = errors.New("not a participant of this match")

	// ErrUnauthorized indicates a missing or invalid actor identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// RateLimitError is returned when the sweep's sliding-window limit denies a
// call. RetryAfter is the remaining cooldown; Calls is the count recorded
// within the current window.
type RateLimitError struct {
	RetryAfter time.Duration
	Calls      int
	Limit      int
}

// Error implements the error interface with a human-readable cooldown.
func (e *RateLimitError) Error() string {
	minutes := int(e.RetryAfter.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("rate limit exceeded: at most %d runs per window, try again in %d minutes", e.Limit, minutes)
}
