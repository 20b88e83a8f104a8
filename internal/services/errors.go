// Package services implements the matching, quota and realtime core. This
// file centralizes service-level error values so they can be consistently
// returned by service methods and checked by callers. Translation into HTTP
// status codes happens at the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates a missing or invalid credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the caller is authenticated but not a party to
	// the resource, e.g. sending into a match they do not belong to.
	ErrForbidden = errors.New("forbidden")

	// ErrPetNotFound indicates the requested pet does not exist.
	ErrPetNotFound = errors.New("pet not found")

	// ErrMatchNotFound indicates the requested match does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrSubscriptionNotFound indicates the user has no usage limit row.
	// It is surfaced, never silently treated as an unlimited plan.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrAlreadyLiked is returned when a like for the exact ordered pet pair
	// already exists. The caller decides whether re-submission counts as
	// success.
	ErrAlreadyLiked = errors.New("already liked")

	// ErrSelfLike is returned when a user tries to like one of their own pets.
	ErrSelfLike = errors.New("cannot like your own pet")

	// ErrNoPetProfile is returned when a user without any pet of their own
	// tries to swipe.
	ErrNoPetProfile = errors.New("a pet profile is required to swipe")

	// ErrEmptyMessage is returned when a chat message has no content.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrMessageTooLong is returned when a chat message exceeds the length limit.
	ErrMessageTooLong = errors.New("message content too long")
)

// QuotaError reports an exhausted allowance. Upgradeable tells the client
// whether a plan upgrade would lift the limit, so it can render "upgrade your
// plan" distinctly from a hard denial.
type QuotaError struct {
	Resource    Resource
	Reason      string
	Upgradeable bool
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %s", e.Resource, e.Reason)
}
