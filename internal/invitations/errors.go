package invitations

import "errors"

// Error taxonomy surfaced to callers. Messages carry no storage or transport
// detail; unauthenticated token-probing callers learn nothing from them
// beyond the error class itself.
var (
	ErrInvalidInput      = errors.New("Invalid input")
	ErrDuplicateActive   = errors.New("An active invitation already exists for this email")
	ErrNotFound          = errors.New("Invalid invitation token")
	ErrExpired           = errors.New("Invitation has expired")
	ErrAlreadyUsed       = errors.New("Invitation has already been used")
	ErrInvalidState      = errors.New("Invitation is no longer valid")
	ErrRateLimited       = errors.New("Too many requests, please try again later")
	ErrPermissionDenied  = errors.New("You cannot invite a role above your own")
	ErrDependencyFailure = errors.New("Service temporarily unavailable")
)

// IsTaxonomy reports whether err is one of the caller-facing sentinels.
func IsTaxonomy(err error) bool {
	for _, e := range []error{
		ErrInvalidInput, ErrDuplicateActive, ErrNotFound, ErrExpired,
		ErrAlreadyUsed, ErrInvalidState, ErrRateLimited, ErrPermissionDenied,
		ErrDependencyFailure,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
