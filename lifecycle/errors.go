package lifecycle

import (
	"errors"
	"fmt"
)

// Outcome classes. Every error returned by the Engine wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("not authorized")
	ErrStateConflict = errors.New("state conflict")
	ErrProvision     = errors.New("channel provisioning failed")
	ErrDelivery      = errors.New("delivery failed")
)

var (
	ErrGroupNotFound = fmt.Errorf("%w: group not found", ErrNotFound)
	ErrNoGroups      = fmt.Errorf("%w: no groups created", ErrNotFound)

	ErrNotCreator       = fmt.Errorf("%w: only the group creator can do this", ErrUnauthorized)
	ErrNotAdmin         = fmt.Errorf("%w: administrators only", ErrUnauthorized)
	ErrCreationDisabled = fmt.Errorf("%w: group creation is disabled", ErrUnauthorized)

	ErrGroupComplete        = fmt.Errorf("%w: group is already complete", ErrStateConflict)
	ErrGroupFull            = fmt.Errorf("%w: group is full and awaiting completion", ErrStateConflict)
	ErrAlreadyMember        = fmt.Errorf("%w: already a member", ErrStateConflict)
	ErrDuplicateApplication = fmt.Errorf("%w: already applied", ErrStateConflict)
	ErrAlreadyHandled       = fmt.Errorf("%w: application already handled", ErrStateConflict)
)

// reason is the metrics label of an error
func reason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrProvision):
		return "provision"
	case errors.Is(err, ErrDelivery):
		return "delivery"
	default:
		return "internal"
	}
}
