package authz

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRole is returned when a role value falls outside the
	// closed role set, e.g. as the target of a role mutation.
	ErrInvalidRole = errors.New("invalid role: not in the recognized role set")

	// ErrConfigurationFault is returned when an authenticated identity
	// carries an unrecognized role. It always denies and is logged
	// distinctly from ordinary denials so operators can detect bad role
	// assignment.
	ErrConfigurationFault = errors.New("configuration fault: identity has unrecognized role")
)

// DeniedError is an authorization denial carrying the exact missing
// permission, so transports can surface "resource:action" in a 403 body.
type DeniedError struct {
	Permission Permission
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: missing permission %s", e.Permission)
}

// Denied constructs a DeniedError for the given resource and action.
func Denied(resource Resource, action Action) *DeniedError {
	return &DeniedError{Permission: Permission{Resource: resource, Action: action}}
}

// IsDenied reports whether err is an authorization denial.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}
