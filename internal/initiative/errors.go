package initiative

import (
	"errors"
	"fmt"
)

// Sentinel errors for initiative requests, usable with errors.Is.
var (
	// ErrInvalidPolicyPair is returned when a selected policy lacks a
	// display name or short id, or is filed under the wrong short id.
	ErrInvalidPolicyPair = errors.New("invalid policy pair")

	// ErrUnknownService is returned when a selection names a service
	// outside the known set.
	ErrUnknownService = errors.New("unknown service")

	// ErrInvalidRequest is returned for other malformed request fields.
	ErrInvalidRequest = errors.New("invalid initiative request")
)

// ScopeError is returned when an initiative does not have exactly one of a
// subscription or a management group scope.
type ScopeError struct {
	Subscription    string
	ManagementGroup string
}

func (e *ScopeError) Error() string {
	if e.Subscription == "" && e.ManagementGroup == "" {
		return "initiative scope required: supply a subscription name or a management group"
	}
	return fmt.Sprintf("initiative scope is ambiguous: subscription %q and management group %q are both set",
		e.Subscription, e.ManagementGroup)
}
