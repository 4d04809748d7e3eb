package policy

import (
	"errors"
	"fmt"
)

// ErrApplicationNotAllowed is returned for requests addressed to an unlisted skill
var ErrApplicationNotAllowed = errors.New("application not allowed")

// Validator validates authenticated skill requests against the application allowlist
type Validator struct {
	applications map[string]bool
}

// NewValidator creates a new policy validator. An empty list allows every application.
func NewValidator(applicationIDs []string) *Validator {
	apps := make(map[string]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		if id != "" {
			apps[id] = true
		}
	}
	return &Validator{applications: apps}
}

// ValidateApplication checks the application id carried by a request
func (v *Validator) ValidateApplication(applicationID string) error {
	if len(v.applications) == 0 {
		return nil
	}

	if applicationID == "" {
		return fmt.Errorf("%w: request carries no application id", ErrApplicationNotAllowed)
	}

	if !v.applications[applicationID] {
		return fmt.Errorf("%w: %s", ErrApplicationNotAllowed, applicationID)
	}

	return nil
}

// Restricted reports whether an allowlist is in force
func (v *Validator) Restricted() bool {
	return len(v.applications) > 0
}
