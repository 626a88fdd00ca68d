package domain

import (
	"fmt"
	"time"
)

// MaxExpirationWindow is the longest an activity may stay up before the
// platform force-expires it.
const MaxExpirationWindow = 8 * time.Hour

const (
	maxIDLength    = 50
	maxTitleLength = 100
	maxActions     = 2
)

// ValidationError names one violated constraint on a config field.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationResult collects every constraint violation found in a config.
type ValidationResult struct {
	IsValid bool
	Errors  []ValidationError
}

// Validator checks activity configs against system constraints. It is pure
// and deterministic for a fixed clock. Violations are collected, not
// short-circuited.
type Validator struct {
	now func() time.Time
}

// NewValidator constructs a Validator using the wall clock.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt constructs a Validator with a fixed clock for tests.
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate checks config and returns all violations in declaration order.
func (v *Validator) Validate(config ActivityConfig) ValidationResult {
	var errs []ValidationError

	if config.ID == "" {
		errs = append(errs, ValidationError{Field: "id", Message: "activity id cannot be empty"})
	} else if len(config.ID) > maxIDLength {
		errs = append(errs, ValidationError{Field: "id", Message: fmt.Sprintf("activity id cannot exceed %d characters", maxIDLength)})
	}

	if config.Title == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "activity title cannot be empty"})
	} else if len(config.Title) > maxTitleLength {
		errs = append(errs, ValidationError{Field: "title", Message: fmt.Sprintf("activity title cannot exceed %d characters", maxTitleLength)})
	}

	if len(config.Actions) > maxActions {
		errs = append(errs, ValidationError{Field: "actions", Message: fmt.Sprintf("at most %d actions are supported", maxActions)})
	}

	for _, action := range config.Actions {
		if action.ID == "" {
			errs = append(errs, ValidationError{Field: "actions", Message: "action id cannot be empty"})
		}
		if action.Title == "" {
			errs = append(errs, ValidationError{Field: "actions", Message: "action title cannot be empty"})
		}
	}

	seen := make(map[string]struct{}, len(config.Actions))
	for _, action := range config.Actions {
		if action.ID == "" {
			continue
		}
		if _, dup := seen[action.ID]; dup {
			errs = append(errs, ValidationError{Field: "actions", Message: "action ids must be unique"})
			break
		}
		seen[action.ID] = struct{}{}
	}

	if config.ExpirationDate != nil {
		now := v.now()
		if !config.ExpirationDate.After(now) {
			errs = append(errs, ValidationError{Field: "expirationDate", Message: "expiration date must be in the future"})
		} else if config.ExpirationDate.After(now.Add(MaxExpirationWindow)) {
			errs = append(errs, ValidationError{Field: "expirationDate", Message: "expiration date cannot exceed 8 hours from now"})
		}
	}

	if config.Content.Progress != nil {
		if p := *config.Content.Progress; p < 0.0 || p > 1.0 {
			errs = append(errs, ValidationError{Field: "content.progress", Message: "progress must be between 0.0 and 1.0"})
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
