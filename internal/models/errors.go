package models

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a learner, lesson, or alert that does not exist or
// is not owned by the calling parent. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError describes a malformed quiz submission. Nothing is
// written when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
