package task

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyText           = errors.New("text is required")
	ErrNoDays              = errors.New("routine tasks need at least one day")
	ErrAllocationRange     = fmt.Errorf("allocation must be between %d and %d minutes", MinAllocatedMins, MaxAllocatedMins)
	ErrUnknownKind         = errors.New("unknown task type")
	ErrUnknownWeekday      = errors.New("unknown weekday")
	ErrInvalidID           = errors.New("id must be positive")
	ErrRunningWithoutStart = errors.New("running task has no start time")
	ErrCompletedAndRunning = errors.New("task is both completed and running")
)

// ValidationError names the field that failed a rule.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
