package backtest

import "fmt"

// InvariantViolationError marks a broken accounting invariant, e.g. a sell
// fill that did not change cash. It indicates a logic bug and halts the run;
// it is never used for ordinary order rejections.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}

func NewInvariantViolationError(format string, args ...interface{}) *InvariantViolationError {
	return &InvariantViolationError{Message: fmt.Sprintf(format, args...)}
}
