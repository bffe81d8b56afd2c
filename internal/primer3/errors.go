package primer3

import (
	"fmt"
	"strings"
	"time"
)

// EngineError is a failed primer3 or ntthal execution, or output primer3
// itself flagged as an error.
type EngineError struct {
	Op     string
	Err    error
	Output string
}

func (e *EngineError) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Op, e.Err, out)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// EngineTimeoutError is an engine call that ran past its timeout.
type EngineTimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *EngineTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}
