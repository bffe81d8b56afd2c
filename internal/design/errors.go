package design

import "fmt"

// ConfigurationError is an invalid or contradictory request. It's returned
// before any external call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Stage of the design pipeline an external error came from.
type Stage string

const (
	StageFetch       Stage = "fetch"
	StageSelect      Stage = "select"
	StageGenerate    Stage = "generate"
	StageSpecificity Stage = "specificity"
)

// StageError wraps a collaborator's error with the stage it failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
