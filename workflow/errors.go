package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCV is raised when a letter is requested before any CV was resolved
	ErrMissingCV = errors.New("CV data is missing, run an analysis first")
	// ErrSuperseded is returned when a reset or a newer analysis replaced the session
	ErrSuperseded = errors.New("session superseded")
)

// PipelineError names the analysis step that failed
type PipelineError struct {
	Step Phase
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("failed during step %s: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
