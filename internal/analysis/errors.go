package analysis

import (
	"fmt"
	"strings"
)

// IndexPhase identifies the construction step in which indexing failed.
type IndexPhase int

const (
	// PhaseRoot represents errors resolving the run root directory.
	PhaseRoot IndexPhase = iota
	// PhaseStageDirs represents errors locating stage directories.
	PhaseStageDirs
	// PhaseRunFiles represents errors locating run-level files.
	PhaseRunFiles
	// PhaseSamples represents errors reading the sample sheet.
	PhaseSamples
	// PhaseSampleFiles represents errors locating a sample's output files.
	PhaseSampleFiles
)

// String returns the string representation of IndexPhase.
func (p IndexPhase) String() string {
	switch p {
	case PhaseRoot:
		return "root"
	case PhaseStageDirs:
		return "stage-dirs"
	case PhaseRunFiles:
		return "run-files"
	case PhaseSamples:
		return "samples"
	case PhaseSampleFiles:
		return "sample-files"
	default:
		return "unknown"
	}
}

// IndexError reports a filesystem failure while indexing a run.
// A run that returned an IndexError is partially built and must not be used.
type IndexError struct {
	Phase IndexPhase // Construction step that failed
	Role  string     // Role being resolved, if any
	Err   error      // Underlying error
}

// Error implements the error interface for IndexError.
func (e *IndexError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("index %s", e.Phase))
	if e.Role != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", e.Role))
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *IndexError) Unwrap() error {
	return e.Err
}
