package installer

import (
	"fmt"
	"time"

	"github.com/gookit/color"

	"github.com/glorpus-work/portman/pkg/model"
)

// ResultCode classifies the outcome of one install action.
type ResultCode string

const (
	// ResultSucceeded marks a successful install (built or cache-restored).
	ResultSucceeded ResultCode = "SUCCEEDED"
	// ResultBuildFailed marks a failed build.
	ResultBuildFailed ResultCode = "BUILD_FAILED"
	// ResultCascaded marks an action skipped because a dependency failed.
	ResultCascaded ResultCode = "CASCADED_DUE_TO_MISSING_DEPENDENCIES"
)

// ActionResult records the outcome of one action.
type ActionResult struct {
	Spec    model.PackageSpec
	Code    ResultCode
	Elapsed time.Duration
}

// Summary aggregates per-action outcomes of one Perform run. Under
// keep-going it is the authoritative result of the sweep.
type Summary struct {
	Results []ActionResult
	Elapsed time.Duration
}

func (s *Summary) add(spec model.PackageSpec, code ResultCode, elapsed time.Duration) {
	s.Results = append(s.Results, ActionResult{Spec: spec, Code: code, Elapsed: elapsed})
}

// FailureCount returns the number of actions that did not succeed.
func (s *Summary) FailureCount() int {
	count := 0
	for _, r := range s.Results {
		if r.Code != ResultSucceeded {
			count++
		}
	}
	return count
}

// Print writes the structured per-action summary.
func (s *Summary) Print() {
	fmt.Println()
	fmt.Println("RESULTS")
	for _, r := range s.Results {
		line := fmt.Sprintf("    %s: %s: %s", r.Spec, r.Code, r.Elapsed.Round(time.Millisecond))
		switch r.Code {
		case ResultSucceeded:
			color.Success.Println(line)
		case ResultCascaded:
			color.Warn.Println(line)
		default:
			color.Error.Println(line)
		}
	}
	if failed := s.FailureCount(); failed > 0 {
		color.Warn.Printf("\n%d/%d actions did not succeed\n", failed, len(s.Results))
	}
}
