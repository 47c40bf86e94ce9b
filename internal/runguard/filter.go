package runguard

import (
	"errors"
	"fmt"
)

// Mode selects how the guard reacts on concurrent runs.
type Mode uint8

const (
	// ModeDetect fails when more than one incomplete run of the workflow
	// exists for the branch.
	ModeDetect Mode = iota
	// ModeGuard cancels an incomplete older run of the workflow on the
	// branch.
	ModeGuard
)

func (m Mode) String() string {
	switch m {
	case ModeDetect:
		return "detect"
	case ModeGuard:
		return "guard"
	default:
		return fmt.Sprintf("unsupported Mode value: %d", m)
	}
}

// FilterStale returns the runs that are blocking the current run.
//
// In ModeDetect these are all incomplete runs, the current run included.
// In ModeGuard these are the incomplete runs with a run number lower than
// currentRunNumber, a run never blocks itself or newer runs.
// The order of runs is preserved.
func FilterStale(runs []*WorkflowRun, currentRunNumber int, mode Mode) []*WorkflowRun {
	var result []*WorkflowRun

	for _, run := range runs {
		if !run.Incomplete() {
			continue
		}

		if mode == ModeGuard && run.RunNumber >= currentRunNumber {
			continue
		}

		result = append(result, run)
	}

	return result
}

// conflicts returns true if stale is a set of runs that prevents the
// current run from proceeding.
func (m Mode) conflicts(stale []*WorkflowRun) bool {
	if m == ModeDetect {
		return len(stale) > 1
	}

	return len(stale) > 0
}

// ErrNoTargetRun is returned when no stale run was triggered by the expected
// commit.
var ErrNoTargetRun = errors.New("no stale run for the triggering commit found")

// ResolveTarget returns the run in stale that was triggered by commit sha.
// If none exists, an error wrapping ErrNoTargetRun is returned, guessing a
// different run could cancel the wrong one.
func ResolveTarget(stale []*WorkflowRun, sha string) (*WorkflowRun, error) {
	for _, run := range stale {
		if run.Commit.SHA == sha {
			return run, nil
		}
	}

	return nil, fmt.Errorf("%w: commit %s, stale runs: %d", ErrNoTargetRun, sha, len(stale))
}
