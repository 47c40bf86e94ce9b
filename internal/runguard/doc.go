// Package runguard ensures that only the newest run of a GitHub Actions
// workflow per branch proceeds.
//
// A Guard is invoked once per workflow run. It fetches the runs of the
// workflow for the branch from GitHub, converts them to WorkflowRun
// snapshots and filters them to the runs that block the current one.
//
// In detect mode all incomplete runs are considered, when more than one
// exists the guard fails.
//
// In guard mode the incomplete runs with a lower run number than the current
// one are considered stale. The stale run that was triggered by the same
// commit as the current run is cancelled. Before it is cancelled, a failure
// annotation is added to the check-run of the current run to explain why the
// other run was cancelled.
//
// When a poll interval is configured, the guard waits and fetches the run
// state again instead of failing or cancelling immediately:
//   - in detect mode it waits until at most one incomplete run exists,
//   - in guard mode it cancels the stale run after it was found in 2
//     consecutive fetches, if the stale runs complete in the meantime
//     nothing is cancelled.
//
// There is no limit for the number of fetches, the guard waits until the
// runs complete or it is terminated.
package runguard
