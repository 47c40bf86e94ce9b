package runguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/logfields"
	"github.com/simplesurance/runguard/internal/stringutils"
)

const loggerName = "runguard"

const workflowStateActive = "active"

const (
	DefaultCheckRunAppName        = "GitHub Actions"
	DefaultCheckRunLookupAttempts = 5
	DefaultCheckRunLookupInterval = time.Second
	DefaultGracePeriod            = 20 * time.Second
)

// ErrConcurrentRuns is returned in ModeDetect when more than one incomplete
// run exists.
var ErrConcurrentRuns = errors.New("another run was already in process for this workflow and branch")

// PollConfig defines if and how often the workflow run state is fetched
// again while runs are blocking the current one.
type PollConfig struct {
	// Interval is the time between two fetches, 0 disables polling.
	Interval time.Duration
}

// PollConfigFromSeconds returns a PollConfig for an interval of seconds.
// 0 disables polling.
func PollConfigFromSeconds(seconds int) (PollConfig, error) {
	if seconds < 0 {
		return PollConfig{}, guarderr.Configuration(fmt.Errorf("poll seconds must be >=0, is: %d", seconds))
	}

	return PollConfig{Interval: time.Duration(seconds) * time.Second}, nil
}

func (c PollConfig) Enabled() bool {
	return c.Interval > 0
}

// Config configures a Guard.
type Config struct {
	Mode Mode
	Poll PollConfig
	// RunQuery is an optional filter, runs for which it evaluates to false
	// are ignored.
	RunQuery *RunQuery

	// CheckRunAppName is the name of the GitHub app that owns the check-run
	// of the current run.
	CheckRunAppName        string
	CheckRunLookupAttempts uint64
	CheckRunLookupInterval time.Duration
	// GracePeriod is the time waited after the cancellation of a run was
	// accepted by GitHub.
	GracePeriod time.Duration
}

// DefaultConfig returns a Config for ModeDetect without polling.
func DefaultConfig() Config {
	return Config{
		Mode:                   ModeDetect,
		CheckRunAppName:        DefaultCheckRunAppName,
		CheckRunLookupAttempts: DefaultCheckRunLookupAttempts,
		CheckRunLookupInterval: DefaultCheckRunLookupInterval,
		GracePeriod:            DefaultGracePeriod,
	}
}

// State is the state of the poll loop of a Guard.
type State uint8

const (
	StatePolling State = iota
	// StateClear is the terminal state when no run blocks the current
	// one.
	StateClear
	// StateStaleFound is the terminal state when a stale run was found
	// and cancelled.
	StateStaleFound
	// StateFatal is the terminal state when the guard run failed.
	StateFatal
)

var stateStrings = [...]string{
	StatePolling:    "polling",
	StateClear:      "clear",
	StateStaleFound: "stale_found",
	StateFatal:      "fatal",
}

func (s State) String() string {
	if int(s) > len(stateStrings)-1 {
		return fmt.Sprintf("unsupported State value: %d", s)
	}

	return stateStrings[s]
}

// Result is the outcome of Guard.Run.
type Result struct {
	State State
	// Polls is the number of times the run state was fetched.
	Polls int
	// Stale are the blocking runs of the last fetch.
	Stale []*WorkflowRun
	// Cancelled is the run that was cancelled, nil if none was.
	Cancelled *WorkflowRun
}

// Guard ensures that only the newest run of a workflow per branch
// proceeds.
type Guard struct {
	registry Registry
	console  Console
	cfg      Config
	retryer  *Retryer
	logger   *zap.Logger

	sleep func(context.Context, time.Duration) error
}

func NewGuard(registry Registry, console Console, cfg Config) *Guard {
	return &Guard{
		registry: registry,
		console:  console,
		cfg:      cfg,
		retryer:  NewConstantRetryer(cfg.CheckRunLookupInterval, cfg.CheckRunLookupAttempts),
		logger:   zap.L().Named(loggerName),
		sleep:    sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run fetches the runs of the workflow of ec for its branch until no run
// blocks the current one anymore.
//
// In ModeDetect a guarderr.KindPolicyViolation error is returned if more
// than one incomplete run exists and polling is disabled.
//
// In ModeGuard a stale run triggered by ec.SHA is cancelled when polling is
// disabled or when 2 consecutive fetches found the same stale run.
// If the stale runs do not contain a run for ec.SHA, a
// guarderr.KindConsistency error is returned.
//
// Errors are always returned together with a Result in StateFatal.
// When ctx is done while waiting, ctx.Err() is returned without a
// guarderr.Kind. If this happens during the grace period after a
// cancellation, Result.Cancelled is set.
func (g *Guard) Run(ctx context.Context, ec ExecutionContext) (*Result, error) {
	result := Result{State: StatePolling}

	fatal := func(err error) (*Result, error) {
		result.State = StateFatal
		return &result, err
	}

	if err := ec.Validate(); err != nil {
		return fatal(err)
	}

	logger := g.logger.With(ec.LogFields()...)

	wf, err := g.resolveWorkflow(ctx, &ec)
	if err != nil {
		return fatal(err)
	}

	logger = logger.With(logfields.WorkflowID(wf.GetID()))

	g.printWorkflowInfo(&ec, wf)

	logger.Debug(
		"guard started",
		logfields.Event("guard_started"),
		zap.Stringer("mode", g.cfg.Mode),
		zap.Duration("poll_interval", g.cfg.Poll.Interval),
	)

	var lastTargetID int64

	for {
		result.Polls++

		stale, err := g.fetchStale(ctx, &ec, wf)
		if err != nil {
			return fatal(err)
		}

		result.Stale = stale

		if !g.cfg.Mode.conflicts(stale) {
			result.State = StateClear
			logger.Info(
				"no conflicting runs exist",
				logfields.Event("guard_clear"),
				zap.Int("polls", result.Polls),
			)

			return &result, nil
		}

		if g.cfg.Mode == ModeGuard {
			target, err := ResolveTarget(stale, ec.SHA)
			if err != nil {
				return fatal(guarderr.Consistency(err))
			}

			if !g.cfg.Poll.Enabled() || target.ID == lastTargetID {
				result.State = StateStaleFound

				if err := g.cancel(ctx, &ec, wf, target); err != nil {
					return fatal(err)
				}

				result.Cancelled = target

				if err := g.sleep(ctx, g.cfg.GracePeriod); err != nil {
					return fatal(err)
				}

				return &result, nil
			}

			lastTargetID = target.ID
		} else if !g.cfg.Poll.Enabled() {
			logger.Info(
				"multiple incomplete runs exist",
				logfields.Event("guard_concurrent_runs_detected"),
				zap.Int("incomplete_runs", len(stale)),
			)

			return fatal(guarderr.PolicyViolation(ErrConcurrentRuns))
		}

		logger.Info(
			"runs are blocking the current run, waiting",
			logfields.Event("guard_waiting"),
			zap.Int("blocking_runs", len(stale)),
			zap.Duration("poll_interval", g.cfg.Poll.Interval),
		)

		if err := g.sleep(ctx, g.cfg.Poll.Interval); err != nil {
			return fatal(err)
		}
	}
}

func (g *Guard) resolveWorkflow(ctx context.Context, ec *ExecutionContext) (*github.Workflow, error) {
	wfs, err := g.registry.ListWorkflows(ctx, ec.Owner, ec.Repo)
	if err != nil {
		return nil, guarderr.UpstreamAPI(fmt.Errorf("listing workflows failed: %w", err))
	}

	for _, wf := range wfs {
		if wf.GetName() == ec.Workflow && wf.GetState() == workflowStateActive {
			return wf, nil
		}
	}

	return nil, guarderr.Configuration(fmt.Errorf("repository has no active workflow named %q", ec.Workflow))
}

// fetchStale fetches the current runs and returns the ones blocking the
// current run.
func (g *Guard) fetchStale(ctx context.Context, ec *ExecutionContext, wf *github.Workflow) ([]*WorkflowRun, error) {
	metrics.PollsInc(ec, g.cfg.Mode)

	records, err := g.registry.ListWorkflowRuns(ctx, ec.Owner, ec.Repo, wf.GetID(), ec.Branch)
	if err != nil {
		return nil, guarderr.UpstreamAPI(fmt.Errorf("listing workflow runs failed: %w", err))
	}

	runs, err := BuildSnapshots(ctx, records, g.cfg.RunQuery)
	if err != nil {
		if guarderr.KindOf(err) == guarderr.KindUndefined {
			err = guarderr.UpstreamAPI(fmt.Errorf("github returned an invalid workflow run: %w", err))
		}

		return nil, err
	}

	g.printRuns(fmt.Sprintf("All Runs (%d)", len(runs)), runs)

	stale := FilterStale(runs, ec.RunNumber, g.cfg.Mode)

	if g.cfg.Mode == ModeDetect {
		g.printRuns(fmt.Sprintf("Incomplete Runs (%d)", len(stale)), stale)
	} else {
		g.printRuns(fmt.Sprintf("Stale Runs (%d)", len(stale)), stale)
	}

	metrics.StaleRunsSet(ec, g.cfg.Mode, len(stale))

	return stale, nil
}

func (g *Guard) printWorkflowInfo(ec *ExecutionContext, wf *github.Workflow) {
	info := fmt.Sprintf(
		"owner: %s\nrepository: %s\nbranch: %s\nworkflow: %s\nworkflow id: %d\nworkflow path: %s\nrun number: %d\ncommit: %s",
		ec.Owner, ec.Repo, ec.Branch, ec.Workflow, wf.GetID(), wf.GetPath(), ec.RunNumber, ec.SHA,
	)

	g.console.Group("Workflow Info")
	g.console.Infof("%s", stringutils.IndentLines(info, "  "))
	g.console.EndGroup()
}

func (g *Guard) printRuns(title string, runs []*WorkflowRun) {
	g.console.Group(title)
	for _, run := range runs {
		g.console.Infof("  %s", run)
	}
	g.console.EndGroup()
}
