package runguard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/logfields"
)

const checkRunStatusInProgress = "in_progress"

const annotationLevelFailure = "failure"

const (
	annotationTitle   = "Concurrent workflow run"
	annotationSummary = "Only the newest run of a workflow per branch is allowed to proceed."
	annotationMessage = "An older run of this workflow was still in progress for the same branch, it was cancelled."
)

// ErrCheckRunNotFound is returned when the check-run of the current run
// can not be found.
var ErrCheckRunNotFound = errors.New("check run of the current workflow run not found")

// cancel annotates the check-run of the current run and cancels target.
// It returns when the cancellation was accepted, the run might still be in
// progress.
// Failing to annotate the check-run is logged and does not prevent the
// cancellation.
func (g *Guard) cancel(ctx context.Context, ec *ExecutionContext, wf *github.Workflow, target *WorkflowRun) error {
	logger := g.logger.With(ec.LogFields()...).With(
		logfields.RunID(target.ID),
		zap.Int("stale_run_number", target.RunNumber),
	)

	checkRun, err := g.lookupCheckRun(ctx, ec)
	if err != nil {
		return err
	}

	logger = logger.With(logfields.CheckRunID(checkRun.GetID()))

	if err := g.annotate(ctx, ec, wf, checkRun, target); err != nil {
		metrics.AnnotationFailuresInc()
		logger.Warn(
			"annotating check run failed, proceeding with cancellation",
			logfields.Event("check_run_annotation_failed"),
			zap.Error(err),
		)
	}

	if err := g.registry.CancelWorkflowRun(ctx, ec.Owner, ec.Repo, target.ID); err != nil {
		return guarderr.UpstreamAPI(fmt.Errorf("cancelling workflow run #%d (id: %d) failed: %w", target.RunNumber, target.ID, err))
	}

	metrics.CancelledRunsInc(ec)

	logger.Info(
		"stale workflow run cancelled, waiting for the cancellation to propagate",
		logfields.Event("workflow_run_cancelled"),
		zap.Duration("grace_period", g.cfg.GracePeriod),
	)

	return nil
}

// lookupCheckRun returns the in-progress check-run of the current workflow
// run that belongs to the configured app.
// Lookups that find no such check-run are retried up to
// CheckRunLookupAttempts times.
func (g *Guard) lookupCheckRun(ctx context.Context, ec *ExecutionContext) (*github.CheckRun, error) {
	var result *github.CheckRun

	err := g.retryer.Run(ctx, func(ctx context.Context) error {
		metrics.CheckRunLookupsInc()

		checkRuns, err := g.registry.ListCheckRuns(ctx, ec.Owner, ec.Repo, ec.Branch, checkRunStatusInProgress, ec.Workflow)
		if err != nil {
			return guarderr.UpstreamAPI(fmt.Errorf("listing check runs failed: %w", err))
		}

		for _, cr := range checkRuns {
			if cr.GetApp().GetName() == g.cfg.CheckRunAppName {
				result = cr
				return nil
			}
		}

		return guarderr.NewRetryableAnytimeError(fmt.Errorf(
			"%w: %d check runs named %q are in progress, none belongs to app %q",
			ErrCheckRunNotFound, len(checkRuns), ec.Workflow, g.cfg.CheckRunAppName,
		))
	}, ec.LogFields())
	if err != nil {
		if errors.Is(err, ErrCheckRunNotFound) {
			return nil, guarderr.Consistency(err)
		}

		return nil, err
	}

	return result, nil
}

func (g *Guard) annotate(ctx context.Context, ec *ExecutionContext, wf *github.Workflow, checkRun *github.CheckRun, target *WorkflowRun) error {
	name := checkRun.GetName()
	if name == "" {
		name = ec.Workflow
	}

	return g.registry.UpdateCheckRun(ctx, ec.Owner, ec.Repo, checkRun.GetID(), github.UpdateCheckRunOptions{
		Name: name,
		Output: &github.CheckRunOutput{
			Title:   github.String(annotationTitle),
			Summary: github.String(annotationSummary),
			Annotations: []*github.CheckRunAnnotation{
				{
					Path:            github.String(wf.GetPath()),
					StartLine:       github.Int(1),
					EndLine:         github.Int(1),
					AnnotationLevel: github.String(annotationLevelFailure),
					Title:           github.String(annotationTitle),
					Message: github.String(fmt.Sprintf(
						"%s Cancelled run: #%d (commit %s).",
						annotationMessage, target.RunNumber, target.Commit.SHA,
					)),
				},
			},
		},
	})
}
