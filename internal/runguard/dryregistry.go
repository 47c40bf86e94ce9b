package runguard

import (
	"context"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/simplesurance/runguard/internal/logfields"
)

// DryRegistry is a Registry that does not do any changes on github.
// Cancelling runs and updating check-runs is simulated and always succeeds.
// All other operations are forwarded to a wrapped Registry.
type DryRegistry struct {
	clt    Registry
	logger *zap.Logger
}

func NewDryRegistry(clt Registry, logger *zap.Logger) *DryRegistry {
	return &DryRegistry{
		clt:    clt,
		logger: logger.Named("dry_registry"),
	}
}

func (c *DryRegistry) ListWorkflows(ctx context.Context, owner, repo string) ([]*github.Workflow, error) {
	return c.clt.ListWorkflows(ctx, owner, repo)
}

func (c *DryRegistry) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string) ([]*github.WorkflowRun, error) {
	return c.clt.ListWorkflowRuns(ctx, owner, repo, workflowID, branch)
}

func (c *DryRegistry) ListCheckRuns(ctx context.Context, owner, repo, ref, status, name string) ([]*github.CheckRun, error) {
	return c.clt.ListCheckRuns(ctx, owner, repo, ref, status, name)
}

func (c *DryRegistry) UpdateCheckRun(_ context.Context, _, _ string, checkRunID int64, _ github.UpdateCheckRunOptions) error {
	c.logger.Info(
		"simulated updating of check run, no annotation created on github",
		logfields.Event("dry_run_check_run_update"),
		logfields.CheckRunID(checkRunID),
	)
	return nil
}

func (c *DryRegistry) CancelWorkflowRun(_ context.Context, _, _ string, runID int64) error {
	c.logger.Info(
		"simulated cancelling of workflow run, run is not cancelled on github",
		logfields.Event("dry_run_workflow_run_cancel"),
		logfields.RunID(runID),
	)
	return nil
}
