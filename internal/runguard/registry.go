package runguard

import (
	"context"

	"github.com/google/go-github/v59/github"
)

//go:generate mockgen -destination=mocks/registry.go -package=mocks github.com/simplesurance/runguard/internal/runguard Registry

// Registry provides access to the workflow and check-run state of GitHub.
type Registry interface {
	ListWorkflows(ctx context.Context, owner, repo string) ([]*github.Workflow, error)
	ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string) ([]*github.WorkflowRun, error)
	ListCheckRuns(ctx context.Context, owner, repo, ref, status, name string) ([]*github.CheckRun, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) error
	CancelWorkflowRun(ctx context.Context, owner, repo string, runID int64) error
}

// Console groups human readable output of a guard run, e.g. into
// collapsible sections of the GitHub Actions log.
type Console interface {
	Group(title string)
	EndGroup()
	Infof(msg string, args ...any)
}
