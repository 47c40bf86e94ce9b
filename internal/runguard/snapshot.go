package runguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v59/github"

	"github.com/simplesurance/runguard/internal/guarderr"
)

// StatusCompleted is the only run status the guard distinguishes, every other
// status (queued, in_progress, waiting, ...) is considered incomplete.
const StatusCompleted = "completed"

// Commit is the commit that triggered a workflow run.
type Commit struct {
	Message   string
	Author    string
	Timestamp time.Time
	SHA       string
}

// WorkflowRun is a snapshot of a GitHub workflow run.
type WorkflowRun struct {
	ID        int64
	RunNumber int
	Commit    Commit
	Status    string
	// Conclusion is empty while the run is incomplete.
	Conclusion string
	Created    time.Time
	Updated    time.Time
}

func (r *WorkflowRun) Incomplete() bool {
	return r.Status != StatusCompleted
}

func (r *WorkflowRun) String() string {
	return fmt.Sprintf(
		"#%d (id: %d, status: %s, conclusion: %s, commit: %s, author: %s, created: %s, updated: %s): %s",
		r.RunNumber, r.ID, r.Status, r.Conclusion, r.Commit.SHA, r.Commit.Author,
		r.Created.Format(time.RFC3339), r.Updated.Format(time.RFC3339), firstLine(r.Commit.Message),
	)
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}

	return s
}

// NewWorkflowRun converts a GitHub API run record to a WorkflowRun.
// An error is returned if the record is missing the id, status, run number,
// head sha or head commit.
func NewWorkflowRun(run *github.WorkflowRun) (*WorkflowRun, error) {
	if run == nil {
		return nil, errors.New("workflow run record is nil")
	}

	if run.ID == nil {
		return nil, errors.New("workflow run record has no id")
	}

	if run.RunNumber == nil {
		return nil, fmt.Errorf("workflow run record %d has no run number", run.GetID())
	}

	if run.Status == nil {
		return nil, fmt.Errorf("workflow run record %d has no status", run.GetID())
	}

	if run.GetHeadSHA() == "" {
		return nil, fmt.Errorf("workflow run record %d has no head sha", run.GetID())
	}

	headCommit := run.GetHeadCommit()
	if headCommit == nil {
		return nil, fmt.Errorf("workflow run record %d has no head commit", run.GetID())
	}

	return &WorkflowRun{
		ID:        run.GetID(),
		RunNumber: run.GetRunNumber(),
		Commit: Commit{
			Message:   headCommit.GetMessage(),
			Author:    headCommit.GetAuthor().GetName(),
			Timestamp: headCommit.GetTimestamp().Time,
			SHA:       run.GetHeadSHA(),
		},
		Status:     run.GetStatus(),
		Conclusion: run.GetConclusion(),
		Created:    run.GetCreatedAt().Time,
		Updated:    run.GetUpdatedAt().Time,
	}, nil
}

// BuildSnapshots converts GitHub API run records to WorkflowRuns, the order
// is preserved.
// If query is not nil, records for which it does not evaluate to true are
// omitted. A query that fails or does not return a single bool is a
// guarderr.KindConfiguration error.
func BuildSnapshots(ctx context.Context, records []*github.WorkflowRun, query *RunQuery) ([]*WorkflowRun, error) {
	result := make([]*WorkflowRun, 0, len(records))

	for _, rec := range records {
		run, err := NewWorkflowRun(rec)
		if err != nil {
			return nil, err
		}

		if query != nil {
			match, err := query.Match(ctx, rec)
			if err != nil {
				return nil, guarderr.Configuration(
					fmt.Errorf("evaluating run filter query for run #%d failed: %w", run.RunNumber, err),
				)
			}

			if !match {
				continue
			}
		}

		result = append(result, run)
	}

	return result, nil
}
