package runguard

import (
	"fmt"
	"time"

	"github.com/google/go-github/v59/github"
)

const (
	owner        = "testman"
	repo         = "repo"
	branch       = "feature"
	workflowName = "ci"
	workflowPath = ".github/workflows/ci.yml"
)

const workflowID int64 = 42

func testContext() ExecutionContext {
	return ExecutionContext{
		Event:     EventPush,
		Owner:     owner,
		Repo:      repo,
		Workflow:  workflowName,
		Branch:    branch,
		RunNumber: 7,
		SHA:       "abc",
	}
}

// newRunRecord returns a GitHub API workflow run record with all fields
// required by NewWorkflowRun set.
func newRunRecord(runNumber int, status, sha string) *github.WorkflowRun {
	ts := github.Timestamp{Time: time.Date(2024, 5, 1, 12, 0, runNumber, 0, time.UTC)}

	return &github.WorkflowRun{
		ID:        github.Int64(int64(1000 + runNumber)),
		RunNumber: github.Int(runNumber),
		Status:    github.String(status),
		HeadSHA:   github.String(sha),
		HeadCommit: &github.HeadCommit{
			Message:   github.String(fmt.Sprintf("commit %s\n\nbody", sha)),
			Author:    &github.CommitAuthor{Name: github.String("Gopher")},
			Timestamp: &ts,
		},
		CreatedAt: &ts,
		UpdatedAt: &ts,
	}
}

func runID(runNumber int) int64 {
	return int64(1000 + runNumber)
}

func newRun(runNumber int, status, sha string) *WorkflowRun {
	run, err := NewWorkflowRun(newRunRecord(runNumber, status, sha))
	if err != nil {
		panic(err)
	}

	return run
}

type recordingConsole struct {
	groups []string
	lines  []string
	open   int
}

func (c *recordingConsole) Group(title string) {
	c.groups = append(c.groups, title)
	c.open++
}

func (c *recordingConsole) EndGroup() {
	c.open--
}

func (c *recordingConsole) Infof(msg string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(msg, args...))
}
