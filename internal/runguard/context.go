package runguard

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/logfields"
)

// EventKind is the GitHub event that triggered the workflow run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
)

// ParseEventKind returns the EventKind for a GitHub event name.
// A guarderr.KindConfiguration error is returned for unsupported events.
func ParseEventKind(name string) (EventKind, error) {
	switch kind := EventKind(name); kind {
	case EventPush, EventPullRequest:
		return kind, nil
	default:
		return "", guarderr.Configuration(
			fmt.Errorf("unsupported event type %q, only %q and %q are supported", name, EventPush, EventPullRequest),
		)
	}
}

// ExecutionContext describes the workflow run that invoked the guard.
// It is passed by value and never modified.
type ExecutionContext struct {
	Event    EventKind
	Owner    string
	Repo     string
	Workflow string
	Branch   string
	// RunNumber is the number of the current run of the workflow.
	RunNumber int
	// SHA is the commit that triggered the event, the pushed commit for
	// push events and the head commit of the pull request for
	// pull_request events.
	SHA string
}

// Validate returns a guarderr.KindConfiguration error when a field is unset.
func (c ExecutionContext) Validate() error {
	if _, err := ParseEventKind(string(c.Event)); err != nil {
		return err
	}

	var missing []string
	for _, f := range []struct {
		name  string
		unset bool
	}{
		{"owner", c.Owner == ""},
		{"repository", c.Repo == ""},
		{"workflow", c.Workflow == ""},
		{"branch", c.Branch == ""},
		{"run number", c.RunNumber <= 0},
		{"commit sha", c.SHA == ""},
	} {
		if f.unset {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return guarderr.Configuration(fmt.Errorf("execution context is incomplete, missing: %s", strings.Join(missing, ", ")))
	}

	return nil
}

func (c ExecutionContext) LogFields() []zap.Field {
	return []zap.Field{
		logfields.EventType(string(c.Event)),
		logfields.RepositoryOwner(c.Owner),
		logfields.Repository(c.Repo),
		logfields.Workflow(c.Workflow),
		logfields.Branch(c.Branch),
		logfields.RunNumber(c.RunNumber),
		logfields.Commit(c.SHA),
	}
}
