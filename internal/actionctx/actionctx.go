// Package actionctx creates the runguard.ExecutionContext of a GitHub
// Actions workflow run.
package actionctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v59/github"
	"github.com/sethvargo/go-githubactions"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/runguard"
)

const branchRefPrefix = "refs/heads/"

// New returns the ExecutionContext for the workflow run described by ghCtx.
// The branch and triggering commit are read from the event payload, the
// remaining fields from the environment variables of the run.
func New(ghCtx *githubactions.GitHubContext) (runguard.ExecutionContext, error) {
	var result runguard.ExecutionContext

	kind, err := runguard.ParseEventKind(ghCtx.EventName)
	if err != nil {
		return result, err
	}

	owner, repo, err := splitRepository(ghCtx.Repository)
	if err != nil {
		return result, guarderr.Configuration(err)
	}

	event, err := parseEvent(kind, ghCtx)
	if err != nil {
		return result, err
	}

	var branch, sha string

	switch ev := event.(type) {
	case *github.PushEvent:
		branch = strings.TrimPrefix(ev.GetRef(), branchRefPrefix)
		if branch == "" {
			branch = strings.TrimPrefix(ghCtx.Ref, branchRefPrefix)
		}

		sha = ev.GetAfter()
		if sha == "" {
			sha = ghCtx.SHA
		}

	case *github.PullRequestEvent:
		// the ref does not have the refs/heads/ prefix
		branch = ev.GetPullRequest().GetHead().GetRef()
		if branch == "" {
			branch = ghCtx.HeadRef
		}

		sha = ev.GetPullRequest().GetHead().GetSHA()

	default:
		return result, guarderr.Configuration(fmt.Errorf("unexpected event payload type %T for event %q", event, ghCtx.EventName))
	}

	result = runguard.ExecutionContext{
		Event:     kind,
		Owner:     owner,
		Repo:      repo,
		Workflow:  ghCtx.Workflow,
		Branch:    branch,
		RunNumber: int(ghCtx.RunNumber),
		SHA:       sha,
	}

	return result, result.Validate()
}

// parseEvent returns the typed event payload of ghCtx.
// If the payload is empty, a zero event of the kind is returned, the fields
// are then derived from the environment variables of the run.
func parseEvent(kind runguard.EventKind, ghCtx *githubactions.GitHubContext) (any, error) {
	if len(ghCtx.Event) == 0 {
		switch kind {
		case runguard.EventPush:
			return &github.PushEvent{}, nil
		case runguard.EventPullRequest:
			return &github.PullRequestEvent{}, nil
		}
	}

	payload, err := json.Marshal(ghCtx.Event)
	if err != nil {
		return nil, guarderr.Configuration(fmt.Errorf("marshaling event payload failed: %w", err))
	}

	event, err := github.ParseWebHook(ghCtx.EventName, payload)
	if err != nil {
		return nil, guarderr.Configuration(fmt.Errorf("parsing %s event payload failed: %w", ghCtx.EventName, err))
	}

	return event, nil
}

func splitRepository(fullName string) (owner, repo string, err error) {
	owner, repo, found := strings.Cut(fullName, "/")
	if !found || owner == "" || repo == "" {
		return "", "", errors.New("repository name must be in the format <owner>/<repository>, is: " + fullName)
	}

	return owner, repo, nil
}
