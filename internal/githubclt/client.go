// Package githubclt provides a github API client.
package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/logfields"
)

const DefaultHTTPClientTimeout = time.Minute

// DefaultAPIURL is the REST API endpoint of github.com.
const DefaultAPIURL = "https://api.github.com"

const loggerName = "github_client"

// perPage is the max. page size supported by the GitHub REST API.
const perPage = 100

// New returns a new github api client.
// If apiURL is empty or DefaultAPIURL, the client talks to github.com,
// otherwise apiURL is used as GitHub Enterprise endpoint.
func New(oauthAPItoken, apiURL string) (*Client, error) {
	httpClient := newHTTPClient(oauthAPItoken)

	restClt := github.NewClient(httpClient)
	if apiURL != "" && strings.TrimSuffix(apiURL, "/") != DefaultAPIURL {
		var err error

		restClt, err = restClt.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("setting github api url to %q failed: %w", apiURL, err)
		}
	}

	return &Client{
		restClt: restClt,
		logger:  zap.L().Named(loggerName),
	}, nil
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{
			Timeout: DefaultHTTPClientTimeout,
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

// Client is an github API client.
// All methods return a guarderr.RetryableError when an operation can be retried.
// This can be e.g. the case when the API ratelimit is exceeded.
type Client struct {
	restClt *github.Client
	logger  *zap.Logger
}

// ListWorkflows returns all workflows of a repository.
func (clt *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]*github.Workflow, error) {
	var result []*github.Workflow

	opts := &github.ListOptions{PerPage: perPage}
	for {
		wfs, resp, err := clt.restClt.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, clt.wrapRetryableErrors(err)
		}

		result = append(result, wfs.Workflows...)

		if resp.NextPage == 0 || len(wfs.Workflows) == 0 {
			return result, nil
		}

		opts.Page = resp.NextPage
	}
}

// ListWorkflowRuns returns the newest runs of a workflow for a branch,
// ordered as GitHub returns them (newest first).
// Only the first page of up to 100 runs is fetched, older runs can not be
// incomplete when that many newer runs exist.
func (clt *Client) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string) ([]*github.WorkflowRun, error) {
	runs, _, err := clt.restClt.Actions.ListWorkflowRunsByID(ctx, owner, repo, workflowID, &github.ListWorkflowRunsOptions{
		Branch:      branch,
		ListOptions: github.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return nil, clt.wrapRetryableErrors(err)
	}

	return runs.WorkflowRuns, nil
}

// ListCheckRuns returns the check-runs for a ref.
// Empty status or name parameters are not used as filter.
func (clt *Client) ListCheckRuns(ctx context.Context, owner, repo, ref, status, name string) ([]*github.CheckRun, error) {
	opts := github.ListCheckRunsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	if status != "" {
		opts.Status = &status
	}

	if name != "" {
		opts.CheckName = &name
	}

	res, _, err := clt.restClt.Checks.ListCheckRunsForRef(ctx, owner, repo, ref, &opts)
	if err != nil {
		return nil, clt.wrapRetryableErrors(err)
	}

	return res.CheckRuns, nil
}

// UpdateCheckRun updates a check-run, e.g. to attach annotations to it.
func (clt *Client) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) error {
	_, _, err := clt.restClt.Checks.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
	return clt.wrapRetryableErrors(err)
}

// CancelWorkflowRun requests cancellation of a workflow run.
// GitHub cancels runs asynchronously, a nil error means the cancellation was
// accepted, not that the run already stopped.
// Cancelling a run that already completed is interpreted as success.
func (clt *Client) CancelWorkflowRun(ctx context.Context, owner, repo string, runID int64) error {
	_, err := clt.restClt.Actions.CancelWorkflowRunByID(ctx, owner, repo, runID)
	if err == nil {
		return nil
	}

	logger := clt.logger.With(
		logfields.RepositoryOwner(owner),
		logfields.Repository(repo),
		logfields.RunID(runID),
	)

	if _, ok := err.(*github.AcceptedError); ok {
		logger.Debug("cancelling workflow run scheduled",
			logfields.Event("github_workflow_run_cancel_scheduled"))
		return nil
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusConflict {
		logger.Debug("cancelling workflow run returned a conflict response, interpreting it as run already completed",
			logfields.Event("github_workflow_run_cancel_conflict"),
			zap.Error(err),
		)

		return nil
	}

	return clt.wrapRetryableErrors(err)
}

func (clt *Client) wrapRetryableErrors(err error) error {
	switch v := err.(type) {
	case *github.RateLimitError:
		clt.logger.Info(
			"rate limit exceeded",
			logfields.Event("github_api_rate_limit_exceeded"),
			zap.Int("github_api_rate_limit", v.Rate.Limit),
			zap.Time("github_api_rate_limit_reset_time", v.Rate.Reset.Time),
		)

		return guarderr.NewRetryableError(err, v.Rate.Reset.Time)

	case *github.ErrorResponse:
		if v.Response != nil && v.Response.StatusCode >= 500 && v.Response.StatusCode < 600 {
			return guarderr.NewRetryableAnytimeError(err)
		}
	}

	return err
}
