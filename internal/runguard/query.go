package runguard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-github/v59/github"
	"github.com/itchyny/gojq"
)

// RunQuery is a jq expression that decides if a workflow run is considered
// by the guard.
// It is evaluated against the JSON representation of the GitHub API run
// record and must return a single bool value.
type RunQuery struct {
	query *gojq.Query
}

func NewRunQuery(jqQuery string) (*RunQuery, error) {
	query, err := gojq.Parse(jqQuery)
	if err != nil {
		return nil, fmt.Errorf("parsing run filter query %q failed: %w", jqQuery, err)
	}

	return &RunQuery{query: query}, nil
}

func goJQIterToSlice(iter gojq.Iter) ([]any, []error) {
	var result []any
	var errs []error

	for {
		res, ok := iter.Next()
		if !ok {
			return result, errs
		}

		if err, isErr := res.(error); isErr {
			errs = append(errs, err)
			continue
		}

		result = append(result, res)
	}
}

func errString(errs []error) string {
	var result strings.Builder

	for i, err := range errs {
		if i > 0 {
			result.WriteString("; ")
		}

		result.WriteString(fmt.Sprintf("error %d: %s", i, err))
	}

	return result.String()
}

// Match returns true if the query evaluates to true for run.
func (q *RunQuery) Match(ctx context.Context, run *github.WorkflowRun) (bool, error) {
	var runUn any

	runJSON, err := json.Marshal(run)
	if err != nil {
		return false, fmt.Errorf("marshaling run to json failed: %w", err)
	}

	// gojq only operates on the types produced by encoding/json
	// unmarshaling into an interface value.
	if err := json.Unmarshal(runJSON, &runUn); err != nil {
		return false, fmt.Errorf("unmarshaling json failed: %w", err)
	}

	result, errs := goJQIterToSlice(q.query.RunWithContext(ctx, runUn))
	if len(errs) != 0 {
		return false, fmt.Errorf("json query returned errors, query: %q, errors: %s", q.query.String(), errString(errs))
	}

	if len(result) != 1 {
		return false, fmt.Errorf("json query returned %d results, expected 1, query: %q", len(result), q.query.String())
	}

	val, ok := result[0].(bool)
	if !ok {
		return false, fmt.Errorf(
			"json query returned non-bool result: %+v (%T), query: %q",
			result[0], result[0], q.query.String(),
		)
	}

	return val, nil
}

func (q *RunQuery) String() string {
	return q.query.String()
}
