package runguard

import (
	"context"
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunQueryMatch(t *testing.T) {
	run := newRunRecord(3, "in_progress", "abc")
	run.Event = github.String("pull_request")

	testcases := []struct {
		query     string
		expected  bool
		expectErr bool
	}{
		{query: `.event == "pull_request"`, expected: true},
		{query: `.run_number > 5`, expected: false},
		{query: `.head_commit.author.name == "Gopher"`, expected: true},
		{query: `.status`, expectErr: true},
		{query: `.event, .status`, expectErr: true},
		{query: `empty`, expectErr: true},
		{query: `error("boom")`, expectErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.query, func(t *testing.T) {
			q, err := NewRunQuery(tc.query)
			require.NoError(t, err)

			match, err := q.Match(context.Background(), run)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, match)
		})
	}
}

func TestNewRunQueryInvalidSyntax(t *testing.T) {
	_, err := NewRunQuery(`.event ==`)
	assert.Error(t, err)
}
