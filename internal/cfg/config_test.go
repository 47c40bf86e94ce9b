package cfg

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/runguard"
)

const exampleCfg = `
github_api_token = "secret"
github_api_url = "https://ghe.example.com/api/v3"
poll_seconds = 10
cancel_on_stale = true
check_run_lookup_attempts = 3
check_run_lookup_interval = "500ms"
cancel_grace_period = "1m"
run_filter_query = '.event == "push"'
log_format = "json"
metrics_pushgateway_url = "http://pushgateway:9091"
`

func inputs(m map[string]string) func(string) string {
	return func(name string) string {
		return m[name]
	}
}

func TestLoad(t *testing.T) {
	config, err := Load(strings.NewReader(exampleCfg))
	require.NoError(t, err)

	assert.Equal(t, "secret", config.GithubAPIToken)
	assert.Equal(t, "https://ghe.example.com/api/v3", config.GithubAPIURL)
	assert.Equal(t, 10, config.PollSeconds)
	assert.True(t, config.CancelOnStale)
	assert.Equal(t, 3, config.CheckRunLookupAttempts)
	assert.Equal(t, "json", config.LogFormat)
	assert.Equal(t, "http://pushgateway:9091", config.MetricsPushgatewayURL)

	// defaults
	assert.Equal(t, runguard.DefaultCheckRunAppName, config.CheckRunAppName)
	assert.Equal(t, DefaultLogTimeKey, config.LogTimeKey)
	assert.Equal(t, DefaultLogLevel, config.LogLevel)

	guardCfg, err := config.GuardConfig()
	require.NoError(t, err)

	assert.Equal(t, runguard.ModeGuard, guardCfg.Mode)
	assert.Equal(t, 10*time.Second, guardCfg.Poll.Interval)
	assert.Equal(t, uint64(3), guardCfg.CheckRunLookupAttempts)
	assert.Equal(t, 500*time.Millisecond, guardCfg.CheckRunLookupInterval)
	assert.Equal(t, time.Minute, guardCfg.GracePeriod)
	assert.NotNil(t, guardCfg.RunQuery)
}

func TestLoadInvalidToml(t *testing.T) {
	_, err := Load(strings.NewReader("poll_seconds = "))
	assert.Error(t, err)
}

func TestDefaultGuardConfig(t *testing.T) {
	guardCfg, err := Default().GuardConfig()
	require.NoError(t, err)

	assert.Equal(t, runguard.DefaultConfig(), guardCfg)
}

func TestMarshalRoundtrip(t *testing.T) {
	config, err := Load(strings.NewReader(exampleCfg))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, config.Marshal(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestApplyInputsOverridesFile(t *testing.T) {
	config, err := Load(strings.NewReader(exampleCfg))
	require.NoError(t, err)

	err = config.ApplyInputs(inputs(map[string]string{
		InputToken:          "from-input",
		InputPollSeconds:    "0",
		InputCancelOnStale:  "false",
		InputRunFilterQuery: ".head_branch != \"main\"",
		InputDryRun:         "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-input", config.GithubAPIToken)
	assert.Equal(t, 0, config.PollSeconds)
	assert.False(t, config.CancelOnStale)
	assert.Equal(t, ".head_branch != \"main\"", config.RunFilterQuery)
	assert.True(t, config.DryRun)
	require.NoError(t, config.Validate())
}

func TestApplyInputsEmptyKeepsSettings(t *testing.T) {
	config, err := Load(strings.NewReader(exampleCfg))
	require.NoError(t, err)

	require.NoError(t, config.ApplyInputs(inputs(nil)))

	assert.Equal(t, "secret", config.GithubAPIToken)
	assert.Equal(t, 10, config.PollSeconds)
	assert.True(t, config.CancelOnStale)
}

func TestInvalidSettings(t *testing.T) {
	tcs := []struct {
		name   string
		inputs map[string]string
		modify func(*Config)
	}{
		{
			name:   "missing token",
			inputs: map[string]string{},
		},
		{
			name:   "non-numeric poll seconds",
			inputs: map[string]string{InputToken: "t", InputPollSeconds: "often"},
		},
		{
			name:   "negative poll seconds",
			inputs: map[string]string{InputToken: "t", InputPollSeconds: "-1"},
		},
		{
			name:   "invalid cancel_on_stale",
			inputs: map[string]string{InputToken: "t", InputCancelOnStale: "maybe"},
		},
		{
			name:   "invalid dry_run",
			inputs: map[string]string{InputToken: "t", InputDryRun: "yes please"},
		},
		{
			name:   "invalid run filter query",
			inputs: map[string]string{InputToken: "t", InputRunFilterQuery: ".status =="},
		},
		{
			name:   "invalid grace period",
			inputs: map[string]string{InputToken: "t"},
			modify: func(c *Config) { c.CancelGracePeriod = "20" },
		},
		{
			name:   "negative lookup interval",
			inputs: map[string]string{InputToken: "t"},
			modify: func(c *Config) { c.CheckRunLookupInterval = "-1s" },
		},
		{
			name:   "negative lookup attempts",
			inputs: map[string]string{InputToken: "t"},
			modify: func(c *Config) { c.CheckRunLookupAttempts = -1 },
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			config := Default()

			err := config.ApplyInputs(inputs(tc.inputs))
			if err == nil {
				if tc.modify != nil {
					tc.modify(config)
				}

				err = config.Validate()
			}

			require.Error(t, err)
			assert.Equal(t, guarderr.KindConfiguration, guarderr.KindOf(err))
		})
	}
}
