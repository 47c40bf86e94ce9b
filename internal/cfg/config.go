package cfg

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/runguard"
)

// Names of the action inputs, they are read from INPUT_<NAME> environment
// variables.
const (
	InputToken          = "token"
	InputPollSeconds    = "poll_seconds"
	InputCancelOnStale  = "cancel_on_stale"
	InputRunFilterQuery = "run_filter_query"
	InputDryRun         = "dry_run"
)

const (
	DefaultLogFormat  = "logfmt"
	DefaultLogTimeKey = "time"
	DefaultLogLevel   = "info"
)

type Config struct {
	GithubAPIToken         string `toml:"github_api_token"`
	GithubAPIURL           string `toml:"github_api_url"`
	PollSeconds            int    `toml:"poll_seconds"`
	CancelOnStale          bool   `toml:"cancel_on_stale"`
	CheckRunAppName        string `toml:"check_run_app_name"`
	CheckRunLookupAttempts int    `toml:"check_run_lookup_attempts"`
	CheckRunLookupInterval string `toml:"check_run_lookup_interval"`
	CancelGracePeriod      string `toml:"cancel_grace_period"`
	RunFilterQuery         string `toml:"run_filter_query"`
	DryRun                 bool   `toml:"dry_run"`
	LogFormat              string `toml:"log_format"`
	LogTimeKey             string `toml:"log_time_key"`
	LogLevel               string `toml:"log_level"`
	MetricsPushgatewayURL  string `toml:"metrics_pushgateway_url"`
}

// Default returns a Config with all optional settings set to their
// defaults.
func Default() *Config {
	var result Config
	result.setDefaults()

	return &result
}

func (c *Config) setDefaults() {
	if c.CheckRunAppName == "" {
		c.CheckRunAppName = runguard.DefaultCheckRunAppName
	}

	if c.CheckRunLookupAttempts == 0 {
		c.CheckRunLookupAttempts = runguard.DefaultCheckRunLookupAttempts
	}

	if c.CheckRunLookupInterval == "" {
		c.CheckRunLookupInterval = runguard.DefaultCheckRunLookupInterval.String()
	}

	if c.CancelGracePeriod == "" {
		c.CancelGracePeriod = runguard.DefaultGracePeriod.String()
	}

	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}

	if c.LogTimeKey == "" {
		c.LogTimeKey = DefaultLogTimeKey
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Load reads a TOML configuration from reader.
// Settings that are not defined are set to their defaults.
func Load(reader io.Reader) (*Config, error) {
	var result Config

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	result.setDefaults()

	return &result, nil
}

func (c *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(c)
}

// ApplyInputs overrides settings with the values of action inputs.
// getInput must return an empty string for inputs that are not set, empty
// inputs do not override the setting.
func (c *Config) ApplyInputs(getInput func(name string) string) error {
	if v := getInput(InputToken); v != "" {
		c.GithubAPIToken = v
	}

	if v := getInput(InputPollSeconds); v != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return guarderr.Configuration(fmt.Errorf("input %s: %q is not a number", InputPollSeconds, v))
		}

		c.PollSeconds = secs
	}

	if v := getInput(InputCancelOnStale); v != "" {
		b, err := parseBool(InputCancelOnStale, v)
		if err != nil {
			return err
		}

		c.CancelOnStale = b
	}

	if v := getInput(InputRunFilterQuery); v != "" {
		c.RunFilterQuery = v
	}

	if v := getInput(InputDryRun); v != "" {
		b, err := parseBool(InputDryRun, v)
		if err != nil {
			return err
		}

		c.DryRun = b
	}

	return nil
}

func parseBool(input, val string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return false, guarderr.Configuration(fmt.Errorf("input %s: %q is not a boolean", input, val))
	}

	return b, nil
}

// Validate returns a guarderr.KindConfiguration error if a setting is
// missing or invalid.
func (c *Config) Validate() error {
	if c.GithubAPIToken == "" {
		return guarderr.Configuration(fmt.Errorf("github api token is unset, it must be provided via the %q input or the github_api_token setting", InputToken))
	}

	_, err := c.GuardConfig()
	return err
}

// GuardConfig returns the runguard.Config for the settings.
func (c *Config) GuardConfig() (runguard.Config, error) {
	result := runguard.DefaultConfig()

	if c.CancelOnStale {
		result.Mode = runguard.ModeGuard
	}

	poll, err := runguard.PollConfigFromSeconds(c.PollSeconds)
	if err != nil {
		return result, err
	}
	result.Poll = poll

	if c.CheckRunAppName != "" {
		result.CheckRunAppName = c.CheckRunAppName
	}

	if c.CheckRunLookupAttempts < 0 {
		return result, guarderr.Configuration(
			fmt.Errorf("check_run_lookup_attempts must be >=1, is: %d", c.CheckRunLookupAttempts),
		)
	}
	if c.CheckRunLookupAttempts > 0 {
		result.CheckRunLookupAttempts = uint64(c.CheckRunLookupAttempts)
	}

	if c.CheckRunLookupInterval != "" {
		result.CheckRunLookupInterval, err = parseDuration("check_run_lookup_interval", c.CheckRunLookupInterval)
		if err != nil {
			return result, err
		}
	}

	if c.CancelGracePeriod != "" {
		result.GracePeriod, err = parseDuration("cancel_grace_period", c.CancelGracePeriod)
		if err != nil {
			return result, err
		}
	}

	if c.RunFilterQuery != "" {
		result.RunQuery, err = runguard.NewRunQuery(c.RunFilterQuery)
		if err != nil {
			return result, guarderr.Configuration(fmt.Errorf("run_filter_query is invalid: %w", err))
		}
	}

	return result, nil
}

func parseDuration(key, val string) (time.Duration, error) {
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, guarderr.Configuration(fmt.Errorf("%s: %w", key, err))
	}

	if d < 0 {
		return 0, guarderr.Configuration(errors.New(key + " must not be negative"))
	}

	return d, nil
}
