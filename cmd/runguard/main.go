package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/pflag"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simplesurance/runguard/internal/actionctx"
	"github.com/simplesurance/runguard/internal/cfg"
	"github.com/simplesurance/runguard/internal/githubclt"
	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/logfields"
	"github.com/simplesurance/runguard/internal/runguard"
)

const appName = "runguard"

const (
	outputOutcome        = "outcome"
	outputCancelledRunID = "cancelled_run_id"
)

const (
	outcomeClear     = "clear"
	outcomeCancelled = "cancelled"
)

var logger *zap.Logger

// Version is set via a ldflag on compilation
var Version = "unknown"

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(1)
}

// printPanic is used instead of the logger when the panic happened before
// it was initialized.
func printPanic(w io.Writer, r any) {
	fmt.Fprintf(w, "panic caught, terminating: %v\n%s", r, debug.Stack())
}

func panicHandler() {
	if r := recover(); r != nil {
		if logger == nil {
			printPanic(os.Stderr, r)
			os.Exit(1)
		}

		logger.Info(
			"panic caught , terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, 1)
	}
}

type arguments struct {
	Verbose     *bool
	ConfigFile  *string
	ShowVersion *bool
	DryRun      *bool
}

var args arguments

func mustParseCommandlineParams() {
	args = arguments{
		Verbose: pflag.BoolP(
			"verbose",
			"v",
			false,
			"enable verbose logging",
		),
		ConfigFile: pflag.StringP(
			"cfg-file",
			"c",
			"",
			"path to an optional runguard configuration file",
		),
		ShowVersion: pflag.Bool(
			"version",
			false,
			"print the version and exit",
		),
		DryRun: pflag.Bool(
			"dry-run",
			false,
			"do not cancel workflow runs or annotate check-runs, only log what would be done",
		),
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]\nEnsure that only the newest GitHub Actions workflow run of a branch proceeds.\n", appName)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()
}

func mustParseCfg() *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	if *args.ConfigFile == "" {
		return cfg.Default()
	}

	file, err := os.Open(*args.ConfigFile)
	exitOnErr("could not open configuration file", err)
	defer file.Close()

	config, err := cfg.Load(file)
	if err != nil {
		exitOnErr(fmt.Sprintf("could not load configuration file: %s", *args.ConfigFile), err)
	}

	return config
}

func initLogFmtLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zapEncoderConfig(config)

	logger := zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg),
		os.Stdout,
		logLevel),
	)

	return logger
}

func zapEncoderConfig(config *cfg.Config) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = config.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func mustInitZapFormatLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig = zapEncoderConfig(config)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = config.LogFormat
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %s\n", err)
		os.Exit(2)
	}

	return logger
}

func mustInitLogger(config *cfg.Config) {
	var logLevel zapcore.Level
	if *args.Verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(config.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s \n", config.LogLevel, err)
			os.Exit(2)
		}
	}

	switch config.LogFormat {
	case "logfmt":
		logger = initLogFmtLogger(config, logLevel)
	case "console", "json":
		logger = mustInitZapFormatLogger(config, logLevel)
	default:
		fmt.Fprintf(os.Stderr, "unsupported log-format argument: %q\n", config.LogFormat)
		os.Exit(2)
	}

	logger = logger.Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.Register(func(context.Context, os.Signal) {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "flushing logs failed: %s\n", err)
		}
	})
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

// fail reports err as error annotation of the workflow run and returns the
// exit code.
func fail(action *githubactions.Action, msg string, err error) int {
	logger.Error(
		msg,
		logfields.Event("runguard_failed"),
		zap.Stringer("error_kind", guarderr.KindOf(err)),
		zap.Error(err),
	)

	action.Errorf("%s: %s", msg, err)

	return 1
}

func registerMetricsPush(url string, ec *runguard.ExecutionContext) {
	if url == "" {
		return
	}

	goodbye.Register(func(context.Context, os.Signal) {
		if err := runguard.PushMetrics(url, ec); err != nil {
			logger.Warn(
				"pushing metrics failed",
				logfields.Event("metrics_push_failed"),
				zap.String("pushgateway_url", url),
				zap.Error(err),
			)
			return
		}

		logger.Debug(
			"metrics pushed",
			logfields.Event("metrics_pushed"),
			zap.String("pushgateway_url", url),
		)
	})
}

func run() int {
	mustParseCommandlineParams()

	if *args.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return 0
	}

	action := githubactions.New()

	config := mustParseCfg()

	mustInitLogger(config)

	if err := config.ApplyInputs(action.GetInput); err != nil {
		return fail(action, "invalid action input", err)
	}

	if *args.DryRun {
		config.DryRun = true
	}

	if err := config.Validate(); err != nil {
		return fail(action, "invalid configuration", err)
	}

	guardCfg, err := config.GuardConfig()
	if err != nil {
		return fail(action, "invalid configuration", err)
	}

	ghCtx, err := action.Context()
	if err != nil {
		return fail(action, "reading github actions context failed", guarderr.Configuration(err))
	}

	if config.GithubAPIURL == "" {
		config.GithubAPIURL = ghCtx.APIURL
	}

	ec, err := actionctx.New(ghCtx)
	if err != nil {
		return fail(action, "invalid workflow run context", err)
	}

	logger.Info(
		"loaded configuration",
		logfields.Event("cfg_loaded"),
		zap.String("cfg_file", *args.ConfigFile),
		zap.String("github_api_token", hide(config.GithubAPIToken)),
		zap.String("github_api_url", config.GithubAPIURL),
		zap.Int("poll_seconds", config.PollSeconds),
		zap.Bool("cancel_on_stale", config.CancelOnStale),
		zap.String("check_run_app_name", config.CheckRunAppName),
		zap.Int("check_run_lookup_attempts", config.CheckRunLookupAttempts),
		zap.String("check_run_lookup_interval", config.CheckRunLookupInterval),
		zap.String("cancel_grace_period", config.CancelGracePeriod),
		zap.String("run_filter_query", config.RunFilterQuery),
		zap.Bool("dry_run", config.DryRun),
		zap.String("log_format", config.LogFormat),
		zap.String("log_time_key", config.LogTimeKey),
		zap.String("log_level", config.LogLevel),
		zap.String("metrics_pushgateway_url", config.MetricsPushgatewayURL),
	)

	clt, err := githubclt.New(config.GithubAPIToken, config.GithubAPIURL)
	if err != nil {
		return fail(action, "creating github client failed", guarderr.Configuration(err))
	}

	var registry runguard.Registry = clt
	if config.DryRun {
		registry = runguard.NewDryRegistry(clt, logger.Named("dry_run"))
	}

	registerMetricsPush(config.MetricsPushgatewayURL, &ec)

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		if sig != nil {
			logger.Info(fmt.Sprintf("terminating, received signal %s", sig.String()))
		}
		cancelFn()
	})

	result, err := runguard.NewGuard(registry, action, guardCfg).Run(ctx, ec)
	if result != nil && result.Cancelled != nil {
		action.SetOutput(outputOutcome, outcomeCancelled)
		action.SetOutput(outputCancelledRunID, strconv.FormatInt(result.Cancelled.ID, 10))
	}

	if err != nil {
		if errors.Is(err, runguard.ErrConcurrentRuns) {
			action.Errorf("Another run was already in process for this workflow and branch")
			return 1
		}

		return fail(action, "guarding workflow run failed", err)
	}

	if result.Cancelled != nil {
		action.Infof("Cancelled stale run %s", result.Cancelled)

		return 0
	}

	action.SetOutput(outputOutcome, outcomeClear)
	action.SetOutput(outputCancelledRunID, "")

	if guardCfg.Mode == runguard.ModeDetect {
		action.Infof("This was the only run for this workflow on this branch")
	}

	return 0
}

func main() {
	defer panicHandler()

	goodbye.Notify(context.Background())

	code := run()

	goodbye.Exit(context.Background(), code)
}
