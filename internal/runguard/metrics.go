package runguard

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/simplesurance/runguard/internal/logfields"
)

const metricNamespace = "runguard"

const metricJobName = "runguard"

const (
	pollsMetricName              = "polls_total"
	staleRunsMetricName          = "stale_runs_count"
	cancelledRunsMetricName      = "cancelled_runs_total"
	checkRunLookupsMetricName    = "check_run_lookups_total"
	annotationFailuresMetricName = "annotation_failures_total"
)

const (
	repositoryLabel = "repository"
	branchLabel     = "branch"
	modeLabel       = "mode"
)

// workflowGroupingKey must not be used as metric label, push rejects
// metrics carrying a grouping label.
const workflowGroupingKey = "workflow"

type metricCollector struct {
	logger             *zap.Logger
	polls              *prometheus.CounterVec
	staleRuns          *prometheus.GaugeVec
	cancelledRuns      *prometheus.CounterVec
	checkRunLookups    prometheus.Counter
	annotationFailures prometheus.Counter
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		logger: zap.L().Named(loggerName).Named("metrics"),
		polls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      pollsMetricName,
				Help:      "count of fetches of the workflow run state",
			},
			[]string{repositoryLabel, branchLabel, modeLabel},
		),
		staleRuns: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      staleRunsMetricName,
				Help:      "count of runs blocking the current run in the last fetch",
			},
			[]string{repositoryLabel, branchLabel, modeLabel},
		),
		cancelledRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      cancelledRunsMetricName,
				Help:      "count of cancelled stale workflow runs",
			},
			[]string{repositoryLabel, branchLabel},
		),
		checkRunLookups: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      checkRunLookupsMetricName,
				Help:      "count of check-run lookup attempts",
			},
		),
		annotationFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      annotationFailuresMetricName,
				Help:      "count of failed check-run annotation updates",
			},
		),
	}
}

func (m *metricCollector) logGetMetricFailed(metricName string, err error) {
	m.logger.Warn(
		"could not record metric",
		zap.String("metric", metricName),
		logfields.Event("recording_metric_failed"),
		zap.Error(err),
	)
}

func runLabels(ec *ExecutionContext, mode Mode) prometheus.Labels {
	return prometheus.Labels{
		repositoryLabel: fmt.Sprintf("%s/%s", ec.Owner, ec.Repo),
		branchLabel:     ec.Branch,
		modeLabel:       mode.String(),
	}
}

func (m *metricCollector) PollsInc(ec *ExecutionContext, mode Mode) {
	cnt, err := m.polls.GetMetricWith(runLabels(ec, mode))
	if err != nil {
		m.logGetMetricFailed(pollsMetricName, err)
		return
	}

	cnt.Inc()
}

func (m *metricCollector) StaleRunsSet(ec *ExecutionContext, mode Mode, val int) {
	gauge, err := m.staleRuns.GetMetricWith(runLabels(ec, mode))
	if err != nil {
		m.logGetMetricFailed(staleRunsMetricName, err)
		return
	}

	gauge.Set(float64(val))
}

func (m *metricCollector) CancelledRunsInc(ec *ExecutionContext) {
	cnt, err := m.cancelledRuns.GetMetricWith(prometheus.Labels{
		repositoryLabel: fmt.Sprintf("%s/%s", ec.Owner, ec.Repo),
		branchLabel:     ec.Branch,
	})
	if err != nil {
		m.logGetMetricFailed(cancelledRunsMetricName, err)
		return
	}

	cnt.Inc()
}

func (m *metricCollector) CheckRunLookupsInc() {
	m.checkRunLookups.Inc()
}

func (m *metricCollector) AnnotationFailuresInc() {
	m.annotationFailures.Inc()
}

// PushMetrics pushes all collected metrics to a Prometheus Pushgateway.
func PushMetrics(pushgatewayURL string, ec *ExecutionContext) error {
	return push.New(pushgatewayURL, metricJobName).
		Grouping(workflowGroupingKey, ec.Workflow).
		Gatherer(prometheus.DefaultGatherer).
		Push()
}
