package runguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/simplesurance/runguard/internal/guarderr"
	"github.com/simplesurance/runguard/internal/logfields"
)

// Retryer executes a function repeatedly until it was successful, it failed
// with an error that is not retryable or the backoff policy gave up.
type Retryer struct {
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewConstantRetryer returns a Retryer that runs a function at most
// maxAttempts times and waits interval between the attempts.
func NewConstantRetryer(interval time.Duration, maxAttempts uint64) *Retryer {
	return &Retryer{
		logger: zap.L().Named("retryer"),
		newBackOff: func() backoff.BackOff {
			if maxAttempts <= 1 {
				return &backoff.StopBackOff{}
			}

			return backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), maxAttempts-1)
		},
	}
}

// Run executes fn until it was successful, it returned an error that
// does not wrap guarderr.RetryableError, the max. number of attempts was
// reached or the execution was aborted via the context.
// When the RetryableError specifies a retry time that is later than the next
// backoff interval, Run waits until that time.
func (r *Retryer) Run(ctx context.Context, fn func(context.Context) error, logF []zap.Field) error {
	var tryCnt uint

	runLogger := r.logger.With(logF...)

	bo := r.newBackOff()
	bo.Reset()

	retryTimer := time.NewTimer(0)
	defer retryTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			runLogger.Info(
				"operation cancelled",
				logfields.Event("retryer_operation_cancelled"),
				zap.Uint("try_count", tryCnt),
			)

			return ctx.Err()

		case <-retryTimer.C:
			tryCnt++
			logger := runLogger.With(zap.Uint("try_count", tryCnt))

			err := fn(ctx)
			if err == nil {
				logger.Debug(
					"operation executed successfully",
					logfields.Event("retryer_operation_succeeded"),
				)

				return nil
			}

			logger = logger.With(zap.Error(err))

			if errors.Is(err, context.Canceled) {
				logger.Info(
					"operation cancelled",
					logfields.Event("retryer_operation_cancelled"),
				)

				return err
			}

			var retryError *guarderr.RetryableError
			if !errors.As(err, &retryError) {
				logger.Debug(
					"operation failed, not retryable",
					logfields.Event("retryer_operation_failed"),
				)

				return err
			}

			retryIn := bo.NextBackOff()
			if retryIn == backoff.Stop {
				logger.Info(
					"giving up retrying operation, max. attempts reached",
					logfields.Event("retryer_attempts_exhausted"),
				)

				return fmt.Errorf("giving up after %d attempts: %w", tryCnt, err)
			}

			if !retryError.After.IsZero() {
				if d := time.Until(retryError.After); d > retryIn {
					retryIn = d
				}
			}

			retryTimer.Reset(retryIn)
			logger.Info(
				"operation failed, retry scheduled",
				logfields.Event("retryer_retry_scheduled"),
				zap.Duration("retry_in", retryIn),
			)
		}
	}
}
