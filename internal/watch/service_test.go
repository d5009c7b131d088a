package watch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/forkops/forksync/internal/runner"
	"github.com/forkops/forksync/internal/watch"
)

const (
	watchRepositoryConstant = "acme-forks/widget"
	watchPathConstant       = "/srv/forks/widget"
	watchTestIntervalValue  = 5 * time.Millisecond
)

type countingRunExecutor struct {
	runError       error
	cancelAfter    int
	cancelFunction context.CancelFunc
	executionCount int
}

func (executor *countingRunExecutor) Execute(_ context.Context, _ runner.RunOptions) (runner.RunReport, error) {
	executor.executionCount++
	if executor.executionCount >= executor.cancelAfter && executor.cancelFunction != nil {
		executor.cancelFunction()
	}
	if executor.runError != nil {
		return runner.RunReport{Outcome: runner.OutcomeSyncFailed}, executor.runError
	}
	return runner.RunReport{Outcome: runner.OutcomeUpToDate}, nil
}

func watchOptions() watch.Options {
	return watch.Options{
		Interval: watchTestIntervalValue,
		RunOptions: runner.RunOptions{
			Repository:     watchRepositoryConstant,
			RepositoryPath: watchPathConstant,
		},
	}
}

func TestNewServiceRequiresRunExecutor(testInstance *testing.T) {
	_, creationError := watch.NewService(zap.NewNop(), nil)
	require.ErrorIs(testInstance, creationError, watch.ErrRunExecutorNotConfigured)
}

func TestWatchRejectsNonPositiveInterval(testInstance *testing.T) {
	executor := &countingRunExecutor{}
	service, creationError := watch.NewService(zap.NewNop(), executor)
	require.NoError(testInstance, creationError)

	options := watchOptions()
	options.Interval = 0
	require.ErrorIs(testInstance, service.Watch(context.Background(), options), watch.ErrIntervalNotPositive)
	require.Zero(testInstance, executor.executionCount)
}

func TestWatchRunsImmediatelyAndRepeats(testInstance *testing.T) {
	watchContext, cancelFunction := context.WithCancel(context.Background())
	executor := &countingRunExecutor{cancelAfter: 3, cancelFunction: cancelFunction}
	service, creationError := watch.NewService(zap.NewNop(), executor)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, service.Watch(watchContext, watchOptions()))
	require.GreaterOrEqual(testInstance, executor.executionCount, 3)
}

func TestWatchContinuesAfterFailedRuns(testInstance *testing.T) {
	watchContext, cancelFunction := context.WithCancel(context.Background())
	executor := &countingRunExecutor{
		runError:       runner.SyncFailureError{Cause: errors.New("fetch failed")},
		cancelAfter:    2,
		cancelFunction: cancelFunction,
	}
	observedCore, observedLogs := observer.New(zapcore.ErrorLevel)
	service, creationError := watch.NewService(zap.New(observedCore), executor)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, service.Watch(watchContext, watchOptions()))
	require.GreaterOrEqual(testInstance, executor.executionCount, 2)
	require.GreaterOrEqual(testInstance, observedLogs.Len(), 2)
	for _, loggedEntry := range observedLogs.All() {
		require.Equal(testInstance, "Synchronization run failed; next run stays scheduled", loggedEntry.Message)
	}
}

func TestWatchStopsOnCanceledContext(testInstance *testing.T) {
	watchContext, cancelFunction := context.WithCancel(context.Background())
	executor := &countingRunExecutor{cancelAfter: 1, cancelFunction: cancelFunction}
	service, creationError := watch.NewService(zap.NewNop(), executor)
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, service.Watch(watchContext, watchOptions()))
	require.Equal(testInstance, 1, executor.executionCount)
}
