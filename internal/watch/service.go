package watch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/forkops/forksync/internal/runner"
)

const (
	runExecutorNotConfiguredMessageConstant = "run executor not configured"
	intervalNotPositiveMessageConstant      = "watch interval must be positive"

	watchStartedLogMessageConstant  = "Watching fork for upstream changes"
	runFailedLogMessageConstant     = "Synchronization run failed; next run stays scheduled"
	watchStoppingLogMessageConstant = "Watch stopping"

	repositoryLogFieldConstant = "repository"
	intervalLogFieldConstant   = "interval"
	outcomeLogFieldConstant    = "outcome"
)

// ErrRunExecutorNotConfigured indicates the service was constructed without a run executor.
var ErrRunExecutorNotConfigured = errors.New(runExecutorNotConfiguredMessageConstant)

// ErrIntervalNotPositive indicates a zero or negative watch interval.
var ErrIntervalNotPositive = errors.New(intervalNotPositiveMessageConstant)

// RunExecutor executes a single synchronization run.
type RunExecutor interface {
	Execute(executionContext context.Context, options runner.RunOptions) (runner.RunReport, error)
}

// Options describes a watch schedule.
type Options struct {
	Interval   time.Duration
	RunOptions runner.RunOptions
}

// Service repeats synchronization runs until the context is canceled.
type Service struct {
	logger      *zap.Logger
	runExecutor RunExecutor
}

// NewService constructs a Service from its collaborators.
func NewService(logger *zap.Logger, runExecutor RunExecutor) (*Service, error) {
	if runExecutor == nil {
		return nil, ErrRunExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, runExecutor: runExecutor}, nil
}

// Watch runs one synchronization immediately and then once per interval until
// the context is canceled. Individual run failures are logged; the schedule
// continues.
func (service *Service) Watch(executionContext context.Context, options Options) error {
	if options.Interval <= 0 {
		return ErrIntervalNotPositive
	}

	service.logger.Info(watchStartedLogMessageConstant,
		zap.String(repositoryLogFieldConstant, options.RunOptions.Repository),
		zap.Duration(intervalLogFieldConstant, options.Interval),
	)

	intervalTicker := time.NewTicker(options.Interval)
	defer intervalTicker.Stop()

	for {
		service.executeRun(executionContext, options.RunOptions)

		select {
		case <-executionContext.Done():
			service.logger.Info(watchStoppingLogMessageConstant,
				zap.String(repositoryLogFieldConstant, options.RunOptions.Repository),
			)
			return nil
		case <-intervalTicker.C:
		}
	}
}

func (service *Service) executeRun(executionContext context.Context, runOptions runner.RunOptions) {
	if executionContext.Err() != nil {
		return
	}

	runReport, runError := service.runExecutor.Execute(executionContext, runOptions)
	if runError != nil {
		service.logger.Error(runFailedLogMessageConstant,
			zap.String(repositoryLogFieldConstant, runOptions.Repository),
			zap.String(outcomeLogFieldConstant, string(runReport.Outcome)),
			zap.Error(runError),
		)
	}
}
