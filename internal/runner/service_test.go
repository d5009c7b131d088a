package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forkops/forksync/internal/githubapi"
	"github.com/forkops/forksync/internal/runner"
	"github.com/forkops/forksync/internal/syncer"
)

const (
	forkRepositoryConstant   = "acme-forks/widget"
	parentRepositoryConstant = "acme/widget"
	parentCloneURLConstant   = "https://github.com/acme/widget.git"
	repositoryPathConstant   = "/srv/forks/widget"
	branchTipConstant        = "feedfacefeedfacefeedfacefeedfacefeedface"
)

type fakeMetadataResolver struct {
	metadataByIdentifier map[string]githubapi.RepositoryMetadata
	resolutionError      error
	resolvedIdentifiers  []string
}

func (resolver *fakeMetadataResolver) ResolveRepositoryMetadata(_ context.Context, repositoryIdentifier string) (githubapi.RepositoryMetadata, error) {
	resolver.resolvedIdentifiers = append(resolver.resolvedIdentifiers, repositoryIdentifier)
	if resolver.resolutionError != nil {
		return githubapi.RepositoryMetadata{}, resolver.resolutionError
	}
	return resolver.metadataByIdentifier[repositoryIdentifier], nil
}

type fakeSynchronizer struct {
	result          syncer.Result
	syncError       error
	receivedOptions []syncer.Options
}

func (synchronizer *fakeSynchronizer) Sync(_ context.Context, options syncer.Options) (syncer.Result, error) {
	synchronizer.receivedOptions = append(synchronizer.receivedOptions, options)
	if synchronizer.syncError != nil {
		return syncer.Result{}, synchronizer.syncError
	}
	return synchronizer.result, nil
}

type fakeNoticeManager struct {
	closedCount      int
	cleanError       error
	raisedNumber     int
	notifyError      error
	cleanCallCount   int
	notifyCallCount  int
	notifiedFailures []string
}

func (manager *fakeNoticeManager) Clean(_ context.Context) (int, error) {
	manager.cleanCallCount++
	return manager.closedCount, manager.cleanError
}

func (manager *fakeNoticeManager) Notify(_ context.Context, failureDetail string) (int, error) {
	manager.notifyCallCount++
	manager.notifiedFailures = append(manager.notifiedFailures, failureDetail)
	return manager.raisedNumber, manager.notifyError
}

func forkMetadata() map[string]githubapi.RepositoryMetadata {
	return map[string]githubapi.RepositoryMetadata{
		forkRepositoryConstant: {
			NameWithOwner:       forkRepositoryConstant,
			DefaultBranch:       "master",
			IsFork:              true,
			ParentNameWithOwner: parentRepositoryConstant,
			ParentCloneURL:      parentCloneURLConstant,
		},
		parentRepositoryConstant: {
			NameWithOwner: parentRepositoryConstant,
			DefaultBranch: "main",
			IsFork:        false,
		},
	}
}

func defaultRunOptions() runner.RunOptions {
	return runner.RunOptions{
		Repository:           forkRepositoryConstant,
		RepositoryPath:       repositoryPathConstant,
		UpstreamRemoteName:   "upstream",
		PushToOrigin:         true,
		RequireCleanWorktree: true,
	}
}

func newServiceUnderTest(testInstance *testing.T, resolver *fakeMetadataResolver, synchronizer *fakeSynchronizer, noticeManager *fakeNoticeManager) *runner.Service {
	testInstance.Helper()
	service, creationError := runner.NewService(zap.NewNop(), resolver, synchronizer, noticeManager)
	require.NoError(testInstance, creationError)
	return service
}

func TestNewServiceValidation(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{}
	synchronizer := &fakeSynchronizer{}
	noticeManager := &fakeNoticeManager{}

	_, missingResolverError := runner.NewService(zap.NewNop(), nil, synchronizer, noticeManager)
	require.ErrorIs(testInstance, missingResolverError, runner.ErrMetadataResolverNotConfigured)

	_, missingSynchronizerError := runner.NewService(zap.NewNop(), resolver, nil, noticeManager)
	require.ErrorIs(testInstance, missingSynchronizerError, runner.ErrSynchronizerNotConfigured)

	_, missingNoticeError := runner.NewService(zap.NewNop(), resolver, synchronizer, nil)
	require.ErrorIs(testInstance, missingNoticeError, runner.ErrNoticeManagerNotConfigured)
}

func TestExecuteOptionValidation(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{}
	noticeManager := &fakeNoticeManager{}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	missingRepository := defaultRunOptions()
	missingRepository.Repository = "  "
	_, repositoryError := service.Execute(context.Background(), missingRepository)
	require.ErrorIs(testInstance, repositoryError, runner.ErrRepositoryRequired)

	missingPath := defaultRunOptions()
	missingPath.RepositoryPath = ""
	_, pathError := service.Execute(context.Background(), missingPath)
	require.ErrorIs(testInstance, pathError, runner.ErrRepositoryPathRequired)

	require.Empty(testInstance, resolver.resolvedIdentifiers)
}

func TestExecuteSkipsRepositoriesThatAreNotForks(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{
		metadataByIdentifier: map[string]githubapi.RepositoryMetadata{
			forkRepositoryConstant: {NameWithOwner: forkRepositoryConstant, DefaultBranch: "main", IsFork: false},
		},
	}
	synchronizer := &fakeSynchronizer{}
	noticeManager := &fakeNoticeManager{}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	runReport, runError := service.Execute(context.Background(), defaultRunOptions())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, runner.OutcomeSkippedNotFork, runReport.Outcome)
	require.Empty(testInstance, synchronizer.receivedOptions)
	require.Zero(testInstance, noticeManager.cleanCallCount)
	require.Zero(testInstance, noticeManager.notifyCallCount)
}

func TestExecuteSynchronizesForkAndClearsNotices(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{
		result: syncer.Result{AppliedCommitCount: 4, BranchTip: branchTipConstant, Pushed: true},
	}
	noticeManager := &fakeNoticeManager{closedCount: 2}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	runReport, runError := service.Execute(context.Background(), defaultRunOptions())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, runner.OutcomeSynchronized, runReport.Outcome)
	require.Equal(testInstance, 4, runReport.AppliedCommitCount)
	require.Equal(testInstance, branchTipConstant, runReport.BranchTip)
	require.Equal(testInstance, 2, runReport.ClosedIssueCount)
	require.Equal(testInstance, 1, noticeManager.cleanCallCount)
	require.Zero(testInstance, noticeManager.notifyCallCount)

	require.Len(testInstance, synchronizer.receivedOptions, 1)
	synchronizationOptions := synchronizer.receivedOptions[0]
	require.Equal(testInstance, parentCloneURLConstant, synchronizationOptions.UpstreamRemoteURL)
	require.Equal(testInstance, "main", synchronizationOptions.UpstreamBranch)
	require.Equal(testInstance, "master", synchronizationOptions.TargetBranch)
	require.Equal(testInstance, forkRepositoryConstant, synchronizationOptions.ExpectedOriginOwnerRepository)
	require.True(testInstance, synchronizationOptions.PushToOrigin)
	require.True(testInstance, synchronizationOptions.RequireCleanWorktree)
	require.Equal(testInstance, []string{forkRepositoryConstant, parentRepositoryConstant}, resolver.resolvedIdentifiers)
}

func TestExecuteHonorsExplicitBranchOverrides(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{result: syncer.Result{AlreadyUpToDate: true, BranchTip: branchTipConstant}}
	noticeManager := &fakeNoticeManager{}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	options := defaultRunOptions()
	options.UpstreamBranch = "develop"
	options.TargetBranch = "develop"
	runReport, runError := service.Execute(context.Background(), options)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, runner.OutcomeUpToDate, runReport.Outcome)
	require.Equal(testInstance, "develop", synchronizer.receivedOptions[0].UpstreamBranch)
	require.Equal(testInstance, "develop", synchronizer.receivedOptions[0].TargetBranch)
	// No parent lookup when the upstream branch is explicit.
	require.Equal(testInstance, []string{forkRepositoryConstant}, resolver.resolvedIdentifiers)
}

func TestExecuteCleanupFailureAbortsBeforeSynchronizing(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{}
	noticeManager := &fakeNoticeManager{cleanError: errors.New("api unavailable")}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	_, runError := service.Execute(context.Background(), defaultRunOptions())
	var cleanupFailure runner.CleanupFailureError
	require.ErrorAs(testInstance, runError, &cleanupFailure)
	require.Empty(testInstance, synchronizer.receivedOptions)
	require.Zero(testInstance, noticeManager.notifyCallCount)
}

func TestExecuteSyncFailureRaisesExactlyOneNotice(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{syncError: errors.New("fast-forward is not possible")}
	noticeManager := &fakeNoticeManager{raisedNumber: 17}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	runReport, runError := service.Execute(context.Background(), defaultRunOptions())
	var syncFailure runner.SyncFailureError
	require.ErrorAs(testInstance, runError, &syncFailure)
	require.Equal(testInstance, runner.OutcomeSyncFailed, runReport.Outcome)
	require.Equal(testInstance, 17, runReport.RaisedIssueNumber)
	require.Equal(testInstance, 1, noticeManager.notifyCallCount)
	require.Contains(testInstance, noticeManager.notifiedFailures[0], "fast-forward is not possible")
}

func TestExecuteNotifyFailureSurfacesBothCauses(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{syncError: errors.New("merge failed")}
	noticeManager := &fakeNoticeManager{notifyError: errors.New("issue creation rejected")}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	_, runError := service.Execute(context.Background(), defaultRunOptions())
	var notifyFailure runner.NotifyFailureError
	require.ErrorAs(testInstance, runError, &notifyFailure)
	require.Contains(testInstance, notifyFailure.Error(), "merge failed")
	require.Contains(testInstance, notifyFailure.Error(), "issue creation rejected")
}

func TestExecuteDryRunSkipsIssueOperations(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{metadataByIdentifier: forkMetadata()}
	synchronizer := &fakeSynchronizer{result: syncer.Result{AppliedCommitCount: 2, AppliedCommits: []string{"c2", "c1"}}}
	noticeManager := &fakeNoticeManager{}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	options := defaultRunOptions()
	options.DryRun = true
	runReport, runError := service.Execute(context.Background(), options)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, runner.OutcomeDryRun, runReport.Outcome)
	require.Zero(testInstance, noticeManager.cleanCallCount)
	require.Zero(testInstance, noticeManager.notifyCallCount)
	require.True(testInstance, synchronizer.receivedOptions[0].DryRun)
}

func TestExecuteForkWithoutParentFailsUpstreamDiscovery(testInstance *testing.T) {
	resolver := &fakeMetadataResolver{
		metadataByIdentifier: map[string]githubapi.RepositoryMetadata{
			forkRepositoryConstant: {NameWithOwner: forkRepositoryConstant, DefaultBranch: "main", IsFork: true},
		},
	}
	synchronizer := &fakeSynchronizer{}
	noticeManager := &fakeNoticeManager{}
	service := newServiceUnderTest(testInstance, resolver, synchronizer, noticeManager)

	_, runError := service.Execute(context.Background(), defaultRunOptions())
	require.ErrorIs(testInstance, runError, runner.ErrUpstreamUnavailable)
	require.Empty(testInstance, synchronizer.receivedOptions)
}
