package runner

import "strings"

const (
	defaultUpstreamRemoteNameConstant = "upstream"
	defaultRepositoryPathConstant     = "."

	configurationKeySeparatorConstant      = "."
	configurationRepositoryKeyConstant     = "repository"
	configurationRepositoryPathKeyConstant = "repository_path"
	configurationUpstreamRemoteKeyConstant = "upstream_remote"
	configurationUpstreamBranchKeyConstant = "upstream_branch"
	configurationTargetBranchKeyConstant   = "target_branch"
	configurationPushKeyConstant           = "push"
	configurationRequireCleanKeyConstant   = "require_clean"
	configurationDryRunKeyConstant         = "dry_run"
	configurationTrackingLabelKeyConstant  = "tracking_label"
	configurationIssueTitleKeyConstant     = "issue_title"
)

// CommandConfiguration captures configuration values for the synchronization run command.
type CommandConfiguration struct {
	Repository           string `mapstructure:"repository"`
	RepositoryPath       string `mapstructure:"repository_path"`
	UpstreamRemoteName   string `mapstructure:"upstream_remote"`
	UpstreamBranch       string `mapstructure:"upstream_branch"`
	TargetBranch         string `mapstructure:"target_branch"`
	PushToOrigin         bool   `mapstructure:"push"`
	RequireCleanWorktree bool   `mapstructure:"require_clean"`
	DryRun               bool   `mapstructure:"dry_run"`
	TrackingLabel        string `mapstructure:"tracking_label"`
	IssueTitle           string `mapstructure:"issue_title"`
}

// DefaultCommandConfiguration provides baseline configuration values for synchronization runs.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath:       defaultRepositoryPathConstant,
		UpstreamRemoteName:   defaultUpstreamRemoteNameConstant,
		PushToOrigin:         true,
		RequireCleanWorktree: true,
	}
}

// DefaultConfigurationValues produces Viper defaults for the synchronization run command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationRepositoryKeyConstant:     defaults.Repository,
		rootKey + configurationKeySeparatorConstant + configurationRepositoryPathKeyConstant: defaults.RepositoryPath,
		rootKey + configurationKeySeparatorConstant + configurationUpstreamRemoteKeyConstant: defaults.UpstreamRemoteName,
		rootKey + configurationKeySeparatorConstant + configurationUpstreamBranchKeyConstant: defaults.UpstreamBranch,
		rootKey + configurationKeySeparatorConstant + configurationTargetBranchKeyConstant:   defaults.TargetBranch,
		rootKey + configurationKeySeparatorConstant + configurationPushKeyConstant:           defaults.PushToOrigin,
		rootKey + configurationKeySeparatorConstant + configurationRequireCleanKeyConstant:   defaults.RequireCleanWorktree,
		rootKey + configurationKeySeparatorConstant + configurationDryRunKeyConstant:         defaults.DryRun,
		rootKey + configurationKeySeparatorConstant + configurationTrackingLabelKeyConstant:  defaults.TrackingLabel,
		rootKey + configurationKeySeparatorConstant + configurationIssueTitleKeyConstant:     defaults.IssueTitle,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Repository = strings.TrimSpace(configuration.Repository)
	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	sanitized.UpstreamRemoteName = strings.TrimSpace(configuration.UpstreamRemoteName)
	sanitized.UpstreamBranch = strings.TrimSpace(configuration.UpstreamBranch)
	sanitized.TargetBranch = strings.TrimSpace(configuration.TargetBranch)
	sanitized.TrackingLabel = strings.TrimSpace(configuration.TrackingLabel)
	sanitized.IssueTitle = strings.TrimSpace(configuration.IssueTitle)

	return sanitized
}
