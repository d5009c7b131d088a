package watch

import "time"

const defaultIntervalConstant = 6 * time.Hour

// CommandConfiguration captures configuration values for the watch command.
type CommandConfiguration struct {
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultCommandConfiguration provides baseline configuration values for the watch command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Interval: defaultIntervalConstant}
}

// DefaultConfigurationValues produces Viper defaults for the watch command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + ".interval": defaults.Interval,
	}
}

// Sanitize applies the default interval when none is configured.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.Interval == 0 {
		sanitized.Interval = defaultIntervalConstant
	}
	return sanitized
}
