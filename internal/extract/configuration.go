package extract

import "time"

const (
	defaultRequestTimeoutConstant = 30 * time.Second

	configurationFormatKeyConstant  = "format"
	configurationTimeoutKeyConstant = "timeout"
	configurationKeySeparator       = "."
)

// CommandConfiguration captures configuration values for the extract command.
type CommandConfiguration struct {
	OutputFormat   string        `mapstructure:"format"`
	RequestTimeout time.Duration `mapstructure:"timeout"`
}

// DefaultCommandConfiguration provides baseline configuration values for content extraction.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		OutputFormat:   string(OutputFormatText),
		RequestTimeout: defaultRequestTimeoutConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the extract command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparator + configurationFormatKeyConstant:  defaults.OutputFormat,
		rootKey + configurationKeySeparator + configurationTimeoutKeyConstant: defaults.RequestTimeout,
	}
}

// Sanitize applies defaults for unset extraction configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if len(sanitized.OutputFormat) == 0 {
		sanitized.OutputFormat = string(OutputFormatText)
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaultRequestTimeoutConstant
	}
	return sanitized
}
