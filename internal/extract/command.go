package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	commandUseConstant              = "extract <url>"
	commandShortDescriptionConstant = "Extract the main content of a web page"
	commandLongDescriptionConstant  = "extract downloads a web page, isolates its main content, and prints it as html, markdown, or plain text."
	singleArgumentMessageConstant   = "extract requires exactly one URL argument"
	flagFormatNameConstant          = "format"
	flagFormatDescriptionConstant   = "Output format: html, markdown, or text"
	responseEncodeErrorTemplate     = "failed to encode extraction result: %w"
)

var errSingleArgumentRequired = errors.New(singleArgumentMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the effective extract configuration.
type ConfigurationProvider func() CommandConfiguration

// ContentService runs extraction requests.
type ContentService interface {
	Extract(executionContext context.Context, pageURL string, outputFormat OutputFormat) (Extraction, error)
}

// CommandBuilder assembles the Cobra command for content extraction.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Service               ContentService
}

type extractionResponse struct {
	URL          string `json:"url"`
	Content      string `json:"content"`
	Format       string `json:"format"`
	DocumentType string `json:"type"`
	Success      bool   `json:"success"`
}

// Build constructs the extract command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagFormatNameConstant, "", flagFormatDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errSingleArgumentRequired
	}

	configuration := builder.resolveConfiguration()

	formatValue := configuration.OutputFormat
	if flagValue, _ := command.Flags().GetString(flagFormatNameConstant); command.Flags().Changed(flagFormatNameConstant) {
		formatValue = flagValue
	}
	outputFormat, formatError := ParseOutputFormat(formatValue)
	if formatError != nil {
		return formatError
	}

	contentService, serviceError := builder.resolveService(configuration)
	if serviceError != nil {
		return serviceError
	}

	extractionResult, extractionError := contentService.Extract(command.Context(), arguments[0], outputFormat)
	if extractionError != nil {
		return extractionError
	}

	encodedResponse, encodeError := json.MarshalIndent(extractionResponse{
		URL:          extractionResult.URL,
		Content:      extractionResult.Content,
		Format:       string(extractionResult.Format),
		DocumentType: string(extractionResult.DocumentType),
		Success:      true,
	}, "", "  ")
	if encodeError != nil {
		return fmt.Errorf(responseEncodeErrorTemplate, encodeError)
	}

	fmt.Fprintln(command.OutOrStdout(), string(encodedResponse))
	return nil
}

func (builder *CommandBuilder) resolveService(configuration CommandConfiguration) (ContentService, error) {
	if builder.Service != nil {
		return builder.Service, nil
	}
	return NewService(builder.resolveLogger(), NewPageFetcher(configuration.RequestTimeout))
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
