package extract

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	pageSourceMissingMessageConstant  = "page source not configured"
	pageURLMissingMessageConstant     = "page URL required"
	unsupportedSchemeMessageConstant  = "page URL must use http or https"
	extractionCompletedLogMessage     = "Content extracted"
	logFieldPageURLConstant           = "page_url"
	logFieldDocumentTypeConstant      = "document_type"
	logFieldOutputFormatConstant      = "output_format"
	logFieldContentLengthConstant     = "content_length"
	httpURLSchemeNameConstant         = "http"
	httpsURLSchemeNameConstant        = "https"
)

// Validation errors reported before any network activity.
var (
	ErrPageSourceNotConfigured = errors.New(pageSourceMissingMessageConstant)
	ErrPageURLRequired         = errors.New(pageURLMissingMessageConstant)
	ErrUnsupportedURLScheme    = errors.New(unsupportedSchemeMessageConstant)
)

// PageSource downloads pages as UTF-8 strings.
type PageSource interface {
	FetchPage(executionContext context.Context, pageURL string) (string, error)
}

// Extraction is the outcome of one extraction request.
type Extraction struct {
	URL          string
	Content      string
	Format       OutputFormat
	DocumentType DocumentType
}

// Service fetches a page, classifies it, isolates the main content, and
// converts it to the requested format.
type Service struct {
	logger     *zap.Logger
	pageSource PageSource
	extractor  *ContentExtractor
}

// NewService creates an extraction service over the supplied page source.
func NewService(logger *zap.Logger, pageSource PageSource) (*Service, error) {
	if pageSource == nil {
		return nil, ErrPageSourceNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:     logger,
		pageSource: pageSource,
		extractor:  NewContentExtractor(),
	}, nil
}

// Extract runs the full pipeline for a single page.
func (service *Service) Extract(executionContext context.Context, pageURL string, outputFormat OutputFormat) (Extraction, error) {
	trimmedPageURL := strings.TrimSpace(pageURL)
	if len(trimmedPageURL) == 0 {
		return Extraction{}, ErrPageURLRequired
	}
	parsedURL, parseError := url.Parse(trimmedPageURL)
	if parseError != nil || (parsedURL.Scheme != httpURLSchemeNameConstant && parsedURL.Scheme != httpsURLSchemeNameConstant) {
		return Extraction{}, ErrUnsupportedURLScheme
	}

	pageHTML, fetchError := service.pageSource.FetchPage(executionContext, trimmedPageURL)
	if fetchError != nil {
		return Extraction{}, fetchError
	}

	documentType := DetectDocumentType(trimmedPageURL, pageHTML)

	mainContentHTML, extractionError := service.extractor.ExtractMainContent(pageHTML)
	if extractionError != nil {
		return Extraction{}, extractionError
	}

	convertedContent, conversionError := ConvertContent(mainContentHTML, outputFormat)
	if conversionError != nil {
		return Extraction{}, conversionError
	}

	service.logger.Debug(
		extractionCompletedLogMessage,
		zap.String(logFieldPageURLConstant, trimmedPageURL),
		zap.String(logFieldDocumentTypeConstant, string(documentType)),
		zap.String(logFieldOutputFormatConstant, string(outputFormat)),
		zap.Int(logFieldContentLengthConstant, len(convertedContent)),
	)

	return Extraction{
		URL:          trimmedPageURL,
		Content:      convertedContent,
		Format:       outputFormat,
		DocumentType: documentType,
	}, nil
}
