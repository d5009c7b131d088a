package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// OutputFormat selects the representation extracted content is converted to.
type OutputFormat string

// Output formats supported by ConvertContent.
const (
	OutputFormatHTML     OutputFormat = "html"
	OutputFormatMarkdown OutputFormat = "markdown"
	OutputFormatText     OutputFormat = "text"
)

const (
	unsupportedOutputFormatMessageConstant = "unsupported output format"
	markdownConversionErrorTemplate        = "failed to convert content to markdown: %w"
	textConversionErrorTemplateConstant    = "failed to convert content to text: %w"
	imageAltTextReplacementConstant        = "![图片]($1)"
	textSegmentSeparatorConstant           = "\n"
)

// ErrUnsupportedOutputFormat indicates a format outside html, markdown, and text.
var ErrUnsupportedOutputFormat = errors.New(unsupportedOutputFormatMessageConstant)

var (
	excessBlankLinesPattern = regexp.MustCompile(`\n{3,}`)
	separatorRunPattern     = regexp.MustCompile(`={3,}`)
	emptyImageAltPattern    = regexp.MustCompile(`!\[\]\((.*?)\)`)
)

// ParseOutputFormat validates a format label, defaulting to text when empty.
func ParseOutputFormat(formatValue string) (OutputFormat, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(formatValue))
	switch OutputFormat(normalizedValue) {
	case OutputFormatHTML, OutputFormatMarkdown, OutputFormatText:
		return OutputFormat(normalizedValue), nil
	case OutputFormat(""):
		return OutputFormatText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedOutputFormat, formatValue)
	}
}

// ConvertContent renders extracted HTML in the requested output format.
func ConvertContent(contentHTML string, outputFormat OutputFormat) (string, error) {
	switch outputFormat {
	case OutputFormatHTML:
		return contentHTML, nil
	case OutputFormatMarkdown:
		return convertToMarkdown(contentHTML)
	case OutputFormatText:
		return convertToText(contentHTML)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedOutputFormat, outputFormat)
	}
}

func convertToMarkdown(contentHTML string) (string, error) {
	markdownContent, conversionError := htmltomarkdown.ConvertString(contentHTML)
	if conversionError != nil {
		return "", fmt.Errorf(markdownConversionErrorTemplate, conversionError)
	}
	return tidyMarkdown(markdownContent), nil
}

func tidyMarkdown(markdownContent string) string {
	markdownLines := strings.Split(markdownContent, textSegmentSeparatorConstant)
	for lineIndex, markdownLine := range markdownLines {
		markdownLines[lineIndex] = strings.TrimSpace(markdownLine)
	}
	tidiedContent := strings.Join(markdownLines, textSegmentSeparatorConstant)
	tidiedContent = excessBlankLinesPattern.ReplaceAllString(tidiedContent, "\n\n")
	tidiedContent = separatorRunPattern.ReplaceAllString(tidiedContent, "")
	tidiedContent = emptyImageAltPattern.ReplaceAllString(tidiedContent, imageAltTextReplacementConstant)
	return strings.TrimSpace(tidiedContent)
}

func convertToText(contentHTML string) (string, error) {
	documentRoot, parseError := html.Parse(strings.NewReader(contentHTML))
	if parseError != nil {
		return "", fmt.Errorf(textConversionErrorTemplateConstant, parseError)
	}
	return collectNodeText(documentRoot), nil
}
