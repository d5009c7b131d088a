package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkops/forksync/internal/extract"
)

func TestParseOutputFormat(testInstance *testing.T) {
	testCases := []struct {
		name           string
		formatValue    string
		expectedFormat extract.OutputFormat
		expectError    bool
	}{
		{name: "html", formatValue: "html", expectedFormat: extract.OutputFormatHTML},
		{name: "markdown", formatValue: "markdown", expectedFormat: extract.OutputFormatMarkdown},
		{name: "text", formatValue: "text", expectedFormat: extract.OutputFormatText},
		{name: "mixed_case", formatValue: " Markdown ", expectedFormat: extract.OutputFormatMarkdown},
		{name: "empty_defaults_to_text", formatValue: "", expectedFormat: extract.OutputFormatText},
		{name: "unsupported", formatValue: "pdf", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedFormat, parseError := extract.ParseOutputFormat(testCase.formatValue)
			if testCase.expectError {
				require.ErrorIs(testInstance, parseError, extract.ErrUnsupportedOutputFormat)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedFormat, parsedFormat)
		})
	}
}

func TestConvertContentPassesHTMLThrough(testInstance *testing.T) {
	contentHTML := "<p>unchanged</p>"
	convertedContent, conversionError := extract.ConvertContent(contentHTML, extract.OutputFormatHTML)
	require.NoError(testInstance, conversionError)
	require.Equal(testInstance, contentHTML, convertedContent)
}

func TestConvertContentProducesMarkdown(testInstance *testing.T) {
	contentHTML := "<h1>Title</h1><p>Hello <b>world</b></p><img src=\"/a.png\">"
	convertedContent, conversionError := extract.ConvertContent(contentHTML, extract.OutputFormatMarkdown)
	require.NoError(testInstance, conversionError)
	require.Contains(testInstance, convertedContent, "# Title")
	require.Contains(testInstance, convertedContent, "**world**")
	require.Contains(testInstance, convertedContent, "![图片](/a.png)")
	require.NotContains(testInstance, convertedContent, "\n\n\n")
}

func TestConvertContentProducesPlainText(testInstance *testing.T) {
	contentHTML := "<div><p>First line</p><p>Second line</p><script>ignored()</script></div>"
	convertedContent, conversionError := extract.ConvertContent(contentHTML, extract.OutputFormatText)
	require.NoError(testInstance, conversionError)
	require.Equal(testInstance, "First line\nSecond line", convertedContent)
	require.NotContains(testInstance, convertedContent, "ignored")
}

func TestConvertContentRejectsUnknownFormat(testInstance *testing.T) {
	_, conversionError := extract.ConvertContent("<p>x</p>", extract.OutputFormat("pdf"))
	require.ErrorIs(testInstance, conversionError, extract.ErrUnsupportedOutputFormat)
}
