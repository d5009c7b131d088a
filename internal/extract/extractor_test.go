package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkops/forksync/internal/extract"
)

const extractorSamplePageConstant = "<html><head><script>var tracker = 1;</script></head><body>" +
	"<nav><a href=\"/\">navigation link</a></nav>" +
	"<article><h1>Release notes</h1><p>The body of the story.</p></article>" +
	"<footer>footer boilerplate</footer>" +
	"</body></html>"

func TestContentExtractorKeepsArticleAndDropsBoilerplate(testInstance *testing.T) {
	extractor := extract.NewContentExtractor()

	mainContent, extractionError := extractor.ExtractMainContent(extractorSamplePageConstant)
	require.NoError(testInstance, extractionError)
	require.Contains(testInstance, mainContent, "Release notes")
	require.Contains(testInstance, mainContent, "The body of the story.")
	require.NotContains(testInstance, mainContent, "navigation link")
	require.NotContains(testInstance, mainContent, "footer boilerplate")
	require.NotContains(testInstance, mainContent, "tracker")
}

func TestContentExtractorSelectsMarkedContainer(testInstance *testing.T) {
	pageHTML := "<html><body>" +
		"<div class=\"sidebar\">short sidebar text</div>" +
		"<div class=\"article-content\"><p>A much longer main body that carries the page's substance.</p></div>" +
		"</body></html>"
	extractor := extract.NewContentExtractor()

	mainContent, extractionError := extractor.ExtractMainContent(pageHTML)
	require.NoError(testInstance, extractionError)
	require.Contains(testInstance, mainContent, "substance")
	require.NotContains(testInstance, mainContent, "sidebar text")
}

func TestContentExtractorFallsBackToBody(testInstance *testing.T) {
	pageHTML := "<html><body><p>bare paragraph</p></body></html>"
	extractor := extract.NewContentExtractor()

	mainContent, extractionError := extractor.ExtractMainContent(pageHTML)
	require.NoError(testInstance, extractionError)
	require.Contains(testInstance, mainContent, "bare paragraph")
}
